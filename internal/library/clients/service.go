package clients

import (
	"context"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/listing"
)

type Service struct{ store ClientStore }

func NewService(store ClientStore) *Service { return &Service{store: store} }

func (s *Service) Create(ctx context.Context, in ClientInput) (ClientResponse, error) {
	c, err := validate(in)
	if err != nil {
		return ClientResponse{}, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return ClientResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "create client failed")
	}
	return toResponse(c), nil
}

func (s *Service) Get(ctx context.Context, id uint64) (ClientResponse, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return ClientResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "get client failed")
	}
	return toResponse(c), nil
}

func (s *Service) Update(ctx context.Context, id uint64, in ClientInput) (ClientResponse, error) {
	c, err := validate(in)
	if err != nil {
		return ClientResponse{}, err
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return ClientResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "update client failed")
	}
	c.ID = id
	if err := s.store.Update(ctx, c); err != nil {
		return ClientResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "update client failed")
	}
	return toResponse(c), nil
}

// 貸出履歴のある利用者は削除できない
func (s *Service) Delete(ctx context.Context, id uint64) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		if apierr.IsReferenced(err) {
			return apierr.Conflict("client has loan records")
		}
		return apierr.WrapUnknown(err, apierr.CodeInternal, "delete client failed")
	}
	if n == 0 {
		return apierr.NotFound("client not found")
	}
	return nil
}

func (s *Service) List(ctx context.Context, q listing.Query) (ClientList, error) {
	order, err := SortKeys.Resolve(q.Sort)
	if err != nil {
		return ClientList{}, err
	}
	rows, total, err := s.store.List(ctx, q, order)
	if err != nil {
		return ClientList{}, apierr.WrapUnknown(err, apierr.CodeInternal, "list clients failed")
	}
	items := make([]ClientResponse, 0, len(rows))
	for i := range rows {
		items = append(items, toResponse(&rows[i]))
	}
	return listing.NewResult(items, total, q.Page), nil
}
