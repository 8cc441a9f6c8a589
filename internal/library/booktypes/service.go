package booktypes

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/listing"
)

const (
	maxTypeLen  = 20
	maxDayCount = 36500 // 100年
)

// DECIMAL(10,2) の上限
var maxFine = decimal.RequireFromString("99999999.99")

type Service struct{ store TypeStore }

func NewService(store TypeStore) *Service { return &Service{store: store} }

func validate(in TypeInput) (*BookType, error) {
	label := strings.TrimSpace(in.Type)
	if label == "" || utf8.RuneCountInString(label) > maxTypeLen {
		return nil, apierr.Invalid("type must be 1-20 characters")
	}
	fine, err := decimal.NewFromString(strings.TrimSpace(in.Fine))
	if err != nil {
		return nil, apierr.Invalid("fine must be a decimal number")
	}
	if fine.IsNegative() {
		return nil, apierr.Invalid("fine must be >= 0")
	}
	if !fine.Equal(fine.Truncate(2)) {
		return nil, apierr.Invalid("fine must have at most 2 decimal places")
	}
	if fine.GreaterThan(maxFine) {
		return nil, apierr.Invalid("fine must be <= " + maxFine.StringFixed(2))
	}
	if in.DayCount <= 0 || in.DayCount > maxDayCount {
		return nil, apierr.Invalid(fmt.Sprintf("day_count must be 1-%d", maxDayCount))
	}
	return &BookType{Type: label, Fine: fine, DayCount: in.DayCount}, nil
}

func (s *Service) Create(ctx context.Context, in TypeInput) (TypeResponse, error) {
	t, err := validate(in)
	if err != nil {
		return TypeResponse{}, err
	}
	if err := s.store.Create(ctx, t); err != nil {
		return TypeResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "create book type failed")
	}
	return toResponse(t), nil
}

func (s *Service) Get(ctx context.Context, id uint64) (TypeResponse, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return TypeResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "get book type failed")
	}
	return toResponse(t), nil
}

func (s *Service) Update(ctx context.Context, id uint64, in TypeInput) (TypeResponse, error) {
	t, err := validate(in)
	if err != nil {
		return TypeResponse{}, err
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return TypeResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "update book type failed")
	}
	t.ID = id
	if err := s.store.Update(ctx, t); err != nil {
		return TypeResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "update book type failed")
	}
	return toResponse(t), nil
}

// 本から参照されている規定は削除できない
func (s *Service) Delete(ctx context.Context, id uint64) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		if apierr.IsReferenced(err) {
			return apierr.Conflict("book type is used by books")
		}
		return apierr.WrapUnknown(err, apierr.CodeInternal, "delete book type failed")
	}
	if n == 0 {
		return apierr.NotFound("book type not found")
	}
	return nil
}

func (s *Service) List(ctx context.Context, q listing.Query) (TypeList, error) {
	order, err := SortKeys.Resolve(q.Sort)
	if err != nil {
		return TypeList{}, err
	}
	rows, total, err := s.store.List(ctx, q, order)
	if err != nil {
		return TypeList{}, apierr.WrapUnknown(err, apierr.CodeInternal, "list book types failed")
	}
	items := make([]TypeResponse, 0, len(rows))
	for i := range rows {
		items = append(items, toResponse(&rows[i]))
	}
	return listing.NewResult(items, total, q.Page), nil
}
