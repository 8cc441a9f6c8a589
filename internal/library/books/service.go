package books

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/listing"
)

const (
	maxNameLen = 50
	maxCnt     = math.MaxUint32 // INT UNSIGNED
)

type Service struct{ store BookStore }

func NewService(store BookStore) *Service { return &Service{store: store} }

func duplicate(name string) error {
	return apierr.New(apierr.CodeDuplicateCatalogEntry, fmt.Sprintf("book %q already exists", name))
}

// validate は入力チェックに加えて名前の重複（大文字小文字無視）と規定の存在を確認する
func (s *Service) validate(ctx context.Context, id uint64, in BookInput) (*Book, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return nil, apierr.Invalid("name must be 1-50 characters")
	}
	if in.Cnt < 0 || int64(in.Cnt) > maxCnt {
		return nil, apierr.Invalid(fmt.Sprintf("cnt must be 0-%d", int64(maxCnt)))
	}
	if in.TypeID == 0 {
		return nil, apierr.Invalid("type_id required")
	}
	ok, err := s.store.TypeExists(ctx, in.TypeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.Invalid("type_id does not exist")
	}
	taken, err := s.store.NameTaken(ctx, name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, duplicate(name)
	}
	return &Book{ID: id, Name: name, Cnt: in.Cnt, TypeID: in.TypeID}, nil
}

// 並行登録で一意キーに当たった場合も同じエラーにする
func mapWriteErr(err error, name, msg string) error {
	switch {
	case apierr.IsDuplicate(err):
		return duplicate(name)
	case apierr.IsMissingReference(err):
		return apierr.Invalid("type_id does not exist")
	}
	return apierr.WrapUnknown(err, apierr.CodeInternal, msg)
}

func (s *Service) Create(ctx context.Context, in BookInput) (BookResponse, error) {
	b, err := s.validate(ctx, 0, in)
	if err != nil {
		return BookResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "create book failed")
	}
	if err := s.store.Create(ctx, b); err != nil {
		return BookResponse{}, mapWriteErr(err, b.Name, "create book failed")
	}
	return s.Get(ctx, b.ID)
}

func (s *Service) Get(ctx context.Context, id uint64) (BookResponse, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return BookResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "get book failed")
	}
	return toResponse(b), nil
}

func (s *Service) Update(ctx context.Context, id uint64, in BookInput) (BookResponse, error) {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return BookResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "update book failed")
	}
	b, err := s.validate(ctx, id, in)
	if err != nil {
		return BookResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "update book failed")
	}
	if onLoan := cur.OnLoan(); b.Cnt < onLoan {
		return BookResponse{}, apierr.Invalid(fmt.Sprintf("cnt must be >= %d (copies on loan)", onLoan))
	}
	if err := s.store.Update(ctx, b); err != nil {
		return BookResponse{}, mapWriteErr(err, b.Name, "update book failed")
	}
	return s.Get(ctx, id)
}

// 貸出履歴のある本は削除できない
func (s *Service) Delete(ctx context.Context, id uint64) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		if apierr.IsReferenced(err) {
			return apierr.Conflict("book has loan records")
		}
		return apierr.WrapUnknown(err, apierr.CodeInternal, "delete book failed")
	}
	if n == 0 {
		return apierr.NotFound("book not found")
	}
	return nil
}

func (s *Service) List(ctx context.Context, q listing.Query) (BookList, error) {
	return s.list(ctx, q, false)
}

// ListAvailable は貸出可能な冊数が残っている本だけ
func (s *Service) ListAvailable(ctx context.Context, q listing.Query) (BookList, error) {
	return s.list(ctx, q, true)
}

func (s *Service) list(ctx context.Context, q listing.Query, onlyAvailable bool) (BookList, error) {
	order, err := SortKeys.Resolve(q.Sort)
	if err != nil {
		return BookList{}, err
	}
	rows, total, err := s.store.List(ctx, q, order, onlyAvailable)
	if err != nil {
		return BookList{}, apierr.WrapUnknown(err, apierr.CodeInternal, "list books failed")
	}
	items := make([]BookResponse, 0, len(rows))
	for i := range rows {
		items = append(items, toResponse(&rows[i]))
	}
	return listing.NewResult(items, total, q.Page), nil
}
