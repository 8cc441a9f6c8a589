package booktypes

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/listing"
)

type TypeStore interface {
	Create(ctx context.Context, t *BookType) error
	Get(ctx context.Context, id uint64) (*BookType, error)
	Update(ctx context.Context, t *BookType) error
	Delete(ctx context.Context, id uint64) (int64, error)
	List(ctx context.Context, q listing.Query, order exp.OrderedExpression) ([]BookType, int64, error)
}

type Store struct{ db *sqlx.DB }

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

var SortKeys = listing.NewSortKeys("id", map[string]exp.Orderable{
	"id":        goqu.I("id"),
	"type":      goqu.I("type"),
	"fine":      goqu.I("fine"),
	"day_count": goqu.I("day_count"),
})

func (s *Store) Create(ctx context.Context, t *BookType) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO book_types (type, fine, day_count) VALUES (?, ?, ?)`, t.Type, t.Fine, t.DayCount)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (s *Store) Get(ctx context.Context, id uint64) (*BookType, error) {
	var t BookType
	err := s.db.GetContext(ctx, &t, `SELECT id, type, fine, day_count FROM book_types WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.NotFound("book type not found")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) Update(ctx context.Context, t *BookType) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE book_types SET type = ?, fine = ?, day_count = ? WHERE id = ?`, t.Type, t.Fine, t.DayCount, t.ID)
	return err
}

func (s *Store) Delete(ctx context.Context, id uint64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM book_types WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context, q listing.Query, order exp.OrderedExpression) ([]BookType, int64, error) {
	ds := listing.From("book_types").Select("id", "type", "fine", "day_count")
	ds = listing.Where(ds, listing.Search(q.Search, "type"))
	return listing.Fetch[BookType](ctx, s.db, ds, order, q.Page)
}
