package books

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

type BookStore interface {
	Create(ctx context.Context, b *Book) error
	Get(ctx context.Context, id uint64) (*Book, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id uint64) (int64, error)
	List(ctx context.Context, q listing.Query, order exp.OrderedExpression, onlyAvailable bool) ([]Book, int64, error)
	NameTaken(ctx context.Context, name string, exceptID uint64) (bool, error)
	TypeExists(ctx context.Context, typeID uint64) (bool, error)
}

type Store struct{ db *sqlx.DB }

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

var SortKeys = listing.NewSortKeys("id", map[string]exp.Orderable{
	"id":   goqu.I("b.id"),
	"name": goqu.I("b.name"),
	"cnt":  goqu.I("b.cnt"),
	"type": goqu.I("t.type"),
})

// cnt は UNSIGNED なので引き算の前に SIGNED にする
const availableExpr = `CAST(b.cnt AS SIGNED) - (SELECT COUNT(*) FROM journal j WHERE j.book_id = b.id AND j.date_ret IS NULL)`

func baseSelect() *goqu.SelectDataset {
	return listing.From(goqu.T("books").As("b")).
		Join(goqu.T("book_types").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("b.type_id")))).
		Select(
			goqu.I("b.id"), goqu.I("b.name"), goqu.I("b.cnt"), goqu.I("b.type_id"),
			goqu.I("t.type"), goqu.I("t.fine"), goqu.I("t.day_count"),
			goqu.L(availableExpr).As("available"),
		)
}

func (s *Store) Create(ctx context.Context, b *Book) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO books (name, cnt, type_id) VALUES (?, ?, ?)`, b.Name, b.Cnt, b.TypeID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

func (s *Store) Get(ctx context.Context, id uint64) (*Book, error) {
	q, args, err := baseSelect().Where(goqu.I("b.id").Eq(id)).ToSQL()
	if err != nil {
		return nil, err
	}
	var b Book
	if err := s.db.GetContext(ctx, &b, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("book not found")
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) Update(ctx context.Context, b *Book) error {
	_, err := s.db.ExecContext(ctx, `UPDATE books SET name = ?, cnt = ?, type_id = ? WHERE id = ?`, b.Name, b.Cnt, b.TypeID, b.ID)
	return err
}

func (s *Store) Delete(ctx context.Context, id uint64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context, q listing.Query, order exp.OrderedExpression, onlyAvailable bool) ([]Book, int64, error) {
	ds := listing.Where(baseSelect(), listing.Search(q.Search, "b.name", "t.type"))
	if onlyAvailable {
		ds = ds.Where(goqu.L("(" + availableExpr + ") > 0"))
	}
	return listing.Fetch[Book](ctx, s.db, ds, order, q.Page)
}

func (s *Store) NameTaken(ctx context.Context, name string, exceptID uint64) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM books WHERE LOWER(name) = LOWER(?) AND id <> ?`, name, exceptID)
	return n > 0, err
}

func (s *Store) TypeExists(ctx context.Context, typeID uint64) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM book_types WHERE id = ?`, typeID)
	return n > 0, err
}
