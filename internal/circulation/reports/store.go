package reports

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"LIBRA-backend/internal/platform/listing"
)

type ReportStore interface {
	// 期限を過ぎて返却された貸出。clientID が nil なら全員分
	LateReturns(ctx context.Context, clientID *uint64) ([]loanRow, error)
	// today より前に期限が切れた未返却の貸出
	OpenOverdue(ctx context.Context, today time.Time) ([]loanRow, error)
	TitleCounts(ctx context.Context) ([]TitleCount, error)
	OpenCount(ctx context.Context, clientID uint64) (int, error)
}

type Store struct{ db *sqlx.DB }

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

func journalSelect() *goqu.SelectDataset {
	return listing.From(goqu.T("journal").As("j")).
		Join(goqu.T("clients").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("j.client_id")))).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("j.book_id")))).
		Join(goqu.T("book_types").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("b.type_id")))).
		Select(
			goqu.I("j.id"), goqu.I("j.client_id"), goqu.I("j.date_end"), goqu.I("j.date_ret"), goqu.I("t.fine"),
			goqu.L("CONCAT(c.last_name, ' ', c.first_name)").As("client_name"),
			goqu.I("b.name").As("book_name"),
		)
}

func (s *Store) selectRows(ctx context.Context, ds *goqu.SelectDataset) ([]loanRow, error) {
	q, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}
	rows := []loanRow{}
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) LateReturns(ctx context.Context, clientID *uint64) ([]loanRow, error) {
	ds := journalSelect().Where(
		goqu.I("j.date_ret").IsNotNull(),
		goqu.I("j.date_ret").Gt(goqu.I("j.date_end")),
	)
	if clientID != nil {
		ds = ds.Where(goqu.I("j.client_id").Eq(*clientID))
	}
	return s.selectRows(ctx, ds)
}

func (s *Store) OpenOverdue(ctx context.Context, today time.Time) ([]loanRow, error) {
	ds := journalSelect().Where(
		goqu.I("j.date_ret").IsNull(),
		goqu.I("j.date_end").Lt(today),
	)
	return s.selectRows(ctx, ds)
}

func (s *Store) TitleCounts(ctx context.Context) ([]TitleCount, error) {
	const q = `
	SELECT b.name, COUNT(j.id) AS cnt
	FROM books b
	JOIN journal j ON j.book_id = b.id
	GROUP BY b.id, b.name`
	out := []TitleCount{}
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) OpenCount(ctx context.Context, clientID uint64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM journal WHERE client_id = ? AND date_ret IS NULL`, clientID)
	return n, err
}
