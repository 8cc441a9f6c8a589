package loans

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/listing"
)

// IssuePlan はロック取得後の件数と規定から挿入する行を決める。エラーならロールバック。
type IssuePlan func(snap Snapshot, p Policy) (*Loan, error)

type LoanStore interface {
	Issue(ctx context.Context, clientID, bookID uint64, plan IssuePlan) (*Loan, error)
	MarkReturned(ctx context.Context, id uint64, on time.Time) (int64, error)
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	GetByULID(ctx context.Context, ulid string) (*Loan, error)
	List(ctx context.Context, f ListFilter, q listing.Query, order exp.OrderedExpression) ([]Loan, int64, error)
	Delete(ctx context.Context, id uint64) (int64, error)
}

type Store struct{ db *sqlx.DB }

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

var SortKeys = listing.NewSortKeys("-id", map[string]exp.Orderable{
	"id":       goqu.I("j.id"),
	"date_beg": goqu.I("j.date_beg"),
	"date_end": goqu.I("j.date_end"),
	"date_ret": goqu.I("j.date_ret"),
	"client":   goqu.I("c.last_name"),
	"book":     goqu.I("b.name"),
})

func baseSelect() *goqu.SelectDataset {
	return listing.From(goqu.T("journal").As("j")).
		Join(goqu.T("clients").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("j.client_id")))).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("j.book_id")))).
		Join(goqu.T("book_types").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("b.type_id")))).
		Select(
			goqu.I("j.id"), goqu.I("j.ulid"), goqu.I("j.client_id"), goqu.I("j.book_id"),
			goqu.I("j.date_beg"), goqu.I("j.date_end"), goqu.I("j.date_ret"),
			goqu.L("CONCAT(c.last_name, ' ', c.first_name)").As("client_name"),
			goqu.I("b.name").As("book_name"),
			goqu.I("t.fine"),
		)
}

func (s *Store) getOne(ctx context.Context, q db.DBTX, where exp.Expression) (*Loan, error) {
	query, args, err := baseSelect().Where(where).Limit(1).ToSQL()
	if err != nil {
		return nil, err
	}
	var l Loan
	if err := q.GetContext(ctx, &l, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("loan not found")
		}
		return nil, err
	}
	return &l, nil
}

func (s *Store) GetByID(ctx context.Context, id uint64) (*Loan, error) {
	return s.getOne(ctx, s.db, goqu.I("j.id").Eq(id))
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*Loan, error) {
	return s.getOne(ctx, s.db, goqu.I("j.ulid").Eq(ulid))
}

func (s *Store) List(ctx context.Context, f ListFilter, q listing.Query, order exp.OrderedExpression) ([]Loan, int64, error) {
	ds := listing.Where(baseSelect(),
		listing.Search(q.Search, "c.last_name", "c.first_name", "b.name"),
	)
	if f.Open != nil {
		if *f.Open {
			ds = ds.Where(goqu.I("j.date_ret").IsNull())
		} else {
			ds = ds.Where(goqu.I("j.date_ret").IsNotNull())
		}
	}
	if f.ClientID != nil {
		ds = ds.Where(goqu.I("j.client_id").Eq(*f.ClientID))
	}
	if f.BookID != nil {
		ds = ds.Where(goqu.I("j.book_id").Eq(*f.BookID))
	}
	return listing.Fetch[Loan](ctx, s.db, ds, order, q.Page)
}

// Issue: 利用者・本の行をロック -> 件数取得 -> plan -> INSERT を1トランザクションで行う
func (s *Store) Issue(ctx context.Context, clientID, bookID uint64, plan IssuePlan) (*Loan, error) {
	var out *Loan
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var lockedClient uint64
		if err := tx.GetContext(ctx, &lockedClient, `SELECT id FROM clients WHERE id = ? FOR UPDATE`, clientID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apierr.NotFound("client not found")
			}
			return err
		}

		var book struct {
			Copies int `db:"cnt"`
			Policy
		}
		const qBook = `
		SELECT b.cnt, t.day_count, t.fine
		FROM books b JOIN book_types t ON t.id = b.type_id
		WHERE b.id = ?
		FOR UPDATE OF b`
		if err := tx.GetContext(ctx, &book, qBook, bookID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apierr.NotFound("book not found")
			}
			return err
		}

		snap := Snapshot{Copies: book.Copies}
		if err := tx.GetContext(ctx, &snap.ClientOpen,
			`SELECT COUNT(*) FROM journal WHERE client_id = ? AND date_ret IS NULL`, clientID); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &snap.BookOpen,
			`SELECT COUNT(*) FROM journal WHERE book_id = ? AND date_ret IS NULL`, bookID); err != nil {
			return err
		}

		l, err := plan(snap, book.Policy)
		if err != nil {
			return err
		}

		const qIns = `
		INSERT INTO journal (ulid, client_id, book_id, date_beg, date_end, date_ret)
		VALUES (?, ?, ?, ?, ?, NULL)`
		res, err := tx.ExecContext(ctx, qIns, l.ULID, clientID, bookID, l.DateBeg, l.DateEnd)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}

		out, err = s.getOne(ctx, tx, goqu.I("j.id").Eq(uint64(id)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkReturned は未返却の時だけ date_ret を埋める。更新件数を返す。
func (s *Store) MarkReturned(ctx context.Context, id uint64, on time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE journal SET date_ret = ? WHERE id = ? AND date_ret IS NULL`, on, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Delete(ctx context.Context, id uint64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM journal WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
