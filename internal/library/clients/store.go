package clients

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

type ClientStore interface {
	Create(ctx context.Context, c *Client) error
	Get(ctx context.Context, id uint64) (*Client, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id uint64) (int64, error)
	List(ctx context.Context, q listing.Query, order exp.OrderedExpression) ([]Client, int64, error)
}

type Store struct{ db *sqlx.DB }

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

var columns = []any{"id", "first_name", "last_name", "father_name", "passport_seria", "passport_number"}

var SortKeys = listing.NewSortKeys("id", map[string]exp.Orderable{
	"id":              goqu.I("id"),
	"last_name":       goqu.I("last_name"),
	"first_name":      goqu.I("first_name"),
	"father_name":     goqu.I("father_name"),
	"passport_seria":  goqu.I("passport_seria"),
	"passport_number": goqu.I("passport_number"),
})

func (s *Store) Create(ctx context.Context, c *Client) error {
	const q = `
	INSERT INTO clients (first_name, last_name, father_name, passport_seria, passport_number)
	VALUES (?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, c.FirstName, c.LastName, c.FatherName, c.PassportSeria, c.PassportNumber)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (s *Store) Get(ctx context.Context, id uint64) (*Client, error) {
	const q = `
	SELECT id, first_name, last_name, father_name, passport_seria, passport_number
	FROM clients WHERE id = ?`
	var c Client
	err := s.db.GetContext(ctx, &c, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.NotFound("client not found")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) Update(ctx context.Context, c *Client) error {
	const q = `
	UPDATE clients
	SET first_name = ?, last_name = ?, father_name = ?, passport_seria = ?, passport_number = ?
	WHERE id = ?`
	_, err := s.db.ExecContext(ctx, q, c.FirstName, c.LastName, c.FatherName, c.PassportSeria, c.PassportNumber, c.ID)
	return err
}

func (s *Store) Delete(ctx context.Context, id uint64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context, q listing.Query, order exp.OrderedExpression) ([]Client, int64, error) {
	ds := listing.From("clients").Select(columns...)
	ds = listing.Where(ds, listing.Search(q.Search,
		"last_name", "first_name", "father_name", "passport_seria", "passport_number"))
	return listing.Fetch[Client](ctx, s.db, ds, order, q.Page)
}
