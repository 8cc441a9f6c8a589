package loans

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Loan は journal の1行（一覧・詳細用に利用者名・書名・料金を結合済み）
type Loan struct {
	ID       uint64       `db:"id"`
	ULID     string       `db:"ulid"`
	ClientID uint64       `db:"client_id"`
	BookID   uint64       `db:"book_id"`
	DateBeg  time.Time    `db:"date_beg"`
	DateEnd  time.Time    `db:"date_end"`
	DateRet  sql.NullTime `db:"date_ret"`

	ClientName string          `db:"client_name"`
	BookName   string          `db:"book_name"`
	Rate       decimal.Decimal `db:"fine"`
}

func (l *Loan) Open() bool { return !l.DateRet.Valid }

// Policy は貸出対象の本に適用される規定
type Policy struct {
	DayCount int             `db:"day_count"`
	Fine     decimal.Decimal `db:"fine"`
}

type ListFilter struct {
	Open     *bool
	ClientID *uint64
	BookID   *uint64
}
