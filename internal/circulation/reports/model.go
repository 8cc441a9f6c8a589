package reports

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"LIBRA-backend/internal/circulation/fines"
)

type loanRow struct {
	ID         uint64          `db:"id"`
	ClientID   uint64          `db:"client_id"`
	DateEnd    time.Time       `db:"date_end"`
	DateRet    sql.NullTime    `db:"date_ret"`
	Rate       decimal.Decimal `db:"fine"`
	ClientName string          `db:"client_name"`
	BookName   string          `db:"book_name"`
}

func (r loanRow) forFines() fines.Loan {
	l := fines.Loan{ID: r.ID, ClientID: r.ClientID, Due: r.DateEnd, Rate: r.Rate}
	if r.DateRet.Valid {
		t := r.DateRet.Time
		l.Returned = &t
	}
	return l
}

// TitleCount は書名ごとの貸出回数
type TitleCount struct {
	Name  string `db:"name" json:"name"`
	Count int    `db:"cnt" json:"count"`
}

type LibraryStats struct {
	MaxFine string       `json:"max_fine"`
	Popular []TitleCount `json:"popular"`
}

type ClientReport struct {
	ClientID    uint64 `json:"client_id"`
	FullName    string `json:"full_name"`
	BooksOnHand int    `json:"books_on_hand"`
	TotalFine   string `json:"total_fine"`
}

type OverdueItem struct {
	LoanID      uint64 `json:"loan_id"`
	ClientName  string `json:"client_name"`
	BookName    string `json:"book_name"`
	DateEnd     string `json:"date_end"`
	DaysOverdue int64  `json:"days_overdue"`
	Fine        string `json:"fine"`
}

type OverdueReport struct {
	Date  string        `json:"date"`
	Items []OverdueItem `json:"items"`
}
