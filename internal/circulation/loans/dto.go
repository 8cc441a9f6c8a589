package loans

import (
	"time"

	"LIBRA-backend/internal/circulation/fines"
	"LIBRA-backend/internal/platform/clock"
	"LIBRA-backend/internal/platform/listing"
)

type IssueRequest struct {
	ClientID uint64 `json:"client_id"`
	BookID   uint64 `json:"book_id"`
	DateBeg  string `json:"date_beg,omitempty"` // "2006-01-02"。省略時は今日
}

type LoanResponse struct {
	ID          uint64  `json:"id"`
	ULID        string  `json:"ulid"`
	ClientID    uint64  `json:"client_id"`
	ClientName  string  `json:"client_name"`
	BookID      uint64  `json:"book_id"`
	BookName    string  `json:"book_name"`
	DateBeg     string  `json:"date_beg"`
	DateEnd     string  `json:"date_end"`
	DateRet     *string `json:"date_ret"`
	Open        bool    `json:"open"`
	DaysOverdue int64   `json:"days_overdue"`
	Fine        string  `json:"fine"`
}

type LoanList = listing.Result[LoanResponse]

// toResponse: 未返却なら today 時点の延滞料、返却済みなら確定した延滞料
func toResponse(l *Loan, today time.Time) LoanResponse {
	r := LoanResponse{
		ID:         l.ID,
		ULID:       l.ULID,
		ClientID:   l.ClientID,
		ClientName: l.ClientName,
		BookID:     l.BookID,
		BookName:   l.BookName,
		DateBeg:    l.DateBeg.Format(clock.DateLayout),
		DateEnd:    l.DateEnd.Format(clock.DateLayout),
		Open:       l.Open(),
	}
	compare := today
	if l.DateRet.Valid {
		s := l.DateRet.Time.Format(clock.DateLayout)
		r.DateRet = &s
		compare = l.DateRet.Time
	}
	r.DaysOverdue = fines.DaysOverdue(l.DateEnd, compare)
	r.Fine = fines.ForLoan(l.DateEnd, compare, l.Rate).StringFixed(2)
	return r
}
