// Package fines は延滞料の計算。DBには触らない。
package fines

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"LIBRA-backend/internal/platform/clock"
)

// Loan は計算に必要な貸出の最小限の情報
type Loan struct {
	ID       uint64
	ClientID uint64
	Due      time.Time
	Returned *time.Time
	Rate     decimal.Decimal // 1日あたり
}

func (l Loan) Closed() bool { return l.Returned != nil }

type OverdueLoan struct {
	Loan
	Days int64
	Fine decimal.Decimal
}

const day = 24 * time.Hour

// DaysOverdue は compare が due より後なら経過日数（整数日）、そうでなければ 0
func DaysOverdue(due, compare time.Time) int64 {
	d := clock.Date(compare).Sub(clock.Date(due))
	if d <= 0 {
		return 0
	}
	return int64(d / day)
}

func ForLoan(due, returned time.Time, rate decimal.Decimal) decimal.Decimal {
	days := DaysOverdue(due, returned)
	if days == 0 || rate.IsNegative() {
		return decimal.Zero
	}
	return rate.Mul(decimal.NewFromInt(days))
}

// Max は返却済み貸出の延滞料の最大値。対象が無ければ 0。
func Max(loans []Loan) decimal.Decimal {
	best := decimal.Zero
	for _, l := range loans {
		if !l.Closed() {
			continue
		}
		if f := ForLoan(l.Due, *l.Returned, l.Rate); f.GreaterThan(best) {
			best = f
		}
	}
	return best
}

// TotalForClient は返却済み貸出の延滞料の合計（呼び出し側で利用者を絞ること）
func TotalForClient(loans []Loan) decimal.Decimal {
	total := decimal.Zero
	for _, l := range loans {
		if l.Closed() {
			total = total.Add(ForLoan(l.Due, *l.Returned, l.Rate))
		}
	}
	return total
}

// Overdue は today 時点で延滞中の未返却貸出を延滞料の降順で返す
func Overdue(open []Loan, today time.Time) []OverdueLoan {
	out := make([]OverdueLoan, 0, len(open))
	for _, l := range open {
		if l.Closed() {
			continue
		}
		days := DaysOverdue(l.Due, today)
		if days == 0 {
			continue
		}
		out = append(out, OverdueLoan{Loan: l, Days: days, Fine: ForLoan(l.Due, today, l.Rate)})
	}
	slices.SortStableFunc(out, func(a, b OverdueLoan) int {
		if c := b.Fine.Cmp(a.Fine); c != 0 {
			return c
		}
		if c := a.Due.Compare(b.Due); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
