package booktypes

import "github.com/shopspring/decimal"

// BookType は貸出規定（種別・1日あたりの延滞料・貸出日数）
type BookType struct {
	ID       uint64          `db:"id"`
	Type     string          `db:"type"`
	Fine     decimal.Decimal `db:"fine"`
	DayCount int             `db:"day_count"`
}
