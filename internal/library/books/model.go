package books

import "github.com/shopspring/decimal"

// Book は蔵書（書名ごとに冊数を持つ）と、その規定・貸出可能冊数
type Book struct {
	ID     uint64 `db:"id"`
	Name   string `db:"name"`
	Cnt    int    `db:"cnt"`
	TypeID uint64 `db:"type_id"`

	TypeName  string          `db:"type"`
	Fine      decimal.Decimal `db:"fine"`
	DayCount  int             `db:"day_count"`
	Available int             `db:"available"`
}

// OnLoan は未返却の冊数
func (b *Book) OnLoan() int { return b.Cnt - b.Available }
