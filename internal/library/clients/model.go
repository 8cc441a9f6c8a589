package clients

import (
	"database/sql"
	"strings"
)

type Client struct {
	ID             uint64         `db:"id"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	FatherName     sql.NullString `db:"father_name"`
	PassportSeria  string         `db:"passport_seria"`
	PassportNumber string         `db:"passport_number"`
}

// FullName: 姓 名 父称
func (c *Client) FullName() string {
	parts := []string{c.LastName, c.FirstName}
	if c.FatherName.Valid && c.FatherName.String != "" {
		parts = append(parts, c.FatherName.String)
	}
	return strings.Join(parts, " ")
}
