package clients

import (
	"database/sql"
	"regexp"
	"strings"
	"unicode/utf8"

	"LIBRA-backend/internal/platform/apierr"
)

const maxNameLen = 20

var (
	cyrillicName   = regexp.MustCompile(`^[А-Яа-яЁё\s-]+$`)
	passportSeria  = regexp.MustCompile(`^[0-9]{4}$`)
	passportNumber = regexp.MustCompile(`^[0-9]{6}$`)
)

func checkName(field, v string) error {
	if v == "" {
		return apierr.Invalid(field + " is required")
	}
	if utf8.RuneCountInString(v) > maxNameLen {
		return apierr.Invalid(field + " must be at most 20 characters")
	}
	if !cyrillicName.MatchString(v) {
		return apierr.Invalid(field + " must contain only Cyrillic letters, spaces and hyphens")
	}
	return nil
}

// validate は作成・更新の両方で使う
func validate(in ClientInput) (*Client, error) {
	c := &Client{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		PassportSeria:  strings.TrimSpace(in.PassportSeria),
		PassportNumber: strings.TrimSpace(in.PassportNumber),
	}
	if err := checkName("last_name", c.LastName); err != nil {
		return nil, err
	}
	if err := checkName("first_name", c.FirstName); err != nil {
		return nil, err
	}
	if in.FatherName != nil {
		if v := strings.TrimSpace(*in.FatherName); v != "" {
			if err := checkName("father_name", v); err != nil {
				return nil, err
			}
			c.FatherName = sql.NullString{String: v, Valid: true}
		}
	}
	if !passportSeria.MatchString(c.PassportSeria) {
		return nil, apierr.Invalid("passport_seria must be exactly 4 digits")
	}
	if !passportNumber.MatchString(c.PassportNumber) {
		return nil, apierr.Invalid("passport_number must be exactly 6 digits")
	}
	return c, nil
}
