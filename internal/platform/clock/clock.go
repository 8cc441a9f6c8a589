package clock

import "time"

const DateLayout = "2006-01-02"

type Clock interface{ Now() time.Time }

type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

// Fixed はテスト用の固定時計
type Fixed struct{ T time.Time }

func (f Fixed) Now() time.Time { return f.T }

// Date truncates t to midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Today(c Clock) time.Time { return Date(c.Now()) }

// ParseDate parses "YYYY-MM-DD" in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
