package loans

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"LIBRA-backend/internal/platform/apierr"
)

func TestCheckEligibility(t *testing.T) {
	cases := []struct {
		name string
		snap Snapshot
		code apierr.Code // 空なら許可
	}{
		{"ok", Snapshot{ClientOpen: 0, BookOpen: 0, Copies: 1}, ""},
		{"ninth and tenth loan", Snapshot{ClientOpen: 9, BookOpen: 0, Copies: 3}, ""},
		{"eleventh loan", Snapshot{ClientOpen: 10, BookOpen: 0, Copies: 3}, apierr.CodeClientLoanLimitExceeded},
		{"last copy", Snapshot{ClientOpen: 0, BookOpen: 1, Copies: 2}, ""},
		{"third loan of two copies", Snapshot{ClientOpen: 0, BookOpen: 2, Copies: 2}, apierr.CodeNoCopiesAvailable},
		{"no copies at all", Snapshot{Copies: 0}, apierr.CodeNoCopiesAvailable},
		{"client cap wins", Snapshot{ClientOpen: 10, BookOpen: 2, Copies: 2}, apierr.CodeClientLoanLimitExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckEligibility(tc.snap, DefaultMaxOpenPerClient)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apierr.Is(err, tc.code), "got %v", err)
		})
	}
}
