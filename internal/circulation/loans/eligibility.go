package loans

import (
	"fmt"

	"LIBRA-backend/internal/platform/apierr"
)

const DefaultMaxOpenPerClient = 10

// Snapshot は貸出可否の判定時点での件数
type Snapshot struct {
	ClientOpen int // 利用者の未返却冊数
	BookOpen   int // その本の未返却冊数
	Copies     int // 蔵書数
}

// CheckEligibility は利用者の上限を先に判定する
func CheckEligibility(s Snapshot, maxPerClient int) error {
	if s.ClientOpen >= maxPerClient {
		return apierr.New(apierr.CodeClientLoanLimitExceeded,
			fmt.Sprintf("client already holds %d books (limit %d)", s.ClientOpen, maxPerClient))
	}
	if s.BookOpen >= s.Copies {
		return apierr.New(apierr.CodeNoCopiesAvailable,
			fmt.Sprintf("all %d copies are on loan", s.Copies))
	}
	return nil
}
