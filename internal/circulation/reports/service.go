package reports

import (
	"cmp"
	"context"
	"slices"

	"LIBRA-backend/internal/circulation/fines"
	"LIBRA-backend/internal/library/clients"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/clock"
)

const PopularLimit = 3

type ClientLookup interface {
	Get(ctx context.Context, id uint64) (*clients.Client, error)
}

type Service struct {
	store   ReportStore
	clients ClientLookup
	clock   clock.Clock
}

func NewService(store ReportStore, cl ClientLookup, clk clock.Clock) *Service {
	return &Service{store: store, clients: cl, clock: clk}
}

// TopTitles は貸出回数の降順（同数は書名順）で上位 n 件
func TopTitles(counts []TitleCount, n int) []TitleCount {
	out := slices.Clone(counts)
	slices.SortFunc(out, func(a, b TitleCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []TitleCount{}
	}
	return out
}

func toFines(rows []loanRow) []fines.Loan {
	out := make([]fines.Loan, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.forFines())
	}
	return out
}

func (s *Service) LibraryStats(ctx context.Context) (LibraryStats, error) {
	late, err := s.store.LateReturns(ctx, nil)
	if err != nil {
		return LibraryStats{}, apierr.WrapUnknown(err, apierr.CodeInternal, "library stats failed")
	}
	counts, err := s.store.TitleCounts(ctx)
	if err != nil {
		return LibraryStats{}, apierr.WrapUnknown(err, apierr.CodeInternal, "library stats failed")
	}
	return LibraryStats{
		MaxFine: fines.Max(toFines(late)).StringFixed(2),
		Popular: TopTitles(counts, PopularLimit),
	}, nil
}

func (s *Service) ClientReport(ctx context.Context, clientID uint64) (ClientReport, error) {
	c, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return ClientReport{}, apierr.WrapUnknown(err, apierr.CodeInternal, "client report failed")
	}
	onHand, err := s.store.OpenCount(ctx, clientID)
	if err != nil {
		return ClientReport{}, apierr.WrapUnknown(err, apierr.CodeInternal, "client report failed")
	}
	late, err := s.store.LateReturns(ctx, &clientID)
	if err != nil {
		return ClientReport{}, apierr.WrapUnknown(err, apierr.CodeInternal, "client report failed")
	}
	return ClientReport{
		ClientID:    c.ID,
		FullName:    c.FullName(),
		BooksOnHand: onHand,
		TotalFine:   fines.TotalForClient(toFines(late)).StringFixed(2),
	}, nil
}

func (s *Service) OverdueReport(ctx context.Context) (OverdueReport, error) {
	today := clock.Today(s.clock)
	rows, err := s.store.OpenOverdue(ctx, today)
	if err != nil {
		return OverdueReport{}, apierr.WrapUnknown(err, apierr.CodeInternal, "overdue report failed")
	}
	byID := make(map[uint64]loanRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	items := []OverdueItem{}
	for _, o := range fines.Overdue(toFines(rows), today) {
		r := byID[o.ID]
		items = append(items, OverdueItem{
			LoanID:      o.ID,
			ClientName:  r.ClientName,
			BookName:    r.BookName,
			DateEnd:     o.Due.Format(clock.DateLayout),
			DaysOverdue: o.Days,
			Fine:        o.Fine.StringFixed(2),
		})
	}
	return OverdueReport{Date: today.Format(clock.DateLayout), Items: items}, nil
}
