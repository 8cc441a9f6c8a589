package loans

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9/exp"
	"github.com/shopspring/decimal"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/listing"
)

type memBook struct {
	name   string
	copies int
	policy Policy
}

// memStore は LoanStore のインメモリ実装。mu がトランザクションの代わり。
type memStore struct {
	mu      sync.Mutex
	clients map[uint64]string
	books   map[uint64]memBook
	loans   []Loan
	failOn  string // "insert" / "return" で擬似障害
}

func newMemStore() *memStore {
	return &memStore{clients: map[uint64]string{}, books: map[uint64]memBook{}}
}

func (m *memStore) addClient(id uint64, name string) { m.clients[id] = name }

func (m *memStore) addBook(id uint64, name string, copies, days int, fine string) {
	m.books[id] = memBook{name: name, copies: copies, policy: Policy{DayCount: days, Fine: decimal.RequireFromString(fine)}}
}

func (m *memStore) countOpen(match func(Loan) bool) int {
	n := 0
	for _, l := range m.loans {
		if l.Open() && match(l) {
			n++
		}
	}
	return n
}

func (m *memStore) Issue(_ context.Context, clientID, bookID uint64, plan IssuePlan) (*Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name, ok := m.clients[clientID]
	if !ok {
		return nil, apierr.NotFound("client not found")
	}
	b, ok := m.books[bookID]
	if !ok {
		return nil, apierr.NotFound("book not found")
	}
	snap := Snapshot{
		ClientOpen: m.countOpen(func(l Loan) bool { return l.ClientID == clientID }),
		BookOpen:   m.countOpen(func(l Loan) bool { return l.BookID == bookID }),
		Copies:     b.copies,
	}
	l, err := plan(snap, b.policy)
	if err != nil {
		return nil, err
	}
	if m.failOn == "insert" {
		return nil, errors.New("connection reset")
	}
	l.ID = uint64(len(m.loans) + 1)
	l.ClientName = name
	l.BookName = b.name
	l.Rate = b.policy.Fine
	m.loans = append(m.loans, *l)
	cp := *l
	return &cp, nil
}

func (m *memStore) MarkReturned(_ context.Context, id uint64, on time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "return" {
		return 0, errors.New("connection reset")
	}
	for i := range m.loans {
		if m.loans[i].ID == id && m.loans[i].Open() {
			m.loans[i].DateRet = sql.NullTime{Time: on, Valid: true}
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memStore) find(match func(Loan) bool) (*Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loans {
		if match(l) {
			cp := l
			return &cp, nil
		}
	}
	return nil, apierr.NotFound("loan not found")
}

func (m *memStore) GetByID(_ context.Context, id uint64) (*Loan, error) {
	return m.find(func(l Loan) bool { return l.ID == id })
}

func (m *memStore) GetByULID(_ context.Context, u string) (*Loan, error) {
	return m.find(func(l Loan) bool { return l.ULID == u })
}

func (m *memStore) List(_ context.Context, f ListFilter, q listing.Query, _ exp.OrderedExpression) ([]Loan, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Loan
	for _, l := range m.loans {
		if f.Open != nil && l.Open() != *f.Open {
			continue
		}
		if f.ClientID != nil && l.ClientID != *f.ClientID {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (m *memStore) Delete(_ context.Context, id uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.loans {
		if l.ID == id {
			m.loans = append(m.loans[:i], m.loans[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}
