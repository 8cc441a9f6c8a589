package booktypes

import (
	"context"
	"testing"

	"github.com/doug-martin/goqu/v9/exp"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/listing"
)

type memStore struct {
	rows  map[uint64]BookType
	next  uint64
	inUse map[uint64]bool
}

func newMemStore() *memStore {
	return &memStore{rows: map[uint64]BookType{}, inUse: map[uint64]bool{}}
}

func (m *memStore) Create(_ context.Context, t *BookType) error {
	m.next++
	t.ID = m.next
	m.rows[t.ID] = *t
	return nil
}

func (m *memStore) Get(_ context.Context, id uint64) (*BookType, error) {
	t, ok := m.rows[id]
	if !ok {
		return nil, apierr.NotFound("book type not found")
	}
	return &t, nil
}

func (m *memStore) Update(_ context.Context, t *BookType) error {
	m.rows[t.ID] = *t
	return nil
}

func (m *memStore) Delete(_ context.Context, id uint64) (int64, error) {
	if m.inUse[id] {
		return 0, &mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"}
	}
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *memStore) List(_ context.Context, q listing.Query, _ exp.OrderedExpression) ([]BookType, int64, error) {
	var out []BookType
	for id := uint64(1); id <= m.next; id++ {
		if t, ok := m.rows[id]; ok {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	res, err := svc.Create(ctx, TypeInput{Type: " Учебник ", Fine: "10.5", DayCount: 14})
	require.NoError(t, err)
	assert.Equal(t, "Учебник", res.Type)
	assert.Equal(t, "10.50", res.Fine)

	bad := map[string]TypeInput{
		"empty label":    {Type: "", Fine: "1", DayCount: 1},
		"long label":     {Type: "абвгдеёжзийклмнопрсту", Fine: "1", DayCount: 1},
		"negative fine":  {Type: "x", Fine: "-0.01", DayCount: 1},
		"three decimals": {Type: "x", Fine: "1.005", DayCount: 1},
		"not a number":   {Type: "x", Fine: "ten", DayCount: 1},
		"zero days":      {Type: "x", Fine: "1", DayCount: 0},
		"fine too large": {Type: "x", Fine: "100000000", DayCount: 1},
		"too many days":  {Type: "x", Fine: "1", DayCount: maxDayCount + 1},
	}
	for name, in := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument), "got %v", err)
		})
	}

	_, err = svc.Create(ctx, TypeInput{Type: "free", Fine: "0", DayCount: 3})
	assert.NoError(t, err, "zero fine is allowed")

	res, err = svc.Create(ctx, TypeInput{Type: "max", Fine: "99999999.99", DayCount: maxDayCount})
	require.NoError(t, err)
	assert.Equal(t, "99999999.99", res.Fine)
}

func TestUpdateAndDelete(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, TypeInput{Type: "Роман", Fine: "5", DayCount: 10})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, TypeInput{Type: "Роман", Fine: "7.25", DayCount: 21})
	require.NoError(t, err)
	assert.Equal(t, "7.25", updated.Fine)
	assert.Equal(t, 21, updated.DayCount)

	_, err = svc.Update(ctx, 99, TypeInput{Type: "x", Fine: "1", DayCount: 1})
	assert.True(t, apierr.Is(err, apierr.CodeNotFound))

	store.inUse[created.ID] = true
	assert.True(t, apierr.Is(svc.Delete(ctx, created.ID), apierr.CodeConflict))

	store.inUse[created.ID] = false
	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.True(t, apierr.Is(svc.Delete(ctx, created.ID), apierr.CodeNotFound))
}

func TestList(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()
	for _, label := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, TypeInput{Type: label, Fine: "1", DayCount: 1})
		require.NoError(t, err)
	}

	res, err := svc.List(ctx, listing.Query{Page: listing.NewPage(1, 10, 10), Sort: "-fine"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
	assert.Len(t, res.Items, 3)

	_, err = svc.List(ctx, listing.Query{Page: listing.NewPage(1, 10, 10), Sort: "color"})
	assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
}
