//go:build integration

// MySQL に対して実行する: LIBRA_TEST_MYSQL_DSN="user:pw@tcp(127.0.0.1:3306)/library_test?parseTime=true&loc=UTC" go test -tags integration ./internal/circulation/loans/
package loans

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/clock"
	"LIBRA-backend/internal/platform/db"
)

const envTestDSN = "LIBRA_TEST_MYSQL_DSN"

type mysqlFixture struct {
	conn     *sqlx.DB
	clientID uint64
	other    uint64
	bookID   uint64
	typeID   uint64
}

func openMySQL(t *testing.T, copies int) *mysqlFixture {
	t.Helper()
	dsn := os.Getenv(envTestDSN)
	if dsn == "" {
		t.Skipf("%s is not set", envTestDSN)
	}
	ctx := context.Background()
	conn, err := sqlx.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, conn.PingContext(ctx))
	require.NoError(t, db.Migrate(ctx, conn))

	f := &mysqlFixture{conn: conn}
	insert := func(q string, args ...any) uint64 {
		res, err := conn.ExecContext(ctx, q, args...)
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)
		return uint64(id)
	}
	suffix := fmt.Sprint(time.Now().UnixNano())
	f.clientID = insert(`INSERT INTO clients (first_name, last_name, passport_seria, passport_number) VALUES ('Иван', 'Иванов', '4510', '123456')`)
	f.other = insert(`INSERT INTO clients (first_name, last_name, passport_seria, passport_number) VALUES ('Пётр', 'Петров', '4511', '654321')`)
	f.typeID = insert(`INSERT INTO book_types (type, fine, day_count) VALUES ('Т', 10.00, 14)`)
	f.bookID = insert(`INSERT INTO books (name, cnt, type_id) VALUES (?, ?, ?)`, "Книга "+suffix, copies, f.typeID)

	t.Cleanup(func() {
		_, _ = conn.Exec(`DELETE FROM journal WHERE client_id IN (?, ?)`, f.clientID, f.other)
		_, _ = conn.Exec(`DELETE FROM books WHERE id = ?`, f.bookID)
		_, _ = conn.Exec(`DELETE FROM book_types WHERE id = ?`, f.typeID)
		_, _ = conn.Exec(`DELETE FROM clients WHERE id IN (?, ?)`, f.clientID, f.other)
		conn.Close()
	})
	return f
}

func TestMySQLIssueLocksLastCopy(t *testing.T) {
	f := openMySQL(t, 2)
	svc := NewService(NewStore(f.conn), clock.Real{}, DefaultMaxOpenPerClient)
	ctx := context.Background()

	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		client := f.clientID
		if i%2 == 1 {
			client = f.other
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Issue(ctx, IssueRequest{ClientID: client, BookID: f.bookID})
			switch {
			case err == nil:
				ok.Add(1)
			case apierr.Is(err, apierr.CodeNoCopiesAvailable):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 2, ok.Load())
	assert.EqualValues(t, 6, rejected.Load())

	var open int
	require.NoError(t, f.conn.Get(&open, `SELECT COUNT(*) FROM journal WHERE book_id = ? AND date_ret IS NULL`, f.bookID))
	assert.Equal(t, 2, open)
}

func TestMySQLClientCapAndReturn(t *testing.T) {
	f := openMySQL(t, 20)
	svc := NewService(NewStore(f.conn), clock.Real{}, 2)
	ctx := context.Background()

	first, err := svc.Issue(ctx, IssueRequest{ClientID: f.clientID, BookID: f.bookID})
	require.NoError(t, err)
	assert.Equal(t, clock.Today(clock.Real{}).AddDate(0, 0, 14).Format(clock.DateLayout), first.DateEnd)
	assert.Equal(t, "0.00", first.Fine)
	_, err = svc.Issue(ctx, IssueRequest{ClientID: f.clientID, BookID: f.bookID})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, IssueRequest{ClientID: f.clientID, BookID: f.bookID})
	assert.True(t, apierr.Is(err, apierr.CodeClientLoanLimitExceeded), "got %v", err)

	returned, err := svc.Return(ctx, first.ULID)
	require.NoError(t, err)
	require.NotNil(t, returned.DateRet)
	again, err := svc.Return(ctx, first.ULID)
	require.NoError(t, err)
	assert.Equal(t, returned, again)

	_, err = svc.Issue(ctx, IssueRequest{ClientID: f.clientID, BookID: f.bookID})
	assert.NoError(t, err)

	_, err = svc.Issue(ctx, IssueRequest{ClientID: f.clientID, BookID: 0xFFFFFFFF})
	assert.True(t, apierr.Is(err, apierr.CodeNotFound), "got %v", err)
}
