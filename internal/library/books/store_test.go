package books

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

var errNoInsertID = errors.New("last insert id unavailable")

// execOnlyConn は Exec だけ受け付け、LastInsertId が失敗する結果を返す
type execOnlyConn struct{}

func (execOnlyConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare not supported") }
func (execOnlyConn) Close() error                        { return nil }
func (execOnlyConn) Begin() (driver.Tx, error)           { return nil, errors.New("tx not supported") }

func (execOnlyConn) ExecContext(context.Context, string, []driver.NamedValue) (driver.Result, error) {
	return noIDResult{}, nil
}

type noIDResult struct{}

func (noIDResult) LastInsertId() (int64, error) { return 0, errNoInsertID }
func (noIDResult) RowsAffected() (int64, error) { return 1, nil }

type execOnlyConnector struct{}

func (execOnlyConnector) Connect(context.Context) (driver.Conn, error) { return execOnlyConn{}, nil }
func (execOnlyConnector) Driver() driver.Driver                        { return execOnlyDriver{} }

type execOnlyDriver struct{}

func (execOnlyDriver) Open(string) (driver.Conn, error) { return execOnlyConn{}, nil }

func TestStoreCreateReturnsInsertIDError(t *testing.T) {
	conn := sqlx.NewDb(sql.OpenDB(execOnlyConnector{}), "mysql")
	defer conn.Close()

	b := &Book{Name: "Идиот", Cnt: 1, TypeID: 1}
	err := NewStore(conn).Create(context.Background(), b)
	assert.ErrorIs(t, err, errNoInsertID)
	assert.Zero(t, b.ID)
}
