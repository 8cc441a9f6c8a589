package listing

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apierr"
)

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Limit: 10}, NewPage(0, 0, 10))
	assert.Equal(t, Page{Number: 3, Limit: 25}, NewPage(3, 25, 10))
	assert.Equal(t, Page{Number: 1, Limit: MaxLimit}, NewPage(1, 1000, 10))
	assert.Equal(t, uint(20), Page{Number: 3, Limit: 10}.Offset())

	huge := NewPage(math.MaxInt, MaxLimit, 10)
	assert.Equal(t, MaxPage, huge.Number)
	assert.Equal(t, uint((MaxPage-1)*MaxLimit), huge.Offset())
}

func TestNewResult(t *testing.T) {
	r := NewResult([]string{"a", "b"}, 21, Page{Number: 2, Limit: 10})
	assert.Equal(t, 3, r.Pages)
	require.NotNil(t, r.NextPage)
	assert.Equal(t, 3, *r.NextPage)

	last := NewResult([]string{"z"}, 21, Page{Number: 3, Limit: 10})
	assert.Nil(t, last.NextPage)

	empty := NewResult[string](nil, 0, Page{Number: 1, Limit: 10})
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.Pages)
}

func TestParseQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/books?page=2&limit=5&q=%20war%20&sort=-name", nil)
	q, err := ParseQuery(c, 10)
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 2, Limit: 5}, q.Page)
	assert.Equal(t, "war", q.Search)
	assert.Equal(t, "-name", q.Sort)

	// gin はクエリをキャッシュするのでコンテキストを作り直す
	for _, raw := range []string{"page=abc", "limit=ten"} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/books?"+raw, nil)
		_, err = ParseQuery(c, 10)
		assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument), raw)
	}
}

func TestSortKeysResolve(t *testing.T) {
	keys := NewSortKeys("id", map[string]exp.Orderable{
		"id":   goqu.I("b.id"),
		"name": goqu.I("b.name"),
	})

	sqlFor := func(o exp.OrderedExpression) string {
		s, _, err := From("books").Order(o).ToSQL()
		require.NoError(t, err)
		return s
	}

	o, err := keys.Resolve("")
	require.NoError(t, err)
	assert.Contains(t, sqlFor(o), "ORDER BY `b`.`id` ASC")

	o, err = keys.Resolve("-name")
	require.NoError(t, err)
	assert.Contains(t, sqlFor(o), "ORDER BY `b`.`name` DESC")

	_, err = keys.Resolve("password")
	assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
	assert.Equal(t, []string{"id", "name"}, keys.Names())
}

func TestSearch(t *testing.T) {
	assert.Nil(t, Search("   ", "name"))

	ds := Where(From("books"), Search("50%_off", "name", "type"), nil)
	sql, args, err := ds.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, "`name` LIKE ?")
	assert.Contains(t, sql, " OR ")
	assert.NotContains(t, sql, "BINARY")
	assert.Equal(t, []any{`%50\%\_off%`, `%50\%\_off%`}, args)
}

func TestPathID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := PathID(c)
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	for _, bad := range []string{"0", "-1", "abc"} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: bad}}
		_, ok := PathID(c)
		assert.False(t, ok, bad)
		assert.Equal(t, 400, w.Code, bad)
	}
}
