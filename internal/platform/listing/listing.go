package listing

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"LIBRA-backend/internal/platform/apierr"
)

const (
	MaxLimit = 100
	// MaxPage より先は空ページになるだけなので丸める（Offset の桁あふれ防止）
	MaxPage = 1_000_000
)

var dialect = goqu.Dialect("mysql")

// From は mysql 方言・プレースホルダ付きの SELECT を返す
func From(table ...any) *goqu.SelectDataset {
	return dialect.From(table...).Prepared(true)
}

// Page は1始まり
type Page struct {
	Number int
	Limit  int
}

func NewPage(number, limit, def int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPage {
		number = MaxPage
	}
	if limit <= 0 {
		limit = def
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Number: number, Limit: limit}
}

func (p Page) Offset() uint { return uint((p.Number - 1) * p.Limit) }

type Result[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	Pages    int   `json:"pages"`
	NextPage *int  `json:"next_page"`
}

func NewResult[T any](items []T, total int64, p Page) Result[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	r := Result[T]{Items: items, Total: total, Page: p.Number, Pages: pages}
	if p.Number < pages {
		next := p.Number + 1
		r.NextPage = &next
	}
	return r
}

// Query は一覧APIの共通パラメータ (?page=&limit=&q=&sort=)
type Query struct {
	Page   Page
	Search string
	Sort   string
}

func ParseQuery(c *gin.Context, defLimit int) (Query, error) {
	number, err := atoiDefault(c.Query("page"), 1)
	if err != nil {
		return Query{}, apierr.Invalid("page must be an integer")
	}
	limit, err := atoiDefault(c.Query("limit"), defLimit)
	if err != nil {
		return Query{}, apierr.Invalid("limit must be an integer")
	}
	return Query{
		Page:   NewPage(number, limit, defLimit),
		Search: strings.TrimSpace(c.Query("q")),
		Sort:   strings.TrimSpace(c.Query("sort")),
	}, nil
}

func atoiDefault(s string, d int) (int, error) {
	if s == "" {
		return d, nil
	}
	return strconv.Atoi(s)
}

// ---------- sorting ----------

// SortKeys は公開ソート名 -> カラム の対応表。"-name" で降順。
type SortKeys struct {
	def  string
	cols map[string]exp.Orderable
}

func NewSortKeys(def string, cols map[string]exp.Orderable) SortKeys {
	return SortKeys{def: def, cols: cols}
}

func (s SortKeys) Resolve(key string) (exp.OrderedExpression, error) {
	if key == "" {
		key = s.def
	}
	desc := strings.HasPrefix(key, "-")
	name := strings.TrimPrefix(key, "-")
	col, ok := s.cols[name]
	if !ok {
		return nil, apierr.Invalid(fmt.Sprintf("unknown sort key %q (allowed: %s)", name, strings.Join(s.Names(), ", ")))
	}
	if desc {
		return col.Desc(), nil
	}
	return col.Asc(), nil
}

func (s SortKeys) Names() []string {
	names := make([]string, 0, len(s.cols))
	for k := range s.cols {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ---------- search ----------

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search は columns のいずれかに text を含む行 (大文字小文字を区別しない)。text が空なら nil。
func Search(text string, columns ...string) exp.Expression {
	text = strings.TrimSpace(text)
	if text == "" || len(columns) == 0 {
		return nil
	}
	pattern := "%" + likeEscaper.Replace(text) + "%"
	ors := make([]exp.Expression, 0, len(columns))
	for _, col := range columns {
		// mysql dialect では ILIKE -> LIKE (LIKE は LIKE BINARY になる)
		ors = append(ors, goqu.I(col).ILike(pattern))
	}
	return goqu.Or(ors...)
}

// ---------- fetch ----------

// Fetch は ds を order/page 付きで実行し、同じ条件での総件数も返す
func Fetch[T any](ctx context.Context, q sqlx.QueryerContext, ds *goqu.SelectDataset, order exp.OrderedExpression, p Page) ([]T, int64, error) {
	countSQL, countArgs, err := ds.ClearSelect().ClearOrder().Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := sqlx.GetContext(ctx, q, &total, countSQL, countArgs...); err != nil {
		return nil, 0, err
	}

	pageSQL, args, err := ds.Order(order).Limit(uint(p.Limit)).Offset(p.Offset()).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	items := []T{}
	if err := sqlx.SelectContext(ctx, q, &items, pageSQL, args...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Where は nil を除いた条件だけを AND で追加する
func Where(ds *goqu.SelectDataset, exprs ...exp.Expression) *goqu.SelectDataset {
	for _, e := range exprs {
		if e != nil {
			ds = ds.Where(e)
		}
	}
	return ds
}

// PathID は :id を読む。不正ならレスポンスを書いて false を返す
func PathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apierr.Respond(c, apierr.Invalid("id must be a positive integer"))
		return 0, false
	}
	return id, true
}
