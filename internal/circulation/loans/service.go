package loans

import (
	"context"
	"crypto/rand"
	"log"
	"strconv"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/clock"
	"LIBRA-backend/internal/platform/events"
	"LIBRA-backend/internal/platform/listing"
)

type IDGen interface{ NewULID(t time.Time) string }
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

type Service struct {
	store        LoanStore
	clock        clock.Clock
	id           IDGen
	events       events.Publisher
	maxPerClient int
}

func NewService(store LoanStore, clk clock.Clock, maxPerClient int) *Service {
	if maxPerClient <= 0 {
		maxPerClient = DefaultMaxOpenPerClient
	}
	return &Service{store: store, clock: clk, id: ulidGen{}, events: events.Nop{}, maxPerClient: maxPerClient}
}

// WithEvents: 貸出・返却・削除を p に通知する
func (s *Service) WithEvents(p events.Publisher) *Service {
	if p != nil {
		s.events = p
	}
	return s
}

func (s *Service) publish(kind events.Kind, l *Loan) {
	s.events.Publish(events.Event{Kind: kind, LoanID: l.ULID, ClientID: l.ClientID, BookID: l.BookID, At: s.clock.Now().UTC()})
}

// POST /loans
func (s *Service) Issue(ctx context.Context, in IssueRequest) (LoanResponse, error) {
	if in.ClientID == 0 {
		return LoanResponse{}, apierr.Invalid("client_id required")
	}
	if in.BookID == 0 {
		return LoanResponse{}, apierr.Invalid("book_id required")
	}
	now := s.clock.Now()
	beg := clock.Date(now)
	if v := strings.TrimSpace(in.DateBeg); v != "" {
		t, err := clock.ParseDate(v)
		if err != nil {
			return LoanResponse{}, apierr.Invalid("date_beg must be YYYY-MM-DD")
		}
		beg = t
	}
	luid := s.id.NewULID(now)

	l, err := s.store.Issue(ctx, in.ClientID, in.BookID, func(snap Snapshot, p Policy) (*Loan, error) {
		if err := CheckEligibility(snap, s.maxPerClient); err != nil {
			return nil, err
		}
		return &Loan{
			ULID:     luid,
			ClientID: in.ClientID,
			BookID:   in.BookID,
			DateBeg:  beg,
			DateEnd:  beg.AddDate(0, 0, p.DayCount),
			Rate:     p.Fine,
		}, nil
	})
	if err != nil {
		return LoanResponse{}, apierr.WrapUnknown(err, apierr.CodeIssueFailed, "issue failed")
	}
	log.Printf("[INFO] loan issued: %s client=%d book=%d due=%s", l.ULID, l.ClientID, l.BookID, l.DateEnd.Format(clock.DateLayout))
	s.publish(events.LoanIssued, l)
	return toResponse(l, clock.Date(now)), nil
}

// POST /loans/:key/return
func (s *Service) Return(ctx context.Context, key string) (LoanResponse, error) {
	l, err := s.resolve(ctx, key)
	if err != nil {
		return LoanResponse{}, apierr.WrapUnknown(err, apierr.CodeReturnFailed, "return failed")
	}
	today := clock.Today(s.clock)
	if !l.Open() {
		return toResponse(l, today), nil // 返却済みなら何もしない
	}

	n, err := s.store.MarkReturned(ctx, l.ID, today)
	if err != nil {
		return LoanResponse{}, apierr.WrapUnknown(err, apierr.CodeReturnFailed, "return failed")
	}
	// 0件更新は別リクエストが先に返却した場合。どちらでも結果を読み直す
	l, err = s.store.GetByID(ctx, l.ID)
	if err != nil {
		return LoanResponse{}, apierr.WrapUnknown(err, apierr.CodeReturnFailed, "return failed")
	}
	if n > 0 {
		log.Printf("[INFO] loan returned: %s on %s", l.ULID, today.Format(clock.DateLayout))
		s.publish(events.LoanReturned, l)
	}
	return toResponse(l, today), nil
}

func (s *Service) Get(ctx context.Context, key string) (LoanResponse, error) {
	l, err := s.resolve(ctx, key)
	if err != nil {
		return LoanResponse{}, apierr.WrapUnknown(err, apierr.CodeInternal, "get loan failed")
	}
	return toResponse(l, clock.Today(s.clock)), nil
}

func (s *Service) List(ctx context.Context, f ListFilter, q listing.Query) (LoanList, error) {
	order, err := SortKeys.Resolve(q.Sort)
	if err != nil {
		return LoanList{}, err
	}
	rows, total, err := s.store.List(ctx, f, q, order)
	if err != nil {
		return LoanList{}, apierr.WrapUnknown(err, apierr.CodeInternal, "list loans failed")
	}
	today := clock.Today(s.clock)
	items := make([]LoanResponse, 0, len(rows))
	for i := range rows {
		items = append(items, toResponse(&rows[i], today))
	}
	return listing.NewResult(items, total, q.Page), nil
}

// 未返却でも削除できる（管理者の訂正用）
func (s *Service) Delete(ctx context.Context, key string) error {
	l, err := s.resolve(ctx, key)
	if err != nil {
		return apierr.WrapUnknown(err, apierr.CodeInternal, "delete loan failed")
	}
	n, err := s.store.Delete(ctx, l.ID)
	if err != nil {
		return apierr.WrapUnknown(err, apierr.CodeInternal, "delete loan failed")
	}
	if n == 0 {
		return apierr.NotFound("loan not found")
	}
	if l.Open() {
		log.Printf("[WARN] open loan deleted: %s client=%d book=%d", l.ULID, l.ClientID, l.BookID)
	}
	s.publish(events.LoanDeleted, l)
	return nil
}

// key は数値ID か ULID
func (s *Service) resolve(ctx context.Context, key string) (*Loan, error) {
	key = strings.TrimSpace(key)
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		return s.store.GetByID(ctx, id)
	}
	if _, err := ulid.ParseStrict(key); err != nil {
		return nil, apierr.Invalid("loan id must be a number or ULID")
	}
	return s.store.GetByULID(ctx, strings.ToUpper(key))
}
