package events

import (
	"log"
	"sync"
	"time"
)

type Kind string

const (
	LoanIssued   Kind = "loan.issued"
	LoanReturned Kind = "loan.returned"
	LoanDeleted  Kind = "loan.deleted"
)

type Event struct {
	Kind     Kind      `json:"kind"`
	LoanID   string    `json:"loan_id"`
	ClientID uint64    `json:"client_id"`
	BookID   uint64    `json:"book_id"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(e Event)
}

// Nop は何もしない Publisher
type Nop struct{}

func (Nop) Publish(Event) {}

const DefaultBuffer = 16

// Hub は購読者ごとのチャネルに Event を配る。
// 受信が追いつかない購読者は切断する（Publish はブロックしない）。
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
	buf  int
}

func NewHub(buf int) *Hub {
	if buf <= 0 {
		buf = DefaultBuffer
	}
	return &Hub{subs: make(map[chan Event]struct{}), buf: buf}
}

// Subscribe の戻り値 cancel は何度呼んでもよい
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buf)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.drop(ch) })
	}
}

func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			delete(h.subs, ch)
			close(ch)
			log.Printf("[WARN] event subscriber too slow, dropped (%s)", e.Kind)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) drop(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}
