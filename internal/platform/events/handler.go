package events

import (
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// RegisterRoutes: GET /events (WebSocket)。origins が空なら同一オリジンのみ
func RegisterRoutes(r gin.IRoutes, h *Hub, origins []string) {
	up := websocket.Upgrader{CheckOrigin: originChecker(origins)}
	r.GET("/events", func(c *gin.Context) { serve(c, h, &up) })
}

func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return nil // gorilla の既定（Host と Origin が一致）
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		if o == "" {
			return true
		}
		if u, err := url.Parse(o); err == nil {
			o = u.Scheme + "://" + u.Host
		}
		_, ok := allowed[o]
		return ok
	}
}

func serve(c *gin.Context, h *Hub, up *websocket.Upgrader) {
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade がエラーレスポンスを書いている
		log.Printf("[WARN] websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ch, cancel := h.Subscribe()
	defer cancel()

	// 読み取り側: クライアントからの close / pong を処理する
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case e, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"))
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
