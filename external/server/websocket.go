package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/kikitori/internal/gateway"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout        = 10 * time.Second
	closeMessageTimeout = time.Second
)

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			return nil, io.EOF
		}
		return nil, err
	}
	return data, nil
}

func (c *wsConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

type socketTracker struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newSocketTracker() *socketTracker {
	return &socketTracker{conns: make(map[*websocket.Conn]struct{})}
}

func (t *socketTracker) add(c *websocket.Conn) {
	t.mu.Lock()
	t.conns[c] = struct{}{}
	t.mu.Unlock()
}

func (t *socketTracker) remove(c *websocket.Conn) {
	t.mu.Lock()
	delete(t.conns, c)
	t.mu.Unlock()
}

func (t *socketTracker) closeAll(reason string) {
	t.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(t.conns))
	for c := range t.conns {
		conns = append(conns, c)
	}
	t.mu.Unlock()

	for _, c := range conns {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeMessageTimeout))
		_ = c.Close()
	}
	if len(conns) > 0 {
		slog.Info("closed websocket connections", "count", len(conns), "reason", reason)
	}
}

type interviewSocket struct {
	upgrader        websocket.Upgrader
	gateway         *gateway.Gateway
	sockets         *socketTracker
	maxMessageBytes int64
}

func (h *interviewSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr, "origin", r.Header.Get("Origin"))
		return
	}
	h.sockets.add(conn)
	defer func() {
		h.sockets.remove(conn)
		_ = conn.Close()
	}()
	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	slog.Debug("websocket connected", "remote_addr", r.RemoteAddr)
	if err := h.gateway.Serve(r.Context(), &wsConn{conn: conn}); err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			slog.Warn("websocket message exceeded read limit", "limit_bytes", h.maxMessageBytes, "remote_addr", r.RemoteAddr)
			return
		}
		slog.Warn("websocket connection ended with error", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	slog.Debug("websocket disconnected", "remote_addr", r.RemoteAddr)
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = normalizeOrigin(origin)
		if origin != "" {
			set[origin] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[normalizeOrigin(origin)]
		return ok
	}
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(origin), "/"))
}
