package apihttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xiuxiu06/movie-app/internal/metrics"
	"github.com/xiuxiu06/movie-app/internal/session"
)

const liveFetchTimeout = 15 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type liveInbound struct {
	Type   string         `json:"type"`
	Value  string         `json:"value,omitempty"`
	Scroll session.Scroll `json:"scroll,omitempty"`
}

type liveOutbound struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// liveConn drives one live search session over a WebSocket: keystrokes go
// through the debouncer, scroll reports through the sentinel, and every state
// transition is pushed back as a snapshot.
type liveConn struct {
	server    *Server
	conn      *websocket.Conn
	send      chan []byte
	sess      *session.Session
	debouncer *session.Debouncer
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *slog.Logger
}

// handleLive upgrades the connection and runs a session until the client
// disconnects. Listeners attach here and detach when the pumps exit.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/movies/live" {
		http.NotFound(w, r)
		return
	}
	if s.discovery == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "discovery service is not configured")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	live := &liveConn{
		server: s,
		conn:   conn,
		send:   make(chan []byte, 16),
		sess:   session.New(),
		ctx:    ctx,
		cancel: cancel,
		logger: s.logger,
	}
	live.debouncer = session.NewDebouncer(s.debouncePeriod, live.onQuery)

	metrics.LiveSessionsActive.Inc()
	go live.writePump()

	// Initial load: first page of the popularity listing.
	snap, spec := live.sess.Begin()
	live.pushState(snap)
	go live.fetch(spec)

	live.readPump()
}

func (c *liveConn) readPump() {
	defer func() {
		c.cancel()
		c.debouncer.Stop()
		c.conn.Close()
		metrics.LiveSessionsActive.Dec()
	}()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg liveInbound
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Debug("ws bad message", slog.String("error", err.Error()))
			continue
		}
		switch msg.Type {
		case "input":
			c.pushState(c.sess.SetTerm(msg.Value))
			c.debouncer.Input(msg.Value)
		case "scroll":
			snap, spec, ok := c.sess.AdvancePage(msg.Scroll, c.server.scrollThreshold)
			if ok {
				c.pushState(snap)
				go c.fetch(spec)
			}
		}
	}
}

func (c *liveConn) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
				time.Now().Add(2*time.Second),
			)
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// onQuery receives the debounced term.
func (c *liveConn) onQuery(value string) {
	snap, spec, ok := c.sess.SetQuery(value)
	c.pushState(snap)
	if ok {
		go c.fetch(spec)
	}
}

func (c *liveConn) fetch(spec session.FetchSpec) {
	ctx, cancel := context.WithTimeout(c.ctx, liveFetchTimeout)
	defer cancel()

	result, err := c.server.discovery.Browse(ctx, spec.Query, spec.Page)
	if err != nil {
		if c.ctx.Err() != nil {
			return
		}
		c.logger.Warn("live fetch failed",
			slog.String("query", truncate(spec.Query, 80)),
			slog.Int("page", spec.Page),
			slog.String("error", err.Error()),
		)
		c.pushState(c.sess.ApplyError(spec, err))
		return
	}
	c.pushState(c.sess.ApplyPage(spec, result))
}

func (c *liveConn) pushState(snap any) {
	payload, err := json.Marshal(liveOutbound{Type: "state", Data: snap})
	if err != nil {
		c.logger.Error("ws marshal failed", slog.String("error", err.Error()))
		return
	}
	select {
	case c.send <- payload:
	default:
		// Client is too slow, drop this snapshot.
	}
}
