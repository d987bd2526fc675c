package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lumiere-assistant-backend/internal/types"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsReadLimit  = 64 * 1024
)

// wsConn carries one chat session over a websocket. Each text frame is a
// ChatRequest; each reply is a ChatResponse or an ErrorResponse frame.
type wsConn struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	server *Server
	sid    string
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sid := getSessionID(r)
	if sid == "" {
		sid = newSessionID()
	}
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, http.Header{"X-Session-Id": {sid}})
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsConn{
		conn:   conn,
		send:   make(chan []byte, 16),
		done:   make(chan struct{}),
		server: s,
		sid:    sid,
	}
	go c.writePump()
	c.readPump(r.Context())
}

// readPump handles frames in order, so turns from one socket never overlap.
func (c *wsConn) readPump(ctx context.Context) {
	defer close(c.send)

	c.conn.SetReadLimit(wsReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Debug("websocket closed", zap.String("session_id", c.sid), zap.Error(err))
			}
			return
		}
		c.handleMessage(ctx, message)
	}
}

func (c *wsConn) handleMessage(ctx context.Context, message []byte) {
	var req types.ChatRequest
	if err := json.Unmarshal(message, &req); err != nil {
		c.write(types.ErrorResponse{Error: "invalid JSON message"})
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		c.write(types.ErrorResponse{Error: "user_message is required"})
		return
	}
	sid := strings.TrimSpace(req.SessionID)
	if sid == "" {
		sid = c.sid
	}

	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()
	resp, code, msg := c.server.runTurn(ctx, sid, req)
	if code != http.StatusOK {
		c.write(types.ErrorResponse{Error: msg})
		return
	}
	c.write(resp)
}

func (c *wsConn) write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.server.logger.Error("failed to encode websocket frame", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
