package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"wayfarer/prompts"
	"wayfarer/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	streamTimeout  = 120 * time.Second
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// inboundPayload represents what clients send us:
type inboundPayload struct {
	Action  string `json:"action"` // "ask"
	Content string `json:"content"`
}

// outboundPayload is what we stream back:
type outboundPayload struct {
	Action    string `json:"action"` // "delta", "done", "error"
	ID        int64  `json:"id"`
	Content   string `json:"content,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Client is one websocket connection.
type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
	// done is closed when the writer stops.
	done chan struct{}
}

// WebSocket handles GET /api/v1/chat/ws. Each "ask" message is answered
// with a run of "delta" frames followed by "done", or by "error".
func (s *Service) WebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: utils.GetUserIDFromRequest(r),
		done:   make(chan struct{}),
	}
	go s.writePump(client)
	go s.readPump(client)
}

func (s *Service) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Service) readPump(c *Client) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		close(c.Send)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var seq atomic.Int64
	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket closed", zap.Error(err))
			}
			return
		}

		var in inboundPayload
		if err := json.Unmarshal(raw, &in); err != nil || in.Action != "ask" {
			s.push(c, outboundPayload{Action: "error", Content: "expected {\"action\":\"ask\",\"content\":...}"})
			continue
		}
		s.answer(ctx, c, seq.Add(1), in.Content)
	}
}

func (s *Service) answer(ctx context.Context, c *Client, id int64, query string) {
	query = strings.TrimSpace(query)
	if err := validateQuery(query); err != nil {
		s.push(c, outboundPayload{Action: "error", ID: id, Content: "query must be 1-2000 characters"})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, streamTimeout)
	defer cancel()

	start := time.Now()
	for chunk, err := range s.gen.Stream(ctx, query, prompts.ChatAssistant(), s.model) {
		if err != nil {
			s.metrics.ModelCall("chat_stream", false, time.Since(start))
			s.log.Warn("chat stream failed", zap.String("uid", c.UserID), zap.Error(err))
			s.push(c, outboundPayload{Action: "error", ID: id, Content: "the assistant is unavailable, please retry"})
			return
		}
		s.push(c, outboundPayload{Action: "delta", ID: id, Content: chunk})
	}
	s.metrics.ModelCall("chat_stream", true, time.Since(start))
	s.push(c, outboundPayload{Action: "done", ID: id})
}

func (s *Service) push(c *Client, out outboundPayload) {
	out.Timestamp = time.Now().Unix()
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	case <-c.done:
	}
}
