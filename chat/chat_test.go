package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"wayfarer/llm"
	"wayfarer/prompts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newServer(t *testing.T, model *llm.Fixture) *httptest.Server {
	t.Helper()
	svc := NewService(model, llm.Config{}, nil, zap.NewNop())
	r := httprouter.New()
	r.POST("/api/v1/chat", svc.Chat)
	r.GET("/api/v1/chat/ws", svc.WebSocket)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestChat(t *testing.T) {
	model := llm.NewFixture()
	model.Content = "Visit Goa between November and February."
	srv := newServer(t, model)

	resp, err := srv.Client().Post(srv.URL+"/api/v1/chat", "application/json", strings.NewReader(`{"query":"When should I visit Goa?"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Response   string `json:"response"`
		SearchUsed bool   `json:"searchUsed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, model.Content, body.Response)
	assert.True(t, body.SearchUsed)

	calls := model.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, prompts.ChatAssistant(), calls[0].SystemInstruction)
	assert.True(t, calls[0].Config.UseSearch)
}

func TestChatErrors(t *testing.T) {
	model := llm.NewFixture()
	srv := newServer(t, model)

	resp, err := srv.Client().Post(srv.URL+"/api/v1/chat", "application/json", bytes.NewReader([]byte(`{"query":"  "}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	model.FailWith = "unavailable"
	resp, err = srv.Client().Post(srv.URL+"/api/v1/chat", "application/json", bytes.NewReader([]byte(`{"query":"hello"}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) outboundPayload {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out outboundPayload
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestWebSocketStreamsAnswer(t *testing.T) {
	model := llm.NewFixture()
	model.Content = strings.Repeat("Palolem beach is calm in the morning. ", 5)
	conn := dial(t, newServer(t, model))

	require.NoError(t, conn.WriteJSON(inboundPayload{Action: "ask", Content: "Quiet beaches in Goa?"}))

	var text strings.Builder
	for {
		frame := readFrame(t, conn)
		assert.Equal(t, int64(1), frame.ID)
		if frame.Action == "done" {
			break
		}
		require.Equal(t, "delta", frame.Action)
		text.WriteString(frame.Content)
	}
	assert.Equal(t, model.Content, text.String())
}

func TestWebSocketReportsErrors(t *testing.T) {
	model := llm.NewFixture()
	model.FailWith = "stream broke"
	conn := dial(t, newServer(t, model))

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "shout"}))
	assert.Equal(t, "error", readFrame(t, conn).Action)

	require.NoError(t, conn.WriteJSON(inboundPayload{Action: "ask", Content: "anything on?"}))
	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame.Action)
	assert.NotContains(t, frame.Content, "stream broke")
}
