package commands

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbctechsolutions/answerstream/internal/application/delivery"
	"github.com/jbctechsolutions/answerstream/internal/application/pipeline"
	"github.com/jbctechsolutions/answerstream/internal/domain/message"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/logging"
)

// echoAnswerer streams the question back as the answer.
type echoAnswerer struct {
	mu       sync.Mutex
	requests []pipeline.Request
}

func (a *echoAnswerer) Answer(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()

	for _, env := range []message.Envelope{
		message.NewStream(req.Question),
		message.NewEnd(req.Question, nil),
	} {
		payload, err := delivery.Encode(env)
		if err != nil {
			return nil, err
		}
		if err := req.Publisher.Publish(ctx, payload); err != nil {
			return nil, err
		}
	}
	return &pipeline.Result{Model: req.Model, Answer: req.Question}, nil
}

func (a *echoAnswerer) seen() []pipeline.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]pipeline.Request(nil), a.requests...)
}

func startAnswerServer(t *testing.T, a answerer) *httptest.Server {
	t.Helper()
	srv := newAnswerServer(a, logging.Discard(), 1024, "CLAUDE_3_HAIKU")
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts
}

func dialAnswerServer(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + wsPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) message.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := delivery.Decode(data)
	require.NoError(t, err)
	return env
}

func TestAnswerServer_StreamsEnvelopes(t *testing.T) {
	a := &echoAnswerer{}
	conn := dialAnswerServer(t, startAnswerServer(t, a))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"question":"Is Go fun?","model":"GPT_4O","context":"Go docs"}`)))

	stream := readEnvelope(t, conn)
	assert.Equal(t, message.TypeStream, stream.Type)
	assert.Equal(t, "Is Go fun?...", stream.Message)

	end := readEnvelope(t, conn)
	assert.Equal(t, message.TypeEnd, end.Type)
	assert.Equal(t, "Is Go fun?", end.Message)

	reqs := a.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "GPT_4O", reqs[0].Model)
	assert.Equal(t, "Go docs", reqs[0].Context)
}

func TestAnswerServer_DefaultModelAndSequentialRequests(t *testing.T) {
	a := &echoAnswerer{}
	conn := dialAnswerServer(t, startAnswerServer(t, a))

	for _, q := range []string{"first", "second"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"question":"`+q+`"}`)))
		readEnvelope(t, conn)
		end := readEnvelope(t, conn)
		assert.Equal(t, q, end.Message)
	}

	reqs := a.seen()
	require.Len(t, reqs, 2)
	for _, r := range reqs {
		assert.Equal(t, "CLAUDE_3_HAIKU", r.Model)
	}
}

func TestAnswerServer_InvalidRequest(t *testing.T) {
	a := &echoAnswerer{}
	conn := dialAnswerServer(t, startAnswerServer(t, a))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))

	env := readEnvelope(t, conn)
	assert.Equal(t, message.TypeError, env.Type)
	assert.True(t, strings.HasPrefix(env.Message, "invalid request:"), env.Message)
	assert.Empty(t, a.seen())
}

func TestAnswerServer_ReadLimit(t *testing.T) {
	a := &echoAnswerer{}
	conn := dialAnswerServer(t, startAnswerServer(t, a))

	big := `{"question":"` + strings.Repeat("x", 2048) + `"}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(big)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Empty(t, a.seen())
}

func TestAnswerServer_Health(t *testing.T) {
	ts := startAnswerServer(t, &echoAnswerer{})

	resp, err := http.Get(ts.URL + healthPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:8080", displayAddr(":8080"))
	assert.Equal(t, "0.0.0.0:9000", displayAddr("0.0.0.0:9000"))
	assert.Equal(t, "bad", displayAddr("bad"))
}
