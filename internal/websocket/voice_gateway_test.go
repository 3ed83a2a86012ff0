package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/middleware"
	"flashvoice-backend/internal/voice"
)

const (
	testSecret = "gateway-secret-0123456789"
	studyText  = "Caching keeps frequently used data close to the processor. " +
		"Indexes let the database find matching rows without scanning tables. " +
		"Replication copies every write to standby servers for durability."
)

type recordedAnswer struct {
	questionID string
	answer     string
	correct    bool
}

type fakeRecorder struct {
	mu      sync.Mutex
	starts  []int
	answers []recordedAnswer
	stops   int
}

func (f *fakeRecorder) Start(_ context.Context, _ uuid.UUID, cards int) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, cards)
	return uuid.New(), nil
}

func (f *fakeRecorder) RecordAnswer(_ context.Context, _ uuid.UUID, questionID, answer string, correct bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, recordedAnswer{questionID, answer, correct})
	return nil
}

func (f *fakeRecorder) Stop(_ context.Context, _, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeRecorder) snapshot() ([]int, []recordedAnswer, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.starts...), append([]recordedAnswer(nil), f.answers...), f.stops
}

func fastVoiceConfig() VoiceConfig {
	cfg := DefaultVoiceConfig()
	cfg.Timing = voice.Timing{
		IntroDelay:      5 * time.Millisecond,
		NavigationDelay: 5 * time.Millisecond,
		FeedbackDelay:   5 * time.Millisecond,
		ListenDelay:     5 * time.Millisecond,
	}
	cfg.RestartDelay = 5 * time.Millisecond
	return cfg
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialVoice(t *testing.T, rec voiceRecorder) (*websocket.Conn, func()) {
	t.Helper()
	auth := middleware.NewJWTAuth(testSecret)
	gw := NewVoiceGateway(auth, rec, fastVoiceConfig(), logger.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(gw.HandleWebSocket))

	conn, resp, err := websocket.DefaultDialer.Dial(voiceURL(t, auth, srv), nil)
	require.NoError(t, err)
	resp.Body.Close()

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func voiceURL(t *testing.T, auth *middleware.JWTAuth, srv *httptest.Server) string {
	t.Helper()
	token, err := auth.GenerateAccessToken(uuid.New(), time.Minute)
	require.NoError(t, err)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": msgType, "payload": payload}))
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == msgType {
			return f
		}
	}
}

func TestVoiceGateway_RejectsMissingToken(t *testing.T) {
	gw := NewVoiceGateway(middleware.NewJWTAuth(testSecret), nil, fastVoiceConfig(), logger.NewNop())
	rr := httptest.NewRecorder()

	gw.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/api/v1/voice/ws", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestVoiceGateway_StartWithoutDevices(t *testing.T) {
	conn, done := dialVoice(t, nil)
	defer done()

	send(t, conn, "start", map[string]string{"content": studyText})

	var resp struct {
		Command string `json:"command"`
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(readUntil(t, conn, frameResponse).Payload, &resp))
	assert.Equal(t, "start", resp.Command)
	assert.False(t, resp.Success)
	assert.Equal(t, "Voice features are not supported on this device.", resp.Message)
}

func TestVoiceGateway_UnknownFrame(t *testing.T) {
	conn, done := dialVoice(t, nil)
	defer done()

	send(t, conn, "dance", nil)

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(readUntil(t, conn, frameResponse).Payload, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "unknown frame type: dance", resp.Error)
}

// A client that plays every utterance instantly and answers every listen
// request with the same transcript.
func TestVoiceGateway_AnswersAreGradedAndRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	conn, done := dialVoice(t, rec)
	defer done()

	send(t, conn, "hello", map[string]bool{"synthesis": true, "recognition": true})
	send(t, conn, "start", map[string]string{"content": studyText})

	answers := make(chan answeredPayload, 8)
	go func() {
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			var evt struct {
				ID string `json:"id"`
			}
			_ = json.Unmarshal(f.Payload, &evt)

			switch f.Type {
			case "tts.speak":
				conn.WriteJSON(map[string]interface{}{"type": "tts.start", "payload": evt})
				conn.WriteJSON(map[string]interface{}{"type": "tts.end", "payload": evt})
			case "stt.start":
				conn.WriteJSON(map[string]interface{}{"type": "stt.start", "payload": evt})
				conn.WriteJSON(map[string]interface{}{"type": "stt.result", "payload": map[string]interface{}{
					"id": evt.ID, "transcript": "Caching", "confidence": 0.9, "is_final": true,
				}})
				conn.WriteJSON(map[string]interface{}{"type": "stt.end", "payload": evt})
			case frameAnswered:
				var a answeredPayload
				if json.Unmarshal(f.Payload, &a) == nil {
					answers <- a
				}
			}
		}
	}()

	select {
	case a := <-answers:
		assert.Equal(t, voice.SummaryCardID, a.QuestionID)
		assert.Equal(t, "caching", a.Answer)
		assert.True(t, a.Correct)
	case <-time.After(5 * time.Second):
		t.Fatal("no graded answer received")
	}

	conn.Close()

	assert.Eventually(t, func() bool {
		starts, recorded, stops := rec.snapshot()
		return len(starts) == 1 && len(recorded) >= 1 && stops == 1
	}, 5*time.Second, 10*time.Millisecond)

	starts, recorded, _ := rec.snapshot()
	assert.Equal(t, 4, starts[0])
	assert.Equal(t, recordedAnswer{voice.SummaryCardID, "caching", true}, recorded[0])
}

func TestVoiceGateway_ShutdownClosesSessions(t *testing.T) {
	auth := middleware.NewJWTAuth(testSecret)
	rec := &fakeRecorder{}
	gw := NewVoiceGateway(auth, rec, fastVoiceConfig(), logger.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(gw.HandleWebSocket))
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(voiceURL(t, auth, srv), nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	send(t, conn, "hello", map[string]bool{"synthesis": true, "recognition": true})
	readUntil(t, conn, "session.response")
	send(t, conn, "start", map[string]string{"content": studyText})
	readUntil(t, conn, "session.response")
	require.Equal(t, 1, gw.Connections())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, gw.Shutdown(ctx))
	assert.Equal(t, 0, gw.Connections())

	_, _, stops := rec.snapshot()
	assert.Equal(t, 1, stops, "open session is recorded as stopped")

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	_, resp, err = websocket.DefaultDialer.Dial(voiceURL(t, auth, srv), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}
