package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"flashvoice-backend/internal/clock"
	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/middleware"
	"flashvoice-backend/internal/models"
	"flashvoice-backend/internal/speech"
	"flashvoice-backend/internal/voice"
)

// Client control frames on the voice socket. Device events (tts.*, stt.*)
// share the socket and go to speech.RemoteDevices.
const (
	frameHello    = "hello"
	frameStart    = "start"
	frameAsk      = "ask"
	frameRead     = "read"
	frameNext     = "next"
	framePrevious = "previous"
	frameRepeat   = "repeat"
	frameHelp     = "help"
	frameContinue = "continue"
	frameAnswer   = "answer"
	frameStop     = "stop"

	frameState    = "session.state"
	frameAnswered = "session.answer"
	frameResponse = "session.response"
)

const maxVoiceFrame = 1 << 20

type voiceRecorder interface {
	Start(ctx context.Context, userID uuid.UUID, cardCount int) (uuid.UUID, error)
	RecordAnswer(ctx context.Context, sessionID uuid.UUID, questionID, answer string, correct bool) error
	Stop(ctx context.Context, sessionID, userID uuid.UUID) error
}

// VoiceConfig tunes the controller and devices behind every voice socket.
type VoiceConfig struct {
	Timing       voice.Timing
	Synthesis    speech.SynthesisConfig
	Recognition  speech.RecognitionConfig
	RestartDelay time.Duration
}

func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Timing:       voice.DefaultTiming(),
		Synthesis:    speech.DefaultSynthesisConfig(),
		Recognition:  speech.DefaultRecognitionConfig(),
		RestartDelay: speech.RestartDelay,
	}
}

// VoiceGateway runs one voice session controller per socket. The client hosts
// the speech devices and the server drives them.
type VoiceGateway struct {
	auth     *middleware.JWTAuth
	sessions voiceRecorder
	cfg      VoiceConfig
	log      *logger.Logger

	mu      sync.Mutex
	conns   map[*voiceConn]struct{}
	closing bool
	wg      sync.WaitGroup
}

func NewVoiceGateway(auth *middleware.JWTAuth, sessions voiceRecorder, cfg VoiceConfig, log *logger.Logger) *VoiceGateway {
	return &VoiceGateway{
		auth:     auth,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		conns:    make(map[*voiceConn]struct{}),
	}
}

type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type helloPayload struct {
	Synthesis   bool   `json:"synthesis"`
	Recognition bool   `json:"recognition"`
	Language    string `json:"lang"`
}

type startPayload struct {
	Content string `json:"content"`
}

type answerPayload struct {
	Transcript string `json:"transcript"`
}

type statePayload struct {
	State   voice.State          `json:"state"`
	Session *models.VoiceSession `json:"session"`
}

type answeredPayload struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	Correct    bool   `json:"correct"`
}

type responsePayload struct {
	Command string `json:"command"`
	models.VoiceResponse
}

func (g *VoiceGateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticate(g.auth, r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if g.isClosing() {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("voice websocket upgrade failed", "error", err)
		return
	}

	vc := g.newVoiceConn(userID, conn)
	if !g.track(vc) {
		vc.goingAway()
		vc.close()
		return
	}
	go func() {
		defer g.untrack(vc)
		vc.run()
	}()
}

// Shutdown tells every open voice socket the server is going away and waits
// until their sessions have been stopped and recorded.
func (g *VoiceGateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.closing = true
	conns := make([]*voiceConn, 0, len(g.conns))
	for vc := range g.conns {
		conns = append(conns, vc)
	}
	g.mu.Unlock()

	for _, vc := range conns {
		vc.goingAway()
	}

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connections reports the number of open voice sockets.
func (g *VoiceGateway) Connections() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.conns)
}

func (g *VoiceGateway) isClosing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closing
}

func (g *VoiceGateway) track(vc *voiceConn) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closing {
		return false
	}
	g.conns[vc] = struct{}{}
	g.wg.Add(1)
	return true
}

func (g *VoiceGateway) untrack(vc *voiceConn) {
	g.mu.Lock()
	delete(g.conns, vc)
	g.mu.Unlock()
	g.wg.Done()
}

// voiceConn is the per-socket wiring: transport, devices, adapters and the
// controller that drives them.
type voiceConn struct {
	userID  uuid.UUID
	conn    *websocket.Conn
	writeMu sync.Mutex

	devices     *speech.RemoteDevices
	synthesizer *speech.Synthesizer
	recognizer  *speech.Recognizer
	ctrl        *voice.Controller
	rec         *sessionRecorder
	log         *logger.Logger

	// touched only from controller callbacks, which run serially
	lastStart time.Time
}

func (g *VoiceGateway) newVoiceConn(userID uuid.UUID, conn *websocket.Conn) *voiceConn {
	log := g.log.With("user_id", userID)
	vc := &voiceConn{userID: userID, conn: conn, log: log}

	clk := clock.Real()
	vc.devices = speech.NewRemoteDevices(vc)
	vc.synthesizer = speech.NewSynthesizer(vc.devices.Synthesis(), clk, log)
	vc.synthesizer.SetConfig(g.cfg.Synthesis)
	vc.recognizer = speech.NewRecognizer(vc.devices.Recognition(), clk, log)
	vc.recognizer.SetConfig(g.cfg.Recognition)
	vc.recognizer.SetRestartDelay(g.cfg.RestartDelay)

	vc.ctrl = voice.NewController(vc.synthesizer, vc.recognizer,
		voice.WithClock(clk),
		voice.WithTiming(g.cfg.Timing),
		voice.WithLogger(log),
	)
	vc.ctrl.OnStateChange(vc.stateChanged)
	vc.ctrl.OnAnswer(vc.answered)

	if g.sessions != nil {
		vc.rec = newSessionRecorder(g.sessions, userID, log)
	}
	return vc
}

// Send implements speech.Transport.
func (vc *voiceConn) Send(msg models.WSMessage) error {
	vc.writeMu.Lock()
	defer vc.writeMu.Unlock()
	vc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return vc.conn.WriteJSON(msg)
}

func (vc *voiceConn) run() {
	defer vc.close()

	vc.conn.SetReadLimit(maxVoiceFrame)
	for {
		var frame inboundFrame
		if err := vc.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				vc.log.Debug("voice websocket closed", "error", err)
			}
			return
		}
		vc.dispatch(frame)
	}
}

func (vc *voiceConn) close() {
	vc.ctrl.Stop()
	vc.devices.Close()
	if vc.rec != nil {
		vc.rec.close()
	}
	vc.conn.Close()
}

// goingAway sends a close frame and closes the socket, which ends run.
func (vc *voiceConn) goingAway() {
	vc.writeMu.Lock()
	defer vc.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	if err := vc.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		vc.log.Debug("voice close frame not delivered", "error", err)
	}
	vc.conn.Close()
}

func (vc *voiceConn) dispatch(frame inboundFrame) {
	if speech.IsDeviceEvent(frame.Type) {
		if err := vc.devices.HandleEvent(frame.Type, frame.Payload); err != nil {
			vc.log.Warn("bad device event", "type", frame.Type, "error", err)
		}
		return
	}

	var resp models.VoiceResponse
	switch frame.Type {
	case frameHello:
		var p helloPayload
		if !vc.decode(frame, &p) {
			return
		}
		vc.devices.SetCapabilities(p.Synthesis, p.Recognition)
		if p.Language != "" {
			sc := vc.synthesizer.Config()
			sc.Language = p.Language
			vc.synthesizer.SetConfig(sc)
			rc := vc.recognizer.Config()
			rc.Language = p.Language
			vc.recognizer.SetConfig(rc)
		}
		resp = models.VoiceResponse{
			Success: true,
			Message: "Devices registered",
			Data:    map[string]bool{"supported": vc.ctrl.Supported()},
		}
	case frameStart:
		var p startPayload
		if !vc.decode(frame, &p) {
			return
		}
		resp = vc.ctrl.StartSession(p.Content)
	case frameAsk:
		resp = vc.ctrl.AskCurrentQuestion()
	case frameRead:
		resp = vc.ctrl.ReadCurrentFlashcard()
	case frameNext:
		resp = vc.ctrl.NextFlashcard()
	case framePrevious:
		resp = vc.ctrl.PreviousFlashcard()
	case frameRepeat:
		resp = vc.ctrl.AskCurrentQuestion()
	case frameHelp:
		resp = vc.ctrl.Help()
	case frameContinue:
		resp = vc.ctrl.Continue()
	case frameAnswer:
		var p answerPayload
		if !vc.decode(frame, &p) {
			return
		}
		resp = vc.ctrl.SubmitTranscript(p.Transcript)
	case frameStop:
		resp = vc.ctrl.EndSession()
	default:
		resp = models.VoiceResponse{Success: false, Message: "Unknown command", Error: "unknown frame type: " + frame.Type}
	}

	vc.respond(frame.Type, resp)
}

func (vc *voiceConn) decode(frame inboundFrame, v interface{}) bool {
	if len(frame.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(frame.Payload, v); err != nil {
		vc.respond(frame.Type, models.VoiceResponse{Success: false, Message: "Invalid payload", Error: err.Error()})
		return false
	}
	return true
}

func (vc *voiceConn) respond(command string, resp models.VoiceResponse) {
	err := vc.Send(models.WSMessage{
		Type:    frameResponse,
		Payload: responsePayload{Command: command, VoiceResponse: resp},
	})
	if err != nil {
		vc.log.Debug("voice response not delivered", "command", command, "error", err)
	}
}

func (vc *voiceConn) stateChanged(state voice.State, session *models.VoiceSession) {
	_ = vc.Send(models.WSMessage{Type: frameState, Payload: statePayload{State: state, Session: session}})

	if vc.rec == nil {
		return
	}
	switch {
	case session != nil && !session.SessionStartTime.Equal(vc.lastStart):
		if !vc.lastStart.IsZero() {
			vc.rec.stop()
		}
		vc.lastStart = session.SessionStartTime
		vc.rec.start(len(session.Flashcards))
	case session == nil && !vc.lastStart.IsZero():
		vc.lastStart = time.Time{}
		vc.rec.stop()
	}
}

func (vc *voiceConn) answered(questionID, answer string, correct bool) {
	_ = vc.Send(models.WSMessage{
		Type:    frameAnswered,
		Payload: answeredPayload{QuestionID: questionID, Answer: answer, Correct: correct},
	})
	if vc.rec != nil {
		vc.rec.answer(questionID, answer, correct)
	}
}

// sessionRecorder persists a socket's session trace off the controller's
// queue, in order.
type sessionRecorder struct {
	store  voiceRecorder
	userID uuid.UUID
	log    *logger.Logger

	mu     sync.Mutex
	closed bool
	ops    chan func(ctx context.Context)
	done   chan struct{}

	// owned by the loop goroutine
	sessionID uuid.UUID
}

func newSessionRecorder(store voiceRecorder, userID uuid.UUID, log *logger.Logger) *sessionRecorder {
	r := &sessionRecorder{
		store:  store,
		userID: userID,
		log:    log,
		ops:    make(chan func(ctx context.Context), 64),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *sessionRecorder) loop() {
	defer close(r.done)
	for op := range r.ops {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		op(ctx)
		cancel()
	}
}

func (r *sessionRecorder) enqueue(op func(ctx context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.ops <- op:
	default:
		r.log.Warn("voice session recorder backlog full, dropping update")
	}
}

func (r *sessionRecorder) start(cards int) {
	r.enqueue(func(ctx context.Context) {
		id, err := r.store.Start(ctx, r.userID, cards)
		if err != nil {
			r.log.Error("failed to record voice session", "error", err)
			return
		}
		r.sessionID = id
	})
}

func (r *sessionRecorder) answer(questionID, answer string, correct bool) {
	r.enqueue(func(ctx context.Context) {
		if r.sessionID == uuid.Nil {
			return
		}
		if err := r.store.RecordAnswer(ctx, r.sessionID, questionID, answer, correct); err != nil {
			r.log.Error("failed to record voice answer", "session_id", r.sessionID, "error", err)
		}
	})
}

func (r *sessionRecorder) stop() {
	r.enqueue(r.stopNow)
}

func (r *sessionRecorder) stopNow(ctx context.Context) {
	if r.sessionID == uuid.Nil {
		return
	}
	if err := r.store.Stop(ctx, r.sessionID, r.userID); err != nil {
		r.log.Error("failed to close voice session", "session_id", r.sessionID, "error", err)
	}
	r.sessionID = uuid.Nil
}

// close ends any open session and waits for pending writes.
func (r *sessionRecorder) close() {
	r.stop()
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.ops)
	}
	r.mu.Unlock()
	<-r.done
}
