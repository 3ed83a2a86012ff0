package speech

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"flashvoice-backend/internal/clock"
	"flashvoice-backend/internal/logger"
)

// RestartDelay is the pause before re-arming recognition that ended while
// listening was still wanted.
const RestartDelay = time.Second

// Handlers receive recognizer events. Any of them may be nil.
type Handlers struct {
	OnStart  func()
	OnResult func(Transcript)
	OnError  func(*RecognitionError)
	OnEnd    func()
}

// Recognizer owns at most one recognition attempt at a time. While
// listening is wanted, an attempt that ends is restarted after RestartDelay.
type Recognizer struct {
	engine       RecognitionEngine
	clock        clock.Clock
	log          *logger.Logger
	restartDelay time.Duration

	mu        sync.Mutex
	cfg       RecognitionConfig
	handlers  Handlers
	attempt   string
	listening bool
	want      bool
	gen       uint64
}

func NewRecognizer(engine RecognitionEngine, clk clock.Clock, log *logger.Logger) *Recognizer {
	if clk == nil {
		clk = clock.Real()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Recognizer{
		engine:       engine,
		clock:        clk,
		log:          log,
		restartDelay: RestartDelay,
		cfg:          DefaultRecognitionConfig(),
	}
}

func (r *Recognizer) Supported() bool {
	return r.engine != nil && r.engine.Available()
}

func (r *Recognizer) Config() RecognitionConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

func (r *Recognizer) SetConfig(cfg RecognitionConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
}

func (r *Recognizer) SetRestartDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restartDelay = d
}

// Listening reports whether an attempt is in progress.
func (r *Recognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempt != ""
}

// Listen starts an attempt. It fails with ErrAlreadyListening while another
// attempt is in progress or a restart is pending.
func (r *Recognizer) Listen(h Handlers) error {
	if !r.Supported() {
		return ErrRecognitionUnsupported
	}

	r.mu.Lock()
	if r.attempt != "" || r.want {
		r.mu.Unlock()
		return ErrAlreadyListening
	}
	r.handlers = h
	r.want = true
	r.gen++
	id, cfg := r.beginLocked()
	r.mu.Unlock()

	if err := r.start(id, cfg); err != nil {
		r.mu.Lock()
		r.want = false
		r.mu.Unlock()
		return err
	}
	return nil
}

// Stop ends the current attempt and cancels any pending restart. Events of
// the stopped attempt are not delivered.
func (r *Recognizer) Stop() {
	r.mu.Lock()
	id := r.attempt
	r.attempt = ""
	r.listening = false
	r.want = false
	r.gen++
	r.mu.Unlock()

	if id != "" {
		r.engine.Stop(id)
	}
}

func (r *Recognizer) beginLocked() (string, RecognitionConfig) {
	r.attempt = uuid.NewString()
	r.listening = false
	return r.attempt, r.cfg
}

func (r *Recognizer) start(id string, cfg RecognitionConfig) error {
	err := r.engine.Start(id, cfg, RecognitionCallbacks{
		OnStart:  func() { r.onStart(id) },
		OnResult: func(t Transcript) { r.onResult(id, t) },
		OnError:  func(code string) { r.onError(id, code) },
		OnEnd:    func() { r.onEnd(id) },
	})
	if err != nil {
		r.mu.Lock()
		if r.attempt == id {
			r.attempt = ""
		}
		r.mu.Unlock()
	}
	return err
}

func (r *Recognizer) onStart(id string) {
	r.mu.Lock()
	if r.attempt != id {
		r.mu.Unlock()
		return
	}
	r.listening = true
	h := r.handlers
	r.mu.Unlock()

	if h.OnStart != nil {
		h.OnStart()
	}
}

func (r *Recognizer) onResult(id string, t Transcript) {
	r.mu.Lock()
	if r.attempt != id {
		r.mu.Unlock()
		return
	}
	if t.IsFinal && !r.cfg.Continuous {
		r.want = false
	}
	h := r.handlers
	r.mu.Unlock()

	if h.OnResult != nil {
		h.OnResult(t)
	}
}

func (r *Recognizer) onError(id, code string) {
	r.mu.Lock()
	if r.attempt != id {
		r.mu.Unlock()
		return
	}
	r.attempt = ""
	r.listening = false
	r.want = false
	h := r.handlers
	r.mu.Unlock()

	rerr := NewRecognitionError(code)
	r.log.Warn("recognition error", "code", code)
	if h.OnError != nil {
		h.OnError(rerr)
	}
}

func (r *Recognizer) onEnd(id string) {
	r.mu.Lock()
	if r.attempt != id {
		r.mu.Unlock()
		return
	}
	r.attempt = ""
	r.listening = false
	h := r.handlers
	restart := r.want
	gen := r.gen
	delay := r.restartDelay
	r.mu.Unlock()

	if h.OnEnd != nil {
		h.OnEnd()
	}
	if restart {
		r.clock.AfterFunc(delay, func() { r.restart(gen) })
	}
}

func (r *Recognizer) restart(gen uint64) {
	r.mu.Lock()
	if gen != r.gen || !r.want || r.attempt != "" {
		r.mu.Unlock()
		return
	}
	id, cfg := r.beginLocked()
	r.mu.Unlock()

	if err := r.start(id, cfg); err != nil {
		r.log.Warn("recognition restart failed", "error", err)
		r.mu.Lock()
		r.want = false
		h := r.handlers
		r.mu.Unlock()
		if h.OnError != nil {
			h.OnError(&RecognitionError{Code: "restart-failed", Message: DescribeRecognitionError("restart-failed")})
		}
	}
}
