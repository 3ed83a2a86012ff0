package speech

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"flashvoice-backend/internal/clock"
	"flashvoice-backend/internal/logger"
)

// QueueGap separates queued utterances.
const QueueGap = 500 * time.Millisecond

// Feedback is the immediate outcome of a Speak call. A queued utterance
// reports success before it is heard.
type Feedback struct {
	Success bool
	Message string
	Err     error
}

type queuedUtterance struct {
	text string
	cb   Callbacks
}

// Synthesizer serializes utterances onto a SynthesisEngine. Callbacks of an
// utterance cancelled by Stop or by an immediate Speak are never delivered.
type Synthesizer struct {
	engine SynthesisEngine
	clock  clock.Clock
	log    *logger.Logger

	mu       sync.Mutex
	cfg      SynthesisConfig
	queue    []queuedUtterance
	current  string
	draining bool
	gen      uint64
}

func NewSynthesizer(engine SynthesisEngine, clk clock.Clock, log *logger.Logger) *Synthesizer {
	if clk == nil {
		clk = clock.Real()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Synthesizer{
		engine: engine,
		clock:  clk,
		log:    log,
		cfg:    DefaultSynthesisConfig(),
	}
}

func (s *Synthesizer) Supported() bool {
	return s.engine != nil && s.engine.Available()
}

func (s *Synthesizer) Config() SynthesisConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig applies to utterances dispatched after the call.
func (s *Synthesizer) SetConfig(cfg SynthesisConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Speak says text. An immediate utterance cancels whatever is playing and
// discards the queue; otherwise the text waits its turn.
func (s *Synthesizer) Speak(text string, immediate bool, cb Callbacks) Feedback {
	if !s.Supported() {
		return Feedback{Success: false, Message: "Speech synthesis not supported", Err: ErrSynthesisUnsupported}
	}

	item := queuedUtterance{text: text, cb: cb}

	s.mu.Lock()
	cancelled := false
	if immediate {
		cancelled = s.current != "" || len(s.queue) > 0 || s.draining
		s.resetLocked()
	} else if s.current != "" || s.draining {
		s.queue = append(s.queue, item)
		s.mu.Unlock()
		return Feedback{Success: true, Message: "Text queued for speech"}
	}
	u := s.beginLocked(item)
	s.mu.Unlock()

	if cancelled {
		s.engine.Cancel()
	}
	if err := s.dispatch(u, item.cb); err != nil {
		return Feedback{Success: false, Message: "Failed to start speech", Err: err}
	}
	return Feedback{Success: true, Message: "Speech started"}
}

// Stop cancels the current utterance and drops the queue.
func (s *Synthesizer) Stop() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	s.engine.Cancel()
}

func (s *Synthesizer) Pause() {
	if s.Speaking() {
		s.engine.Pause()
	}
}

func (s *Synthesizer) Resume() {
	s.engine.Resume()
}

func (s *Synthesizer) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != ""
}

func (s *Synthesizer) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Synthesizer) resetLocked() {
	s.queue = nil
	s.current = ""
	s.draining = false
	s.gen++
}

func (s *Synthesizer) beginLocked(item queuedUtterance) Utterance {
	u := Utterance{ID: uuid.NewString(), Text: item.text, Config: s.cfg}
	s.current = u.ID
	return u
}

func (s *Synthesizer) dispatch(u Utterance, cb Callbacks) error {
	err := s.engine.Speak(u, Callbacks{
		OnStart: func() {
			if s.isCurrent(u.ID) && cb.OnStart != nil {
				cb.OnStart()
			}
		},
		OnEnd: func() {
			if s.finish(u.ID) && cb.OnEnd != nil {
				cb.OnEnd()
			}
		},
		OnError: func(err error) {
			if !s.finish(u.ID) {
				return
			}
			s.log.Warn("utterance failed", "utterance_id", u.ID, "error", err)
			if cb.OnError != nil {
				cb.OnError(err)
			}
		},
	})
	if err != nil {
		s.finish(u.ID)
	}
	return err
}

func (s *Synthesizer) isCurrent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == id
}

// finish retires the utterance and schedules the next queued one. It
// reports false for an utterance that was already cancelled.
func (s *Synthesizer) finish(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != id {
		return false
	}
	s.current = ""
	if len(s.queue) > 0 && !s.draining {
		s.draining = true
		gen := s.gen
		s.clock.AfterFunc(QueueGap, func() { s.next(gen) })
	}
	return true
}

func (s *Synthesizer) next(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = false
	if s.current != "" || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	item := s.queue[0]
	s.queue = s.queue[1:]
	u := s.beginLocked(item)
	s.mu.Unlock()

	if err := s.dispatch(u, item.cb); err != nil {
		s.log.Warn("queued utterance failed to start", "error", err)
		if item.cb.OnError != nil {
			item.cb.OnError(err)
		}
	}
}
