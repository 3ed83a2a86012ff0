// Package voice runs spoken flashcard sessions. A Controller owns one
// session at a time and turns the callbacks of a speech-out and a speech-in
// device into a single linear sequence: speak, listen, grade, advance.
package voice

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"flashvoice-backend/internal/clock"
	"flashvoice-backend/internal/grader"
	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/models"
	"flashvoice-backend/internal/speech"
)

var (
	ErrNoActiveSession  = errors.New("no active voice session")
	ErrVoiceUnsupported = errors.New("voice features not supported")
)

// SpeechOut is satisfied by *speech.Synthesizer.
type SpeechOut interface {
	Supported() bool
	Speak(text string, immediate bool, cb speech.Callbacks) speech.Feedback
	Stop()
}

// SpeechIn is satisfied by *speech.Recognizer.
type SpeechIn interface {
	Supported() bool
	Listen(h speech.Handlers) error
	Stop()
}

type Timing struct {
	IntroDelay      time.Duration
	NavigationDelay time.Duration
	FeedbackDelay   time.Duration
	ListenDelay     time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		IntroDelay:      2 * time.Second,
		NavigationDelay: time.Second,
		FeedbackDelay:   1500 * time.Millisecond,
		ListenDelay:     500 * time.Millisecond,
	}
}

type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

func WithTiming(t Timing) Option {
	return func(ctrl *Controller) { ctrl.timing = t }
}

func WithLogger(l *logger.Logger) Option {
	return func(ctrl *Controller) { ctrl.log = l }
}

// StateHandler receives every state change with a private copy of the
// session, nil once the controller is idle.
type StateHandler func(state State, session *models.VoiceSession)

type AnswerHandler func(questionID, answer string, correct bool)

// Controller drives one voice session. Public methods, device callbacks and
// timers all run on a single serial queue. Handlers registered with
// OnStateChange and OnAnswer run on that queue too and must not call the
// controller's command methods synchronously; State and Snapshot are safe.
type Controller struct {
	out    SpeechOut
	in     SpeechIn
	clock  clock.Clock
	timing Timing
	log    *logger.Logger
	queue  serialQueue

	// Owned by the queue.
	session   *models.VoiceSession
	state     State
	epoch     uint64
	utterance uint64
	attempt   uint64
	timer     clock.Timer
	timerSeq  uint64
	resume    func()

	handlersMu sync.Mutex
	onState    StateHandler
	onAnswer   AnswerHandler

	pubMu     sync.RWMutex
	published State
	snapshot  *models.VoiceSession
}

func NewController(out SpeechOut, in SpeechIn, opts ...Option) *Controller {
	c := &Controller{
		out:    out,
		in:     in,
		clock:  clock.Real(),
		timing: DefaultTiming(),
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.queue.log = c.log
	return c
}

func (c *Controller) OnStateChange(h StateHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.onState = h
}

func (c *Controller) OnAnswer(h AnswerHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.onAnswer = h
}

// Supported reports whether both speech devices are usable.
func (c *Controller) Supported() bool {
	return c.out.Supported() && c.in.Supported()
}

func (c *Controller) State() State {
	c.pubMu.RLock()
	defer c.pubMu.RUnlock()
	return c.published
}

// Snapshot returns a copy of the session as of the last state change, or nil
// when no session is active.
func (c *Controller) Snapshot() *models.VoiceSession {
	c.pubMu.RLock()
	defer c.pubMu.RUnlock()
	return c.snapshot.Clone()
}

// StartSession builds a deck from content and starts reading it. A running
// session is replaced.
func (c *Controller) StartSession(content string) models.VoiceResponse {
	var resp models.VoiceResponse
	c.queue.call(func() { resp = c.startSession(content) })
	return resp
}

func (c *Controller) AskCurrentQuestion() models.VoiceResponse {
	return c.withSession(func() models.VoiceResponse {
		c.ask()
		return c.ok("Asking current question")
	})
}

// ReadCurrentFlashcard speaks the question together with its answer.
func (c *Controller) ReadCurrentFlashcard() models.VoiceResponse {
	return c.withSession(func() models.VoiceResponse {
		c.read()
		return c.ok("Reading current flashcard")
	})
}

func (c *Controller) NextFlashcard() models.VoiceResponse {
	return c.withSession(func() models.VoiceResponse {
		c.next()
		if c.session == nil {
			return c.ok("Session ended")
		}
		return c.ok(msgMovingNext)
	})
}

func (c *Controller) PreviousFlashcard() models.VoiceResponse {
	return c.withSession(func() models.VoiceResponse {
		c.previous()
		return c.ok(msgMovingPrevious)
	})
}

func (c *Controller) Help() models.VoiceResponse {
	return c.withSession(func() models.VoiceResponse {
		c.help()
		return c.ok("Help requested")
	})
}

// Continue resumes after an incorrect answer or a recognition failure.
func (c *Controller) Continue() models.VoiceResponse {
	return c.withSession(func() models.VoiceResponse {
		if c.resume == nil {
			return models.VoiceResponse{Success: false, Message: "Nothing to continue"}
		}
		resume := c.resume
		c.beginTurn()
		resume()
		return c.ok("Continuing")
	})
}

// SubmitTranscript routes typed or externally recognized text exactly like
// a final recognition result.
func (c *Controller) SubmitTranscript(text string) models.VoiceResponse {
	return c.withSession(func() models.VoiceResponse {
		c.stopListening()
		c.setState(StateGrading)
		c.route(text)
		return c.ok("Transcript received")
	})
}

// EndSession speaks the session summary and returns to idle.
func (c *Controller) EndSession() models.VoiceResponse {
	return c.withSession(func() models.VoiceResponse {
		c.end()
		return c.ok("Session ended")
	})
}

// Stop silences both devices and drops the session. Callbacks still in
// flight from before the call are ignored.
func (c *Controller) Stop() {
	c.queue.call(func() {
		c.out.Stop()
		c.teardown()
	})
}

func (c *Controller) withSession(fn func() models.VoiceResponse) models.VoiceResponse {
	var resp models.VoiceResponse
	c.queue.call(func() {
		if c.session == nil {
			resp = models.VoiceResponse{Success: false, Message: "No active session", Error: ErrNoActiveSession.Error()}
			return
		}
		resp = fn()
	})
	return resp
}

func (c *Controller) ok(msg string) models.VoiceResponse {
	data := map[string]interface{}{"state": c.state.String()}
	if c.session != nil {
		data["current_index"] = c.session.CurrentIndex
		data["flashcard_count"] = len(c.session.Flashcards)
	}
	return models.VoiceResponse{Success: true, Message: msg, Data: data}
}

func (c *Controller) startSession(content string) models.VoiceResponse {
	if !c.Supported() {
		if c.out.Supported() {
			c.speak(msgUnsupported, nil)
		}
		return models.VoiceResponse{Success: false, Message: msgUnsupported, Error: ErrVoiceUnsupported.Error()}
	}
	if c.session != nil {
		c.teardown()
	}

	deck := BuildDeck(content)
	c.epoch++
	c.session = &models.VoiceSession{
		Flashcards:       deck,
		UserAnswers:      make(map[string]string),
		SessionStartTime: c.clock.Now(),
	}
	c.log.Info("voice session started", "flashcards", len(deck))

	c.speak(msgIntro, func() { c.after(c.timing.IntroDelay, c.ask) })
	return c.ok("Voice session started")
}

func (c *Controller) ask() {
	c.beginTurn()
	card := c.session.CurrentCard()
	c.speak(fmt.Sprintf(msgQuestion, card.Question), c.listenSoon)
}

func (c *Controller) read() {
	c.beginTurn()
	card := c.session.CurrentCard()
	c.speak(fmt.Sprintf(msgReadCard, card.Question, card.Answer), c.listenSoon)
}

func (c *Controller) help() {
	c.beginTurn()
	c.speak(msgHelp, c.listenSoon)
}

// next advances the cursor, or ends the session from the last card.
func (c *Controller) next() {
	c.beginTurn()
	s := c.session
	if s.CurrentIndex >= len(s.Flashcards)-1 {
		c.end()
		return
	}
	s.CurrentIndex++
	c.speak(msgMovingNext, func() { c.after(c.timing.NavigationDelay, c.ask) })
}

func (c *Controller) previous() {
	c.beginTurn()
	s := c.session
	if s.CurrentIndex == 0 {
		c.speak(msgFirstCard, c.listenSoon)
		return
	}
	s.CurrentIndex--
	c.speak(msgMovingPrevious, func() { c.after(c.timing.NavigationDelay, c.ask) })
}

func (c *Controller) end() {
	s := c.session
	minutes := int(c.clock.Now().Sub(s.SessionStartTime) / time.Minute)
	msg := fmt.Sprintf(msgSessionEnded, len(s.Flashcards), minutes)
	c.log.Info("voice session ended", "flashcards", len(s.Flashcards), "answers", len(s.UserAnswers))

	c.teardown()
	c.speak(msg, nil)
}

func (c *Controller) teardown() {
	c.beginTurn()
	c.stopListening()
	c.session = nil
	c.epoch++
	c.setState(StateIdle)
}

func (c *Controller) beginTurn() {
	c.cancelTimer()
	c.resume = nil
}

func (c *Controller) route(text string) {
	text = normalizeTranscript(text)
	if text == "" {
		c.speak(msgNotHeard, c.listenSoon)
		return
	}

	switch ParseCommand(text) {
	case CommandNext:
		c.next()
	case CommandPrevious:
		c.previous()
	case CommandRepeat, CommandAnswer:
		c.ask()
	case CommandStop:
		c.end()
	case CommandHelp:
		c.help()
	default:
		c.grade(text)
	}
}

func (c *Controller) grade(answer string) {
	c.beginTurn()
	card := c.session.CurrentCard()
	c.session.UserAnswers[card.ID] = answer
	correct := grader.ValidateAnswer(answer, card.Answer)
	c.publish()
	c.emitAnswer(card.ID, answer, correct)

	if correct {
		c.speak(msgCorrect, func() { c.after(c.timing.FeedbackDelay, c.next) })
		return
	}
	c.resume = c.next
	c.speak(fmt.Sprintf(msgIncorrect, card.Answer), func() { c.setState(StateAwaitingContinue) })
}

// speak interrupts any speech in flight and stops recognition first, so the
// device never hears its own output. then runs once the utterance ends or
// fails.
func (c *Controller) speak(text string, then func()) {
	c.stopListening()
	c.utterance++
	id, epoch := c.utterance, c.epoch
	if c.session != nil {
		c.session.IsSpeaking = true
		c.setState(StateSpeaking)
	}

	done := func(err error) {
		c.queue.post(func() { c.spoken(epoch, id, err, then) })
	}
	fb := c.out.Speak(text, true, speech.Callbacks{
		OnEnd:   func() { done(nil) },
		OnError: func(err error) { done(err) },
	})
	if !fb.Success {
		done(fb.Err)
	}
}

func (c *Controller) spoken(epoch, id uint64, err error, then func()) {
	if epoch != c.epoch || id != c.utterance {
		return
	}
	if err != nil {
		c.log.Warn("utterance failed", "error", err)
	}
	if c.session != nil {
		c.session.IsSpeaking = false
		c.setState(StateAwaitingQuestion)
	}
	if then != nil {
		then()
	}
}

func (c *Controller) listenSoon() {
	c.after(c.timing.ListenDelay, func() { c.listen(false) })
}

// listen arms one recognition attempt. A device that is still busy is
// stopped and tried once more after ListenDelay, never immediately.
func (c *Controller) listen(retried bool) {
	s := c.session
	if s == nil || s.IsSpeaking {
		return
	}

	c.attempt++
	id, epoch := c.attempt, c.epoch
	current := func(fn func()) {
		c.queue.post(func() {
			if epoch == c.epoch && id == c.attempt {
				fn()
			}
		})
	}
	h := speech.Handlers{
		OnStart:  func() { current(c.recognitionStarted) },
		OnResult: func(t speech.Transcript) { current(func() { c.recognized(t) }) },
		OnError:  func(err *speech.RecognitionError) { current(func() { c.recognitionFailed(err) }) },
		OnEnd:    func() { current(c.recognitionEnded) },
	}

	err := c.in.Listen(h)
	if errors.Is(err, speech.ErrAlreadyListening) && !retried {
		c.log.Debug("recognition busy, re-arming")
		c.stopListening()
		c.after(c.timing.ListenDelay, func() { c.listen(true) })
		return
	}
	if err != nil {
		code := "start-failed"
		if errors.Is(err, speech.ErrRecognitionUnsupported) {
			code = "not-supported"
		}
		c.log.Warn("recognition did not start", "error", err)
		c.recognitionFailed(speech.NewRecognitionError(code))
		return
	}
	c.setState(StateListening)
}

func (c *Controller) stopListening() {
	c.attempt++
	c.in.Stop()
	if c.session != nil {
		c.session.IsListening = false
	}
}

func (c *Controller) recognitionStarted() {
	c.session.IsListening = true
	c.publish()
}

func (c *Controller) recognitionEnded() {
	c.session.IsListening = false
	c.publish()
}

func (c *Controller) recognized(t speech.Transcript) {
	if !t.IsFinal {
		return
	}
	c.log.Debug("transcript", "text", t.Text, "confidence", t.Confidence)
	c.stopListening()
	c.setState(StateGrading)
	c.route(t.Text)
}

// recognitionFailed tells the user what went wrong and parks the session
// until Continue asks the question again.
func (c *Controller) recognitionFailed(err *speech.RecognitionError) {
	c.beginTurn()
	c.stopListening()
	c.resume = c.ask
	c.speak(err.Message, func() { c.setState(StateAwaitingContinue) })
}

func (c *Controller) after(d time.Duration, fn func()) {
	c.cancelTimer()
	seq := c.timerSeq
	c.timer = c.clock.AfterFunc(d, func() {
		c.queue.post(func() {
			if seq != c.timerSeq {
				return
			}
			c.timer = nil
			fn()
		})
	})
}

func (c *Controller) cancelTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerSeq++
}

func (c *Controller) setState(s State) {
	c.state = s
	c.publish()
}

func (c *Controller) publish() {
	snap := c.session.Clone()
	state := c.state

	c.pubMu.Lock()
	c.published = state
	c.snapshot = snap
	c.pubMu.Unlock()

	c.handlersMu.Lock()
	h := c.onState
	c.handlersMu.Unlock()
	if h != nil {
		h(state, snap.Clone())
	}
}

func (c *Controller) emitAnswer(questionID, answer string, correct bool) {
	c.handlersMu.Lock()
	h := c.onAnswer
	c.handlersMu.Unlock()
	if h != nil {
		h(questionID, answer, correct)
	}
}
