package voice

import (
	"strings"
	"testing"
	"time"

	"flashvoice-backend/internal/clock"
	"flashvoice-backend/internal/models"
	"flashvoice-backend/internal/speech"
)

const studyText = "Caching keeps frequently used data close to the processor. " +
	"Indexes let the database find matching rows without scanning tables. " +
	"Replication copies every write to standby servers for durability."

type fakeOut struct {
	supported bool
	autoEnd   bool
	spoken    []string
	last      speech.Callbacks
	stops     int
}

func (f *fakeOut) Supported() bool { return f.supported }

func (f *fakeOut) Speak(text string, immediate bool, cb speech.Callbacks) speech.Feedback {
	f.spoken = append(f.spoken, text)
	f.last = cb
	if f.autoEnd {
		cb.OnEnd()
	}
	return speech.Feedback{Success: true, Message: "Speech started"}
}

func (f *fakeOut) Stop() { f.stops++ }

func (f *fakeOut) finish() { f.last.OnEnd() }

func (f *fakeOut) lastSpoken() string {
	if len(f.spoken) == 0 {
		return ""
	}
	return f.spoken[len(f.spoken)-1]
}

type fakeIn struct {
	supported bool
	active    bool
	busy      int
	listens   int
	stops     int
	h         speech.Handlers
}

func (f *fakeIn) Supported() bool { return f.supported }

func (f *fakeIn) Listen(h speech.Handlers) error {
	if f.busy > 0 {
		f.busy--
		return speech.ErrAlreadyListening
	}
	if f.active {
		return speech.ErrAlreadyListening
	}
	f.active = true
	f.listens++
	f.h = h
	return nil
}

func (f *fakeIn) Stop() {
	f.stops++
	f.active = false
}

// say delivers a full recognition attempt for text.
func (f *fakeIn) say(text string) {
	h := f.h
	h.OnStart()
	h.OnResult(speechResult(text))
	h.OnEnd()
}

func speechResult(text string) speech.Transcript {
	return speech.Transcript{Text: text, Confidence: 0.9, IsFinal: true}
}

func (f *fakeIn) fail(code string) {
	f.h.OnError(speech.NewRecognitionError(code))
}

type answerEvent struct {
	questionID string
	answer     string
	correct    bool
}

type harness struct {
	ctrl    *Controller
	out     *fakeOut
	in      *fakeIn
	clk     *clock.Manual
	states  []State
	snaps   []*models.VoiceSession
	answers []answerEvent
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		out: &fakeOut{supported: true, autoEnd: true},
		in:  &fakeIn{supported: true},
		clk: clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	h.ctrl = NewController(h.out, h.in, WithClock(h.clk))
	h.ctrl.OnStateChange(func(s State, sess *models.VoiceSession) {
		h.states = append(h.states, s)
		h.snaps = append(h.snaps, sess)
	})
	h.ctrl.OnAnswer(func(id, answer string, correct bool) {
		h.answers = append(h.answers, answerEvent{id, answer, correct})
	})
	return h
}

// startListening starts a session on content and runs it up to the first
// armed recognition.
func (h *harness) startListening(content string) {
	h.ctrl.StartSession(content)
	h.clk.Advance(DefaultTiming().IntroDelay)
	h.clk.Advance(DefaultTiming().ListenDelay)
}

func (h *harness) questionsSince(idx int) int {
	n := 0
	for _, s := range h.out.spoken[idx:] {
		if strings.HasPrefix(s, "Question: ") {
			n++
		}
	}
	return n
}
