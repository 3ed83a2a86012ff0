package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashvoice-backend/internal/models"
)

func TestStartSession_Unsupported(t *testing.T) {
	h := newHarness(t)
	h.in.supported = false

	resp := h.ctrl.StartSession(studyText)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrVoiceUnsupported.Error(), resp.Error)
	assert.Equal(t, []string{msgUnsupported}, h.out.spoken)
	assert.Equal(t, StateIdle, h.ctrl.State())
	assert.Nil(t, h.ctrl.Snapshot())
}

func TestStartSession_EmptyContent(t *testing.T) {
	h := newHarness(t)

	resp := h.ctrl.StartSession("")
	require.True(t, resp.Success)

	snap := h.ctrl.Snapshot()
	require.NotNil(t, snap)
	require.Len(t, snap.Flashcards, 1)
	assert.Equal(t, SummaryCardID, snap.Flashcards[0].ID)
	assert.Equal(t, models.VoiceCardSummary, snap.Flashcards[0].Type)
	assert.Equal(t, "topic", snap.Flashcards[0].Answer)
	assert.Equal(t, 0, snap.CurrentIndex)
	assert.Equal(t, msgIntro, h.out.spoken[0])
}

func TestSession_AsksAfterIntroAndListensAfterQuestion(t *testing.T) {
	h := newHarness(t)
	h.out.autoEnd = false

	h.ctrl.StartSession(studyText)
	h.clk.Advance(10 * time.Second)
	assert.Equal(t, []string{msgIntro}, h.out.spoken, "question waits for the intro to finish")

	h.out.finish()
	h.clk.Advance(DefaultTiming().IntroDelay)
	assert.Equal(t, "Question: What is the main topic of this page?. Please answer with one word.", h.out.lastSpoken())
	assert.Equal(t, StateSpeaking, h.ctrl.State())

	h.clk.Advance(time.Minute)
	assert.Equal(t, 0, h.in.listens, "recognition never starts while speaking")

	h.out.finish()
	h.clk.Advance(DefaultTiming().ListenDelay)
	assert.Equal(t, 1, h.in.listens)
	assert.Equal(t, StateListening, h.ctrl.State())
}

func TestSession_NextCommand(t *testing.T) {
	h := newHarness(t)
	h.startListening(studyText)
	require.Equal(t, 1, h.in.listens)

	h.in.say("next")
	announced := len(h.out.spoken) - 1
	assert.Equal(t, msgMovingNext, h.out.spoken[announced])
	assert.Equal(t, 1, h.ctrl.Snapshot().CurrentIndex)

	h.clk.Advance(DefaultTiming().NavigationDelay)

	assert.Equal(t, 1, h.questionsSince(announced))
	assert.Equal(t, "Question: Complete the sentence: blank keeps frequently used data close to the processor. Please answer with one word.", h.out.lastSpoken())
	assert.Empty(t, h.answers, "commands are not graded")
}

func TestSession_CorrectAnswerAdvances(t *testing.T) {
	h := newHarness(t)
	h.startListening(studyText)

	h.in.say("Caching")

	require.Len(t, h.answers, 1)
	assert.Equal(t, answerEvent{SummaryCardID, "caching", true}, h.answers[0])
	assert.Equal(t, msgCorrect, h.out.lastSpoken())
	assert.Equal(t, "caching", h.ctrl.Snapshot().UserAnswers[SummaryCardID])

	h.clk.Advance(DefaultTiming().FeedbackDelay)
	assert.Equal(t, msgMovingNext, h.out.lastSpoken())
	assert.Equal(t, 1, h.ctrl.Snapshot().CurrentIndex)
}

func TestSession_IncorrectAnswerWaitsForContinue(t *testing.T) {
	h := newHarness(t)
	h.startListening(studyText)

	h.in.say("bananas")

	require.Len(t, h.answers, 1)
	assert.False(t, h.answers[0].correct)
	assert.Equal(t, "Not quite. The correct answer is caching. Press continue when you are ready to move on.", h.out.lastSpoken())
	assert.Equal(t, StateAwaitingContinue, h.ctrl.State())

	spoken := len(h.out.spoken)
	h.clk.Advance(time.Hour)
	assert.Len(t, h.out.spoken, spoken, "no automatic advance")
	assert.Equal(t, 0, h.ctrl.Snapshot().CurrentIndex)

	resp := h.ctrl.Continue()
	require.True(t, resp.Success)
	assert.Equal(t, msgMovingNext, h.out.lastSpoken())
	assert.Equal(t, 1, h.ctrl.Snapshot().CurrentIndex)

	assert.False(t, h.ctrl.Continue().Success, "continue is single use")
}

func TestSession_CursorBounds(t *testing.T) {
	t.Run("previous at first card", func(t *testing.T) {
		h := newHarness(t)
		h.startListening(studyText)

		h.in.say("go to the previous one")

		assert.Equal(t, msgFirstCard, h.out.lastSpoken())
		assert.Equal(t, 0, h.ctrl.Snapshot().CurrentIndex)
		h.clk.Advance(DefaultTiming().ListenDelay)
		assert.Equal(t, 2, h.in.listens)
	})

	t.Run("previous moves back", func(t *testing.T) {
		h := newHarness(t)
		h.ctrl.StartSession(studyText)
		h.ctrl.NextFlashcard()
		h.ctrl.NextFlashcard()
		require.Equal(t, 2, h.ctrl.Snapshot().CurrentIndex)

		h.ctrl.PreviousFlashcard()
		assert.Equal(t, 1, h.ctrl.Snapshot().CurrentIndex)
		assert.Equal(t, msgMovingPrevious, h.out.lastSpoken())
	})

	t.Run("next at last card ends", func(t *testing.T) {
		h := newHarness(t)
		h.ctrl.StartSession("")

		resp := h.ctrl.NextFlashcard()

		assert.True(t, resp.Success)
		assert.Equal(t, "Session ended", resp.Message)
		assert.Equal(t, StateIdle, h.ctrl.State())
		assert.Nil(t, h.ctrl.Snapshot())
		assert.Equal(t, "Session ended. You reviewed 1 flashcards in 0 minutes.", h.out.lastSpoken())
	})
}

func TestSession_StopCommandReportsDuration(t *testing.T) {
	h := newHarness(t)
	h.startListening(studyText)
	h.clk.Advance(3 * time.Minute)

	h.in.say("please stop")

	assert.Equal(t, "Session ended. You reviewed 4 flashcards in 3 minutes.", h.out.lastSpoken())
	assert.Equal(t, StateIdle, h.ctrl.State())
	assert.Equal(t, StateIdle, h.states[len(h.states)-1])
	assert.Nil(t, h.snaps[len(h.snaps)-1])
}

func TestSession_HelpAndRepeat(t *testing.T) {
	h := newHarness(t)
	h.startListening(studyText)

	h.in.say("help")
	assert.Equal(t, msgHelp, h.out.lastSpoken())
	h.clk.Advance(DefaultTiming().ListenDelay)
	assert.Equal(t, 2, h.in.listens)

	h.in.say("repeat that")
	assert.Equal(t, "Question: What is the main topic of this page?. Please answer with one word.", h.out.lastSpoken())

	h.clk.Advance(DefaultTiming().ListenDelay)
	h.in.say("answer")
	assert.Equal(t, "Question: What is the main topic of this page?. Please answer with one word.", h.out.lastSpoken())
	assert.Empty(t, h.answers)
}

func TestSession_EmptyTranscriptListensAgain(t *testing.T) {
	h := newHarness(t)
	h.startListening(studyText)

	h.in.say("   ")

	assert.Equal(t, msgNotHeard, h.out.lastSpoken())
	assert.Empty(t, h.answers)
	h.clk.Advance(DefaultTiming().ListenDelay)
	assert.Equal(t, 2, h.in.listens)
}

func TestSession_RecognitionErrorRests(t *testing.T) {
	h := newHarness(t)
	h.startListening(studyText)

	h.in.fail("no-speech")

	assert.Equal(t, "No speech detected. Please try again.", h.out.lastSpoken())
	assert.Equal(t, StateAwaitingContinue, h.ctrl.State())
	require.NotNil(t, h.ctrl.Snapshot(), "session survives device errors")
	assert.False(t, h.ctrl.Snapshot().IsListening)

	h.clk.Advance(time.Minute)
	assert.Equal(t, 1, h.in.listens)

	require.True(t, h.ctrl.Continue().Success)
	assert.Equal(t, "Question: What is the main topic of this page?. Please answer with one word.", h.out.lastSpoken())
	h.clk.Advance(DefaultTiming().ListenDelay)
	assert.Equal(t, 2, h.in.listens)
}

func TestSession_BusyRecognizerRearmsAfterDelay(t *testing.T) {
	h := newHarness(t)
	h.in.busy = 1

	h.ctrl.StartSession(studyText)
	h.clk.Advance(DefaultTiming().IntroDelay)
	stops := h.in.stops
	h.clk.Advance(DefaultTiming().ListenDelay)

	assert.Equal(t, 0, h.in.listens)
	assert.Equal(t, stops+1, h.in.stops, "busy device is stopped first")
	assert.NotEqual(t, StateListening, h.ctrl.State())

	h.clk.Advance(DefaultTiming().ListenDelay)
	assert.Equal(t, 1, h.in.listens)
	assert.Equal(t, StateListening, h.ctrl.State())
}

func TestSession_RecognizerStillBusyRests(t *testing.T) {
	h := newHarness(t)
	h.in.busy = 2

	h.startListening(studyText)
	h.clk.Advance(DefaultTiming().ListenDelay)

	assert.Equal(t, 0, h.in.listens)
	assert.Equal(t, "Speech recognition error: start-failed", h.out.lastSpoken())
	assert.Equal(t, StateAwaitingContinue, h.ctrl.State())
}

func TestSession_NeverListensWhileSpeaking(t *testing.T) {
	h := newHarness(t)
	h.startListening(studyText)
	h.in.say("bananas")
	h.ctrl.Continue()
	h.clk.Advance(DefaultTiming().NavigationDelay + DefaultTiming().ListenDelay)
	h.in.say("caching")
	h.clk.Advance(DefaultTiming().FeedbackDelay)
	h.ctrl.Stop()

	require.NotEmpty(t, h.snaps)
	sawListening := false
	for i, s := range h.snaps {
		if s == nil {
			continue
		}
		assert.False(t, s.IsListening && s.IsSpeaking, "snapshot %d", i)
		sawListening = sawListening || s.IsListening
	}
	assert.True(t, sawListening)
}

func TestStop_DropsStrayCallbacks(t *testing.T) {
	h := newHarness(t)
	h.out.autoEnd = false

	h.ctrl.StartSession(studyText)
	intro := h.out.last

	h.ctrl.Stop()
	assert.Equal(t, StateIdle, h.ctrl.State())
	assert.Nil(t, h.ctrl.Snapshot())
	assert.Equal(t, 1, h.out.stops)

	intro.OnEnd()
	h.clk.Advance(time.Minute)
	assert.Equal(t, []string{msgIntro}, h.out.spoken)
	assert.Equal(t, StateIdle, h.ctrl.State())
}

func TestStaleRecognitionEventsIgnored(t *testing.T) {
	h := newHarness(t)
	h.startListening(studyText)
	stale := h.in.h

	h.ctrl.NextFlashcard()
	stale.OnStart()
	stale.OnResult(speechResult("caching"))

	assert.Empty(t, h.answers)
	assert.False(t, h.ctrl.Snapshot().IsListening)
}

func TestCommands_RequireSession(t *testing.T) {
	h := newHarness(t)

	for name, fn := range map[string]func() models.VoiceResponse{
		"ask":      h.ctrl.AskCurrentQuestion,
		"read":     h.ctrl.ReadCurrentFlashcard,
		"next":     h.ctrl.NextFlashcard,
		"previous": h.ctrl.PreviousFlashcard,
		"help":     h.ctrl.Help,
		"continue": h.ctrl.Continue,
		"end":      h.ctrl.EndSession,
	} {
		t.Run(name, func(t *testing.T) {
			resp := fn()
			assert.False(t, resp.Success)
			assert.Equal(t, ErrNoActiveSession.Error(), resp.Error)
		})
	}
	assert.False(t, h.ctrl.SubmitTranscript("next").Success)
}

func TestReadCurrentFlashcard(t *testing.T) {
	h := newHarness(t)
	h.ctrl.StartSession(studyText)

	require.True(t, h.ctrl.ReadCurrentFlashcard().Success)
	assert.Equal(t, "What is the main topic of this page?. The answer is caching.", h.out.lastSpoken())
}

func TestSubmitTranscript_Grades(t *testing.T) {
	h := newHarness(t)
	h.ctrl.StartSession(studyText)

	h.ctrl.SubmitTranscript("  CACHING ")

	require.Len(t, h.answers, 1)
	assert.True(t, h.answers[0].correct)
}

func TestStartSession_ReplacesRunningSession(t *testing.T) {
	h := newHarness(t)
	h.ctrl.StartSession(studyText)
	h.ctrl.NextFlashcard()

	h.ctrl.StartSession("")

	snap := h.ctrl.Snapshot()
	require.NotNil(t, snap)
	assert.Len(t, snap.Flashcards, 1)
	assert.Equal(t, 0, snap.CurrentIndex)
}
