// Package speech adapts callback-driven speech devices for the voice
// controller: a serial synthesis queue over a SynthesisEngine and a
// restartable single-owner recognizer over a RecognitionEngine.
package speech

type SynthesisConfig struct {
	Rate     float64 `json:"rate"`
	Pitch    float64 `json:"pitch"`
	Volume   float64 `json:"volume"`
	Language string  `json:"lang"`
	Voice    string  `json:"voice,omitempty"`
}

func DefaultSynthesisConfig() SynthesisConfig {
	return SynthesisConfig{Rate: 0.9, Pitch: 1.0, Volume: 1.0, Language: "en-US"}
}

type Utterance struct {
	ID     string
	Text   string
	Config SynthesisConfig
}

// Callbacks report the lifecycle of one utterance. Any of them may be nil.
type Callbacks struct {
	OnStart func()
	OnEnd   func()
	OnError func(err error)
}

// SynthesisEngine is a speech-out device. Speak must not block until the
// utterance finishes; progress is reported through the callbacks.
type SynthesisEngine interface {
	Available() bool
	Speak(u Utterance, cb Callbacks) error
	Cancel()
	Pause()
	Resume()
}

type RecognitionConfig struct {
	Language        string `json:"lang"`
	Continuous      bool   `json:"continuous"`
	InterimResults  bool   `json:"interim_results"`
	MaxAlternatives int    `json:"max_alternatives"`
}

func DefaultRecognitionConfig() RecognitionConfig {
	return RecognitionConfig{Language: "en-US", MaxAlternatives: 1}
}

type Transcript struct {
	Text       string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
}

// RecognitionCallbacks report the lifecycle of one recognition attempt.
// OnError receives the raw device error code.
type RecognitionCallbacks struct {
	OnStart  func()
	OnResult func(Transcript)
	OnError  func(code string)
	OnEnd    func()
}

// RecognitionEngine is a speech-in device. Attempts are identified by the id
// passed to Start.
type RecognitionEngine interface {
	Available() bool
	Start(id string, cfg RecognitionConfig, cb RecognitionCallbacks) error
	Stop(id string)
}
