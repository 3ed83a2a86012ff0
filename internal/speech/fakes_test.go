package speech

import (
	"errors"
	"sync"
)

type fakeSynthEngine struct {
	available bool
	speakErr  error

	mu      sync.Mutex
	spoken  []Utterance
	cbs     map[string]Callbacks
	cancels int
	pauses  int
	resumes int
}

func newFakeSynthEngine() *fakeSynthEngine {
	return &fakeSynthEngine{available: true, cbs: make(map[string]Callbacks)}
}

func (f *fakeSynthEngine) Available() bool { return f.available }

func (f *fakeSynthEngine) Speak(u Utterance, cb Callbacks) error {
	if f.speakErr != nil {
		return f.speakErr
	}
	f.mu.Lock()
	f.spoken = append(f.spoken, u)
	f.cbs[u.ID] = cb
	f.mu.Unlock()
	return nil
}

func (f *fakeSynthEngine) Cancel() { f.cancels++ }
func (f *fakeSynthEngine) Pause()  { f.pauses++ }
func (f *fakeSynthEngine) Resume() { f.resumes++ }

func (f *fakeSynthEngine) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.spoken))
	for i, u := range f.spoken {
		out[i] = u.Text
	}
	return out
}

func (f *fakeSynthEngine) last() Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spoken[len(f.spoken)-1]
}

func (f *fakeSynthEngine) end(id string) {
	f.mu.Lock()
	cb := f.cbs[id]
	f.mu.Unlock()
	cb.OnEnd()
}

func (f *fakeSynthEngine) fail(id string) {
	f.mu.Lock()
	cb := f.cbs[id]
	f.mu.Unlock()
	cb.OnError(errors.New("synthesis-failed"))
}

type fakeRecEngine struct {
	available bool
	startErr  error

	mu      sync.Mutex
	starts  []string
	configs []RecognitionConfig
	cbs     map[string]RecognitionCallbacks
	stops   []string
}

func newFakeRecEngine() *fakeRecEngine {
	return &fakeRecEngine{available: true, cbs: make(map[string]RecognitionCallbacks)}
}

func (f *fakeRecEngine) Available() bool { return f.available }

func (f *fakeRecEngine) Start(id string, cfg RecognitionConfig, cb RecognitionCallbacks) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.starts = append(f.starts, id)
	f.configs = append(f.configs, cfg)
	f.cbs[id] = cb
	f.mu.Unlock()
	return nil
}

func (f *fakeRecEngine) Stop(id string) {
	f.mu.Lock()
	f.stops = append(f.stops, id)
	f.mu.Unlock()
}

func (f *fakeRecEngine) lastID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts[len(f.starts)-1]
}

func (f *fakeRecEngine) callbacks(id string) RecognitionCallbacks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cbs[id]
}
