package speech

import (
	"encoding/json"
	"fmt"
	"sync"

	"flashvoice-backend/internal/models"
)

// Transport carries device commands to the client hosting the real devices.
type Transport interface {
	Send(msg models.WSMessage) error
}

// Device command and event frame types.
const (
	MsgSpeak        = "tts.speak"
	MsgCancel       = "tts.cancel"
	MsgPause        = "tts.pause"
	MsgResume       = "tts.resume"
	MsgListen       = "stt.start"
	MsgStopListen   = "stt.stop"
	EvtSpeechStart  = "tts.start"
	EvtSpeechEnd    = "tts.end"
	EvtSpeechError  = "tts.error"
	EvtListenStart  = "stt.start"
	EvtListenResult = "stt.result"
	EvtListenError  = "stt.error"
	EvtListenEnd    = "stt.end"
)

type speakCommand struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	SynthesisConfig
}

type listenCommand struct {
	ID string `json:"id"`
	RecognitionConfig
}

type stopListenCommand struct {
	ID string `json:"id"`
}

// DeviceEvent is the payload of an inbound tts.* or stt.* frame.
type DeviceEvent struct {
	ID         string  `json:"id"`
	Error      string  `json:"error,omitempty"`
	Code       string  `json:"code,omitempty"`
	Transcript string  `json:"transcript,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	IsFinal    bool    `json:"is_final,omitempty"`
}

// RemoteDevices exposes a client's speech devices as local engines.
// Inbound events are routed back by utterance or attempt id.
type RemoteDevices struct {
	transport Transport

	mu          sync.Mutex
	synthesis   bool
	recognition bool
	closed      bool
	utterances  map[string]Callbacks
	attempts    map[string]RecognitionCallbacks
}

func NewRemoteDevices(transport Transport) *RemoteDevices {
	return &RemoteDevices{
		transport:  transport,
		utterances: make(map[string]Callbacks),
		attempts:   make(map[string]RecognitionCallbacks),
	}
}

// SetCapabilities records what the client reported in its hello frame.
func (d *RemoteDevices) SetCapabilities(synthesis, recognition bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.synthesis = synthesis
	d.recognition = recognition
}

func (d *RemoteDevices) Synthesis() SynthesisEngine { return &RemoteSynthesis{d: d} }

func (d *RemoteDevices) Recognition() RecognitionEngine { return &RemoteRecognition{d: d} }

// Close marks the transport gone and forgets every pending callback.
func (d *RemoteDevices) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.utterances = make(map[string]Callbacks)
	d.attempts = make(map[string]RecognitionCallbacks)
}

// IsDeviceEvent reports whether a frame type belongs to HandleEvent.
func IsDeviceEvent(msgType string) bool {
	switch msgType {
	case EvtSpeechStart, EvtSpeechEnd, EvtSpeechError,
		EvtListenStart, EvtListenResult, EvtListenError, EvtListenEnd:
		return true
	}
	return false
}

// HandleEvent decodes a device event payload and invokes the matching
// callback. Events for unknown ids are ignored.
func (d *RemoteDevices) HandleEvent(msgType string, payload json.RawMessage) error {
	var evt DeviceEvent
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msgType, err)
		}
	}

	switch msgType {
	case EvtSpeechStart:
		if cb, ok := d.utterance(evt.ID, false); ok && cb.OnStart != nil {
			cb.OnStart()
		}
	case EvtSpeechEnd:
		if cb, ok := d.utterance(evt.ID, true); ok && cb.OnEnd != nil {
			cb.OnEnd()
		}
	case EvtSpeechError:
		if cb, ok := d.utterance(evt.ID, true); ok && cb.OnError != nil {
			cb.OnError(fmt.Errorf("synthesis error: %s", evt.Error))
		}
	case EvtListenStart:
		if cb, ok := d.attempt(evt.ID, false); ok && cb.OnStart != nil {
			cb.OnStart()
		}
	case EvtListenResult:
		if cb, ok := d.attempt(evt.ID, false); ok && cb.OnResult != nil {
			cb.OnResult(Transcript{Text: evt.Transcript, Confidence: evt.Confidence, IsFinal: evt.IsFinal})
		}
	case EvtListenError:
		if cb, ok := d.attempt(evt.ID, false); ok && cb.OnError != nil {
			cb.OnError(evt.Code)
		}
	case EvtListenEnd:
		if cb, ok := d.attempt(evt.ID, true); ok && cb.OnEnd != nil {
			cb.OnEnd()
		}
	default:
		return fmt.Errorf("unknown device event %q", msgType)
	}
	return nil
}

func (d *RemoteDevices) utterance(id string, remove bool) (Callbacks, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, ok := d.utterances[id]
	if ok && remove {
		delete(d.utterances, id)
	}
	return cb, ok
}

func (d *RemoteDevices) attempt(id string, remove bool) (RecognitionCallbacks, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, ok := d.attempts[id]
	if ok && remove {
		delete(d.attempts, id)
	}
	return cb, ok
}

func (d *RemoteDevices) send(msgType string, payload interface{}) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}
	if err := d.transport.Send(models.WSMessage{Type: msgType, Payload: payload}); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}
	return nil
}

// RemoteSynthesis is the speech-out half of RemoteDevices.
type RemoteSynthesis struct {
	d *RemoteDevices
}

func (s *RemoteSynthesis) Available() bool {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.d.synthesis && !s.d.closed
}

func (s *RemoteSynthesis) Speak(u Utterance, cb Callbacks) error {
	s.d.mu.Lock()
	s.d.utterances[u.ID] = cb
	s.d.mu.Unlock()

	if err := s.d.send(MsgSpeak, speakCommand{ID: u.ID, Text: u.Text, SynthesisConfig: u.Config}); err != nil {
		s.d.utterance(u.ID, true)
		return err
	}
	return nil
}

func (s *RemoteSynthesis) Cancel() {
	s.d.mu.Lock()
	s.d.utterances = make(map[string]Callbacks)
	s.d.mu.Unlock()
	_ = s.d.send(MsgCancel, nil)
}

func (s *RemoteSynthesis) Pause() { _ = s.d.send(MsgPause, nil) }

func (s *RemoteSynthesis) Resume() { _ = s.d.send(MsgResume, nil) }

// RemoteRecognition is the speech-in half of RemoteDevices.
type RemoteRecognition struct {
	d *RemoteDevices
}

func (r *RemoteRecognition) Available() bool {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return r.d.recognition && !r.d.closed
}

func (r *RemoteRecognition) Start(id string, cfg RecognitionConfig, cb RecognitionCallbacks) error {
	r.d.mu.Lock()
	r.d.attempts[id] = cb
	r.d.mu.Unlock()

	if err := r.d.send(MsgListen, listenCommand{ID: id, RecognitionConfig: cfg}); err != nil {
		r.d.attempt(id, true)
		return err
	}
	return nil
}

func (r *RemoteRecognition) Stop(id string) {
	r.d.attempt(id, true)
	_ = r.d.send(MsgStopListen, stopListenCommand{ID: id})
}
