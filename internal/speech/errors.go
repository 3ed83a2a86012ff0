package speech

import (
	"errors"
	"fmt"
)

var (
	ErrSynthesisUnsupported   = errors.New("speech synthesis not supported")
	ErrRecognitionUnsupported = errors.New("speech recognition not supported")
	ErrAlreadyListening       = errors.New("speech recognition already listening")
	ErrTransportClosed        = errors.New("speech device transport closed")
)

// RecognitionError is a recognition failure reported by the device.
type RecognitionError struct {
	Code    string
	Message string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition error %s: %s", e.Code, e.Message)
}

// NewRecognitionError maps a device error code to a user-facing message.
func NewRecognitionError(code string) *RecognitionError {
	return &RecognitionError{Code: code, Message: DescribeRecognitionError(code)}
}

func DescribeRecognitionError(code string) string {
	switch code {
	case "not-allowed":
		return "Microphone access denied. Please allow microphone access."
	case "no-speech":
		return "No speech detected. Please try again."
	case "audio-capture":
		return "Audio capture error. Please check your microphone."
	case "network":
		return "Network error. Please check your connection."
	case "service-not-allowed":
		return "Speech recognition service not allowed."
	default:
		return "Speech recognition error: " + code
	}
}
