package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		transcript string
		want       Command
	}{
		{"next", CommandNext},
		{"go to the next one", CommandNext},
		{"previous", CommandPrevious},
		{"next or previous", CommandNext},
		{"can you repeat", CommandRepeat},
		{"stop", CommandStop},
		{"i need help", CommandHelp},
		{"answer", CommandAnswer},
		{"paris", CommandNone},
		{"", CommandNone},
	}
	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.transcript))
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting_continue", StateAwaitingContinue.String())
	assert.Equal(t, "unknown", State(42).String())

	b, err := StateListening.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "listening", string(b))
}
