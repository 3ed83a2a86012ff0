package grader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAnswer(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		expected string
		correct  bool
	}{
		{"exact", "database", "database", true},
		{"case and spacing", "  DataBase ", "database", true},
		{"user contained in expected", "function", "A function is reusable", true},
		{"expected contained in user", "it is a cache", "cache", true},
		{"shared prefix across words", "caches everywhere", "the caching", false},
		{"word containment across words", "big servers", "server farm", true},
		{"unrelated", "xyz123", "database", false},
		{"empty answer", "", "database", false},
		{"whitespace answer", "   ", "database", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.correct, ValidateAnswer(tc.user, tc.expected))
		})
	}
}

func TestKeywords(t *testing.T) {
	text := "Caching keeps hot data close. Caching reduces latency for data reads."

	assert.Equal(t, []string{"caching", "keeps", "close"}, Keywords(text, 3))
	assert.Len(t, Keywords(text, 0), 5)
	assert.Empty(t, Keywords("", 3))
}
