package summarizer

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"flashvoice-backend/internal/models"
	"flashvoice-backend/internal/textanalysis"
)

const (
	minNotePoint    = 10
	maxNotePoint    = 200
	minNoteSentence = 20
	maxNoteSentence = 150
	minNotes        = 3
	noteSentences   = 5
	maxNotes        = 8
)

var defaultNotes = []string{
	"This page contains information that can help with learning.",
	"The content has been extracted and summarized for easy reading.",
	"Use these notes to review and remember key points.",
}

// StudyNotes flattens a summary into short note cards: the summary text,
// then key points of a readable length. Short results are topped up with
// simplified summary sentences.
func StudyNotes(summary models.Summary) []string {
	var notes []string
	if summary.Text != "" {
		notes = append(notes, summary.Text)
	}
	for _, p := range summary.KeyPoints {
		if n := utf8.RuneCountInString(p); n > minNotePoint && n < maxNotePoint {
			notes = append(notes, p)
		}
	}

	if len(notes) < minNotes {
		sentences := textanalysis.ExtractSentences(summary.Text)
		if len(sentences) > noteSentences {
			sentences = sentences[:noteSentences]
		}
		for _, sentence := range sentences {
			simplified := Simplify(sentence)
			n := utf8.RuneCountInString(simplified)
			if n > minNoteSentence && n < maxNoteSentence && !slices.Contains(notes, simplified) {
				notes = append(notes, simplified)
			}
		}
	}

	if len(notes) == 0 {
		return append([]string(nil), defaultNotes...)
	}
	if len(notes) > maxNotes {
		notes = notes[:maxNotes]
	}
	return notes
}

// SpokenSummary renders a summary as a single paragraph for speech output.
func SpokenSummary(summary models.Summary) string {
	var b strings.Builder
	b.WriteString("Summary: ")
	b.WriteString(summary.Text)
	if len(summary.KeyPoints) > 0 {
		b.WriteString(" Key points: ")
		b.WriteString(strings.Join(summary.KeyPoints, ". "))
		b.WriteString(".")
	}
	fmt.Fprintf(&b, " Topics: %s. Difficulty: %s. Confidence: %d percent.",
		strings.Join(summary.Topics, ", "), summary.Difficulty, int(math.Round(summary.Confidence*100)))
	return b.String()
}
