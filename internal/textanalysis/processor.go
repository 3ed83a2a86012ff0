package textanalysis

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"flashvoice-backend/internal/models"
)

const (
	wordsPerMinute       = 200
	processedSummaryMax  = 200
	processedKeywordsMax = 10
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	linkPattern   = regexp.MustCompile(`https?://[^\s]+`)

	codePatterns = []*regexp.Regexp{
		regexp.MustCompile(`function\s+\w+\s*\(`),
		regexp.MustCompile(`const\s+\w+\s*=`),
		regexp.MustCompile(`let\s+\w+\s*=`),
		regexp.MustCompile(`var\s+\w+\s*=`),
		regexp.MustCompile(`if\s*\(`),
		regexp.MustCompile(`for\s*\(`),
		regexp.MustCompile(`while\s*\(`),
		regexp.MustCompile(`class\s+\w+`),
		regexp.MustCompile(`import\s+`),
		regexp.MustCompile(`export\s+`),
		regexp.MustCompile(`console\.log`),
		regexp.MustCompile(`return\s+`),
		regexp.MustCompile(`=>`),
		regexp.MustCompile(`(?s)\{.*\}`),
		regexp.MustCompile(`(?s)\[.*\]`),
		regexp.MustCompile(`(?s)\(.*\)`),
	}

	englishMarkers = toSet([]string{"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by"})
	spanishMarkers = toSet([]string{"el", "la", "de", "que", "y", "a", "en", "un", "es", "se", "no", "te"})
)

// ProcessText computes reading statistics for already-extracted page text.
func ProcessText(text string, now time.Time) models.ProcessedText {
	cleaned := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	words := strings.Fields(cleaned)
	minutes := int(math.Ceil(float64(len(words)) / wordsPerMinute))

	freqWords := make([]string, 0, len(words))
	for _, w := range Tokenize(cleaned) {
		if len(w) > minWordLength {
			freqWords = append(freqWords, w)
		}
	}

	return models.ProcessedText{
		WordCount:            len(words),
		CharacterCount:       len([]rune(cleaned)),
		EstimatedReadingTime: minutes,
		ReadingTimeLabel:     FormatReadingTime(minutes),
		Summary:              leadSummary(cleaned, processedSummaryMax),
		Keywords:             RankByFrequency(freqWords, processedKeywordsMax),
		Language:             DetectLanguage(cleaned),
		HasCode:              DetectCode(text),
		HasLinks:             linkPattern.MatchString(text),
		ProcessedAt:          now.UnixMilli(),
	}
}

// leadSummary takes whole leading sentences while they fit in maxLength.
func leadSummary(text string, maxLength int) string {
	var b strings.Builder
	for _, s := range sentenceBoundary.Split(text, -1) {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if b.Len()+len(s) > maxLength {
			break
		}
		b.WriteString(s)
		b.WriteString(". ")
	}
	if out := strings.TrimSpace(b.String()); out != "" {
		return out
	}
	if text == "" {
		return ""
	}
	r := []rune(text)
	if len(r) > maxLength {
		r = r[:maxLength]
	}
	return string(r) + "..."
}

// DetectLanguage guesses "en" or "es" by counting common function words.
func DetectLanguage(text string) string {
	en, es := 0, 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if _, ok := englishMarkers[w]; ok {
			en++
		}
		if _, ok := spanishMarkers[w]; ok {
			es++
		}
	}
	switch {
	case en > es:
		return "en"
	case es > en:
		return "es"
	default:
		return "unknown"
	}
}

func DetectCode(text string) bool {
	for _, p := range codePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func FormatReadingTime(minutes int) string {
	switch {
	case minutes < 1:
		return "Less than 1 minute"
	case minutes == 1:
		return "1 minute"
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}
