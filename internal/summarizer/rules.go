package summarizer

import (
	"regexp"

	"flashvoice-backend/internal/models"
)

type substitution struct {
	pattern     *regexp.Regexp
	replacement string
}

func sub(pattern, replacement string) substitution {
	return substitution{pattern: regexp.MustCompile(`(?i)` + pattern), replacement: replacement}
}

// simplifyRules run top to bottom. Repeats are intentional: later rules see
// the output of earlier ones.
var simplifyRules = []substitution{
	sub(`utilizes?`, "uses"),
	sub(`initialization`, "starting"),
	sub(`implementation`, "how it works"),
	sub(`functionality`, "feature"),
	sub(`methodology`, "method"),
	sub(`individuals?`, "people"),
	sub(`commonly`, "often"),
	sub(`in order to`, "to"),
	sub(`prior to`, "before"),
	sub(`subsequent`, "next"),
	sub(`obtain`, "get"),
	sub(`demonstrates?`, "shows"),
	sub(`approximately`, "about"),
	sub(`assistance`, "help"),
	sub(`modification`, "change"),
	sub(`numerous`, "many"),
	sub(`various`, "different"),
	sub(`indicates?`, "shows"),
	sub(`facilitates?`, "helps"),
	sub(`commences?`, "starts"),
	sub(`terminates?`, "ends"),
	sub(`subsequently`, "then"),
	sub(`consequently`, "so"),
	sub(`therefore`, "so"),
	sub(`additionally`, "also"),
	sub(`approximately`, "about"),
	sub(`sufficient`, "enough"),
	sub(`insufficient`, "not enough"),
	sub(`advantageous`, "helpful"),
	sub(`disadvantageous`, "not helpful"),
	sub(`commonly`, "often"),
	sub(`frequently`, "often"),
	sub(`subsequent`, "next"),
	sub(`prior`, "before"),
	sub(`obtain`, "get"),
	sub(`demonstrate`, "show"),
	sub(`approximately`, "about"),
	sub(`assistance`, "help"),
	sub(`modification`, "change"),
	sub(`numerous`, "many"),
	sub(`various`, "different"),
	sub(`indicates?`, "shows"),
	sub(`facilitates?`, "helps"),
	sub(`commences?`, "starts"),
	sub(`terminates?`, "ends"),
	sub(`subsequently`, "then"),
	sub(`consequently`, "so"),
	sub(`therefore`, "so"),
	sub(`additionally`, "also"),
	sub(`approximately`, "about"),
	sub(`sufficient`, "enough"),
	sub(`insufficient`, "not enough"),
	sub(`advantageous`, "helpful"),
	sub(`disadvantageous`, "not helpful"),
}

var shortDefinitions = map[string]string{
	"api":            "Interface for software communication",
	"function":       "Reusable code block",
	"variable":       "Data storage container",
	"class":          "Object blueprint",
	"method":         "Class function",
	"object":         "Class instance",
	"array":          "Ordered data collection",
	"string":         "Text sequence",
	"database":       "Structured data storage",
	"framework":      "Development foundation",
	"algorithm":      "Problem-solving steps",
	"loop":           "Repeated execution",
	"condition":      "Decision logic",
	"callback":       "Function reference",
	"promise":        "Async operation result",
	"module":         "Code organization unit",
	"package":        "Dependency bundle",
	"library":        "Reusable code collection",
	"dependency":     "Required external code",
	"deployment":     "Application release",
	"testing":        "Code verification",
	"debugging":      "Error fixing",
	"optimization":   "Performance improvement",
	"security":       "Protection measures",
	"authentication": "User verification",
	"encryption":     "Data protection",
	"caching":        "Temporary storage",
	"scaling":        "Performance expansion",
	"frontend":       "User interface",
	"backend":        "Server logic",
	"responsive":     "Adaptive design",
	"accessibility":  "Universal access",
	"seo":            "Search optimization",
}

var fallbackDefinitions = map[string]string{
	"api":       "An Application Programming Interface (API) is a set of rules and protocols that allows different software applications to communicate with each other.",
	"function":  "A function is a reusable block of code that performs a specific task and can be called from other parts of the program.",
	"variable":  "A variable is a container that stores data values and can be referenced and manipulated throughout a program.",
	"class":     "A class is a blueprint for creating objects that defines their properties and methods.",
	"method":    "A method is a function that belongs to a class or object and defines the behavior of that class or object.",
	"object":    "An object is an instance of a class that contains data and code to manipulate that data.",
	"array":     "An array is a data structure that stores a collection of elements in a specific order.",
	"string":    "A string is a sequence of characters used to represent text in programming.",
	"database":  "A database is an organized collection of structured information or data stored electronically.",
	"framework": "A framework is a pre-built structure that provides a foundation for developing applications.",
}

const fallbackReadingTime = "3 sec"

var fallbackDeck = []models.Flashcard{
	{
		ID:          "fallback_1",
		Question:    "What is this page about?",
		Answer:      "This page contains general information relevant to the user. The content has been extracted but could not be automatically summarized.",
		Type:        models.CardConcept,
		Difficulty:  models.DifficultyEasy,
		Tags:        []string{"general", "fallback"},
		ReadingTime: fallbackReadingTime,
	},
	{
		ID:          "fallback_2",
		Question:    "What can the user do with this extension?",
		Answer:      "Extract text from web pages, summarize content, generate flashcards for learning, and analyze page content for better understanding.",
		Type:        models.CardConcept,
		Difficulty:  models.DifficultyEasy,
		Tags:        []string{"extension", "fallback"},
		ReadingTime: fallbackReadingTime,
	},
	{
		ID:          "fallback_3",
		Question:    "How does text extraction work?",
		Answer:      "The extension identifies main content areas, removes navigation elements, and extracts clean text while avoiding ads, footers, and sidebars.",
		Type:        models.CardProcess,
		Difficulty:  models.DifficultyMedium,
		Tags:        []string{"extraction", "fallback"},
		ReadingTime: fallbackReadingTime,
	},
	{
		ID:          "fallback_4",
		Question:    "What types of content can be processed?",
		Answer:      "Articles, documentation, tutorials, blog posts, and any text-based content. The extension works best with structured, informative content.",
		Type:        models.CardFact,
		Difficulty:  models.DifficultyEasy,
		Tags:        []string{"content", "fallback"},
		ReadingTime: fallbackReadingTime,
	},
	{
		ID:          "fallback_5",
		Question:    "How can I use the text-to-speech feature?",
		Answer:      "Click the 🔊 Speak Summary button to have the page summary read aloud using your browser's text-to-speech capabilities.",
		Type:        models.CardProcess,
		Difficulty:  models.DifficultyEasy,
		Tags:        []string{"speech", "fallback"},
		ReadingTime: fallbackReadingTime,
	},
	{
		ID:          "fallback_6",
		Question:    "What are the different flashcard types?",
		Answer:      "Definition cards explain terms, concept cards cover ideas, fact cards present information, and process cards describe how things work.",
		Type:        models.CardConcept,
		Difficulty:  models.DifficultyMedium,
		Tags:        []string{"flashcards", "fallback"},
		ReadingTime: fallbackReadingTime,
	},
}

// FallbackDeck returns a fresh copy of the fixed six-card deck.
func FallbackDeck() []models.Flashcard {
	deck := make([]models.Flashcard, len(fallbackDeck))
	for i, card := range fallbackDeck {
		card.Tags = append([]string(nil), card.Tags...)
		deck[i] = card
	}
	return deck
}
