package textanalysis

// TechnicalTerms is matched against lowercased text, in this order.
var TechnicalTerms = []string{
	"algorithm", "api", "database", "framework", "function", "method", "object", "class",
	"variable", "loop", "condition", "array", "string", "integer", "boolean", "null",
	"undefined", "callback", "promise", "async", "await", "module", "package", "library",
	"dependency", "version", "deployment", "production", "development", "testing",
	"debugging", "optimization", "performance", "security", "authentication", "authorization",
	"encryption", "compression", "caching", "scaling", "microservices", "monolith",
	"frontend", "backend", "fullstack", "responsive", "accessibility", "seo",
}

var ProgrammingConcepts = []string{
	"Object-Oriented Programming", "Functional Programming", "Procedural Programming",
	"Event-Driven Programming", "Reactive Programming", "Declarative Programming",
	"Imperative Programming", "SOLID Principles", "DRY Principle", "KISS Principle",
	"Design Patterns", "Data Structures", "Algorithms", "Big O Notation",
	"Memory Management", "Garbage Collection", "Threading", "Concurrency",
	"Asynchronous Programming", "Error Handling", "Logging", "Monitoring",
}

var stopWords = toSet([]string{
	"this", "that", "with", "have", "will", "from", "they", "know", "want", "been",
	"good", "much", "some", "time", "very", "when", "come", "just", "into", "than",
	"more", "other", "about", "many", "then", "them", "these", "people", "only", "well",
	"also", "over", "still", "take", "every", "think", "here", "again", "another", "around",
	"because", "before", "should", "through", "during", "first", "going", "great", "might", "never",
	"often", "place", "right", "small", "sound", "their", "there", "those", "under", "until",
	"water", "where", "which", "while", "world", "years", "after", "being", "could", "found",
	"having", "large", "learn",
})

var technicalTermSet = toSet(TechnicalTerms)

// IsStopWord reports whether w (lowercase) is on the fixed stop list.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// IsTechnicalTerm reports whether w (lowercase) is one of TechnicalTerms.
func IsTechnicalTerm(w string) bool {
	_, ok := technicalTermSet[w]
	return ok
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
