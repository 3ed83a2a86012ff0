package models

type CardType string

const (
	CardDefinition CardType = "definition"
	CardConcept    CardType = "concept"
	CardFact       CardType = "fact"
	CardProcess    CardType = "process"
)

// Flashcard is a detailed study card. Q&A and revision cards differ only by tag.
type Flashcard struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	Type        CardType   `json:"type"`
	Difficulty  Difficulty `json:"difficulty"`
	Tags        []string   `json:"tags"`
	ReadingTime string     `json:"reading_time"`
}

func (f Flashcard) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
