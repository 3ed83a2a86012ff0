package models

type ProcessedText struct {
	WordCount            int      `json:"word_count"`
	CharacterCount       int      `json:"character_count"`
	EstimatedReadingTime int      `json:"estimated_reading_time"` // minutes
	ReadingTimeLabel     string   `json:"reading_time_label"`
	Summary              string   `json:"summary"`
	Keywords             []string `json:"keywords"`
	Language             string   `json:"language"`
	HasCode              bool     `json:"has_code"`
	HasLinks             bool     `json:"has_links"`
	ProcessedAt          int64    `json:"processed_at"`
}
