package tutoring

import (
	"strings"
	"time"
)

const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

const (
	SourceDatabase    = "database"
	SourceAIGenerated = "ai_generated"
	SourceMixed       = "mixed"
)

var Difficulties = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}

type Question struct {
	ID           string    `gorm:"column:id;primaryKey" json:"question_id"`
	Text         string    `gorm:"column:text;not null" json:"text"`
	Topic        string    `gorm:"column:topic;not null;index" json:"topic"`
	Difficulty   string    `gorm:"column:difficulty;not null;index" json:"difficulty"`
	Source       string    `gorm:"column:source;not null;default:database" json:"source"`
	Answer       string    `gorm:"column:answer" json:"answer,omitempty"`
	Explanation  string    `gorm:"column:explanation" json:"explanation,omitempty"`
	TeachingTips string    `gorm:"column:teaching_tips" json:"teaching_tips,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (Question) TableName() string { return "question" }

// TopicCount summarizes how many questions exist for a topic.
type TopicCount struct {
	Topic        string         `json:"topic"`
	Total        int            `json:"total"`
	ByDifficulty map[string]int `json:"by_difficulty"`
}

// NormalizeDifficulty maps worksheet levels and loose spellings onto the
// stored Easy/Medium/Hard values. Unknown input returns "".
func NormalizeDifficulty(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "beginner", "easy":
		return DifficultyEasy
	case "intermediate", "medium":
		return DifficultyMedium
	case "advanced", "hard":
		return DifficultyHard
	default:
		return ""
	}
}

// TopicKey is the case- and whitespace-insensitive identity of a topic.
func TopicKey(topic string) string {
	return strings.ToLower(strings.Join(strings.Fields(topic), " "))
}
