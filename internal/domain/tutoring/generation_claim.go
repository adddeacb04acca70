package tutoring

import "time"

// GenerationClaim is a lease on generating questions for one
// (topic, difficulty) pair. The composite primary key makes acquisition a
// conditional write.
type GenerationClaim struct {
	TopicKey     string    `gorm:"column:topic_key;primaryKey" json:"topic_key"`
	Difficulty   string    `gorm:"column:difficulty;primaryKey" json:"difficulty"`
	Owner        string    `gorm:"column:owner;not null" json:"owner"`
	ClaimedUntil time.Time `gorm:"column:claimed_until;not null" json:"claimed_until"`
}

func (GenerationClaim) TableName() string { return "generation_claim" }
