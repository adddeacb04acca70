package tutoring

import (
	"encoding/json"
	"sort"
	"time"

	"gorm.io/datatypes"
)

// WeakAreaThreshold is the accuracy below which a topic counts as a weak area.
const WeakAreaThreshold = 0.7

type Student struct {
	ID        string         `gorm:"column:id;primaryKey" json:"student_id"`
	Name      string         `gorm:"column:name;not null;index" json:"name"`
	Grade     string         `gorm:"column:grade" json:"grade"`
	Accuracy  datatypes.JSON `gorm:"column:accuracy" json:"accuracy"`
	CreatedAt time.Time      `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Student) TableName() string { return "student" }

// AccuracyByTopic decodes the accuracy column. Malformed JSON yields an
// empty map.
func (s *Student) AccuracyByTopic() map[string]float64 {
	out := map[string]float64{}
	if s == nil || len(s.Accuracy) == 0 {
		return out
	}
	_ = json.Unmarshal(s.Accuracy, &out)
	return out
}

// WeakAreas returns topics with accuracy under WeakAreaThreshold, sorted
// by ascending accuracy.
func (s *Student) WeakAreas() []string {
	acc := s.AccuracyByTopic()
	out := make([]string, 0, len(acc))
	for topic, v := range acc {
		if v < WeakAreaThreshold {
			out = append(out, topic)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if acc[out[i]] == acc[out[j]] {
			return out[i] < out[j]
		}
		return acc[out[i]] < acc[out[j]]
	})
	return out
}
