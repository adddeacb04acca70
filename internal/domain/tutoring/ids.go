package tutoring

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns prefix + "_" + n lowercase hex characters taken from a
// random UUID.
func NewID(prefix string, n int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n <= 0 || n > len(raw) {
		n = len(raw)
	}
	return prefix + "_" + raw[:n]
}

func NewQuestionID() string   { return NewID("question", 10) }
func NewGradeID() string      { return NewID("grade", 10) }
func NewWorksheetID() string  { return NewID("worksheet", 10) }
func NewLessonPlanID() string { return NewID("lesson", 8) }
func NewScheduleID() string   { return NewID("schedule", 8) }
