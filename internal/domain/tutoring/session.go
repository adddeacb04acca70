package tutoring

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

const (
	SessionStatusScheduled = "scheduled"
	SessionCreatedManual   = "manual"
)

// Session is one concrete, dated tutoring occurrence.
type Session struct {
	ID           string    `gorm:"column:id;primaryKey" json:"session_id"`
	StudentID    string    `gorm:"column:student_id;not null;index" json:"student_id"`
	Date         string    `gorm:"column:date;not null;index" json:"date"`
	Time         string    `gorm:"column:time" json:"time"`
	Duration     int       `gorm:"column:duration" json:"duration"`
	LessonPlanID *string   `gorm:"column:lesson_plan_id" json:"lesson_plan_id"`
	Notes        string    `gorm:"column:notes" json:"notes,omitempty"`
	Status       string    `gorm:"column:status" json:"status"`
	CreatedBy    string    `gorm:"column:created_by" json:"created_by"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Session) TableName() string { return "session" }

func (s *Session) HasLessonPlan() bool {
	return s != nil && s.LessonPlanID != nil && strings.TrimSpace(*s.LessonPlanID) != ""
}

// SessionID derives the deterministic id for (date, student). date must be
// YYYY-MM-DD.
func SessionID(date, studentID string) (string, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("session date %q: expected YYYY-MM-DD", date)
	}
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return "", fmt.Errorf("student id required")
	}
	return fmt.Sprintf("sess_%s_%s", d.Format("20060102"), studentID), nil
}
