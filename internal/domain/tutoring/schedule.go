package tutoring

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ScheduleTemplate is a recurring weekly slot. DayOfWeek is 1=Monday
// through 7=Sunday.
type ScheduleTemplate struct {
	ID          string         `gorm:"column:id;primaryKey" json:"schedule_id"`
	StudentID   string         `gorm:"column:student_id;not null;index" json:"student_id"`
	DayOfWeek   int            `gorm:"column:day_of_week;not null" json:"day_of_week"`
	Time        string         `gorm:"column:time;not null" json:"time"`
	Duration    int            `gorm:"column:duration;not null" json:"duration"`
	FocusTopics datatypes.JSON `gorm:"column:focus_topics" json:"focus_topics"`
	IsActive    bool           `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (ScheduleTemplate) TableName() string { return "schedule_template" }

func (s *ScheduleTemplate) Topics() []string {
	out := []string{}
	if s == nil || len(s.FocusTopics) == 0 {
		return out
	}
	_ = json.Unmarshal(s.FocusTopics, &out)
	return out
}

// MatchesWeekday reports whether the template falls on t's weekday.
func (s *ScheduleTemplate) MatchesWeekday(t time.Time) bool {
	return s != nil && MondayBasedWeekday(t) == s.DayOfWeek
}

// MondayBasedWeekday returns 1 for Monday through 7 for Sunday.
func MondayBasedWeekday(t time.Time) int {
	return (int(t.Weekday())+6)%7 + 1
}
