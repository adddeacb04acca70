package tutoring

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ContentSourceTopic          = "topic"
	ContentSourceStudentProfile = "student_profile"
	ContentSourceWorksheet      = "worksheet"
	ContentSourceText           = "text"
)

type LessonPlan struct {
	ID                string         `gorm:"column:id;primaryKey" json:"lesson_plan_id"`
	StudentID         string         `gorm:"column:student_id;index" json:"student_id"`
	Topic             string         `gorm:"column:topic" json:"topic"`
	ContentSourceType string         `gorm:"column:content_source_type" json:"content_source_type"`
	ContentSourceData string         `gorm:"column:content_source_data" json:"content_source_data"`
	Duration          int            `gorm:"column:duration;not null" json:"duration"`
	Objectives        datatypes.JSON `gorm:"column:objectives" json:"objectives"`
	Structure         datatypes.JSON `gorm:"column:structure" json:"structure"`
	TeachingNotes     string         `gorm:"column:teaching_notes" json:"teaching_notes"`
	StudentContext    datatypes.JSON `gorm:"column:student_context" json:"student_context,omitempty"`
	SessionID         *string        `gorm:"column:session_id;index" json:"session_id"`
	WorksheetID       *string        `gorm:"column:worksheet_id" json:"worksheet_id"`
	CreatedAt         time.Time      `gorm:"column:created_at;not null" json:"created_at"`
}

func (LessonPlan) TableName() string { return "lesson_plan" }

// LessonStructure splits a session into timed blocks.
type LessonStructure struct {
	Warmup       string `json:"warmup"`
	MainPractice string `json:"main_practice"`
	Challenge    string `json:"challenge"`
	Homework     string `json:"homework"`
}
