package tutoring

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const WorksheetCreator = "tutorbridge-ai"

// Worksheet metadata. Rows are insert-only.
type Worksheet struct {
	ID              string         `gorm:"column:id;primaryKey" json:"worksheet_id"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	Subject         string         `gorm:"column:subject" json:"subject"`
	GradeLevel      string         `gorm:"column:grade_level" json:"grade_level"`
	Topic           string         `gorm:"column:topic;index" json:"topic"`
	DifficultyLevel string         `gorm:"column:difficulty_level" json:"difficulty_level"`
	QuestionIDs     datatypes.JSON `gorm:"column:question_ids" json:"question_ids"`
	QuestionCount   int            `gorm:"column:question_count;not null" json:"question_count"`
	StudentID       *string        `gorm:"column:student_id;index" json:"student_id"`
	FileKey         string         `gorm:"column:file_key" json:"file_key,omitempty"`
	FileURL         string         `gorm:"column:file_url" json:"file_url"`
	PreviewURL      string         `gorm:"column:preview_url" json:"preview_url,omitempty"`
	Format          string         `gorm:"column:format" json:"format"`
	HasAnswerKey    bool           `gorm:"column:has_answer_key" json:"has_answer_key"`
	CreatedBy       string         `gorm:"column:created_by" json:"created_by"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null" json:"created_at"`
}

func (Worksheet) TableName() string { return "worksheet" }

// SetQuestionIDs stores ids and keeps QuestionCount in step with them.
func (w *Worksheet) SetQuestionIDs(ids []string) {
	if ids == nil {
		ids = []string{}
	}
	raw, _ := json.Marshal(ids)
	w.QuestionIDs = datatypes.JSON(raw)
	w.QuestionCount = len(ids)
}

func (w *Worksheet) QuestionIDList() []string {
	out := []string{}
	if w == nil || len(w.QuestionIDs) == 0 {
		return out
	}
	_ = json.Unmarshal(w.QuestionIDs, &out)
	return out
}
