package tutoring

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type GradeRecord struct {
	ID              string         `gorm:"column:id;primaryKey" json:"grade_id"`
	StudentID       string         `gorm:"column:student_id;not null;index:idx_grade_student_date" json:"student_id"`
	Date            string         `gorm:"column:date;not null;index:idx_grade_student_date" json:"date"`
	Score           string         `gorm:"column:score;not null" json:"score"`
	TotalQuestions  int            `gorm:"column:total_questions" json:"total_questions"`
	CorrectAnswers  int            `gorm:"column:correct_answers" json:"correct_answers"`
	QuestionResults datatypes.JSON `gorm:"column:question_results" json:"question_results,omitempty"`
	Weaknesses      datatypes.JSON `gorm:"column:weaknesses" json:"weaknesses,omitempty"`
	Insights        string         `gorm:"column:insights" json:"insights,omitempty"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null" json:"created_at"`
}

func (GradeRecord) TableName() string { return "grade_record" }

// ScoreValue parses "85%" or "85" into 85. Unparseable scores are 0.
func (g *GradeRecord) ScoreValue() float64 {
	if g == nil {
		return 0
	}
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(g.Score), "%"))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}
