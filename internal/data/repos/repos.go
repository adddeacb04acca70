package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/tutorbridge-backend/internal/data/repos/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

type StudentRepo = tutoring.StudentRepo
type QuestionRepo = tutoring.QuestionRepo
type GradeRecordRepo = tutoring.GradeRecordRepo
type WorksheetRepo = tutoring.WorksheetRepo
type LessonPlanRepo = tutoring.LessonPlanRepo
type SessionRepo = tutoring.SessionRepo
type ScheduleRepo = tutoring.ScheduleRepo
type GenerationClaimRepo = tutoring.GenerationClaimRepo

type SessionFilter = tutoring.SessionFilter

var ErrSessionNotFound = tutoring.ErrSessionNotFound

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return tutoring.NewStudentRepo(db, baseLog)
}
func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return tutoring.NewQuestionRepo(db, baseLog)
}
func NewGradeRecordRepo(db *gorm.DB, baseLog *logger.Logger) GradeRecordRepo {
	return tutoring.NewGradeRecordRepo(db, baseLog)
}
func NewWorksheetRepo(db *gorm.DB, baseLog *logger.Logger) WorksheetRepo {
	return tutoring.NewWorksheetRepo(db, baseLog)
}
func NewLessonPlanRepo(db *gorm.DB, baseLog *logger.Logger) LessonPlanRepo {
	return tutoring.NewLessonPlanRepo(db, baseLog)
}
func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return tutoring.NewSessionRepo(db, baseLog)
}
func NewScheduleRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleRepo {
	return tutoring.NewScheduleRepo(db, baseLog)
}
func NewGenerationClaimRepo(db *gorm.DB, baseLog *logger.Logger) GenerationClaimRepo {
	return tutoring.NewGenerationClaimRepo(db, baseLog)
}
