package tutoring

import (
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

type GradeRecordRepo interface {
	// ListByStudent returns the most recent records first.
	ListByStudent(dbc dbctx.Context, studentID string, limit int) ([]*types.GradeRecord, error)
	Create(dbc dbctx.Context, row *types.GradeRecord) error
}

type gradeRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGradeRecordRepo(db *gorm.DB, baseLog *logger.Logger) GradeRecordRepo {
	return &gradeRecordRepo{db: db, log: baseLog.With("repo", "GradeRecordRepo")}
}

func (r *gradeRecordRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *gradeRecordRepo) ListByStudent(dbc dbctx.Context, studentID string, limit int) ([]*types.GradeRecord, error) {
	out := []*types.GradeRecord{}
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("student_id = ?", studentID).
		Order("date DESC").
		Order("created_at DESC").
		Limit(clampLimit(limit)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gradeRecordRepo) Create(dbc dbctx.Context, row *types.GradeRecord) error {
	if row == nil {
		return nil
	}
	if row.ID == "" {
		row.ID = types.NewGradeID()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = types.Stamp(time.Now())
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}
