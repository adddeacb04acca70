package tutoring

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

type LessonPlanRepo interface {
	Create(dbc dbctx.Context, row *types.LessonPlan) error
	GetByID(dbc dbctx.Context, id string) (*types.LessonPlan, error)
	ListByStudent(dbc dbctx.Context, studentID string, limit int) ([]*types.LessonPlan, error)
}

type lessonPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonPlanRepo(db *gorm.DB, baseLog *logger.Logger) LessonPlanRepo {
	return &lessonPlanRepo{db: db, log: baseLog.With("repo", "LessonPlanRepo")}
}

func (r *lessonPlanRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *lessonPlanRepo) Create(dbc dbctx.Context, row *types.LessonPlan) error {
	if row == nil {
		return nil
	}
	if row.ID == "" {
		row.ID = types.NewLessonPlanID()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = types.Stamp(time.Now())
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *lessonPlanRepo) GetByID(dbc dbctx.Context, id string) (*types.LessonPlan, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var row types.LessonPlan
	err := r.dbx(dbc).WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *lessonPlanRepo) ListByStudent(dbc dbctx.Context, studentID string, limit int) ([]*types.LessonPlan, error) {
	out := []*types.LessonPlan{}
	if strings.TrimSpace(studentID) == "" {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Limit(clampLimit(limit)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
