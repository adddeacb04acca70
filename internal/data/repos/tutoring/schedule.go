package tutoring

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

type ScheduleRepo interface {
	// List returns active templates, optionally for one student.
	List(dbc dbctx.Context, studentID string) ([]*types.ScheduleTemplate, error)
	Create(dbc dbctx.Context, row *types.ScheduleTemplate) error
}

type scheduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScheduleRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleRepo {
	return &scheduleRepo{db: db, log: baseLog.With("repo", "ScheduleRepo")}
}

func (r *scheduleRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *scheduleRepo) List(dbc dbctx.Context, studentID string) ([]*types.ScheduleTemplate, error) {
	out := []*types.ScheduleTemplate{}
	q := r.dbx(dbc).WithContext(dbc.Ctx).Where("is_active = ?", true)
	if studentID != "" {
		q = q.Where("student_id = ?", studentID)
	}
	if err := q.Order("day_of_week ASC").Order("time ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scheduleRepo) Create(dbc dbctx.Context, row *types.ScheduleTemplate) error {
	if row == nil {
		return nil
	}
	if row.DayOfWeek < 1 || row.DayOfWeek > 7 {
		return fmt.Errorf("day_of_week must be 1..7, got %d", row.DayOfWeek)
	}
	if row.ID == "" {
		row.ID = types.NewScheduleID()
	}
	now := types.Stamp(time.Now())
	row.UpdatedAt = now
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}
