package tutoring

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionFilter struct {
	StudentID string
	// StartDate and EndDate are inclusive YYYY-MM-DD bounds.
	StartDate string
	EndDate   string
	Limit     int
}

type SessionRepo interface {
	// Upsert writes the row, replacing any session with the same id.
	Upsert(dbc dbctx.Context, row *types.Session) error
	GetByID(dbc dbctx.Context, id string) (*types.Session, error)
	GetByIDs(dbc dbctx.Context, ids []string) (map[string]*types.Session, error)
	List(dbc dbctx.Context, f SessionFilter) ([]*types.Session, error)
	// LinkLessonPlan returns ErrSessionNotFound when no row was updated.
	LinkLessonPlan(dbc dbctx.Context, sessionID, lessonPlanID string) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *sessionRepo) Upsert(dbc dbctx.Context, row *types.Session) error {
	if row == nil {
		return nil
	}
	if row.ID == "" {
		id, err := types.SessionID(row.Date, row.StudentID)
		if err != nil {
			return err
		}
		row.ID = id
	}
	now := types.Stamp(time.Now())
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.Status == "" {
		row.Status = types.SessionStatusScheduled
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"student_id", "date", "time", "duration", "lesson_plan_id",
				"notes", "status", "created_by", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, id string) (*types.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var row types.Session
	err := r.dbx(dbc).WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *sessionRepo) GetByIDs(dbc dbctx.Context, ids []string) (map[string]*types.Session, error) {
	out := map[string]*types.Session{}
	if len(ids) == 0 {
		return out, nil
	}
	rows := []*types.Session{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *sessionRepo) List(dbc dbctx.Context, f SessionFilter) ([]*types.Session, error) {
	out := []*types.Session{}
	q := r.dbx(dbc).WithContext(dbc.Ctx)
	if f.StudentID != "" {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.StartDate != "" {
		q = q.Where("date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q = q.Where("date <= ?", f.EndDate)
	}
	if err := q.Order("date ASC").Order("time ASC").Limit(clampLimit(f.Limit)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) LinkLessonPlan(dbc dbctx.Context, sessionID, lessonPlanID string) error {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(lessonPlanID) == "" {
		return fmt.Errorf("session id and lesson plan id required")
	}
	res := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.Session{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"lesson_plan_id": lessonPlanID,
			"updated_at":     types.Stamp(time.Now()),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}
