package tutoring

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

type StudentRepo interface {
	GetByID(dbc dbctx.Context, id string) (*types.Student, error)
	FindByName(dbc dbctx.Context, name string) (*types.Student, error)
	List(dbc dbctx.Context, limit int) ([]*types.Student, error)
	Upsert(dbc dbctx.Context, row *types.Student) error
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return &studentRepo{db: db, log: baseLog.With("repo", "StudentRepo")}
}

func (r *studentRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

// GetByID returns (nil, nil) when no row matches.
func (r *studentRepo) GetByID(dbc dbctx.Context, id string) (*types.Student, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var row types.Student
	err := r.dbx(dbc).WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByName returns the first student whose name contains name.
func (r *studentRepo) FindByName(dbc dbctx.Context, name string) (*types.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	tx := r.dbx(dbc).WithContext(dbc.Ctx)
	var row types.Student
	err := tx.Where(containsExpr(tx, "name"), name).Order("name ASC").Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *studentRepo) List(dbc dbctx.Context, limit int) ([]*types.Student, error) {
	out := []*types.Student{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Order("name ASC").
		Limit(clampLimit(limit)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentRepo) Upsert(dbc dbctx.Context, row *types.Student) error {
	if row == nil || strings.TrimSpace(row.ID) == "" {
		return nil
	}
	now := types.Stamp(time.Now())
	row.UpdatedAt = now
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "grade", "accuracy", "updated_at"}),
		}).
		Create(row).Error
}
