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

// WorksheetRepo is insert-only.
type WorksheetRepo interface {
	Create(dbc dbctx.Context, row *types.Worksheet) error
	GetByID(dbc dbctx.Context, id string) (*types.Worksheet, error)
}

type worksheetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorksheetRepo(db *gorm.DB, baseLog *logger.Logger) WorksheetRepo {
	return &worksheetRepo{db: db, log: baseLog.With("repo", "WorksheetRepo")}
}

func (r *worksheetRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *worksheetRepo) Create(dbc dbctx.Context, row *types.Worksheet) error {
	if row == nil {
		return nil
	}
	if row.ID == "" {
		row.ID = types.NewWorksheetID()
	}
	// question_count is always derived from the id list.
	row.SetQuestionIDs(row.QuestionIDList())
	if row.CreatedBy == "" {
		row.CreatedBy = types.WorksheetCreator
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = types.Stamp(time.Now())
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *worksheetRepo) GetByID(dbc dbctx.Context, id string) (*types.Worksheet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var row types.Worksheet
	err := r.dbx(dbc).WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
