package tutoring

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

type GenerationClaimRepo interface {
	// Acquire reports whether owner now holds the lease. An expired lease
	// or one already held by owner is taken over.
	Acquire(dbc dbctx.Context, topicKey, difficulty, owner string, ttl time.Duration) (bool, error)
	Release(dbc dbctx.Context, topicKey, difficulty, owner string) error
}

type generationClaimRepo struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewGenerationClaimRepo(db *gorm.DB, baseLog *logger.Logger) GenerationClaimRepo {
	return &generationClaimRepo{
		db:  db,
		log: baseLog.With("repo", "GenerationClaimRepo"),
		now: func() time.Time { return types.Stamp(time.Now()) },
	}
}

func (r *generationClaimRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *generationClaimRepo) Acquire(dbc dbctx.Context, topicKey, difficulty, owner string, ttl time.Duration) (bool, error) {
	if topicKey == "" || difficulty == "" || owner == "" {
		return false, fmt.Errorf("claim requires topic key, difficulty and owner")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	now := r.now()
	until := now.Add(ttl)

	row := &types.GenerationClaim{
		TopicKey:     topicKey,
		Difficulty:   difficulty,
		Owner:        owner,
		ClaimedUntil: until,
	}
	res := r.dbx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	res = r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.GenerationClaim{}).
		Where("topic_key = ? AND difficulty = ?", topicKey, difficulty).
		Where("claimed_until < ? OR owner = ?", now, owner).
		Updates(map[string]interface{}{
			"owner":         owner,
			"claimed_until": until,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *generationClaimRepo) Release(dbc dbctx.Context, topicKey, difficulty, owner string) error {
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Where("topic_key = ? AND difficulty = ? AND owner = ?", topicKey, difficulty, owner).
		Delete(&types.GenerationClaim{}).Error
}
