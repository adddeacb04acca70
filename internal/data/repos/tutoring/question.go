package tutoring

import (
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

type QuestionRepo interface {
	// Search matches topic as a case-sensitive substring and difficulty
	// exactly. Empty filters are ignored.
	Search(dbc dbctx.Context, topic, difficulty string, limit int) ([]*types.Question, error)
	GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Question, error)
	Create(dbc dbctx.Context, rows []*types.Question) ([]*types.Question, error)
	// Count matches topic case-insensitively after whitespace folding.
	Count(dbc dbctx.Context, topic, difficulty string) (int64, error)
	// ListByTopic uses the same topic match as Count.
	ListByTopic(dbc dbctx.Context, topic, difficulty string, limit int) ([]*types.Question, error)
	TopicSummary(dbc dbctx.Context) ([]types.TopicCount, error)
	DistinctTopics(dbc dbctx.Context) ([]string, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *questionRepo) Search(dbc dbctx.Context, topic, difficulty string, limit int) ([]*types.Question, error) {
	out := []*types.Question{}
	q := r.dbx(dbc).WithContext(dbc.Ctx)
	if topic != "" {
		q = q.Where(containsExpr(q, "topic"), topic)
	}
	if difficulty != "" {
		q = q.Where("difficulty = ?", difficulty)
	}
	if err := q.Order("created_at ASC").Order("id ASC").Limit(clampLimit(limit)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByIDs preserves the order of ids and skips unknown ids.
func (r *questionRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Question, error) {
	out := []*types.Question{}
	if len(ids) == 0 {
		return out, nil
	}
	rows := []*types.Question{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*types.Question, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *questionRepo) Create(dbc dbctx.Context, rows []*types.Question) ([]*types.Question, error) {
	if len(rows) == 0 {
		return []*types.Question{}, nil
	}
	now := types.Stamp(time.Now())
	for _, row := range rows {
		if row.ID == "" {
			row.ID = types.NewQuestionID()
		}
		if row.Source == "" {
			row.Source = types.SourceDatabase
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *questionRepo) Count(dbc dbctx.Context, topic, difficulty string) (int64, error) {
	var n int64
	q := r.dbx(dbc).WithContext(dbc.Ctx).Model(&types.Question{})
	if key := types.TopicKey(topic); key != "" {
		q = q.Where("LOWER(TRIM(topic)) = ?", key)
	}
	if difficulty != "" {
		q = q.Where("difficulty = ?", difficulty)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *questionRepo) ListByTopic(dbc dbctx.Context, topic, difficulty string, limit int) ([]*types.Question, error) {
	out := []*types.Question{}
	q := r.dbx(dbc).WithContext(dbc.Ctx)
	if key := types.TopicKey(topic); key != "" {
		q = q.Where("LOWER(TRIM(topic)) = ?", key)
	}
	if difficulty != "" {
		q = q.Where("difficulty = ?", difficulty)
	}
	if err := q.Order("created_at ASC").Order("id ASC").Limit(clampLimit(limit)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type topicDifficultyCount struct {
	Topic      string
	Difficulty string
	N          int
}

func (r *questionRepo) TopicSummary(dbc dbctx.Context) ([]types.TopicCount, error) {
	rows := []topicDifficultyCount{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.Question{}).
		Select("topic, difficulty, COUNT(*) AS n").
		Group("topic, difficulty").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	byTopic := map[string]*types.TopicCount{}
	order := []string{}
	for _, row := range rows {
		tc, ok := byTopic[row.Topic]
		if !ok {
			tc = &types.TopicCount{Topic: row.Topic, ByDifficulty: map[string]int{}}
			for _, d := range types.Difficulties {
				tc.ByDifficulty[d] = 0
			}
			byTopic[row.Topic] = tc
			order = append(order, row.Topic)
		}
		tc.Total += row.N
		tc.ByDifficulty[row.Difficulty] += row.N
	}
	sort.Strings(order)
	out := make([]types.TopicCount, 0, len(order))
	for _, topic := range order {
		out = append(out, *byTopic[topic])
	}
	return out, nil
}

func (r *questionRepo) DistinctTopics(dbc dbctx.Context) ([]string, error) {
	out := []string{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.Question{}).
		Distinct("topic").
		Order("topic ASC").
		Pluck("topic", &out).Error; err != nil {
		return nil, err
	}
	cleaned := out[:0]
	for _, t := range out {
		if strings.TrimSpace(t) != "" {
			cleaned = append(cleaned, t)
		}
	}
	return cleaned, nil
}
