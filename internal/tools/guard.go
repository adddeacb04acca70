package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/tutorbridge-backend/internal/data/store"
	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/observability"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/envutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
)

// ErrClaimBusy means another caller kept the generation lease for the whole
// retry window and the shortfall still exists.
var ErrClaimBusy = errors.New("question generation already in progress")

// QuestionGenerator is the slice of the generation service the guard needs.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, req generation.QuestionRequest) ([]generation.DraftQuestion, error)
}

type GuardConfig struct {
	ClaimTTL   time.Duration
	RetryBase  time.Duration
	MaxRetries int
	// MaxGeneratorCalls bounds how often the model is asked to fill one
	// shortfall.
	MaxGeneratorCalls int
}

func GuardConfigFromEnv() GuardConfig {
	return GuardConfig{
		ClaimTTL:          envutil.Duration("GENERATION_CLAIM_TTL", 2*time.Minute),
		RetryBase:         envutil.Duration("GENERATION_CLAIM_RETRY_BASE", 250*time.Millisecond),
		MaxRetries:        envutil.Int("GENERATION_CLAIM_RETRIES", 5),
		MaxGeneratorCalls: 2,
	}
}

func (c GuardConfig) withDefaults() GuardConfig {
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = 2 * time.Minute
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 250 * time.Millisecond
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxGeneratorCalls <= 0 {
		c.MaxGeneratorCalls = 2
	}
	return c
}

type FillRequest struct {
	Topic        string
	Difficulty   string
	Target       int
	QuestionType string
	Subject      string
}

type FillResult struct {
	Existing []*types.Question
	Created  []*types.Question
}

func (r FillResult) Questions() []*types.Question {
	out := make([]*types.Question, 0, len(r.Existing)+len(r.Created))
	out = append(out, r.Existing...)
	return append(out, r.Created...)
}

func (r FillResult) Source() string {
	switch {
	case len(r.Created) == 0:
		return types.SourceDatabase
	case len(r.Existing) == 0:
		return types.SourceAIGenerated
	default:
		return types.SourceMixed
	}
}

// Guard makes check-then-generate safe: callers in this process share one
// flight per (topic, difficulty, target), and callers across processes
// serialize on a GenerationClaim lease.
type Guard struct {
	store *store.Store
	gen   QuestionGenerator
	cfg   GuardConfig
	log   *logger.Logger
	group singleflight.Group
	sleep func(ctx context.Context, d time.Duration) error
}

func NewGuard(st *store.Store, gen QuestionGenerator, cfg GuardConfig, baseLog *logger.Logger) *Guard {
	return &Guard{
		store: st,
		gen:   gen,
		cfg:   cfg.withDefaults(),
		log:   baseLog.With("service", "GenerationGuard"),
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fill tops the stored questions for (topic, difficulty) up to Target.
// Existing is capped at Target; Created holds exactly the rows this call
// inserted.
func (g *Guard) Fill(ctx context.Context, req FillRequest) (FillResult, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return FillResult{}, fmt.Errorf("topic required")
	}
	if req.Difficulty == "" {
		req.Difficulty = types.DifficultyMedium
	}
	if req.Target <= 0 {
		return FillResult{Existing: []*types.Question{}, Created: []*types.Question{}}, nil
	}
	key := fmt.Sprintf("%s|%s|%d", types.TopicKey(req.Topic), req.Difficulty, req.Target)
	v, err, shared := g.group.Do(key, func() (interface{}, error) {
		return g.fill(ctx, req)
	})
	if err != nil {
		return FillResult{}, err
	}
	res := v.(FillResult)
	observability.Current().IncGuardResult(res.Source())
	if shared {
		g.log.Debug("generation flight shared", append(ctxutil.TraceFields(ctx), "key", key)...)
	}
	return res, nil
}

func (g *Guard) fill(ctx context.Context, req FillRequest) (FillResult, error) {
	topicKey := types.TopicKey(req.Topic)
	owner := "guard_" + uuid.NewString()

	for attempt := 0; ; attempt++ {
		claim := g.store.AcquireClaim(ctx, topicKey, req.Difficulty, owner, g.cfg.ClaimTTL)
		if claim.Unavailable() {
			return FillResult{}, errors.New(claim.ErrorMessage())
		}
		if claim.OK() {
			defer g.store.ReleaseClaim(context.WithoutCancel(ctx), topicKey, req.Difficulty, owner)
			return g.fillHeld(ctx, req)
		}

		// Someone else is generating. Their rows may already cover us.
		count := g.store.CountQuestions(ctx, req.Topic, req.Difficulty)
		if count.Unavailable() {
			return FillResult{}, errors.New(count.ErrorMessage())
		}
		if count.Value >= int64(req.Target) {
			existing, err := g.existing(ctx, req)
			if err != nil {
				return FillResult{}, err
			}
			if len(existing) >= req.Target {
				return FillResult{Existing: existing[:req.Target], Created: []*types.Question{}}, nil
			}
		}
		if attempt >= g.cfg.MaxRetries {
			return FillResult{}, fmt.Errorf("%s/%s: %w", req.Topic, req.Difficulty, ErrClaimBusy)
		}
		backoff := g.cfg.RetryBase << attempt
		g.log.Debug("generation claim busy", append(ctxutil.TraceFields(ctx),
			"topic", req.Topic, "difficulty", req.Difficulty, "attempt", attempt+1, "backoff", backoff.String())...)
		if err := g.sleep(ctx, backoff); err != nil {
			return FillResult{}, err
		}
	}
}

func (g *Guard) existing(ctx context.Context, req FillRequest) ([]*types.Question, error) {
	res := g.store.QuestionsByTopic(ctx, req.Topic, req.Difficulty, req.Target)
	if res.Unavailable() {
		return nil, errors.New(res.ErrorMessage())
	}
	if res.Value == nil {
		return []*types.Question{}, nil
	}
	return res.Value, nil
}

// fillHeld runs while this caller holds the claim.
func (g *Guard) fillHeld(ctx context.Context, req FillRequest) (FillResult, error) {
	existing, err := g.existing(ctx, req)
	if err != nil {
		return FillResult{}, err
	}
	if len(existing) >= req.Target {
		return FillResult{Existing: existing[:req.Target], Created: []*types.Question{}}, nil
	}
	missing := req.Target - len(existing)

	drafts := make([]generation.DraftQuestion, 0, missing)
	var genErr error
	for call := 0; call < g.cfg.MaxGeneratorCalls && len(drafts) < missing; call++ {
		batch, err := g.gen.GenerateQuestions(ctx, generation.QuestionRequest{
			Topic:        req.Topic,
			Difficulty:   req.Difficulty,
			Count:        missing - len(drafts),
			QuestionType: req.QuestionType,
			Subject:      req.Subject,
		})
		if err != nil {
			genErr = err
			break
		}
		drafts = append(drafts, batch...)
	}
	if len(drafts) > missing {
		drafts = drafts[:missing]
	}
	if len(drafts) == 0 {
		if genErr == nil {
			genErr = fmt.Errorf("model returned no usable questions")
		}
		return FillResult{}, fmt.Errorf("generate %s/%s: %w", req.Topic, req.Difficulty, genErr)
	}

	now := types.Stamp(time.Now())
	rows := make([]*types.Question, 0, len(drafts))
	for i, d := range drafts {
		rows = append(rows, &types.Question{
			ID:           types.NewQuestionID(),
			Text:         d.Text,
			Topic:        req.Topic,
			Difficulty:   req.Difficulty,
			Source:       types.SourceAIGenerated,
			Answer:       d.Answer,
			Explanation:  d.Explanation,
			TeachingTips: d.TeachingTips,
			CreatedAt:    now.Add(time.Duration(i) * time.Microsecond),
		})
	}
	created := g.store.CreateQuestions(ctx, rows)
	if created.Unavailable() {
		return FillResult{}, errors.New(created.ErrorMessage())
	}
	g.log.Info("questions generated", append(ctxutil.TraceFields(ctx),
		"topic", req.Topic, "difficulty", req.Difficulty,
		"existing", len(existing), "created", len(created.Value), "partial_error", genErr != nil)...)
	return FillResult{Existing: existing, Created: created.Value}, nil
}
