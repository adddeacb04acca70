package tools

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/tutorbridge-backend/internal/data/repos/testutil"
	"github.com/yungbote/tutorbridge-backend/internal/data/store"
	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
)

func countQuestions(t *testing.T, st *store.Store, topic, difficulty string) int64 {
	t.Helper()
	res := st.CountQuestions(context.Background(), topic, difficulty)
	require.False(t, res.Unavailable(), res.ErrorMessage())
	return res.Value
}

func TestGenerateQuestionsFillsOnlyTheShortfall(t *testing.T) {
	k := newKit(t)
	ctx := context.Background()
	testutil.SeedQuestions(t, ctx, k.db, "Fractions", types.DifficultyEasy, 3)
	k.mock.AddText(draftsJSON(t,
		"What is 1/2 + 1/4 written as a fraction?",
		"Simplify 6/8 to its lowest terms.",
	))

	wf := NewWorkflow(WorkflowState{}, nil)
	wf.BeginTurn(true)

	out := k.registry.Dispatch(ctx, wf, "query_question_topics", `{}`)
	require.True(t, out.Output.Success(), out.Output.Error())

	out = k.registry.Dispatch(ctx, wf, "query_questions", `{"topic":"Fractions","difficulty":"beginner"}`)
	require.True(t, out.Output.Success(), out.Output.Error())
	assert.Equal(t, 3, out.Output["count"])
	assert.Equal(t, "insufficient", out.Output["status"])

	out = k.registry.Dispatch(ctx, wf, "generate_questions",
		`{"topic":"fractions","question_count":5,"difficulty_level":"beginner"}`)
	require.True(t, out.Output.Success(), out.Output.Error())
	assert.Equal(t, 3, out.Output["existing_count"])
	assert.Equal(t, 2, out.Output["generated_count"])
	assert.Equal(t, 5, out.Output["count"])
	assert.Equal(t, types.SourceMixed, out.Output["source"])
	assert.Equal(t, "Fractions", out.Output["topic"])
	assert.Equal(t, types.DifficultyEasy, out.Output["difficulty"])

	assert.Equal(t, 1, k.mock.CallCount())
	require.NotEmpty(t, k.mock.LastCall().Messages)
	assert.Contains(t, k.mock.LastCall().Messages[0].Content, "exactly 2")
	assert.EqualValues(t, 5, countQuestions(t, k.store, "Fractions", types.DifficultyEasy))

	// Now enough exist, so a second request is refused before the model runs.
	out = k.registry.Dispatch(ctx, wf, "generate_questions",
		`{"topic":"Fractions","question_count":5,"difficulty_level":"beginner"}`)
	assert.False(t, out.Output.Success())
	assert.Equal(t, StepUseExisting, out.Output["required_step"])
	assert.Equal(t, 1, k.mock.CallCount())
}

func TestGenerateQuestionsAfterUnfilteredQueryUsesRequestedDifficulty(t *testing.T) {
	k := newKit(t)
	ctx := context.Background()
	testutil.SeedQuestions(t, ctx, k.db, "Fractions", types.DifficultyEasy, 3)
	testutil.SeedQuestions(t, ctx, k.db, "Fractions", types.DifficultyMedium, 5)
	k.mock.AddText(draftsJSON(t,
		"What is 1/3 + 1/3 written as a fraction?",
		"Which is larger, 2/5 or 3/10?",
	))

	wf := NewWorkflow(WorkflowState{}, nil)
	wf.BeginTurn(true)
	require.True(t, k.registry.Dispatch(ctx, wf, "query_question_topics", `{}`).Output.Success())

	out := k.registry.Dispatch(ctx, wf, "query_questions", `{"topic":"Fractions"}`)
	require.True(t, out.Output.Success(), out.Output.Error())
	assert.Equal(t, 8, out.Output["count"])

	out = k.registry.Dispatch(ctx, wf, "generate_questions",
		`{"topic":"Fractions","question_count":5,"difficulty_level":"beginner"}`)
	require.True(t, out.Output.Success(), out.Output.Error())
	assert.Equal(t, 3, out.Output["existing_count"])
	assert.Equal(t, 2, out.Output["generated_count"])
	assert.EqualValues(t, 5, countQuestions(t, k.store, "Fractions", types.DifficultyEasy))
	assert.EqualValues(t, 5, countQuestions(t, k.store, "Fractions", types.DifficultyMedium))

	out = k.registry.Dispatch(ctx, wf, "generate_questions",
		`{"topic":"Fractions","question_count":5,"difficulty_level":"intermediate"}`)
	assert.False(t, out.Output.Success())
	assert.Equal(t, StepUseExisting, out.Output["required_step"])
	assert.Equal(t, 1, k.mock.CallCount())
}

func TestGuardReturnsExistingWithoutModelCall(t *testing.T) {
	k := newKit(t)
	ctx := context.Background()
	testutil.SeedQuestions(t, ctx, k.db, "Decimals", types.DifficultyMedium, 4)

	res, err := k.toolkit.guard.Fill(ctx, FillRequest{Topic: "decimals", Difficulty: types.DifficultyMedium, Target: 2})
	require.NoError(t, err)
	assert.Len(t, res.Existing, 2)
	assert.Empty(t, res.Created)
	assert.Equal(t, types.SourceDatabase, res.Source())
	assert.Equal(t, 0, k.mock.CallCount())

	res, err = k.toolkit.guard.Fill(ctx, FillRequest{Topic: "decimals", Target: 0})
	require.NoError(t, err)
	assert.Empty(t, res.Questions())
}

func TestGuardCallsGeneratorTwiceForShortBatches(t *testing.T) {
	k := newKit(t)
	ctx := context.Background()
	k.mock.AddText(draftsJSON(t, "Solve 2x + 3 = 11 for x.", "Solve 5x - 4 = 16 for x."))
	k.mock.AddText(draftsJSON(t, "Solve 3x + 9 = 0 for x.", "Solve 7x = 49 for x please.", "Solve x/2 = 8 for x."))

	res, err := k.toolkit.guard.Fill(ctx, FillRequest{Topic: "Linear Equations", Difficulty: types.DifficultyHard, Target: 4})
	require.NoError(t, err)
	assert.Empty(t, res.Existing)
	assert.Len(t, res.Created, 4)
	assert.Equal(t, types.SourceAIGenerated, res.Source())
	assert.Equal(t, 2, k.mock.CallCount())
	assert.EqualValues(t, 4, countQuestions(t, k.store, "linear equations", types.DifficultyHard))
	for _, q := range res.Created {
		assert.Equal(t, types.SourceAIGenerated, q.Source)
		assert.Equal(t, "Linear Equations", q.Topic)
	}
}

func TestGuardGeneratorFailure(t *testing.T) {
	k := newKit(t)
	k.mock.AddResponse(llm.MockResponse{Err: errors.New("model overloaded")})

	_, err := k.toolkit.guard.Fill(context.Background(), FillRequest{Topic: "Angles", Difficulty: types.DifficultyEasy, Target: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Angles")

	// The claim is released on failure.
	claim := k.store.AcquireClaim(context.Background(), "angles", types.DifficultyEasy, "someone_else", time.Minute)
	assert.True(t, claim.OK())
}

func TestGuardClaimBusy(t *testing.T) {
	k := newKit(t)
	ctx := context.Background()
	require.True(t, k.store.AcquireClaim(ctx, "geometry", types.DifficultyEasy, "other_process", time.Hour).OK())

	g := NewGuard(k.store, generation.NewService(k.mock, testutil.Logger(t)), GuardConfig{MaxRetries: 2}, testutil.Logger(t))
	var sleeps []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	_, err := g.Fill(ctx, FillRequest{Topic: "Geometry", Difficulty: types.DifficultyEasy, Target: 3})
	require.ErrorIs(t, err, ErrClaimBusy)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond}, sleeps)
	assert.Equal(t, 0, k.mock.CallCount())

	// Rows written by the claim holder satisfy a waiting caller.
	testutil.SeedQuestions(t, ctx, k.db, "Geometry", types.DifficultyEasy, 3)
	res, err := g.Fill(ctx, FillRequest{Topic: "Geometry", Difficulty: types.DifficultyEasy, Target: 3})
	require.NoError(t, err)
	assert.Len(t, res.Existing, 3)
	assert.Equal(t, 0, k.mock.CallCount())
}

func TestGenerateQuestionsReportsRetryableWhenBusy(t *testing.T) {
	k := newKit(t, func(d *Deps) {
		d.Guard = NewGuard(d.Store, d.Generation, GuardConfig{RetryBase: time.Millisecond, MaxRetries: 0}, testutil.Logger(t))
	})
	ctx := context.Background()
	require.True(t, k.store.AcquireClaim(ctx, "ratios", types.DifficultyMedium, "other_process", time.Hour).OK())

	out := k.call(t, "generate_questions", map[string]any{"topic": "Ratios", "question_count": 2})
	assert.False(t, out.Success())
	assert.Equal(t, true, out["retryable"])
	assert.Contains(t, out.Error(), ErrClaimBusy.Error())
}

func TestGuardsAcrossProcessesWriteOnce(t *testing.T) {
	k := newKit(t)
	ctx := context.Background()
	testutil.SeedQuestions(t, ctx, k.db, "Percentages", types.DifficultyMedium, 3)
	k.mock.AddText(draftsJSON(t, "What is 20% of 80 in total?", "Write 0.35 as a percentage."))

	log := testutil.Logger(t)
	gen := generation.NewService(k.mock, log)
	cfg := GuardConfig{RetryBase: 5 * time.Millisecond, MaxRetries: 10}
	guards := []*Guard{NewGuard(k.store, gen, cfg, log), NewGuard(k.store, gen, cfg, log)}

	var wg sync.WaitGroup
	results := make([]FillResult, 6)
	errs := make([]error, 6)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = guards[i%2].Fill(ctx, FillRequest{Topic: "Percentages", Difficulty: types.DifficultyMedium, Target: 5})
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Len(t, results[i].Questions(), 5)
	}
	assert.Equal(t, 1, k.mock.CallCount())
	assert.EqualValues(t, 5, countQuestions(t, k.store, "Percentages", types.DifficultyMedium))
}

func TestFillResultSource(t *testing.T) {
	q := &types.Question{}
	assert.Equal(t, types.SourceDatabase, FillResult{Existing: []*types.Question{q}}.Source())
	assert.Equal(t, types.SourceAIGenerated, FillResult{Created: []*types.Question{q}}.Source())
	assert.Equal(t, types.SourceMixed, FillResult{Existing: []*types.Question{q}, Created: []*types.Question{q}}.Source())
}
