package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
)

func TestWorkflowQueryQuestionsNeedsTopics(t *testing.T) {
	wf := NewWorkflow(WorkflowState{}, nil)
	v := wf.Check("query_questions", Args{"topic": "Fractions"})
	require.NotNil(t, v)
	assert.Equal(t, StepQueryTopics, v.RequiredStep)

	wf.Record("query_question_topics", Args{}, Succeed(Result{"count": 2}))
	assert.Nil(t, wf.Check("query_questions", Args{"topic": "Fractions"}))
}

func TestWorkflowGenerateQuestionsGates(t *testing.T) {
	wf := NewWorkflow(WorkflowState{}, nil)
	args := Args{"topic": "Fractions", "question_count": 5}

	v := wf.Check("generate_questions", args)
	require.NotNil(t, v)
	assert.Equal(t, StepQueryTopics, v.RequiredStep)

	wf.Record("query_question_topics", Args{}, Succeed(nil))
	v = wf.Check("generate_questions", args)
	require.NotNil(t, v)
	assert.Equal(t, StepQueryQuestions, v.RequiredStep)

	// A failed query does not count as a check.
	wf.Record("query_questions", Args{"topic": "Fractions"}, Fail("store unavailable"))
	v = wf.Check("generate_questions", args)
	require.NotNil(t, v)
	assert.Equal(t, StepQueryQuestions, v.RequiredStep)

	wf.Record("query_questions", Args{"topic": "  FRACTIONS ", "difficulty": "intermediate"}, Succeed(Result{"count": 3}))
	v = wf.Check("generate_questions", args)
	require.NotNil(t, v)
	assert.Equal(t, StepUserConfirmation, v.RequiredStep)

	wf.BeginTurn(true)
	assert.Nil(t, wf.Check("generate_questions", args))

	v = wf.Check("generate_questions", Args{"topic": "fractions", "question_count": 3})
	require.NotNil(t, v)
	assert.Equal(t, StepUseExisting, v.RequiredStep)
	assert.Contains(t, v.Message, "3 Medium questions already exist")

	wf.BeginTurn(false)
	assert.False(t, wf.Confirmed())
	v = wf.Check("generate_questions", args)
	require.NotNil(t, v)
	assert.Equal(t, StepUserConfirmation, v.RequiredStep)
}

func TestWorkflowRecordGenerateRaisesFound(t *testing.T) {
	wf := NewWorkflow(WorkflowState{TopicsKnown: true}, nil)
	wf.BeginTurn(true)
	wf.Record("query_questions", Args{"topic": "Ratios", "needed": 4}, Succeed(Result{"count": 1}))
	wf.Record("generate_questions", Args{"topic": "Ratios", "question_count": 6}, Succeed(Result{"count": 6}))

	check := wf.State().TopicsChecked["ratios"]
	assert.Equal(t, 6, check.Found)
	assert.Equal(t, 6, check.Needed)
	assert.False(t, check.Insufficient())

	v := wf.Check("generate_questions", Args{"topic": "Ratios", "question_count": 6})
	require.NotNil(t, v)
	assert.Equal(t, StepUseExisting, v.RequiredStep)
}

func TestWorkflowConfirmationTools(t *testing.T) {
	wf := NewWorkflow(WorkflowState{}, nil)
	for _, tool := range DefaultConfirmationTools {
		if tool == "generate_questions" {
			continue
		}
		v := wf.Check(tool, Args{})
		require.NotNil(t, v, tool)
		assert.Equal(t, StepUserConfirmation, v.RequiredStep)
	}
	for _, tool := range []string{"query_students", "web_search", "get_schedule", "current_datetime"} {
		assert.Nil(t, wf.Check(tool, Args{}), tool)
	}

	custom := NewWorkflow(WorkflowState{}, []string{"create_session"})
	assert.Nil(t, custom.Check("create_worksheet", Args{}))
	assert.NotNil(t, custom.Check("create_session", Args{}))
	assert.True(t, custom.RequiresConfirmation("create_session"))
}

func TestWorkflowStateIsCopied(t *testing.T) {
	wf := NewWorkflow(WorkflowState{}, nil)
	wf.Record("query_questions", Args{"topic": "Decimals", "difficulty": "Easy"}, Succeed(Result{"count": float64(2)}))
	st := wf.State()
	st.TopicsChecked["decimals"].ByDifficulty["Easy"] = 50
	st.TopicsChecked["decimals"] = TopicCheck{Found: 99}
	assert.Equal(t, 2, wf.State().TopicsChecked["decimals"].Found)
	n, ok := wf.State().TopicsChecked["decimals"].CountFor("Easy")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	wf.SetAwaitingConfirmation(true)
	assert.True(t, wf.AwaitingConfirmation())
	assert.True(t, wf.State().AwaitingConfirmation)
}

func TestWorkflowChecksAreKeyedByDifficulty(t *testing.T) {
	wf := NewWorkflow(WorkflowState{TopicsKnown: true}, nil)
	wf.BeginTurn(true)

	wf.Record("query_questions", Args{"topic": "Ratios", "difficulty": "Hard"}, Succeed(Result{"count": 0}))
	v := wf.Check("generate_questions", Args{"topic": "Ratios", "difficulty_level": "beginner"})
	require.NotNil(t, v)
	assert.Equal(t, StepQueryQuestions, v.RequiredStep)
	assert.Contains(t, v.Message, "Easy")
	assert.Nil(t, wf.Check("generate_questions", Args{"topic": "Ratios", "difficulty_level": "advanced"}))

	wf.Record("query_questions", Args{"topic": "Ratios", "difficulty": "beginner"}, Succeed(Result{"count": 7}))
	v = wf.Check("generate_questions", Args{"topic": "Ratios", "difficulty_level": "Easy"})
	require.NotNil(t, v)
	assert.Equal(t, StepUseExisting, v.RequiredStep)

	check := wf.State().TopicsChecked["ratios"]
	assert.Equal(t, 7, check.Found)
	assert.False(t, check.Complete)
}

func TestWorkflowUnfilteredQueryCountsPerDifficulty(t *testing.T) {
	wf := NewWorkflow(WorkflowState{TopicsKnown: true}, nil)
	wf.BeginTurn(true)
	questions := []*types.Question{
		{ID: "q1", Difficulty: types.DifficultyEasy},
		{ID: "q2", Difficulty: types.DifficultyMedium},
		{ID: "q3", Difficulty: types.DifficultyMedium},
	}
	wf.Record("query_questions", Args{"topic": "Fractions"}, Succeed(Result{"count": 3, "questions": questions}))

	check := wf.State().TopicsChecked["fractions"]
	assert.True(t, check.Complete)
	assert.Equal(t, 3, check.Found)
	assert.Equal(t, map[string]int{"Easy": 1, "Medium": 2}, check.ByDifficulty)

	// Hard was covered by the unfiltered query and has none.
	assert.Nil(t, wf.Check("generate_questions", Args{"topic": "Fractions", "difficulty_level": "Hard", "question_count": 1}))
	v := wf.Check("generate_questions", Args{"topic": "Fractions", "difficulty_level": "intermediate", "question_count": 2})
	require.NotNil(t, v)
	assert.Equal(t, StepUseExisting, v.RequiredStep)
	assert.Nil(t, wf.Check("generate_questions", Args{"topic": "Fractions", "difficulty_level": "beginner", "question_count": 2}))
}
