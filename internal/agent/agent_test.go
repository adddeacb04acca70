package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/tutorbridge-backend/internal/data/repos/testutil"
	"github.com/yungbote/tutorbridge-backend/internal/data/store"
	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/platform/objectstore"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
	"github.com/yungbote/tutorbridge-backend/internal/tools"
)

type harness struct {
	agent *Agent
	model *llm.MockProvider
	store *store.Store
	convs *MemoryConversations
}

type noSearch struct{}

func (noSearch) Name() string { return "none" }
func (noSearch) Search(context.Context, string, int, []string) ([]tools.SearchHit, error) {
	return nil, errors.New("search disabled")
}

func newHarness(t *testing.T, memory bool, cfg Config) *harness {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)
	st := store.New(store.NewRepos(db, log), store.BreakerConfig{}, log)
	toolGen := generation.NewService(llm.NewMockProvider(), log)
	kit, err := tools.NewToolkit(tools.Deps{
		Store:      st,
		Generation: toolGen,
		Objects:    objectstore.NewMemory(""),
		Search:     noSearch{},
		Now:        func() time.Time { return time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC) },
	}, log)
	require.NoError(t, err)
	reg, err := tools.NewDefaultRegistry(kit, tools.EnforcementStrict, log)
	require.NoError(t, err)

	policy, err := LoadPolicy(log)
	require.NoError(t, err)

	model := llm.NewMockProvider()
	h := &harness{model: model, store: st}
	var convs ConversationStore
	if memory {
		h.convs = NewMemoryConversations(time.Hour)
		convs = h.convs
	}
	h.agent, err = New(model, reg, policy, convs, cfg, log)
	require.NoError(t, err)
	return h
}

func toolCall(id, name, args string) llm.MockResponse {
	return llm.MockResponse{ToolCalls: []llm.ToolCall{{ID: id, Name: name, Arguments: args}}}
}

func TestChatPlainReplyWithoutMemory(t *testing.T) {
	h := newHarness(t, false, Config{})
	h.model.AddText("<thinking>the tutor said hi</thinking>Hello! How can I help with your students today?")

	resp, err := h.agent.Chat(context.Background(), ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, NewSessionID, resp.ConversationID)
	assert.Equal(t, "Hello! How can I help with your students today?", resp.Response)
	assert.Empty(t, resp.ActionTraces)
	assert.NotNil(t, resp.Worksheets)
	assert.NotNil(t, resp.Sources)

	call := h.model.LastCall()
	assert.Contains(t, call.System, "TutorBridge Assistant")
	assert.NotEmpty(t, call.Tools)
	require.Len(t, call.Messages, 1)
	assert.Equal(t, "hi", call.Messages[0].Content)
}

func TestChatEchoesCallerConversationIDWithoutMemory(t *testing.T) {
	h := newHarness(t, false, Config{})
	h.model.AddText("ok")
	resp, err := h.agent.Chat(context.Background(), ChatRequest{Message: "hi", ConversationID: "caller-123"})
	require.NoError(t, err)
	assert.Equal(t, "caller-123", resp.ConversationID)
}

func TestChatRunsToolsAndFeedsResultsBack(t *testing.T) {
	h := newHarness(t, false, Config{})
	h.model.AddResponse(toolCall("call_1", "query_question_topics", `{}`))
	h.model.AddText("The question bank is empty.")

	resp, err := h.agent.Chat(context.Background(), ChatRequest{Message: "what topics do we have"})
	require.NoError(t, err)
	require.Len(t, resp.ActionTraces, 1)
	assert.Equal(t, "query_question_topics", resp.ActionTraces[0].Tool)
	assert.True(t, resp.ActionTraces[0].Output.Success())
	assert.Equal(t, "The question bank is empty.", resp.Response)

	second := h.model.LastCall()
	require.Len(t, second.Messages, 3)
	assert.Equal(t, llm.RoleAssistant, second.Messages[1].Role)
	assert.Equal(t, llm.RoleTool, second.Messages[2].Role)
	assert.Equal(t, "call_1", second.Messages[2].ToolCallID)
	assert.Contains(t, second.Messages[2].Content, `"topics"`)
}

func TestChatRejectsOutOfOrderTools(t *testing.T) {
	h := newHarness(t, false, Config{})
	h.model.AddResponse(toolCall("call_1", "query_questions", `{"topic":"Fractions"}`))
	h.model.AddText("Let me check the topics first.")

	resp, err := h.agent.Chat(context.Background(), ChatRequest{Message: "find fraction questions"})
	require.NoError(t, err)
	require.Len(t, resp.ActionTraces, 1)
	out := resp.ActionTraces[0].Output
	assert.False(t, out.Success())
	assert.Equal(t, tools.StepQueryTopics, out["required_step"])
}

func TestChatConfirmationAcrossTurns(t *testing.T) {
	h := newHarness(t, true, Config{})
	ctx := context.Background()
	args := `{"student_id":"stu_1","session_date":"2026-10-15","time":"16:00","duration":60}`

	h.model.AddResponse(toolCall("call_1", "create_session", args))
	h.model.AddText("I can create a 60-minute session on 2026-10-15 at 16:00. Would you like me to go ahead?")
	first, err := h.agent.Chat(ctx, ChatRequest{Message: "book Ava for thursday at 4pm"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ConversationID, "conv_"))
	require.Len(t, first.ActionTraces, 1)
	assert.Equal(t, tools.StepUserConfirmation, first.ActionTraces[0].Output["required_step"])
	assert.True(t, h.store.Session(ctx, "sess_20261015_stu_1").Empty())

	stored, err := h.convs.Load(ctx, first.ConversationID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Workflow.AwaitingConfirmation)
	assert.Len(t, stored.Turns, 2)

	h.model.AddResponse(toolCall("call_2", "create_session", args))
	h.model.AddText("Done, the session is booked.")
	second, err := h.agent.Chat(ctx, ChatRequest{Message: "Yes, go ahead", ConversationID: first.ConversationID})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)
	require.Len(t, second.ActionTraces, 1)
	assert.True(t, second.ActionTraces[0].Output.Success(), second.ActionTraces[0].Output.Error())
	assert.True(t, h.store.Session(ctx, "sess_20261015_stu_1").OK())

	// The earlier turns are replayed to the model.
	replay := h.model.Calls[len(h.model.Calls)-2]
	assert.Equal(t, "book Ava for thursday at 4pm", replay.Messages[0].Content)
	assert.Equal(t, "Yes, go ahead", replay.Messages[2].Content)

	stored, err = h.convs.Load(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.False(t, stored.Workflow.AwaitingConfirmation)
	assert.Len(t, stored.Turns, 4)
}

func TestChatAffirmativeWithoutPendingQuestionDoesNotConfirm(t *testing.T) {
	h := newHarness(t, true, Config{})
	h.model.AddResponse(toolCall("call_1", "create_session_schedule", `{"student_id":"stu_1","day_of_week":2,"time":"10:00","duration":30}`))
	h.model.AddText("I need your confirmation for that.")

	resp, err := h.agent.Chat(context.Background(), ChatRequest{Message: "yes"})
	require.NoError(t, err)
	require.Len(t, resp.ActionTraces, 1)
	assert.Equal(t, tools.StepUserConfirmation, resp.ActionTraces[0].Output["required_step"])
}

func TestChatContextConfirmed(t *testing.T) {
	h := newHarness(t, false, Config{})
	h.model.AddResponse(toolCall("call_1", "create_session",
		`{"student_id":"stu_2","session_date":"2026-10-16","time":"09:00","duration":45}`))
	h.model.AddText("Booked.")

	resp, err := h.agent.Chat(context.Background(), ChatRequest{
		Message: "book it",
		Context: map[string]any{"confirmed": true, "tutor": "Sam"},
	})
	require.NoError(t, err)
	require.Len(t, resp.ActionTraces, 1)
	assert.True(t, resp.ActionTraces[0].Output.Success(), resp.ActionTraces[0].Output.Error())
	system := h.model.Calls[0].System
	assert.Contains(t, system, `"tutor":"Sam"`)
	assert.NotContains(t, system, `"confirmed"`)
}

func TestChatStopsAfterMaxRounds(t *testing.T) {
	h := newHarness(t, false, Config{MaxRounds: 2})
	h.model.AddResponse(toolCall("call_1", "get_current_datetime", `{}`))
	h.model.AddResponse(toolCall("call_2", "get_current_datetime", `{}`))
	h.model.AddText("never reached")

	resp, err := h.agent.Chat(context.Background(), ChatRequest{Message: "what day is it"})
	require.NoError(t, err)
	assert.Equal(t, h.agent.policy.Exhausted, resp.Response)
	assert.Len(t, resp.ActionTraces, 2)
	assert.Equal(t, 2, h.model.CallCount())
}

func TestChatModelFailure(t *testing.T) {
	h := newHarness(t, false, Config{})
	h.model.AddResponse(llm.MockResponse{Err: &llm.ErrRateLimit{}})

	_, err := h.agent.Chat(context.Background(), ChatRequest{Message: "hi"})
	require.Error(t, err)
	var rl *llm.ErrRateLimit
	assert.ErrorAs(t, err, &rl)

	_, err = h.agent.Chat(context.Background(), ChatRequest{Message: "   "})
	assert.Error(t, err)
}

func TestStripThinking(t *testing.T) {
	assert.Equal(t, "Answer.", StripThinking("<thinking>plan</thinking>Answer."))
	assert.Equal(t, "A B", StripThinking("A <THINKING>x\ny</THINKING>B"))
	assert.Equal(t, "Partial", StripThinking("Partial <thinking>never closed"))
}

func TestWorksheetsAndSources(t *testing.T) {
	ws := tools.Result{"worksheet_id": "ws_1", "title": "Fractions"}
	traces := []tools.Outcome{
		{Tool: "create_worksheet", Output: tools.Succeed(tools.Result{"worksheet": ws})},
		{Tool: "create_worksheet", Output: tools.FailWith("boom", tools.Result{"worksheet": ws})},
		{Tool: "create_lesson_with_worksheet", Output: tools.Succeed(tools.Result{"worksheet": tools.Result{"worksheet_id": "ws_2"}})},
		{Tool: "web_search", Output: tools.Succeed(tools.Result{"results": []tools.SearchResult{
			{URL: "https://a.example", RelevanceScore: 0.4},
			{URL: "https://b.edu", RelevanceScore: 0.9},
		}})},
		{Tool: "web_search", Output: tools.Succeed(tools.Result{"results": []tools.SearchResult{
			{URL: "https://a.example", RelevanceScore: 0.4},
		}})},
	}

	got := Worksheets(traces)
	require.Len(t, got, 2)
	assert.Equal(t, "ws_1", got[0].(tools.Result)["worksheet_id"])

	sources := Sources(traces)
	require.Len(t, sources, 2)
	assert.Equal(t, "https://b.edu", sources[0].(tools.SearchResult).URL)
}

func TestMemoryConversationsExpire(t *testing.T) {
	m := NewMemoryConversations(time.Minute)
	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	conv := &Conversation{ID: "conv_1", Workflow: tools.WorkflowState{TopicsChecked: map[string]tools.TopicCheck{"fractions": {Found: 2}}}}
	require.NoError(t, m.Save(ctx, conv))
	conv.Workflow.TopicsChecked["fractions"] = tools.TopicCheck{Found: 9}

	got, err := m.Load(ctx, "conv_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Workflow.TopicsChecked["fractions"].Found)

	now = now.Add(2 * time.Minute)
	got, err = m.Load(ctx, "conv_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConversationTrimStartsOnUserTurn(t *testing.T) {
	c := &Conversation{}
	for i := 0; i < 5; i++ {
		c.Turns = append(c.Turns, Turn{Role: llm.RoleUser, Content: "q"}, Turn{Role: llm.RoleAssistant, Content: "a"})
	}
	c.trim(3)
	require.Len(t, c.Turns, 2)
	assert.Equal(t, llm.RoleUser, c.Turns[0].Role)
}

func TestNewConversationID(t *testing.T) {
	id := NewConversationID()
	assert.True(t, strings.HasPrefix(id, "conv_"))
	assert.NotEqual(t, id, NewConversationID())
}
