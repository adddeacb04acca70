package tools

import (
	"fmt"
	"strings"
	"sync"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/envutil"
)

type Enforcement string

const (
	EnforcementStrict     Enforcement = "strict"
	EnforcementPermissive Enforcement = "permissive"
)

func EnforcementFromEnv() Enforcement {
	switch strings.ToLower(envutil.String("WORKFLOW_ENFORCEMENT", "strict")) {
	case string(EnforcementPermissive):
		return EnforcementPermissive
	default:
		return EnforcementStrict
	}
}

const (
	StepQueryTopics       = "query_question_topics"
	StepQueryQuestions    = "query_questions"
	StepUseExisting       = "use_existing_questions"
	StepUserConfirmation  = "user_confirmation"
	defaultNeededQuestion = 5
)

// DefaultConfirmationTools create content and need the user's go-ahead.
var DefaultConfirmationTools = []string{
	"generate_questions",
	"create_worksheet",
	"create_lesson_plan",
	"create_lesson_with_worksheet",
	"create_session",
	"create_session_schedule",
}

type TopicCheck struct {
	Topic  string `json:"topic"`
	Found  int    `json:"found"`
	Needed int    `json:"needed"`
	// ByDifficulty holds the counts seen per stored difficulty. Complete is
	// set once an unfiltered query has covered every difficulty, so a
	// missing entry means zero rather than unchecked.
	ByDifficulty map[string]int `json:"by_difficulty,omitempty"`
	Complete     bool           `json:"complete,omitempty"`
}

func (c TopicCheck) Insufficient() bool { return c.Found < c.Needed }

// CountFor reports the checked count at difficulty and whether that
// difficulty has been checked at all.
func (c TopicCheck) CountFor(difficulty string) (int, bool) {
	if n, ok := c.ByDifficulty[difficulty]; ok {
		return n, true
	}
	return 0, c.Complete
}

func (c *TopicCheck) set(difficulty string, n int) {
	if c.ByDifficulty == nil {
		c.ByDifficulty = map[string]int{}
	}
	c.ByDifficulty[difficulty] = n
	c.Found = 0
	for _, v := range c.ByDifficulty {
		c.Found += v
	}
}

func (c TopicCheck) clone() TopicCheck {
	if c.ByDifficulty != nil {
		m := make(map[string]int, len(c.ByDifficulty))
		for k, v := range c.ByDifficulty {
			m[k] = v
		}
		c.ByDifficulty = m
	}
	return c
}

// WorkflowState is the persisted part of a conversation's workflow.
type WorkflowState struct {
	TopicsKnown   bool                  `json:"topics_known"`
	TopicsChecked map[string]TopicCheck `json:"topics_checked"`
	// AwaitingConfirmation is set when the last assistant turn asked the
	// user to confirm an action.
	AwaitingConfirmation bool `json:"awaiting_confirmation"`
}

// Clone deep-copies the topic checks.
func (s WorkflowState) Clone() WorkflowState {
	out := s
	out.TopicsChecked = make(map[string]TopicCheck, len(s.TopicsChecked))
	for k, v := range s.TopicsChecked {
		out.TopicsChecked[k] = v.clone()
	}
	return out
}

type Violation struct {
	RequiredStep string
	Message      string
}

// Workflow gates tool calls for one conversation. Confirmation lasts for a
// single user turn.
type Workflow struct {
	mu           sync.Mutex
	state        WorkflowState
	confirmed    bool
	confirmTools map[string]bool
}

func NewWorkflow(state WorkflowState, confirmTools []string) *Workflow {
	if confirmTools == nil {
		confirmTools = DefaultConfirmationTools
	}
	set := make(map[string]bool, len(confirmTools))
	for _, t := range confirmTools {
		set[strings.TrimSpace(t)] = true
	}
	if state.TopicsChecked == nil {
		state.TopicsChecked = map[string]TopicCheck{}
	}
	return &Workflow{state: state, confirmTools: set}
}

func (w *Workflow) State() WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Clone()
}

// BeginTurn resets per-turn confirmation.
func (w *Workflow) BeginTurn(confirmed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.confirmed = confirmed
}

func (w *Workflow) Confirmed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.confirmed
}

func (w *Workflow) SetAwaitingConfirmation(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.AwaitingConfirmation = v
}

func (w *Workflow) AwaitingConfirmation() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.AwaitingConfirmation
}

func (w *Workflow) RequiresConfirmation(tool string) bool {
	return w.confirmTools[tool]
}

// Check returns the first unmet precondition for calling tool, or nil.
func (w *Workflow) Check(tool string, args Args) *Violation {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch tool {
	case "query_questions":
		if !w.state.TopicsKnown {
			return &Violation{
				RequiredStep: StepQueryTopics,
				Message:      "Call query_question_topics first to see which topics exist.",
			}
		}
	case "generate_questions":
		if !w.state.TopicsKnown {
			return &Violation{
				RequiredStep: StepQueryTopics,
				Message:      "Call query_question_topics before generating questions.",
			}
		}
		topic := args.String("topic", "")
		difficulty := difficultyKey(args.String("difficulty_level", "intermediate"))
		check, ok := w.state.TopicsChecked[types.TopicKey(topic)]
		if !ok {
			return &Violation{
				RequiredStep: StepQueryQuestions,
				Message:      fmt.Sprintf("Call query_questions for %q before generating questions.", topic),
			}
		}
		found, checked := check.CountFor(difficulty)
		if !checked {
			return &Violation{
				RequiredStep: StepQueryQuestions,
				Message:      fmt.Sprintf("Call query_questions for %q at %s difficulty before generating questions.", topic, difficulty),
			}
		}
		requested := args.Int("question_count", defaultNeededQuestion)
		if found >= requested {
			return &Violation{
				RequiredStep: StepUseExisting,
				Message: fmt.Sprintf("%d %s questions already exist for %q, enough for the %d requested. Use the existing questions.",
					found, difficulty, check.Topic, requested),
			}
		}
	}

	if w.confirmTools[tool] && !w.confirmed {
		return &Violation{
			RequiredStep: StepUserConfirmation,
			Message:      fmt.Sprintf("Ask the user to confirm before calling %s.", tool),
		}
	}
	return nil
}

// Record applies the state transition for a completed call. Failed calls
// change nothing.
func (w *Workflow) Record(tool string, args Args, res Result) {
	if !res.Success() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	switch tool {
	case "query_question_topics":
		w.state.TopicsKnown = true
	case "query_questions":
		topic := args.String("topic", "")
		key := types.TopicKey(topic)
		if key == "" {
			return
		}
		check := w.state.TopicsChecked[key].clone()
		check.Topic = topic
		check.Needed = args.Int("needed", defaultNeededQuestion)
		if raw := args.String("difficulty", ""); raw != "" {
			check.set(difficultyKey(raw), intField(res, "count"))
		} else {
			// Unfiltered: the returned rows carry every difficulty.
			check.ByDifficulty = nil
			check.Complete = true
			check.Found = 0
			for d, n := range countByDifficulty(res["questions"]) {
				check.set(d, n)
			}
		}
		w.state.TopicsChecked[key] = check
	case "generate_questions":
		topic := args.String("topic", "")
		key := types.TopicKey(topic)
		check := w.state.TopicsChecked[key].clone()
		check.Topic = topic
		check.set(difficultyKey(args.String("difficulty_level", "intermediate")), intField(res, "count"))
		if n := args.Int("question_count", defaultNeededQuestion); n > check.Needed {
			check.Needed = n
		}
		w.state.TopicsChecked[key] = check
	}
}

// difficultyKey folds worksheet levels onto stored difficulties.
func difficultyKey(raw string) string {
	if d := types.NormalizeDifficulty(raw); d != "" {
		return d
	}
	return strings.TrimSpace(raw)
}

func countByDifficulty(v any) map[string]int {
	out := map[string]int{}
	switch qs := v.(type) {
	case []*types.Question:
		for _, q := range qs {
			if q != nil {
				out[difficultyKey(q.Difficulty)]++
			}
		}
	case []any:
		for _, item := range qs {
			if m, ok := item.(map[string]any); ok {
				d, _ := m["difficulty"].(string)
				out[difficultyKey(d)]++
			}
		}
	}
	return out
}

func intField(res Result, key string) int {
	switch v := res[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
