package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/tutorbridge-backend/internal/platform/apierr"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/envutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
	"github.com/yungbote/tutorbridge-backend/internal/tools"
)

var tracer = otel.Tracer("tutorbridge/agent")

var thinkingBlock = regexp.MustCompile(`(?is)<thinking>.*?(</thinking>|$)`)

type Config struct {
	MaxRounds   int
	MaxTokens   int
	Temperature float64
	// HistoryTurns bounds the stored user/assistant turns per conversation.
	HistoryTurns int
}

func ConfigFromEnv() Config {
	return Config{
		MaxRounds:    envutil.Int("AGENT_MAX_ROUNDS", 8),
		MaxTokens:    envutil.Int("AGENT_MAX_TOKENS", 4096),
		Temperature:  envutil.Float("AGENT_TEMPERATURE", 0.3),
		HistoryTurns: envutil.Int("AGENT_HISTORY_TURNS", 40),
	}
}

func (c Config) withDefaults() Config {
	if c.MaxRounds <= 0 {
		c.MaxRounds = 8
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.3
	}
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = 40
	}
	return c
}

type ChatRequest struct {
	Message        string
	ConversationID string
	Context        map[string]any
}

type ChatResponse struct {
	Response       string          `json:"response"`
	ConversationID string          `json:"conversation_id"`
	ActionTraces   []tools.Outcome `json:"action_traces"`
	Worksheets     []any           `json:"worksheets"`
	Sources        []any           `json:"sources"`
}

// Agent runs the tool-calling loop for one chat message.
type Agent struct {
	provider llm.Provider
	registry *tools.Registry
	policy   Policy
	convs    ConversationStore
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// New builds an agent. A nil convs disables conversation memory.
func New(provider llm.Provider, registry *tools.Registry, policy Policy, convs ConversationStore, cfg Config, baseLog *logger.Logger) (*Agent, error) {
	if provider == nil {
		return nil, fmt.Errorf("agent requires a model provider")
	}
	if registry == nil {
		return nil, fmt.Errorf("agent requires a tool registry")
	}
	if strings.TrimSpace(policy.SystemPrompt) == "" {
		return nil, fmt.Errorf("agent requires a system prompt")
	}
	return &Agent{
		provider: provider,
		registry: registry,
		policy:   policy,
		convs:    convs,
		cfg:      cfg.withDefaults(),
		log:      baseLog.With("service", "Agent"),
		now:      time.Now,
	}, nil
}

// StripThinking removes <thinking> blocks, including an unterminated one.
func StripThinking(s string) string {
	return strings.TrimSpace(thinkingBlock.ReplaceAllString(s, ""))
}

// openConversation returns the stored conversation for the request, or a
// fresh one. persist is false when memory is disabled.
func (a *Agent) openConversation(ctx context.Context, id string) (conv *Conversation, persist bool) {
	id = strings.TrimSpace(id)
	now := a.now().UTC()
	if a.convs == nil {
		if id == "" {
			id = NewSessionID
		}
		return &Conversation{ID: id, CreatedAt: now}, false
	}
	if id == "" || id == NewSessionID {
		return &Conversation{ID: NewConversationID(), CreatedAt: now}, true
	}
	loaded, err := a.convs.Load(ctx, id)
	if err != nil {
		a.log.Warn("conversation load failed, starting fresh", append(ctxutil.TraceFields(ctx), "conversation_id", id, "error", err)...)
	}
	if loaded == nil {
		return &Conversation{ID: id, CreatedAt: now}, true
	}
	return loaded, true
}

func contextBool(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

func (a *Agent) systemPrompt(reqCtx map[string]any) string {
	extra := map[string]any{}
	for k, v := range reqCtx {
		if k != "confirmed" {
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		return a.policy.SystemPrompt
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return a.policy.SystemPrompt
	}
	return a.policy.SystemPrompt + "\n\nRequest context (JSON): " + string(raw)
}

func (a *Agent) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apierr.BadRequest(errors.New("message is required"))
	}
	conv, persist := a.openConversation(ctx, req.ConversationID)

	ctx, span := tracer.Start(ctx, "agent.chat", trace.WithAttributes(
		attribute.String("conversation.id", conv.ID),
		attribute.Bool("conversation.persisted", persist),
		attribute.String("llm.model", a.provider.ModelID()),
	))
	defer span.End()

	wf := tools.NewWorkflow(conv.Workflow, a.policy.ConfirmTools)
	confirmed := contextBool(req.Context, "confirmed") ||
		(wf.AwaitingConfirmation() && a.policy.Confirmation.IsAffirmative(message))
	wf.BeginTurn(confirmed)
	span.SetAttributes(attribute.Bool("workflow.confirmed", confirmed))

	messages := append(conv.messages(), llm.UserMessage(message))
	system := a.systemPrompt(req.Context)
	defs := a.registry.Definitions()

	traces := []tools.Outcome{}
	askedConfirmation := false
	final := ""
	finished := false
	rounds := 0

	for rounds < a.cfg.MaxRounds {
		rounds++
		resp, err := a.provider.Generate(ctx, llm.Request{
			System:      system,
			Messages:    messages,
			Tools:       defs,
			MaxTokens:   a.cfg.MaxTokens,
			Temperature: a.cfg.Temperature,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "model call failed")
			return nil, fmt.Errorf("agent round %d: %w", rounds, err)
		}
		if len(resp.ToolCalls) == 0 {
			final = resp.Content
			finished = true
			break
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			out := a.registry.Dispatch(ctx, wf, call.Name, call.Arguments)
			traces = append(traces, out)
			if step, _ := out.Output["required_step"].(string); step == tools.StepUserConfirmation && wf.RequiresConfirmation(call.Name) {
				askedConfirmation = true
			}
			messages = append(messages, llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: out.Output.JSON()})
		}
	}
	if !finished {
		a.log.Warn("agent ran out of rounds", append(ctxutil.TraceFields(ctx),
			"conversation_id", conv.ID, "rounds", rounds, "tool_calls", len(traces))...)
		final = a.policy.Exhausted
	}
	final = StripThinking(final)
	if final == "" {
		final = a.policy.Exhausted
	}

	wf.SetAwaitingConfirmation(askedConfirmation || a.policy.Confirmation.AsksForConfirmation(final))
	span.SetAttributes(
		attribute.Int("agent.rounds", rounds),
		attribute.Int("agent.tool_calls", len(traces)),
		attribute.Bool("agent.exhausted", !finished),
	)

	if persist {
		now := a.now().UTC()
		conv.Turns = append(conv.Turns,
			Turn{Role: llm.RoleUser, Content: message, At: now},
			Turn{Role: llm.RoleAssistant, Content: final, At: now},
		)
		conv.trim(a.cfg.HistoryTurns)
		conv.Workflow = wf.State()
		conv.UpdatedAt = now
		if err := a.convs.Save(ctx, conv); err != nil {
			a.log.Warn("conversation save failed", append(ctxutil.TraceFields(ctx), "conversation_id", conv.ID, "error", err)...)
		}
	}

	a.log.Info("agent turn done", append(ctxutil.TraceFields(ctx),
		"conversation_id", conv.ID, "rounds", rounds, "tool_calls", len(traces), "confirmed", confirmed)...)

	return &ChatResponse{
		Response:       final,
		ConversationID: conv.ID,
		ActionTraces:   traces,
		Worksheets:     Worksheets(traces),
		Sources:        Sources(traces),
	}, nil
}

// Worksheets collects the worksheet summaries of successful worksheet tools.
func Worksheets(traces []tools.Outcome) []any {
	out := []any{}
	for _, t := range traces {
		if t.Tool != "create_worksheet" && t.Tool != "create_lesson_with_worksheet" {
			continue
		}
		if !t.Output.Success() {
			continue
		}
		if ws, ok := t.Output["worksheet"]; ok && ws != nil {
			out = append(out, ws)
		}
	}
	return out
}

// Sources lists web_search results once per URL, best score first.
func Sources(traces []tools.Outcome) []any {
	seen := map[string]bool{}
	var found []tools.SearchResult
	for _, t := range traces {
		if t.Tool != "web_search" || !t.Output.Success() {
			continue
		}
		results, _ := t.Output["results"].([]tools.SearchResult)
		for _, r := range results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			found = append(found, r)
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].RelevanceScore > found[j].RelevanceScore })
	out := make([]any, 0, len(found))
	for _, r := range found {
		out = append(out, r)
	}
	return out
}
