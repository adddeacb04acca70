package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

// Service wraps the model with task-specific prompts. Every operation
// except LessonPlanText, GenerateQuestions and Invoke degrades to a fixed
// fallback value instead of failing.
type Service interface {
	Invoke(ctx context.Context, prompt string, opts InvokeOptions) (string, error)
	Classify(ctx context.Context, questionText string) Classification
	Explain(ctx context.Context, questionText string) Explanation
	LessonPlanText(ctx context.Context, topic string, duration int) (string, error)
	SelectQuestions(ctx context.Context, questions []QuestionMeta, criteria SelectionCriteria) []int
	GradeWorksheet(ctx context.Context, extractedText, studentName string) GradeResult
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]DraftQuestion, error)
	ParseQuestions(ctx context.Context, text string) ([]ParsedQuestion, error)
}

type InvokeOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// DefaultInvokeOptions are used for any zero field.
var DefaultInvokeOptions = InvokeOptions{MaxTokens: 2048, Temperature: 0.7, TopP: 0.9}

type service struct {
	provider llm.Provider
	log      *logger.Logger
}

func NewService(provider llm.Provider, baseLog *logger.Logger) Service {
	return &service{provider: provider, log: baseLog.With("service", "GenerationService")}
}

func (s *service) Invoke(ctx context.Context, prompt string, opts InvokeOptions) (string, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultInvokeOptions.MaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultInvokeOptions.Temperature
	}
	if opts.TopP <= 0 {
		opts.TopP = DefaultInvokeOptions.TopP
	}
	resp, err := s.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{llm.UserMessage(prompt)},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("invoke model: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", &llm.ErrInvalidResponse{Err: fmt.Errorf("empty completion")}
	}
	return resp.Content, nil
}

// invokeJSON calls the model and decodes the fenced-or-bare JSON reply
// into out.
func (s *service) invokeJSON(ctx context.Context, prompt string, opts InvokeOptions, out any) error {
	text, err := s.Invoke(ctx, prompt, opts)
	if err != nil {
		return err
	}
	cleaned := llm.CleanJSON(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &llm.ErrInvalidResponse{Content: cleaned, Err: fmt.Errorf("decode json: %w", err)}
	}
	return nil
}
