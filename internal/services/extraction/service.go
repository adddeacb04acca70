package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/tutorbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ocr"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
)

type Question struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type Result struct {
	ExtractedText string     `json:"extracted_text"`
	Questions     []Question `json:"questions"`
}

type AnswersResult struct {
	Answers []string `json:"answers"`
	RawText string   `json:"raw_text"`
}

// QuestionParser is the model-backed splitter; generation.Service satisfies it.
type QuestionParser interface {
	ParseQuestions(ctx context.Context, text string) ([]generation.ParsedQuestion, error)
}

type Service interface {
	Extract(ctx context.Context, doc ocr.Document) (*Result, error)
	ExtractAnswers(ctx context.Context, doc ocr.Document) (*AnswersResult, error)
}

type service struct {
	engine ocr.Engine
	parser QuestionParser
	log    *logger.Logger
}

func NewService(engine ocr.Engine, parser QuestionParser, baseLog *logger.Logger) Service {
	return &service{engine: engine, parser: parser, log: baseLog.With("service", "ExtractionService")}
}

func (s *service) text(ctx context.Context, doc ocr.Document) (string, error) {
	start := time.Now()
	lines, err := s.engine.DetectLines(ctx, doc)
	if err != nil {
		s.log.Error("ocr failed", append(ctxutil.TraceFields(ctx), "error", err)...)
		return "", fmt.Errorf("ocr: %w", err)
	}
	s.log.Debug("ocr done", append(ctxutil.TraceFields(ctx), "lines", len(lines), "latency_ms", time.Since(start).Milliseconds())...)
	return strings.Join(lines, "\n"), nil
}

func (s *service) Extract(ctx context.Context, doc ocr.Document) (*Result, error) {
	text, err := s.text(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &Result{ExtractedText: text, Questions: s.segment(ctx, text)}, nil
}

// segment prefers the model split and drops to the rule-based splitter when
// the model fails or replies with something other than a list.
func (s *service) segment(ctx context.Context, text string) []Question {
	if len(strings.TrimSpace(text)) < minQuestionText {
		return []Question{}
	}
	parsed, err := s.parser.ParseQuestions(ctx, text)
	if err != nil {
		s.log.Warn("model question split failed, using rule-based split", append(ctxutil.TraceFields(ctx), "error", err)...)
		return SplitQuestions(text)
	}
	out := make([]Question, 0, len(parsed))
	for _, q := range parsed {
		out = append(out, Question{Text: q.Text, Confidence: q.Confidence})
	}
	return out
}

func (s *service) ExtractAnswers(ctx context.Context, doc ocr.Document) (*AnswersResult, error) {
	text, err := s.text(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &AnswersResult{Answers: FindAnswers(text), RawText: text}, nil
}
