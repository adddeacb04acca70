package generation

import (
	"context"
	"fmt"
	"strings"
)

const minDraftLen = 10

func (s *service) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]DraftQuestion, error) {
	if req.Count <= 0 {
		return []DraftQuestion{}, nil
	}
	if req.Subject == "" {
		req.Subject = "Mathematics"
	}
	if req.QuestionType == "" {
		req.QuestionType = "mixed"
	}
	prompt := fmt.Sprintf(`You are an expert %s teacher writing practice questions.

Write exactly %d %s-difficulty questions on the topic "%s".
Question style: %s (use a mix of computation and word problems when "mixed").

Each question must be self-contained and answerable without diagrams.

Respond with a JSON array in this exact format:
[
  {
    "text": "The full question text",
    "answer": "The correct final answer",
    "explanation": "A short step-by-step solution",
    "teaching_tips": "One tip for teaching this question"
  }
]

Only return valid JSON, no additional text.`,
		req.Subject, req.Count, req.Difficulty, req.Topic, req.QuestionType)

	var drafts []DraftQuestion
	if err := s.invokeJSON(ctx, prompt, InvokeOptions{Temperature: 0.7, MaxTokens: 4096}, &drafts); err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	out := make([]DraftQuestion, 0, len(drafts))
	for _, d := range drafts {
		d.Text = strings.TrimSpace(d.Text)
		if len(d.Text) <= minDraftLen {
			continue
		}
		d.Answer = strings.TrimSpace(d.Answer)
		out = append(out, d)
	}
	return out, nil
}
