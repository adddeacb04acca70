package generation

import (
	"context"
	"fmt"
	"strings"
)

const (
	fallbackTopic        = "General Math"
	fallbackDifficulty   = "Medium"
	fallbackConfidence   = 0.5
	fallbackExplanation  = "Unable to generate explanation at this time."
	fallbackTeachingTips = "Review the problem with the student step by step."
)

func (s *service) Classify(ctx context.Context, questionText string) Classification {
	prompt := fmt.Sprintf(`You are a math education expert. Analyze the following math question and classify it.

Question: %s

Respond in this JSON format:
{
  "topic": "the main topic (e.g., Quadratic Equations, Trigonometry, Linear Equations, Geometry, Functions)",
  "difficulty": "Easy, Medium, or Hard",
  "confidence": a number between 0 and 1 indicating your confidence
}

Only return valid JSON, no additional text.`, questionText)

	var out Classification
	if err := s.invokeJSON(ctx, prompt, InvokeOptions{Temperature: 0.3}, &out); err != nil {
		s.log.Warn("classify fell back", "error", err)
		return Classification{Topic: fallbackTopic, Difficulty: fallbackDifficulty, Confidence: fallbackConfidence}
	}
	if strings.TrimSpace(out.Topic) == "" {
		out.Topic = fallbackTopic
	}
	if strings.TrimSpace(out.Difficulty) == "" {
		out.Difficulty = fallbackDifficulty
	}
	return out
}

func (s *service) Explain(ctx context.Context, questionText string) Explanation {
	prompt := fmt.Sprintf(`You are a helpful math tutor. Provide a clear explanation and teaching tips for the following question.

Question: %s

Respond in this JSON format:
{
  "explanation": "A clear, step-by-step explanation of how to solve this problem",
  "teaching_tips": "Helpful tips for teaching this concept to students"
}

Only return valid JSON, no additional text.`, questionText)

	var out Explanation
	if err := s.invokeJSON(ctx, prompt, InvokeOptions{Temperature: 0.7}, &out); err != nil {
		s.log.Warn("explain fell back", "error", err)
		return Explanation{Explanation: fallbackExplanation, TeachingTips: fallbackTeachingTips}
	}
	return out
}
