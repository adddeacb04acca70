package generation

import (
	"context"
	"fmt"
)

func (s *service) LessonPlanText(ctx context.Context, topic string, duration int) (string, error) {
	if duration <= 0 {
		duration = 60
	}
	prompt := fmt.Sprintf(`Create a %d-minute tutoring lesson plan on %s.

Structure the lesson into time slots with teaching bullet points.
Include: review/warmup, main teaching content, practice problems, recap.

Return the teaching notes in this format:

**Warmup (X minutes)**
- [bullet point]
- [bullet point]

**Main Teaching Content (X minutes)**
- [bullet point]
- [bullet point]

**Practice Problems (X minutes)**
- [bullet point]
- [bullet point]

**Recap (X minutes)**
- [bullet point]

Be concise and practical. Focus on clear, actionable teaching points.`, duration, topic)

	text, err := s.Invoke(ctx, prompt, InvokeOptions{MaxTokens: 1000, Temperature: 0.7})
	if err != nil {
		return "", fmt.Errorf("lesson plan text: %w", err)
	}
	return text, nil
}
