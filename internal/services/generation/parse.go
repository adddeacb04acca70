package generation

import (
	"context"
	"fmt"
	"strings"
)

const minExtractLen = 20

// ParseQuestions asks the model to split OCR text into questions. It
// returns an error when the reply is unusable so callers can fall back to
// rule-based splitting.
func (s *service) ParseQuestions(ctx context.Context, text string) ([]ParsedQuestion, error) {
	if len(strings.TrimSpace(text)) < minExtractLen {
		return []ParsedQuestion{}, nil
	}
	prompt := fmt.Sprintf(`You are an expert at parsing math questions from extracted text. The text below was extracted from a PDF or image and may be unstructured, contain OCR errors, or have questions in various formats.

Your task is to:
1. Identify individual questions in the text
2. Clean up OCR errors if present
3. Preserve the original question text as accurately as possible
4. Handle both numbered (1., 2., etc.) and unnumbered questions
5. Include multi-part questions as a single question

Extracted Text:
%s

Respond with a JSON array of questions in this exact format:
[
  {
    "text": "The complete question text, cleaned and formatted",
    "confidence": 0.95
  }
]

Guidelines:
- If questions are clearly numbered (1., 2., Q1:, etc.), split by those markers
- If text is unstructured, use context clues to identify separate questions
- Confidence should be 0.9-1.0 for clearly formatted questions, 0.7-0.9 for unstructured questions
- Exclude headers, instructions, or non-question content
- If no valid questions found, return an empty array []

Only return valid JSON, no additional text.`, text)

	// Elements that are not objects are skipped, not fatal.
	var items []any
	if err := s.invokeJSON(ctx, prompt, InvokeOptions{Temperature: 0.3, MaxTokens: 4096}, &items); err != nil {
		return nil, err
	}

	out := make([]ParsedQuestion, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		qt, ok := item["text"].(string)
		if !ok || len(qt) <= 10 {
			continue
		}
		conf, ok := item["confidence"].(float64)
		if !ok {
			continue
		}
		out = append(out, ParsedQuestion{Text: qt, Confidence: conf})
	}
	return out, nil
}
