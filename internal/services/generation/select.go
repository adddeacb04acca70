package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const previewLen = 100

func (s *service) SelectQuestions(ctx context.Context, questions []QuestionMeta, criteria SelectionCriteria) []int {
	k := criteria.QuestionCount
	if k <= 0 {
		k = 10
	}
	n := len(questions)
	if n <= k {
		return sequential(n)
	}

	type meta struct {
		Index      int    `json:"index"`
		Topic      string `json:"topic"`
		Difficulty string `json:"difficulty"`
		Preview    string `json:"preview"`
	}
	metas := make([]meta, n)
	for i, q := range questions {
		metas[i] = meta{Index: i, Topic: q.Topic, Difficulty: q.Difficulty, Preview: truncateRunes(q.Text, previewLen)}
	}
	listing, _ := json.MarshalIndent(metas, "", "  ")

	sectionsLine, sectionsRule := "", ""
	if sec := criteria.Sections; sec != nil {
		sectionsLine = fmt.Sprintf("- Sections: Warm-up (%d), Practice (%d), Challenge (%d)\n", sec.Warmup, sec.Practice, sec.Challenge)
		sectionsRule = "5. Match the section requirements (easier questions for warm-up, harder for challenge)\n"
	}

	prompt := fmt.Sprintf(`You are an expert math tutor creating a worksheet. Select the best %d questions from the following list to create a well-balanced, pedagogically sound worksheet.

Criteria:
- Topics: %s
- Difficulty levels: %s
- Total questions needed: %d
%s
Available Questions:
%s

Select questions that:
1. Provide good topic variety
2. Have appropriate difficulty progression
3. Avoid redundancy
4. Create a balanced learning experience
%s
Respond with the selected question indices in the order they should appear in the worksheet:
{
  "selectedIndices": [0, 5, 12, ...]
}

Only return valid JSON, no additional text.`,
		k, strings.Join(criteria.Topics, ", "), strings.Join(criteria.Difficulty, ", "), k,
		sectionsLine, string(listing), sectionsRule)

	var parsed struct {
		SelectedIndices []json.Number `json:"selectedIndices"`
	}
	if err := s.invokeJSON(ctx, prompt, InvokeOptions{Temperature: 0.5, MaxTokens: 2048}, &parsed); err != nil || parsed.SelectedIndices == nil {
		s.log.Warn("question selection fell back to sequential", "error", err)
		return sequential(k)
	}

	seen := make(map[int]bool, k)
	out := make([]int, 0, k)
	for _, raw := range parsed.SelectedIndices {
		idx, err := raw.Int64()
		if err != nil || idx < 0 || int(idx) >= n || seen[int(idx)] {
			continue
		}
		seen[int(idx)] = true
		out = append(out, int(idx))
		if len(out) == k {
			break
		}
	}
	return out
}

func sequential(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
