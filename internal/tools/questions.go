package tools

import (
	"context"
	"errors"
	"fmt"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
)

var difficultyLevels = []string{"beginner", "intermediate", "advanced", "Easy", "Medium", "Hard"}

func (k *Toolkit) questionTools() []Tool {
	return []Tool{
		{
			Name:        "query_question_topics",
			Description: "List every topic in the question bank with question counts per difficulty. Call this before searching or generating questions.",
			Parameters:  object(map[string]any{}),
			Handler:     k.queryQuestionTopics,
		},
		{
			Name:        "query_questions",
			Description: "Search the question bank by topic (partial match) and difficulty. Reports whether enough questions exist for what the tutor needs.",
			Parameters: object(map[string]any{
				"topic":      str("Topic or subject area"),
				"difficulty": enum("Difficulty filter", difficultyLevels...),
				"limit":      integer("Maximum questions to return (default 50)", 1, 200),
				"needed":     integer("How many questions the tutor needs (default 5)", 1, 50),
			}),
			Handler: k.queryQuestions,
		},
		{
			Name:        "generate_questions",
			Description: "Generate new questions only when query_questions showed too few exist. Existing questions are reused and only the shortfall is generated.",
			Parameters: object(map[string]any{
				"topic":            str("Topic to generate questions for"),
				"question_count":   integer("Total questions wanted, existing included (default 5)", 1, 20),
				"difficulty_level": enum("Difficulty (default intermediate)", difficultyLevels...),
				"question_type":    str("Question style, e.g. mixed, word_problems, computation"),
				"subject_area":     str("Subject (default Mathematics)"),
			}, "topic"),
			Handler: k.generateQuestions,
		},
	}
}

func (k *Toolkit) queryQuestionTopics(ctx context.Context, _ Args) (Result, error) {
	res := k.store.QuestionTopics(ctx)
	if res.Unavailable() {
		return FailWith(res.ErrorMessage(), Result{"topics": []types.TopicCount{}, "count": 0}), nil
	}
	topics := res.Value
	if topics == nil {
		topics = []types.TopicCount{}
	}
	return Succeed(Result{"topics": topics, "count": len(topics)}), nil
}

// difficultyArg accepts worksheet levels and stored values alike. Unknown
// input passes through unchanged.
func difficultyArg(args Args, key, def string) string {
	raw := args.String(key, def)
	if raw == "" {
		return ""
	}
	if d := types.NormalizeDifficulty(raw); d != "" {
		return d
	}
	return raw
}

func (k *Toolkit) queryQuestions(ctx context.Context, args Args) (Result, error) {
	topic := args.String("topic", "")
	difficulty := difficultyArg(args, "difficulty", "")
	needed := args.Int("needed", defaultNeededQuestion)
	filters := Result{"topic": nilIfEmpty(topic), "difficulty": nilIfEmpty(difficulty)}

	res := k.store.SearchQuestions(ctx, topic, difficulty, args.Int("limit", 50))
	if res.Unavailable() {
		return FailWith(res.ErrorMessage(), Result{
			"questions":       []*types.Question{},
			"count":           0,
			"filters_applied": filters,
			"status":          "unavailable",
		}), nil
	}
	questions := res.Value
	if questions == nil {
		questions = []*types.Question{}
	}
	status := "sufficient"
	if len(questions) < needed {
		status = "insufficient"
	}
	return Succeed(Result{
		"questions":       questions,
		"count":           len(questions),
		"needed":          needed,
		"filters_applied": filters,
		"status":          status,
	}), nil
}

// canonicalTopic reuses the stored spelling of a topic when the input
// matches one case-insensitively.
func (k *Toolkit) canonicalTopic(ctx context.Context, topic string) string {
	key := types.TopicKey(topic)
	res := k.store.DistinctTopics(ctx)
	if !res.OK() {
		return topic
	}
	for _, existing := range res.Value {
		if types.TopicKey(existing) == key {
			return existing
		}
	}
	return topic
}

func (k *Toolkit) generateQuestions(ctx context.Context, args Args) (Result, error) {
	topic := k.canonicalTopic(ctx, args.String("topic", ""))
	difficulty := difficultyArg(args, "difficulty_level", "intermediate")
	if !isStoredDifficulty(difficulty) {
		return Fail(fmt.Sprintf("unsupported difficulty_level %q", args.String("difficulty_level", ""))), nil
	}
	target := args.Int("question_count", defaultNeededQuestion)

	fill, err := k.guard.Fill(ctx, FillRequest{
		Topic:        topic,
		Difficulty:   difficulty,
		Target:       target,
		QuestionType: args.String("question_type", "mixed"),
		Subject:      args.String("subject_area", "Mathematics"),
	})
	if err != nil {
		k.toolLog("generate_questions").Warn("fill failed", "topic", topic, "difficulty", difficulty, "error", err)
		if errors.Is(err, ErrClaimBusy) {
			return FailWith(err.Error(), Result{"retryable": true}), nil
		}
		return Fail(fmt.Sprintf("Failed to generate questions: %v", err)), nil
	}
	questions := fill.Questions()
	return Succeed(Result{
		"questions":       questions,
		"existing_count":  len(fill.Existing),
		"generated_count": len(fill.Created),
		"count":           len(questions),
		"topic":           topic,
		"difficulty":      difficulty,
		"source":          fill.Source(),
		"message": fmt.Sprintf("Prepared %d %s questions on %s (%d existing, %d generated)",
			len(questions), difficulty, topic, len(fill.Existing), len(fill.Created)),
	}), nil
}

func isStoredDifficulty(d string) bool {
	for _, v := range types.Difficulties {
		if v == d {
			return true
		}
	}
	return false
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
