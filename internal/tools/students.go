package tools

import (
	"context"

	"github.com/yungbote/tutorbridge-backend/internal/data/store"
	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
)

const trendWindow = 5

func (k *Toolkit) studentTools() []Tool {
	return []Tool{
		{
			Name:        "query_students",
			Description: "Get student profiles with accuracy by topic and weak areas. Look up by id, by name, or list all students when no argument is given.",
			Parameters: object(map[string]any{
				"student_name": str("Student name (case-insensitive match)"),
				"student_id":   str("Exact student id"),
			}),
			Handler: k.queryStudents,
		},
		{
			Name:        "query_grade_history",
			Description: "Get a student's graded sessions, most recent first, with a score trend.",
			Parameters: object(map[string]any{
				"student_id": str("Student id"),
				"limit":      integer("Maximum records (default 10)", 1, 100),
			}, "student_id"),
			Handler: k.queryGradeHistory,
		},
	}
}

func studentView(s *types.Student) Result {
	return Result{
		"student_id": s.ID,
		"name":       s.Name,
		"grade":      s.Grade,
		"accuracy":   s.AccuracyByTopic(),
		"weak_areas": s.WeakAreas(),
	}
}

func notFoundStudents() Result {
	return FailWith("Student not found", Result{"students": []Result{}, "count": 0})
}

func (k *Toolkit) queryStudents(ctx context.Context, args Args) (Result, error) {
	one := func(res store.Result[*types.Student]) Result {
		switch {
		case res.Unavailable():
			return FailWith(res.ErrorMessage(), Result{"students": []Result{}, "count": 0})
		case res.Empty():
			return notFoundStudents()
		}
		return Succeed(Result{"students": []Result{studentView(res.Value)}, "count": 1})
	}

	if id := args.String("student_id", ""); id != "" {
		return one(k.store.Student(ctx, id)), nil
	}
	if name := args.String("student_name", ""); name != "" {
		return one(k.store.StudentByName(ctx, name)), nil
	}

	res := k.store.Students(ctx, 100)
	if res.Unavailable() {
		return FailWith(res.ErrorMessage(), Result{"students": []Result{}, "count": 0}), nil
	}
	views := make([]Result, 0, len(res.Value))
	for _, s := range res.Value {
		views = append(views, studentView(s))
	}
	return Succeed(Result{"students": views, "count": len(views)}), nil
}

func (k *Toolkit) queryGradeHistory(ctx context.Context, args Args) (Result, error) {
	studentID := args.String("student_id", "")
	res := k.store.GradeHistory(ctx, studentID, args.Int("limit", 10))
	if res.Unavailable() {
		return FailWith(res.ErrorMessage(), Result{"history": []*types.GradeRecord{}, "count": 0}), nil
	}
	history := res.Value
	if history == nil {
		history = []*types.GradeRecord{}
	}
	return Succeed(Result{
		"history": history,
		"count":   len(history),
		"trend":   GradeTrend(history),
	}), nil
}

// GradeTrend compares the mean of the newest trendWindow scores with the
// mean of the rest. An empty rest counts as 0.
func GradeTrend(history []*types.GradeRecord) string {
	if len(history) < 2 {
		return "insufficient_data"
	}
	n := trendWindow
	if n > len(history) {
		n = len(history)
	}
	recent := meanScore(history[:n])
	older := meanScore(history[n:])
	switch {
	case recent > older:
		return "improving"
	case recent < older:
		return "declining"
	default:
		return "stable"
	}
}

func meanScore(rows []*types.GradeRecord) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += r.ScoreValue()
	}
	return sum / float64(len(rows))
}
