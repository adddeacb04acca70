package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
)

func SeedStudent(tb testing.TB, ctx context.Context, tx *gorm.DB, id, name string, accuracy map[string]float64) *types.Student {
	tb.Helper()
	raw, _ := json.Marshal(accuracy)
	now := time.Now().UTC()
	s := &types.Student{
		ID:        id,
		Name:      name,
		Grade:     "7",
		Accuracy:  datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed student: %v", err)
	}
	return s
}

func SeedQuestions(tb testing.TB, ctx context.Context, tx *gorm.DB, topic, difficulty string, n int) []*types.Question {
	tb.Helper()
	out := make([]*types.Question, 0, n)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < n; i++ {
		q := &types.Question{
			ID:         types.NewQuestionID(),
			Text:       topic + " seeded question number " + string(rune('A'+i)),
			Topic:      topic,
			Difficulty: difficulty,
			Source:     types.SourceDatabase,
			Answer:     "42",
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := tx.WithContext(ctx).Create(q).Error; err != nil {
			tb.Fatalf("seed question: %v", err)
		}
		out = append(out, q)
	}
	return out
}

func SeedGrade(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, date, score string) *types.GradeRecord {
	tb.Helper()
	g := &types.GradeRecord{
		ID:        types.NewGradeID(),
		StudentID: studentID,
		Date:      date,
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed grade: %v", err)
	}
	return g
}

func SeedSchedule(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID string, dayOfWeek int, at string, duration int) *types.ScheduleTemplate {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.ScheduleTemplate{
		ID:          types.NewScheduleID(),
		StudentID:   studentID,
		DayOfWeek:   dayOfWeek,
		Time:        at,
		Duration:    duration,
		FocusTopics: datatypes.JSON(`["Fractions"]`),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed schedule: %v", err)
	}
	return s
}

func PtrString(s string) *string { return &s }
