package tutoring

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestWeakAreasBelowThreshold(t *testing.T) {
	s := &Student{Accuracy: datatypes.JSON(`{"Fractions":0.55,"Algebra":0.9,"Geometry":0.65,"Ratios":0.7}`)}
	assert.Equal(t, []string{"Fractions", "Geometry"}, s.WeakAreas())
}

func TestWeakAreasMalformedAccuracy(t *testing.T) {
	s := &Student{Accuracy: datatypes.JSON(`not json`)}
	assert.Empty(t, s.WeakAreas())
}

func TestSessionIDDeterministic(t *testing.T) {
	id, err := SessionID("2025-03-04", "stu_001")
	require.NoError(t, err)
	assert.Equal(t, "sess_20250304_stu_001", id)

	_, err = SessionID("03/04/2025", "stu_001")
	assert.Error(t, err)
	_, err = SessionID("2025-03-04", " ")
	assert.Error(t, err)
}

func TestIDFormats(t *testing.T) {
	cases := map[string]*regexp.Regexp{
		NewQuestionID():   regexp.MustCompile(`^question_[0-9a-f]{10}$`),
		NewWorksheetID():  regexp.MustCompile(`^worksheet_[0-9a-f]{10}$`),
		NewLessonPlanID(): regexp.MustCompile(`^lesson_[0-9a-f]{8}$`),
		NewScheduleID():   regexp.MustCompile(`^schedule_[0-9a-f]{8}$`),
	}
	for id, re := range cases {
		if !re.MatchString(id) {
			t.Fatalf("id format: want=%s got=%q", re, id)
		}
	}
}

func TestNormalizeDifficulty(t *testing.T) {
	assert.Equal(t, DifficultyEasy, NormalizeDifficulty("beginner"))
	assert.Equal(t, DifficultyMedium, NormalizeDifficulty(" Intermediate "))
	assert.Equal(t, DifficultyHard, NormalizeDifficulty("Hard"))
	assert.Equal(t, "", NormalizeDifficulty("impossible"))
}

func TestWorksheetQuestionCountTracksIDs(t *testing.T) {
	w := &Worksheet{}
	w.SetQuestionIDs([]string{"question_a", "question_b"})
	assert.Equal(t, 2, w.QuestionCount)
	assert.Equal(t, []string{"question_a", "question_b"}, w.QuestionIDList())
}

func TestMondayBasedWeekday(t *testing.T) {
	mon := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	sun := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, MondayBasedWeekday(mon))
	assert.Equal(t, 7, MondayBasedWeekday(sun))

	tpl := &ScheduleTemplate{DayOfWeek: 7}
	assert.True(t, tpl.MatchesWeekday(sun))
	assert.False(t, tpl.MatchesWeekday(mon))
}

func TestScoreValue(t *testing.T) {
	assert.Equal(t, 85.0, (&GradeRecord{Score: "85%"}).ScoreValue())
	assert.Equal(t, 72.5, (&GradeRecord{Score: " 72.5 "}).ScoreValue())
	assert.Equal(t, 0.0, (&GradeRecord{Score: "n/a"}).ScoreValue())
}

func TestStampDropsSubMicrosecondPrecision(t *testing.T) {
	in := time.Date(2026, time.October, 14, 15, 30, 0, 123456789, time.FixedZone("X", 3600))
	got := Stamp(in)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 123456000, got.Nanosecond())
	assert.True(t, got.Equal(in.Truncate(time.Microsecond)))
}
