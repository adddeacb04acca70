package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/tutorbridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/dbctx"
)

type failingStudents struct {
	calls int
}

func (f *failingStudents) GetByID(dbctx.Context, string) (*types.Student, error) {
	f.calls++
	return nil, errors.New("connection refused")
}
func (f *failingStudents) FindByName(dbctx.Context, string) (*types.Student, error) {
	f.calls++
	return nil, errors.New("connection refused")
}
func (f *failingStudents) List(dbctx.Context, int) ([]*types.Student, error) {
	f.calls++
	return nil, errors.New("connection refused")
}
func (f *failingStudents) Upsert(dbctx.Context, *types.Student) error {
	f.calls++
	return errors.New("connection refused")
}

func TestStoreDistinguishesEmptyFromOK(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	s := New(NewRepos(db, testutil.Logger(t)), BreakerConfig{}, testutil.Logger(t))

	res := s.Student(ctx, "stu_001")
	assert.Equal(t, StatusEmpty, res.Status)
	assert.NoError(t, res.Err)

	testutil.SeedStudent(t, ctx, db, "stu_001", "Alice", nil)
	res = s.Student(ctx, "stu_001")
	require.True(t, res.OK())
	assert.Equal(t, "Alice", res.Value.Name)

	list := s.SearchQuestions(ctx, "Nothing", "", 10)
	assert.True(t, list.Empty())
	assert.NotNil(t, list.Value)
}

func TestStoreErrorsBecomeUnavailableAndTripBreaker(t *testing.T) {
	db := testutil.DB(t)
	r := NewRepos(db, testutil.Logger(t))
	fake := &failingStudents{}
	r.Students = fake
	s := New(r, BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, testutil.Logger(t))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res := s.Student(ctx, "stu_001")
		require.True(t, res.Unavailable())
		assert.Contains(t, res.ErrorMessage(), "connection refused")
	}
	res := s.Student(ctx, "stu_001")
	assert.True(t, res.Unavailable())
	assert.Equal(t, 2, fake.calls, "open breaker must short-circuit")
	assert.Contains(t, res.ErrorMessage(), "store unavailable")
}

func TestStoreLinkLessonPlanMissingSessionIsEmpty(t *testing.T) {
	db := testutil.DB(t)
	s := New(NewRepos(db, testutil.Logger(t)), BreakerConfig{}, testutil.Logger(t))
	res := s.LinkLessonPlan(context.Background(), "sess_20990101_x", "lesson_1")
	assert.True(t, res.Empty())
	assert.False(t, res.Value)
}
