package store

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"gorm.io/gorm"

	"github.com/yungbote/tutorbridge-backend/internal/data/repos"
	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

type Repos struct {
	Students   repos.StudentRepo
	Questions  repos.QuestionRepo
	Grades     repos.GradeRecordRepo
	Worksheets repos.WorksheetRepo
	Lessons    repos.LessonPlanRepo
	Sessions   repos.SessionRepo
	Schedules  repos.ScheduleRepo
	Claims     repos.GenerationClaimRepo
}

func NewRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Students:   repos.NewStudentRepo(db, log),
		Questions:  repos.NewQuestionRepo(db, log),
		Grades:     repos.NewGradeRecordRepo(db, log),
		Worksheets: repos.NewWorksheetRepo(db, log),
		Lessons:    repos.NewLessonPlanRepo(db, log),
		Sessions:   repos.NewSessionRepo(db, log),
		Schedules:  repos.NewScheduleRepo(db, log),
		Claims:     repos.NewGenerationClaimRepo(db, log),
	}
}

// Store is the typed-result accessor the tool layer reads and writes
// through. Every call is guarded by one circuit breaker.
type Store struct {
	r       Repos
	log     *logger.Logger
	breaker *gobreaker.CircuitBreaker
}

func New(r Repos, cfg BreakerConfig, baseLog *logger.Logger) *Store {
	log := baseLog.With("service", "Store")
	return &Store{r: r, log: log, breaker: newBreaker(cfg, log)}
}

func call[T any](ctx context.Context, s *Store, op string, fn func(dbctx.Context) (T, error), isEmpty func(T) bool) Result[T] {
	var zero T
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return fn(dbctx.Context{Ctx: ctx})
	})
	if err != nil {
		if isBreakerRejection(err) {
			s.log.Warn("store call rejected by breaker", "op", op, "error", err)
		} else {
			s.log.Error("store call failed", "op", op, "error", err)
		}
		var nc notCounted
		if errors.As(err, &nc) {
			err = nc.err
		}
		return unavailable(zero, err)
	}
	v, _ := out.(T)
	if isEmpty != nil && isEmpty(v) {
		return empty(v)
	}
	return ok(v)
}

func emptySlice[T any](v []T) bool { return len(v) == 0 }
func nilPtr[T any](v *T) bool      { return v == nil }

func (s *Store) Student(ctx context.Context, id string) Result[*types.Student] {
	return call(ctx, s, "student.get", func(dbc dbctx.Context) (*types.Student, error) {
		return s.r.Students.GetByID(dbc, id)
	}, nilPtr[types.Student])
}

func (s *Store) StudentByName(ctx context.Context, name string) Result[*types.Student] {
	return call(ctx, s, "student.find_by_name", func(dbc dbctx.Context) (*types.Student, error) {
		return s.r.Students.FindByName(dbc, name)
	}, nilPtr[types.Student])
}

func (s *Store) Students(ctx context.Context, limit int) Result[[]*types.Student] {
	return call(ctx, s, "student.list", func(dbc dbctx.Context) ([]*types.Student, error) {
		return s.r.Students.List(dbc, limit)
	}, emptySlice[*types.Student])
}

func (s *Store) GradeHistory(ctx context.Context, studentID string, limit int) Result[[]*types.GradeRecord] {
	return call(ctx, s, "grade.list", func(dbc dbctx.Context) ([]*types.GradeRecord, error) {
		return s.r.Grades.ListByStudent(dbc, studentID, limit)
	}, emptySlice[*types.GradeRecord])
}

func (s *Store) QuestionTopics(ctx context.Context) Result[[]types.TopicCount] {
	return call(ctx, s, "question.topics", func(dbc dbctx.Context) ([]types.TopicCount, error) {
		return s.r.Questions.TopicSummary(dbc)
	}, emptySlice[types.TopicCount])
}

func (s *Store) DistinctTopics(ctx context.Context) Result[[]string] {
	return call(ctx, s, "question.distinct_topics", func(dbc dbctx.Context) ([]string, error) {
		return s.r.Questions.DistinctTopics(dbc)
	}, emptySlice[string])
}

func (s *Store) SearchQuestions(ctx context.Context, topic, difficulty string, limit int) Result[[]*types.Question] {
	return call(ctx, s, "question.search", func(dbc dbctx.Context) ([]*types.Question, error) {
		return s.r.Questions.Search(dbc, topic, difficulty, limit)
	}, emptySlice[*types.Question])
}

func (s *Store) QuestionsByTopic(ctx context.Context, topic, difficulty string, limit int) Result[[]*types.Question] {
	return call(ctx, s, "question.list_by_topic", func(dbc dbctx.Context) ([]*types.Question, error) {
		return s.r.Questions.ListByTopic(dbc, topic, difficulty, limit)
	}, emptySlice[*types.Question])
}

func (s *Store) CountQuestions(ctx context.Context, topic, difficulty string) Result[int64] {
	return call(ctx, s, "question.count", func(dbc dbctx.Context) (int64, error) {
		return s.r.Questions.Count(dbc, topic, difficulty)
	}, func(n int64) bool { return n == 0 })
}

func (s *Store) QuestionsByIDs(ctx context.Context, ids []string) Result[[]*types.Question] {
	return call(ctx, s, "question.get_by_ids", func(dbc dbctx.Context) ([]*types.Question, error) {
		return s.r.Questions.GetByIDs(dbc, ids)
	}, emptySlice[*types.Question])
}

func (s *Store) CreateQuestions(ctx context.Context, rows []*types.Question) Result[[]*types.Question] {
	return call(ctx, s, "question.create", func(dbc dbctx.Context) ([]*types.Question, error) {
		return s.r.Questions.Create(dbc, rows)
	}, emptySlice[*types.Question])
}

func (s *Store) CreateWorksheet(ctx context.Context, w *types.Worksheet) Result[*types.Worksheet] {
	return call(ctx, s, "worksheet.create", func(dbc dbctx.Context) (*types.Worksheet, error) {
		if err := s.r.Worksheets.Create(dbc, w); err != nil {
			return nil, err
		}
		return w, nil
	}, nilPtr[types.Worksheet])
}

func (s *Store) Worksheet(ctx context.Context, id string) Result[*types.Worksheet] {
	return call(ctx, s, "worksheet.get", func(dbc dbctx.Context) (*types.Worksheet, error) {
		return s.r.Worksheets.GetByID(dbc, id)
	}, nilPtr[types.Worksheet])
}

func (s *Store) CreateLessonPlan(ctx context.Context, lp *types.LessonPlan) Result[*types.LessonPlan] {
	return call(ctx, s, "lesson_plan.create", func(dbc dbctx.Context) (*types.LessonPlan, error) {
		if err := s.r.Lessons.Create(dbc, lp); err != nil {
			return nil, err
		}
		return lp, nil
	}, nilPtr[types.LessonPlan])
}

func (s *Store) LessonPlan(ctx context.Context, id string) Result[*types.LessonPlan] {
	return call(ctx, s, "lesson_plan.get", func(dbc dbctx.Context) (*types.LessonPlan, error) {
		return s.r.Lessons.GetByID(dbc, id)
	}, nilPtr[types.LessonPlan])
}

func (s *Store) UpsertSession(ctx context.Context, sess *types.Session) Result[*types.Session] {
	return call(ctx, s, "session.upsert", func(dbc dbctx.Context) (*types.Session, error) {
		if err := s.r.Sessions.Upsert(dbc, sess); err != nil {
			return nil, err
		}
		return sess, nil
	}, nilPtr[types.Session])
}

func (s *Store) Session(ctx context.Context, id string) Result[*types.Session] {
	return call(ctx, s, "session.get", func(dbc dbctx.Context) (*types.Session, error) {
		return s.r.Sessions.GetByID(dbc, id)
	}, nilPtr[types.Session])
}

func (s *Store) SessionsByIDs(ctx context.Context, ids []string) Result[map[string]*types.Session] {
	return call(ctx, s, "session.get_by_ids", func(dbc dbctx.Context) (map[string]*types.Session, error) {
		return s.r.Sessions.GetByIDs(dbc, ids)
	}, func(m map[string]*types.Session) bool { return len(m) == 0 })
}

func (s *Store) Sessions(ctx context.Context, f repos.SessionFilter) Result[[]*types.Session] {
	return call(ctx, s, "session.list", func(dbc dbctx.Context) ([]*types.Session, error) {
		return s.r.Sessions.List(dbc, f)
	}, emptySlice[*types.Session])
}

// LinkLessonPlan is Empty when the session does not exist.
func (s *Store) LinkLessonPlan(ctx context.Context, sessionID, lessonPlanID string) Result[bool] {
	res := call(ctx, s, "session.link_lesson_plan", func(dbc dbctx.Context) (bool, error) {
		err := s.r.Sessions.LinkLessonPlan(dbc, sessionID, lessonPlanID)
		if errors.Is(err, repos.ErrSessionNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}, func(linked bool) bool { return !linked })
	return res
}

func (s *Store) Schedules(ctx context.Context, studentID string) Result[[]*types.ScheduleTemplate] {
	return call(ctx, s, "schedule.list", func(dbc dbctx.Context) ([]*types.ScheduleTemplate, error) {
		return s.r.Schedules.List(dbc, studentID)
	}, emptySlice[*types.ScheduleTemplate])
}

func (s *Store) CreateSchedule(ctx context.Context, tpl *types.ScheduleTemplate) Result[*types.ScheduleTemplate] {
	return call(ctx, s, "schedule.create", func(dbc dbctx.Context) (*types.ScheduleTemplate, error) {
		if err := s.r.Schedules.Create(dbc, tpl); err != nil {
			// Validation failures are the caller's fault, not the store's.
			return nil, notCounted{err: err}
		}
		return tpl, nil
	}, nilPtr[types.ScheduleTemplate])
}

func (s *Store) AcquireClaim(ctx context.Context, topicKey, difficulty, owner string, ttl time.Duration) Result[bool] {
	return call(ctx, s, "claim.acquire", func(dbc dbctx.Context) (bool, error) {
		return s.r.Claims.Acquire(dbc, topicKey, difficulty, owner, ttl)
	}, func(won bool) bool { return !won })
}

func (s *Store) ReleaseClaim(ctx context.Context, topicKey, difficulty, owner string) Result[bool] {
	return call(ctx, s, "claim.release", func(dbc dbctx.Context) (bool, error) {
		if err := s.r.Claims.Release(dbc, topicKey, difficulty, owner); err != nil {
			return false, err
		}
		return true, nil
	}, nil)
}
