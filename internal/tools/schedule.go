package tools

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/yungbote/tutorbridge-backend/internal/data/repos"
	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func (k *Toolkit) scheduleTools() []Tool {
	return []Tool{
		{
			Name:        "get_schedule",
			Description: "Expand the weekly schedule into dated upcoming sessions and show which already have a lesson plan.",
			Parameters: object(map[string]any{
				"student_id": str("Only this student's schedule"),
				"days_ahead": integer("Days to look ahead including today (default 7)", 1, 60),
			}),
			Handler: k.getSchedule,
		},
		{
			Name:        "get_sessions",
			Description: "List concrete sessions, split by whether a lesson plan is ready. Prefer this over get_schedule for real sessions.",
			Parameters: object(map[string]any{
				"student_id": str("Only this student's sessions"),
				"start_date": str("Inclusive start date YYYY-MM-DD"),
				"end_date":   str("Inclusive end date YYYY-MM-DD"),
				"limit":      integer("Maximum sessions (default 50)", 1, 200),
			}),
			Handler: k.getSessions,
		},
		{
			Name:        "create_session",
			Description: "Create or replace a one-off session. The id is sess_YYYYMMDD_studentId.",
			Parameters: object(map[string]any{
				"student_id":     str("Student id"),
				"session_date":   str("Date YYYY-MM-DD"),
				"time":           str("24-hour time HH:MM"),
				"duration":       integer("Minutes", 1, 480),
				"lesson_plan_id": str("Existing lesson plan to attach"),
				"notes":          str("Session notes"),
			}, "student_id", "session_date", "time", "duration"),
			Handler: k.createSession,
		},
		{
			Name:        "create_session_schedule",
			Description: "Create a recurring weekly slot. day_of_week is 1=Monday through 7=Sunday.",
			Parameters: object(map[string]any{
				"student_id":   str("Student id"),
				"day_of_week":  integer("1=Monday .. 7=Sunday", 1, 7),
				"time":         str("24-hour time HH:MM"),
				"duration":     integer("Minutes", 1, 480),
				"focus_topics": stringList("Topics to focus on"),
			}, "student_id", "day_of_week", "time", "duration"),
			Handler: k.createSessionSchedule,
		},
	}
}

type scheduledSession struct {
	ScheduleID    string   `json:"schedule_id"`
	SessionID     string   `json:"session_id"`
	StudentID     string   `json:"student_id"`
	Date          string   `json:"date"`
	Day           string   `json:"day"`
	Time          string   `json:"time"`
	Duration      int      `json:"duration"`
	FocusTopics   []string `json:"focus_topics"`
	HasLessonPlan bool     `json:"has_lesson_plan"`
}

// ExpandSchedule lists the dated occurrences of templates for the days
// [today, today+days), sorted by date then time.
func ExpandSchedule(templates []*types.ScheduleTemplate, today time.Time, days int) []scheduledSession {
	out := []scheduledSession{}
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		date := day.Format(types.DateLayout)
		for _, tpl := range templates {
			if tpl == nil || !tpl.IsActive || !tpl.MatchesWeekday(day) {
				continue
			}
			sid, _ := types.SessionID(date, tpl.StudentID)
			out = append(out, scheduledSession{
				ScheduleID:  tpl.ID,
				SessionID:   sid,
				StudentID:   tpl.StudentID,
				Date:        date,
				Day:         day.Weekday().String(),
				Time:        tpl.Time,
				Duration:    tpl.Duration,
				FocusTopics: tpl.Topics(),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date+" "+out[i].Time < out[j].Date+" "+out[j].Time
	})
	return out
}

func (k *Toolkit) getSchedule(ctx context.Context, args Args) (Result, error) {
	days := args.Int("days_ahead", 7)
	res := k.store.Schedules(ctx, args.String("student_id", ""))
	if res.Unavailable() {
		return FailWith(res.ErrorMessage(), Result{"sessions": []scheduledSession{}, "count": 0}), nil
	}
	upcoming := ExpandSchedule(res.Value, k.now(), days)

	ids := make([]string, 0, len(upcoming))
	for _, s := range upcoming {
		if s.SessionID != "" {
			ids = append(ids, s.SessionID)
		}
	}
	if len(ids) > 0 {
		existing := k.store.SessionsByIDs(ctx, ids)
		if existing.Unavailable() {
			k.toolLog("get_schedule").Warn("session lookup unavailable, lesson plan status unknown", "error", existing.Err)
		}
		for i := range upcoming {
			if sess, ok := existing.Value[upcoming[i].SessionID]; ok {
				upcoming[i].HasLessonPlan = sess.HasLessonPlan()
			}
		}
	}
	return Succeed(Result{"sessions": upcoming, "count": len(upcoming), "days_ahead": days}), nil
}

func validDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(types.DateLayout, s)
	return err == nil
}

func (k *Toolkit) getSessions(ctx context.Context, args Args) (Result, error) {
	f := repos.SessionFilter{
		StudentID: args.String("student_id", ""),
		StartDate: args.String("start_date", ""),
		EndDate:   args.String("end_date", ""),
		Limit:     args.Int("limit", 50),
	}
	if !validDate(f.StartDate) || !validDate(f.EndDate) {
		return Fail("start_date and end_date must be YYYY-MM-DD"), nil
	}
	res := k.store.Sessions(ctx, f)
	if res.Unavailable() {
		return FailWith(res.ErrorMessage(), Result{"sessions": []*types.Session{}, "count": 0}), nil
	}
	sessions := res.Value
	if sessions == nil {
		sessions = []*types.Session{}
	}
	needsPrep := []*types.Session{}
	ready := []*types.Session{}
	for _, s := range sessions {
		if s.HasLessonPlan() {
			ready = append(ready, s)
		} else {
			needsPrep = append(needsPrep, s)
		}
	}
	return Succeed(Result{
		"sessions": sessions,
		"count":    len(sessions),
		"summary": Result{
			"total":             len(sessions),
			"needs_preparation": len(needsPrep),
			"ready":             len(ready),
		},
		"sessions_needing_prep": needsPrep,
		"sessions_ready":        ready,
	}), nil
}

func (k *Toolkit) createSession(ctx context.Context, args Args) (Result, error) {
	studentID := args.String("student_id", "")
	date := args.String("session_date", "")
	at := args.String("time", "")
	id, err := types.SessionID(date, studentID)
	if err != nil {
		return FailWith(err.Error(), Result{"session": nil}), nil
	}
	if !clockPattern.MatchString(at) {
		return FailWith(fmt.Sprintf("time %q: expected HH:MM", at), Result{"session": nil}), nil
	}
	now := types.Stamp(k.now())
	sess := &types.Session{
		ID:        id,
		StudentID: studentID,
		Date:      date,
		Time:      at,
		Duration:  args.Int("duration", defaultLessonMinutes),
		Notes:     args.String("notes", ""),
		Status:    types.SessionStatusScheduled,
		CreatedBy: types.SessionCreatedManual,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if lp := args.String("lesson_plan_id", ""); lp != "" {
		sess.LessonPlanID = &lp
	}
	res := k.store.UpsertSession(ctx, sess)
	if res.Unavailable() {
		return FailWith(res.ErrorMessage(), Result{"session": nil}), nil
	}
	// A replaced session keeps its original created_at.
	if stored := k.store.Session(ctx, id); stored.OK() {
		sess = stored.Value
	}
	return Succeed(Result{
		"session": sess,
		"message": fmt.Sprintf("Created session %s for %s at %s", id, date, at),
	}), nil
}

func (k *Toolkit) createSessionSchedule(ctx context.Context, args Args) (Result, error) {
	day := args.Int("day_of_week", 0)
	if day < 1 || day > 7 {
		return Fail("day_of_week must be between 1 (Monday) and 7 (Sunday)"), nil
	}
	at := args.String("time", "")
	if !clockPattern.MatchString(at) {
		return Fail(fmt.Sprintf("time %q: expected HH:MM", at)), nil
	}
	now := types.Stamp(k.now())
	tpl := &types.ScheduleTemplate{
		ID:          types.NewScheduleID(),
		StudentID:   args.String("student_id", ""),
		DayOfWeek:   day,
		Time:        at,
		Duration:    args.Int("duration", defaultLessonMinutes),
		FocusTopics: mustJSON(args.Strings("focus_topics")),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res := k.store.CreateSchedule(ctx, tpl)
	if res.Unavailable() {
		return Fail(res.ErrorMessage()), nil
	}
	weekday := time.Weekday(day % 7).String()
	return Succeed(Result{
		"schedule": tpl,
		"message":  fmt.Sprintf("Created weekly session for %s every %s at %s", tpl.StudentID, weekday, at),
	}), nil
}
