package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
)

const (
	defaultLessonMinutes = 60
	textTopicLimit       = 80
	generalTopic         = "General Math"
)

func lessonParams() map[string]any {
	return map[string]any{
		"content_source_type": enum("Where the lesson content comes from",
			types.ContentSourceTopic, types.ContentSourceStudentProfile, types.ContentSourceWorksheet, types.ContentSourceText),
		"content_source_data": str("Topic name, student id, worksheet id or free text, matching content_source_type"),
		"session_id":          str("Session to attach the plan to"),
		"session_date":        str("Session date YYYY-MM-DD, used with student_id when session_id is absent"),
		"student_id":          str("Student the lesson is for"),
		"worksheet_id":        str("Worksheet used in the lesson"),
		"duration":            integer("Lesson length in minutes (default: the session's, else 60)", 1, 480),
	}
}

func (k *Toolkit) lessonTools() []Tool {
	combined := worksheetParams()
	for name, p := range lessonParams() {
		if name == "content_source_type" || name == "content_source_data" || name == "worksheet_id" {
			continue
		}
		combined[name] = p
	}
	return []Tool{
		{
			Name:        "create_lesson_plan",
			Description: "Create a lesson plan with objectives, a timed structure and teaching notes, and link it to a session when one is named.",
			Parameters:  object(lessonParams(), "content_source_type", "content_source_data"),
			Handler: func(ctx context.Context, args Args) (Result, error) {
				return k.createLessonPlan(ctx, args), nil
			},
		},
		{
			Name:        "create_lesson_with_worksheet",
			Description: "Create a worksheet and a lesson plan built on it in one step.",
			Parameters:  object(combined, "title", "subject", "grade_level", "topic"),
			Handler:     k.createLessonWithWorksheet,
		},
	}
}

// LessonObjectives are the three fixed objectives of a plan.
func LessonObjectives(topic string, hasWeakAreas bool) []string {
	second := "Build solid foundation"
	if hasWeakAreas {
		second = "Address identified weak areas"
	}
	return []string{
		fmt.Sprintf("Review and strengthen understanding of %s", topic),
		second,
		"Practice problem-solving strategies",
	}
}

// LessonStructure splits duration 15/50/20/15, rounding each block down.
func LessonStructure(duration int) types.LessonStructure {
	part := func(frac float64) int { return int(float64(duration) * frac) }
	return types.LessonStructure{
		Warmup:       fmt.Sprintf("%d minutes - Review fundamentals", part(0.15)),
		MainPractice: fmt.Sprintf("%d minutes - Guided problem solving", part(0.5)),
		Challenge:    fmt.Sprintf("%d minutes - Advanced problems", part(0.2)),
		Homework:     fmt.Sprintf("%d minutes - Assign practice", part(0.15)),
	}
}

type lessonSource struct {
	topic   string
	student *types.Student
	// worksheetID is set when the source names a worksheet.
	worksheetID string
}

func (k *Toolkit) resolveLessonSource(ctx context.Context, args Args) (lessonSource, Result) {
	kind := args.String("content_source_type", "")
	data := args.String("content_source_data", "")
	out := lessonSource{}

	studentID := args.String("student_id", "")
	if kind == types.ContentSourceStudentProfile && studentID == "" {
		studentID = data
	}
	if studentID != "" {
		res := k.store.Student(ctx, studentID)
		if res.Unavailable() {
			return out, Fail(res.ErrorMessage())
		}
		out.student = res.Value
	}

	switch kind {
	case types.ContentSourceTopic:
		out.topic = data
	case types.ContentSourceStudentProfile:
		if out.student == nil {
			return out, Fail("Student not found")
		}
		weak := out.student.WeakAreas()
		if len(weak) > 3 {
			weak = weak[:3]
		}
		out.topic = strings.Join(weak, ", ")
		if out.topic == "" {
			out.topic = generalTopic
		}
	case types.ContentSourceWorksheet:
		res := k.store.Worksheet(ctx, data)
		if res.Unavailable() {
			return out, Fail(res.ErrorMessage())
		}
		if res.Empty() {
			return out, Fail(fmt.Sprintf("Worksheet %s not found", data))
		}
		out.topic = res.Value.Topic
		out.worksheetID = res.Value.ID
	case types.ContentSourceText:
		r := []rune(data)
		if len(r) > textTopicLimit {
			r = r[:textTopicLimit]
		}
		out.topic = strings.TrimSpace(string(r))
	default:
		return out, Fail(fmt.Sprintf("unsupported content_source_type %q", kind))
	}
	if out.topic == "" {
		out.topic = generalTopic
	}
	return out, nil
}

// targetSession names the session a plan attaches to, if any.
func targetSession(args Args) (string, error) {
	if id := args.String("session_id", ""); id != "" {
		return id, nil
	}
	date := args.String("session_date", "")
	studentID := args.String("student_id", "")
	if date == "" || studentID == "" {
		return "", nil
	}
	return types.SessionID(date, studentID)
}

func (k *Toolkit) createLessonPlan(ctx context.Context, args Args) Result {
	log := k.toolLog("create_lesson_plan")
	src, failed := k.resolveLessonSource(ctx, args)
	if failed != nil {
		return FailWith(failed.Error(), Result{"lesson_plan_id": nil})
	}
	sessionID, err := targetSession(args)
	if err != nil {
		return FailWith(err.Error(), Result{"lesson_plan_id": nil})
	}

	duration := args.Int("duration", 0)
	if duration <= 0 && sessionID != "" {
		if res := k.store.Session(ctx, sessionID); res.OK() && res.Value.Duration > 0 {
			duration = res.Value.Duration
		}
	}
	if duration <= 0 {
		duration = defaultLessonMinutes
	}

	notes, err := k.gen.LessonPlanText(ctx, src.topic, duration)
	if err != nil {
		log.Warn("lesson content failed", "topic", src.topic, "error", err)
		return FailWith(fmt.Sprintf("Failed to generate lesson content: %v", err), Result{"lesson_plan_id": nil})
	}

	studentID := args.String("student_id", "")
	name := "student"
	var studentCtx map[string]any
	weak := []string{}
	if src.student != nil {
		studentID = src.student.ID
		name = src.student.Name
		weak = src.student.WeakAreas()
		studentCtx = map[string]any{
			"name":       src.student.Name,
			"grade":      src.student.Grade,
			"accuracy":   src.student.AccuracyByTopic(),
			"weak_areas": weak,
		}
	}

	worksheetID := args.String("worksheet_id", src.worksheetID)
	plan := &types.LessonPlan{
		ID:                types.NewLessonPlanID(),
		StudentID:         studentID,
		Topic:             src.topic,
		ContentSourceType: args.String("content_source_type", ""),
		ContentSourceData: args.String("content_source_data", ""),
		Duration:          duration,
		Objectives:        mustJSON(LessonObjectives(src.topic, len(weak) > 0)),
		Structure:         mustJSON(LessonStructure(duration)),
		TeachingNotes:     notes,
		CreatedAt:         types.Stamp(k.now()),
	}
	if studentCtx != nil {
		plan.StudentContext = mustJSON(studentCtx)
	}
	if worksheetID != "" {
		plan.WorksheetID = &worksheetID
	}
	if sessionID != "" {
		plan.SessionID = &sessionID
	}
	if res := k.store.CreateLessonPlan(ctx, plan); res.Unavailable() {
		return FailWith(res.ErrorMessage(), Result{"lesson_plan_id": nil})
	}
	if stored := k.store.LessonPlan(ctx, plan.ID); stored.OK() {
		plan = stored.Value
	}

	out := Result{
		"lesson_plan_id": plan.ID,
		"lesson_plan":    plan,
		"session_linked": false,
		"message":        fmt.Sprintf("Generated %d-minute lesson plan for %s on %s", duration, name, src.topic),
	}
	if sessionID != "" {
		link := k.store.LinkLessonPlan(ctx, sessionID, plan.ID)
		switch {
		case link.OK():
			out["session_linked"] = true
		case link.Empty():
			out["link_error"] = fmt.Sprintf("session %s not found", sessionID)
		default:
			out["link_error"] = link.ErrorMessage()
		}
		if errMsg, ok := out["link_error"]; ok {
			log.Warn("lesson plan not linked", "session_id", sessionID, "lesson_plan_id", plan.ID, "error", errMsg)
		}
	}
	return Succeed(out)
}

func (k *Toolkit) createLessonWithWorksheet(ctx context.Context, args Args) (Result, error) {
	ws := k.createWorksheet(ctx, args)
	if !ws.Success() {
		return ws, nil
	}
	worksheetID, _ := ws["worksheet_id"].(string)

	lessonArgs := args.
		With("content_source_type", types.ContentSourceWorksheet).
		With("content_source_data", worksheetID).
		With("worksheet_id", worksheetID)
	lesson := k.createLessonPlan(ctx, lessonArgs)
	if !lesson.Success() {
		return FailWith(lesson.Error(), Result{
			"orphaned_worksheet_id": worksheetID,
			"worksheet":             ws["worksheet"],
		}), nil
	}
	return Succeed(Result{
		"worksheet_id":   worksheetID,
		"lesson_plan_id": lesson["lesson_plan_id"],
		"worksheet":      ws["worksheet"],
		"file_url":       ws["file_url"],
		"lesson_plan":    lesson["lesson_plan"],
		"session_linked": lesson["session_linked"],
		"link_error":     lesson["link_error"],
		"message":        fmt.Sprintf("%s. %s", ws["message"], lesson["message"]),
	}), nil
}

func mustJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}
