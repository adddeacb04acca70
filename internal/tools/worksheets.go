package tools

import (
	"bytes"
	"context"
	"fmt"
	"time"

	types "github.com/yungbote/tutorbridge-backend/internal/domain/tutoring"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/docrender"
)

const (
	worksheetQuestionCount = 8
	worksheetURLTTL        = 7 * 24 * time.Hour
	worksheetBrand         = "TutorBridge"
)

func worksheetParams() map[string]any {
	return map[string]any{
		"title":              str("Worksheet title, e.g. Quadratic Equations Practice"),
		"subject":            str("Subject area, e.g. Mathematics"),
		"grade_level":        str("Grade level, e.g. 7"),
		"topic":              str("Main topic"),
		"difficulty_level":   enum("Difficulty (default intermediate)", difficultyLevels...),
		"question_ids":       stringList("Existing question ids to use instead of searching"),
		"include_answer_key": boolean("Add an answer key page (default true)"),
		"format":             enum("Output format", "pdf"),
		"student_id":         str("Personalize for this student"),
	}
}

func (k *Toolkit) worksheetTools() []Tool {
	return []Tool{
		{
			Name: "create_worksheet",
			Description: "Create a printable PDF worksheet. Uses question_ids when given, otherwise reuses stored questions " +
				"for the topic and generates only the shortfall. Returns download and preview links.",
			Parameters: object(worksheetParams(), "title", "subject", "grade_level", "topic"),
			Handler: func(ctx context.Context, args Args) (Result, error) {
				return k.createWorksheet(ctx, args), nil
			},
		},
	}
}

func noWorksheet(msg string) Result {
	return FailWith(msg, Result{"worksheet_id": nil, "file_url": nil})
}

func (k *Toolkit) worksheetQuestions(ctx context.Context, args Args, topic, difficulty string) ([]*types.Question, error) {
	if ids := args.Strings("question_ids"); len(ids) > 0 {
		res := k.store.QuestionsByIDs(ctx, ids)
		if res.Unavailable() {
			return nil, fmt.Errorf("%s", res.ErrorMessage())
		}
		return res.Value, nil
	}

	log := k.toolLog("create_worksheet")
	found := k.store.SearchQuestions(ctx, topic, difficulty, worksheetQuestionCount)
	if found.Unavailable() {
		log.Warn("question search unavailable", "topic", topic, "error", found.Err)
	}
	questions := found.Value
	if len(questions) >= worksheetQuestionCount {
		return questions[:worksheetQuestionCount], nil
	}

	// The search also matches related topics, while the guard only counts
	// the exact one. Ask it for just the rows this worksheet is missing.
	canonical := k.canonicalTopic(ctx, topic)
	fill, err := k.guard.Fill(ctx, FillRequest{
		Topic:        canonical,
		Difficulty:   difficulty,
		Target:       exactTopicCount(canonical, questions) + worksheetQuestionCount - len(questions),
		QuestionType: "mixed",
		Subject:      args.String("subject", "Mathematics"),
	})
	if err != nil {
		log.Warn("question generation failed, using existing questions", "topic", topic, "error", err)
		return questions, nil
	}
	return mergeQuestions(worksheetQuestionCount, questions, fill.Questions()), nil
}

// exactTopicCount counts the found rows the guard would also count. found
// is a complete match set here, so it holds every exact-topic row.
func exactTopicCount(topic string, found []*types.Question) int {
	key := types.TopicKey(topic)
	n := 0
	for _, q := range found {
		if q != nil && types.TopicKey(q.Topic) == key {
			n++
		}
	}
	return n
}

// mergeQuestions concatenates lists without repeating ids, up to limit.
func mergeQuestions(limit int, lists ...[]*types.Question) []*types.Question {
	seen := map[string]bool{}
	out := []*types.Question{}
	for _, list := range lists {
		for _, q := range list {
			if q == nil || seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			out = append(out, q)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

func (k *Toolkit) createWorksheet(ctx context.Context, args Args) Result {
	log := k.toolLog("create_worksheet")
	title := args.String("title", "Practice Worksheet")
	subject := args.String("subject", "Mathematics")
	gradeLevel := args.String("grade_level", "")
	topic := args.String("topic", "")
	level := args.String("difficulty_level", "intermediate")
	difficulty := difficultyArg(args, "difficulty_level", "intermediate")
	includeKey := args.Bool("include_answer_key", true)
	format := args.String("format", "pdf")
	studentID := args.String("student_id", "")

	questions, err := k.worksheetQuestions(ctx, args, topic, difficulty)
	if err != nil {
		return noWorksheet(err.Error())
	}
	if len(questions) == 0 {
		return noWorksheet("No questions available and generation failed")
	}

	studentName := ""
	if studentID != "" {
		if res := k.store.Student(ctx, studentID); res.OK() {
			studentName = res.Value.Name
			if gradeLevel == "" {
				gradeLevel = res.Value.Grade
			}
		}
	}

	id := types.NewWorksheetID()
	now := types.Stamp(k.now())
	doc := docrender.Worksheet{
		Brand:            worksheetBrand,
		Title:            title,
		Subject:          subject,
		GradeLevel:       gradeLevel,
		StudentName:      studentName,
		IncludeAnswerKey: includeKey,
		Creator:          types.WorksheetCreator,
		CreatedAt:        now,
	}
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		doc.Questions = append(doc.Questions, docrender.Question{Text: q.Text, Answer: q.Answer, Explanation: q.Explanation})
		ids = append(ids, q.ID)
	}

	pdf, err := k.renderer.PDF(doc)
	if err != nil {
		return noWorksheet(fmt.Sprintf("render worksheet: %v", err))
	}
	fileKey := fmt.Sprintf("worksheets/%s.pdf", id)
	fileURL, err := k.upload(ctx, fileKey, "application/pdf", pdf)
	if err != nil {
		log.Warn("worksheet upload failed, using local reference", append(ctxutil.TraceFields(ctx), "key", fileKey, "error", err)...)
		fileURL = fmt.Sprintf("local://%s.pdf", id)
		fileKey = ""
	}

	previewURL := fileURL
	if png, err := k.renderer.Preview(doc); err != nil {
		log.Warn("worksheet preview failed", "worksheet_id", id, "error", err)
	} else if fileKey != "" {
		if u, err := k.upload(ctx, fmt.Sprintf("worksheets/%s.png", id), "image/png", png); err != nil {
			log.Warn("preview upload failed", "worksheet_id", id, "error", err)
		} else {
			previewURL = u
		}
	}

	row := &types.Worksheet{
		ID:              id,
		Title:           title,
		Subject:         subject,
		GradeLevel:      gradeLevel,
		Topic:           topic,
		DifficultyLevel: level,
		FileKey:         fileKey,
		FileURL:         fileURL,
		PreviewURL:      previewURL,
		Format:          format,
		HasAnswerKey:    includeKey,
		CreatedBy:       types.WorksheetCreator,
		CreatedAt:       now,
	}
	row.SetQuestionIDs(ids)
	if studentID != "" {
		row.StudentID = &studentID
	}
	if res := k.store.CreateWorksheet(ctx, row); res.Unavailable() {
		log.Error("worksheet metadata not stored", "worksheet_id", id, "error", res.Err)
	}

	return Succeed(Result{
		"worksheet_id": id,
		"file_url":     fileURL,
		"preview_url":  previewURL,
		"metadata": Result{
			"title":          title,
			"subject":        subject,
			"grade_level":    gradeLevel,
			"topic":          topic,
			"question_count": len(questions),
			"has_answer_key": includeKey,
		},
		"questions": questions,
		"worksheet": Result{
			"worksheet_id":   id,
			"title":          title,
			"topic":          topic,
			"subject":        subject,
			"grade_level":    gradeLevel,
			"question_count": len(questions),
			"file_url":       fileURL,
			"preview_url":    previewURL,
		},
		"message": fmt.Sprintf("Created worksheet '%s' with %d questions", title, len(questions)),
	})
}

func (k *Toolkit) upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	if err := k.objects.Put(ctx, key, contentType, bytes.NewReader(body)); err != nil {
		return "", err
	}
	return k.objects.SignedURL(ctx, key, worksheetURLTTL)
}
