package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ocr"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
)

var worksheetLines = []string{
	"Fractions Practice",
	"1. What is 1/2 + 1/4 of a pizza?",
	"2) Simplify the fraction 6/8 fully.",
	"Q3: Which is larger, 2/3 or 3/5?",
}

func newTestService(lines []string, responses ...llm.MockResponse) (Service, *ocr.Static) {
	engine := &ocr.Static{Lines: lines}
	gen := generation.NewService(llm.NewMockProvider(responses...), logger.NewNop())
	return NewService(engine, gen, logger.NewNop()), engine
}

func TestExtractUsesModelSplit(t *testing.T) {
	svc, _ := newTestService(worksheetLines, llm.MockResponse{
		Content: `[{"text":"What is 1/2 + 1/4 of a pizza?","confidence":0.95},{"text":"short","confidence":0.9},{"text":"Simplify the fraction 6/8 fully.","confidence":"high"}]`,
	})
	res, err := svc.Extract(context.Background(), ocr.Document{Bytes: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "Fractions Practice\n1. What is 1/2 + 1/4 of a pizza?\n2) Simplify the fraction 6/8 fully.\nQ3: Which is larger, 2/3 or 3/5?", res.ExtractedText)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, 0.95, res.Questions[0].Confidence)
}

func TestExtractFallsBackToMarkersOnNonList(t *testing.T) {
	svc, _ := newTestService(worksheetLines, llm.MockResponse{Content: `{"questions": []}`})
	res, err := svc.Extract(context.Background(), ocr.Document{Bytes: []byte("x")})
	require.NoError(t, err)
	require.Len(t, res.Questions, 3)
	assert.Equal(t, "What is 1/2 + 1/4 of a pizza?", res.Questions[0].Text)
	assert.Equal(t, "Which is larger, 2/3 or 3/5?", res.Questions[2].Text)
	for _, q := range res.Questions {
		assert.Equal(t, 0.7, q.Confidence)
	}
}

func TestExtractFallsBackWhenModelDown(t *testing.T) {
	svc, _ := newTestService(worksheetLines, llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	res, err := svc.Extract(context.Background(), ocr.Document{Bytes: []byte("x")})
	require.NoError(t, err)
	assert.Len(t, res.Questions, 3)
}

func TestExtractShortTextHasNoQuestions(t *testing.T) {
	svc, _ := newTestService([]string{"Name:", "Date:"})
	res, err := svc.Extract(context.Background(), ocr.Document{Bytes: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "Name:\nDate:", res.ExtractedText)
	assert.Empty(t, res.Questions)
}

func TestExtractOCRFailure(t *testing.T) {
	engine := &ocr.Static{Err: errors.New("quota exceeded")}
	svc := NewService(engine, generation.NewService(llm.NewMockProvider(), logger.NewNop()), logger.NewNop())
	_, err := svc.Extract(context.Background(), ocr.Document{Bucket: "b", Key: "k.pdf"})
	require.Error(t, err)
	assert.Equal(t, "b", engine.Calls[0].Bucket)
}

func TestSplitQuestionsMarkers(t *testing.T) {
	text := "(a) Convert 0.75 to a fraction\n(b) ok\n(c) Convert 1/5 to a decimal value"
	got := SplitQuestions(text)
	require.Len(t, got, 2)
	assert.Equal(t, "Convert 0.75 to a fraction", got[0].Text)
	assert.Equal(t, "Convert 1/5 to a decimal value", got[1].Text)
}

func TestSplitQuestionsParagraphFallback(t *testing.T) {
	text := "Explain why the sum of two odd numbers is even.\n\nToo short\n\nDescribe a real situation that uses percentages."
	got := SplitQuestions(text)
	require.Len(t, got, 2)
	assert.Equal(t, 0.5, got[0].Confidence)
	assert.Equal(t, "Describe a real situation that uses percentages.", got[1].Text)
}

func TestSplitQuestionsMarkerMustStartLine(t *testing.T) {
	got := SplitQuestions("The answer to question 4. is in the back of the book, see page twelve.")
	require.Len(t, got, 1)
	assert.Equal(t, 0.5, got[0].Confidence)
}

func TestExtractAnswers(t *testing.T) {
	svc, _ := newTestService([]string{"1. 2+2", "Answer: 4", "2. 3x3", "ans 9 ", "3. 10-7", "ANSWER:   3"})
	res, err := svc.ExtractAnswers(context.Background(), ocr.Document{Bytes: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "9", "3"}, res.Answers)
	assert.Contains(t, res.RawText, "Answer: 4")
}
