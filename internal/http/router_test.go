package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/tutorbridge-backend/internal/agent"
	httpH "github.com/yungbote/tutorbridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/tutorbridge-backend/internal/http/middleware"
	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ocr"
	"github.com/yungbote/tutorbridge-backend/internal/services/extraction"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
	"github.com/yungbote/tutorbridge-backend/internal/tools"
)

type fakeChatter struct {
	got  agent.ChatRequest
	resp *agent.ChatResponse
	err  error
}

func (f *fakeChatter) Chat(_ context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

type testServer struct {
	engine *gin.Engine
	model  *llm.MockProvider
	ocr    *ocr.Static
	chat   *fakeChatter
}

func newTestServer(t *testing.T, mutate ...func(*RouterConfig)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	model := llm.NewMockProvider()
	engine := &ocr.Static{}
	gen := generation.NewService(model, log)
	chat := &fakeChatter{resp: &agent.ChatResponse{
		Response:       "Hello!",
		ConversationID: agent.NewSessionID,
		ActionTraces:   []tools.Outcome{},
		Worksheets:     []any{},
		Sources:        []any{},
	}}
	cfg := RouterConfig{
		Log:             log,
		HealthHandler:   httpH.NewHealthHandler(httpH.ServiceInfo{Name: "tutorbridge-backend", Version: "1.2.3", Region: "us-central1"}),
		QuestionHandler: httpH.NewQuestionHandler(gen),
		DocumentHandler: httpH.NewDocumentHandler(extraction.NewService(engine, gen, log), 1024),
		LessonHandler:   httpH.NewLessonHandler(gen),
		GradingHandler:  httpH.NewGradingHandler(gen),
		AgentHandler:    httpH.NewAgentHandler(chat),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return &testServer{engine: NewRouter(cfg), model: model, ocr: engine, chat: chat}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func (s *testServer) postJSON(t *testing.T, path, raw string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

func (s *testServer) upload(t *testing.T, path, filename string, content []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(t, req)
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	require.Equal(t, true, body["success"], body)
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, body)
	return d
}

func errorOf(t *testing.T, body map[string]any) (string, string) {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, body)
	code, _ := e["code"].(string)
	msg, _ := e["message"].(string)
	return code, msg
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"service": "tutorbridge-backend", "version": "1.2.3", "status": "healthy"}, body)

	_, body = s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "us-central1", body["region"])

	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestClassify(t *testing.T) {
	s := newTestServer(t)
	s.model.AddText("```json\n{\"topic\":\"Fractions\",\"difficulty\":\"Easy\",\"confidence\":0.9}\n```")

	rec, body := s.postJSON(t, "/api/questions/classify", `{"question_text":"What is 1/2 + 1/4?"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	d := data(t, body)
	assert.Equal(t, "Fractions", d["topic"])
	assert.Equal(t, "Easy", d["difficulty"])
	assert.Contains(t, s.model.LastCall().Messages[0].Content, "What is 1/2 + 1/4?")
}

func TestBadBodiesAre400(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		path, body, msg string
	}{
		{"/api/questions/classify", `{}`, "question_text is required"},
		{"/api/questions/explain", `{"question_text":`, "invalid JSON body"},
		{"/api/questions/select", ``, "request body is required"},
		{"/api/lessons/generate", `{"topic":"Fractions","duration":0,"student_id":"stu_1"}`, "duration is required"},
		{"/api/lessons/generate", `{"topic":"Fractions","duration":900,"student_id":"stu_1"}`, "duration must be at most 480"},
		{"/api/grading/grade-worksheet", `{"extracted_text":"1. 2+2=4"}`, "student_name is required"},
		{"/api/documents/extract-object", `{"bucket":"b"}`, "key is required"},
		{"/api/agent/chat", `{"conversation_id":"x"}`, "message is required"},
	}
	for _, tc := range cases {
		t.Run(tc.path+" "+tc.msg, func(t *testing.T) {
			rec, body := s.postJSON(t, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			code, msg := errorOf(t, body)
			assert.Equal(t, "invalid_request", code)
			assert.Contains(t, msg, tc.msg)
		})
	}
	assert.Zero(t, s.model.CallCount())
}

func TestExplainFallsBackWhenModelDown(t *testing.T) {
	s := newTestServer(t)
	rec, body := s.postJSON(t, "/api/questions/explain", `{"question_text":"Solve x + 3 = 5"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Unable to generate explanation at this time.", data(t, body)["explanation"])
}

func TestSelectReturnsAllWhenFew(t *testing.T) {
	s := newTestServer(t)
	rec, body := s.postJSON(t, "/api/questions/select",
		`{"questions":[{"topic":"Fractions","difficulty":"Easy","text":"a"},{"topic":"Fractions","difficulty":"Hard","text":"b"}],"criteria":{"questionCount":5}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{float64(0), float64(1)}, data(t, body)["selectedIndices"])
	assert.Zero(t, s.model.CallCount())
}

func TestExtractUpload(t *testing.T) {
	s := newTestServer(t)
	s.ocr.Lines = []string{"1. What is 2 + 2 equal to?", "2) Simplify the fraction 4/8"}

	rec, body := s.upload(t, "/api/documents/extract", "worksheet.png", []byte("fake image"))
	assert.Equal(t, http.StatusOK, rec.Code)
	d := data(t, body)
	assert.Equal(t, "1. What is 2 + 2 equal to?\n2) Simplify the fraction 4/8", d["extracted_text"])
	questions := d["questions"].([]any)
	require.Len(t, questions, 2)
	assert.Equal(t, "What is 2 + 2 equal to?", questions[0].(map[string]any)["text"])

	require.Len(t, s.ocr.Calls, 1)
	assert.Equal(t, "image/png", s.ocr.Calls[0].MimeType)
	assert.Equal(t, []byte("fake image"), s.ocr.Calls[0].Bytes)
}

func TestExtractUploadErrors(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.upload(t, "/api/documents/extract", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, msg := errorOf(t, body)
	assert.Contains(t, msg, `"file" is required`)

	rec, body = s.upload(t, "/api/documents/extract", "big.pdf", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, msg = errorOf(t, body)
	assert.Contains(t, msg, "exceeds 1024 bytes")

	s.ocr.Err = errors.New("quota exceeded")
	rec, body = s.upload(t, "/api/documents/extract", "ok.pdf", []byte("pdf"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	code, msg := errorOf(t, body)
	assert.Equal(t, "internal_error", code)
	assert.Contains(t, msg, "quota exceeded")
}

func TestExtractObjectAndAlias(t *testing.T) {
	s := newTestServer(t)
	s.ocr.Lines = []string{"short"}

	for _, path := range []string{"/api/documents/extract-object", "/api/documents/extract-s3"} {
		rec, body := s.postJSON(t, path, `{"bucket":"uploads","key":"scans/ava.pdf"}`)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, data(t, body)["questions"])
	}
	require.Len(t, s.ocr.Calls, 2)
	assert.Equal(t, "gs://uploads/scans/ava.pdf", s.ocr.Calls[1].GCSURI())
}

func TestExtractAnswers(t *testing.T) {
	s := newTestServer(t)
	s.ocr.Lines = []string{"1. 2 + 2", "Answer: 4", "2. half of 1", "Ans 1/2"}

	rec, body := s.upload(t, "/api/documents/extract-answers", "graded.jpg", []byte("jpg"))
	assert.Equal(t, http.StatusOK, rec.Code)
	d := data(t, body)
	assert.Equal(t, []any{"4", "1/2"}, d["answers"])
	assert.Equal(t, "1. 2 + 2\nAnswer: 4\n2. half of 1\nAns 1/2", d["raw_text"])
}

func TestLessonGenerate(t *testing.T) {
	s := newTestServer(t)
	s.model.AddText("**Warmup (5 minutes)**\n- fraction strips")

	rec, body := s.postJSON(t, "/api/lessons/generate", `{"topic":"Fractions","duration":45,"student_id":"stu_1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	d := data(t, body)
	assert.Equal(t, "**Warmup (5 minutes)**\n- fraction strips", d["teaching_notes"])
	assert.Equal(t, "Generated 45-minute lesson plan on Fractions", d["ai_reasoning"])

	rec, body = s.postJSON(t, "/api/lessons/generate", `{"topic":"Fractions","duration":45,"student_id":"stu_1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	code, _ := errorOf(t, body)
	assert.Equal(t, "internal_error", code)
}

func TestGradeWorksheetUngradedFallback(t *testing.T) {
	s := newTestServer(t)
	s.model.AddText("not json at all")

	rec, body := s.postJSON(t, "/api/grading/grade-worksheet", `{"extracted_text":"1. 2+2 = 5","student_name":"Ava"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	d := data(t, body)
	assert.Equal(t, "0/0", d["score"])
	assert.Equal(t, "Unable to grade worksheet automatically. Please review manually.", d["insights"])
}

func TestAgentChat(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.postJSON(t, "/api/agent/chat", `{"message":"hi","conversation_id":"c1","context":{"confirmed":true}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	d := data(t, body)
	assert.Equal(t, "Hello!", d["response"])
	assert.Equal(t, agent.NewSessionID, d["conversation_id"])
	assert.Equal(t, []any{}, d["action_traces"])

	assert.Equal(t, "hi", s.chat.got.Message)
	assert.Equal(t, "c1", s.chat.got.ConversationID)
	assert.Equal(t, true, s.chat.got.Context["confirmed"])
}

func TestAgentChatFailure(t *testing.T) {
	s := newTestServer(t)
	s.chat.err = errors.New("model unreachable")

	rec, body := s.postJSON(t, "/api/agent/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	_, msg := errorOf(t, body)
	assert.Equal(t, "agent processing failed: model unreachable", msg)
}

func TestAPIAuth(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.AuthMiddleware = httpMW.NewAuthMiddleware(logger.NewNop(), "s3cret", "")
	})

	rec, _ := s.postJSON(t, "/api/agent/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "tutor_1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/agent/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	rec, _ = s.do(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
