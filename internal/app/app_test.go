package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/tutorbridge-backend/internal/agent"
	"github.com/yungbote/tutorbridge-backend/internal/data/repos/testutil"
	httpapi "github.com/yungbote/tutorbridge-backend/internal/http"
	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/platform/objectstore"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ocr"
	"github.com/yungbote/tutorbridge-backend/internal/tools"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "PORT", "LLM_PROVIDER", "AGENT_LLM_PROVIDER", "OCR_PROVIDER", "AGENT_MEMORY", "REDIS_ADDR", "CORS_ALLOWED_ORIGINS", "WORKFLOW_ENFORCEMENT"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(nil)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "tutorbridge-backend", cfg.ServiceName)
	assert.Equal(t, OCRProviderDocumentAI, cfg.OCRProvider)
	assert.Equal(t, tools.EnforcementStrict, cfg.Enforcement)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 24*time.Hour, cfg.ConversationTTL)
	assert.Nil(t, cfg.CORSOrigins)
	assert.Equal(t, MemoryLocal, cfg.memoryBackend())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ADDR", "")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("AGENT_LLM_PROVIDER", "openai")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.test, ,https://b.test ")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("AGENT_MEMORY", "")
	t.Setenv("WORKFLOW_ENFORCEMENT", "permissive")

	cfg := LoadConfig(nil)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, MemoryRedis, cfg.memoryBackend())
	assert.Equal(t, tools.EnforcementPermissive, cfg.Enforcement)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "openai", cfg.AgentLLM().Provider)

	t.Setenv("ADDR", "127.0.0.1:7000")
	t.Setenv("AGENT_MEMORY", "none")
	cfg = LoadConfig(nil)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, MemoryNone, cfg.memoryBackend())
}

func testClients(provider llm.Provider) Clients {
	return Clients{
		LLM:           provider,
		AgentLLM:      provider,
		OCR:           &ocr.Static{Lines: []string{"1. What is 2+2?", "2. Name a prime."}},
		Objects:       objectstore.NewMemory("http://objects.test"),
		Conversations: agent.NewMemoryConversations(time.Hour),
	}
}

func TestWireServicesAndRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	db := testutil.DB(t)

	cfg := Config{ServiceName: "tutorbridge-backend", Version: "test", Region: "local", Enforcement: tools.EnforcementStrict}
	provider := llm.NewMockProvider()
	provider.AddText("Hello! How can I help with your lessons today?")

	_, st := wireStore(db, log, cfg)
	services, err := wireServices(log, cfg, testClients(provider), st)
	require.NoError(t, err)
	require.NotNil(t, services.Agent)
	assert.NotEmpty(t, services.Registry.Definitions())

	handlers := wireHandlers(log, cfg, services)
	router := httpapi.NewRouter(wireRouter(log, cfg, nil, handlers, wireMiddleware(log, cfg)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tutorbridge-backend")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/agent/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Response       string `json:"response"`
			ConversationID string `json:"conversation_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Hello! How can I help with your lessons today?", body.Data.Response)
	assert.True(t, strings.HasPrefix(body.Data.ConversationID, "conv_"))
}

func TestWireWithoutAgent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	cfg := Config{AuthSecret: "s3cret", Enforcement: tools.EnforcementStrict}

	clients := testClients(llm.NewMockProvider())
	clients.AgentLLM = nil
	_, st := wireStore(testutil.DB(t), log, cfg)
	services, err := wireServices(log, cfg, clients, st)
	require.NoError(t, err)
	assert.Nil(t, services.Agent)

	mw := wireMiddleware(log, cfg)
	require.NotNil(t, mw.Auth)
	handlers := wireHandlers(log, cfg, services)
	assert.Nil(t, handlers.Agent)

	router := httpapi.NewRouter(wireRouter(log, cfg, nil, handlers, mw))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/lessons/generate", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientsCloseRunsInReverse(t *testing.T) {
	var order []int
	c := &Clients{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return nil },
	}}
	c.Close()
	c.Close()
	assert.Equal(t, []int{2, 1}, order)
}
