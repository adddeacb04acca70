package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/tutorbridge-backend/internal/platform/apierr"
)

func run(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestRespondOK(t *testing.T) {
	rec, body := run(t, func(c *gin.Context) { RespondOK(c, gin.H{"n": 1}) })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"n": float64(1)}, body["data"])
}

func TestRespondErrMapsTypedErrors(t *testing.T) {
	rec, body := run(t, func(c *gin.Context) {
		RespondErr(c, fmt.Errorf("wrap: %w", apierr.BadRequest(errors.New("message is required"))))
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"message": "wrap: message is required", "code": "invalid_request"}, body["error"])
}

func TestRespondErrDefaultsToInternal(t *testing.T) {
	rec, body := run(t, func(c *gin.Context) { RespondErr(c, errors.New("boom")) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", body["error"].(map[string]any)["code"])

	_, body = run(t, func(c *gin.Context) { RespondError(c, http.StatusTeapot, "", nil) })
	assert.Equal(t, "unknown error", body["error"].(map[string]any)["message"])
}
