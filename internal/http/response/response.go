package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorbridge-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Envelope wraps every successful /api payload.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondErr maps err through apierr.StatusOf. Untyped errors become 500s.
func RespondErr(c *gin.Context, err error) {
	status, code := apierr.StatusOf(err)
	if err != nil {
		_ = c.Error(err)
	}
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: payload})
}
