package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorbridge-backend/internal/agent"
	"github.com/yungbote/tutorbridge-backend/internal/http/response"
	"github.com/yungbote/tutorbridge-backend/internal/platform/apierr"
)

// Chatter is the part of *agent.Agent the chat endpoint needs.
type Chatter interface {
	Chat(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error)
}

type AgentHandler struct {
	agent Chatter
}

func NewAgentHandler(a Chatter) *AgentHandler {
	return &AgentHandler{agent: a}
}

type chatRequest struct {
	Message        string         `json:"message" binding:"required"`
	ConversationID string         `json:"conversation_id"`
	Context        map[string]any `json:"context"`
}

// POST /api/agent/chat
func (h *AgentHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := h.agent.Chat(c.Request.Context(), agent.ChatRequest{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		Context:        req.Context,
	})
	if err != nil {
		if status, _ := apierr.StatusOf(err); status < http.StatusInternalServerError {
			response.RespondErr(c, err)
			return
		}
		response.RespondErr(c, apierr.Internal(fmt.Errorf("agent processing failed: %w", err)))
		return
	}
	response.RespondOK(c, out)
}
