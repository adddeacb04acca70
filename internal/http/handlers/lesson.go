package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorbridge-backend/internal/http/response"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
)

type LessonHandler struct {
	gen generation.Service
}

func NewLessonHandler(gen generation.Service) *LessonHandler {
	return &LessonHandler{gen: gen}
}

type lessonRequest struct {
	Topic     string `json:"topic" binding:"required"`
	Duration  int    `json:"duration" binding:"required,min=1,max=480"`
	StudentID string `json:"student_id" binding:"required"`
}

// POST /api/lessons/generate
func (h *LessonHandler) Generate(c *gin.Context) {
	var req lessonRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	notes, err := h.gen.LessonPlanText(c.Request.Context(), req.Topic, req.Duration)
	if err != nil {
		response.RespondErr(c, fmt.Errorf("generate lesson plan: %w", err))
		return
	}
	response.RespondOK(c, gin.H{
		"teaching_notes": notes,
		"ai_reasoning":   fmt.Sprintf("Generated %d-minute lesson plan on %s", req.Duration, req.Topic),
	})
}
