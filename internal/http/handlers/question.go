package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorbridge-backend/internal/http/response"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
)

type QuestionHandler struct {
	gen generation.Service
}

func NewQuestionHandler(gen generation.Service) *QuestionHandler {
	return &QuestionHandler{gen: gen}
}

type questionTextRequest struct {
	QuestionText string `json:"question_text" binding:"required"`
}

type selectRequest struct {
	Questions []generation.QuestionMeta   `json:"questions" binding:"required"`
	Criteria  generation.SelectionCriteria `json:"criteria"`
}

// POST /api/questions/classify
func (h *QuestionHandler) Classify(c *gin.Context) {
	var req questionTextRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, h.gen.Classify(c.Request.Context(), req.QuestionText))
}

// POST /api/questions/explain
func (h *QuestionHandler) Explain(c *gin.Context) {
	var req questionTextRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, h.gen.Explain(c.Request.Context(), req.QuestionText))
}

// POST /api/questions/select
func (h *QuestionHandler) Select(c *gin.Context) {
	var req selectRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	indices := h.gen.SelectQuestions(c.Request.Context(), req.Questions, req.Criteria)
	response.RespondOK(c, gin.H{"selectedIndices": indices})
}
