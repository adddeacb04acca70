package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorbridge-backend/internal/http/response"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
)

type GradingHandler struct {
	gen generation.Service
}

func NewGradingHandler(gen generation.Service) *GradingHandler {
	return &GradingHandler{gen: gen}
}

type gradeRequest struct {
	ExtractedText string `json:"extracted_text" binding:"required"`
	StudentName   string `json:"student_name" binding:"required"`
}

// POST /api/grading/grade-worksheet
func (h *GradingHandler) GradeWorksheet(c *gin.Context) {
	var req gradeRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, h.gen.GradeWorksheet(c.Request.Context(), req.ExtractedText, req.StudentName))
}
