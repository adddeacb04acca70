package generation

import (
	"context"
	"fmt"
)

const ungradedInsight = "Unable to grade worksheet automatically. Please review manually."

func ungraded() GradeResult {
	return GradeResult{
		Score:           "0/0",
		QuestionResults: []QuestionResult{},
		Weaknesses:      []string{},
		Insights:        ungradedInsight,
	}
}

func (s *service) GradeWorksheet(ctx context.Context, extractedText, studentName string) GradeResult {
	prompt := fmt.Sprintf(`You are an expert math tutor grading a student's worksheet. The student's name is %s.

Extracted Text from Worksheet:
%s

Analyze this worksheet and provide grading results. For each question:
1. Identify the question and the student's answer
2. Determine the topic (e.g., Quadratic Equations, Trigonometry, etc.)
3. Check if the answer is correct
4. Provide brief feedback

Also identify the student's weaknesses and provide insights for improvement.

Respond with this exact JSON format:
{
  "total_questions": 10,
  "correct_answers": 7,
  "score": "7/10",
  "question_results": [
    {
      "question_id": "q1",
      "question_text": "The actual question text",
      "topic": "Quadratic Equations",
      "is_correct": true,
      "student_answer": "x = 2, 3",
      "correct_answer": "x = 2, 3",
      "feedback": "Excellent work!"
    }
  ],
  "weaknesses": ["Topic 1", "Topic 2"],
  "insights": "Overall insights and recommendations for the student..."
}

Only return valid JSON, no additional text.`, studentName, extractedText)

	var out GradeResult
	if err := s.invokeJSON(ctx, prompt, InvokeOptions{Temperature: 0.3, MaxTokens: 4096}, &out); err != nil {
		s.log.Warn("grading fell back", "error", err)
		return ungraded()
	}
	if out.QuestionResults == nil {
		out.QuestionResults = []QuestionResult{}
	}
	if out.Weaknesses == nil {
		out.Weaknesses = []string{}
	}
	if out.Score == "" {
		out.Score = fmt.Sprintf("%d/%d", out.CorrectAnswers, out.TotalQuestions)
	}
	return out
}
