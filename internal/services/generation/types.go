package generation

type Classification struct {
	Topic      string  `json:"topic"`
	Difficulty string  `json:"difficulty"`
	Confidence float64 `json:"confidence"`
}

type Explanation struct {
	Explanation  string `json:"explanation"`
	TeachingTips string `json:"teaching_tips"`
}

// QuestionMeta is what selection sees of a candidate question.
type QuestionMeta struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Text       string `json:"text"`
}

type Sections struct {
	Warmup    int `json:"warmup"`
	Practice  int `json:"practice"`
	Challenge int `json:"challenge"`
}

type SelectionCriteria struct {
	QuestionCount int       `json:"questionCount"`
	Topics        []string  `json:"topics"`
	Difficulty    []string  `json:"difficulty"`
	Sections      *Sections `json:"sections,omitempty"`
}

type QuestionResult struct {
	QuestionID    string `json:"question_id"`
	QuestionText  string `json:"question_text"`
	Topic         string `json:"topic"`
	IsCorrect     bool   `json:"is_correct"`
	StudentAnswer string `json:"student_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Feedback      string `json:"feedback"`
}

type GradeResult struct {
	TotalQuestions  int              `json:"total_questions"`
	CorrectAnswers  int              `json:"correct_answers"`
	Score           string           `json:"score"`
	QuestionResults []QuestionResult `json:"question_results"`
	Weaknesses      []string         `json:"weaknesses"`
	Insights        string           `json:"insights"`
}

type QuestionRequest struct {
	Topic        string
	Difficulty   string
	Count        int
	QuestionType string
	Subject      string
}

type DraftQuestion struct {
	Text         string `json:"text"`
	Answer       string `json:"answer"`
	Explanation  string `json:"explanation"`
	TeachingTips string `json:"teaching_tips"`
}

type ParsedQuestion struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}
