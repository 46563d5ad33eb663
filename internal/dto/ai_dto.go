package dto

type Question struct {
	ID               int      `json:"id"`
	Question         string   `json:"question"`
	ExpectedKeywords []string `json:"expectedKeywords"`
}

type QuestionSet struct {
	Questions []Question `json:"questions"`
	Keywords  []string   `json:"keywords"`
	Fallback  bool       `json:"fallback"`
}

type ValidateAnswerRequest struct {
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
}
