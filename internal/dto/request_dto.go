package dto

// CreateSessionRequest starts (or resumes) an interview for a resume.
type CreateSessionRequest struct {
	QuestionCount int `json:"question_count" binding:"required,min=1,max=20"`
}

// SubmitAnswerRequest answers the question at the session's current cursor.
// QuestionIndex is a pointer so index 0 passes required-binding.
type SubmitAnswerRequest struct {
	QuestionIndex *int   `json:"question_index" binding:"required,min=0"`
	Answer        string `json:"answer" binding:"required"`
}
