package dto

import "time"

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// AnalysisDTO mirrors a stored ResumeAnalysis for API responses.
type AnalysisDTO struct {
	OverallScore int               `json:"overall_score"`
	Summary      string            `json:"summary"`
	Strengths    []string          `json:"strengths"`
	Weaknesses   []string          `json:"weaknesses"`
	Sections     map[string]string `json:"sections,omitempty"`
}

// UploadResumeDTO is returned by resume intake. Duplicate is true when the
// fingerprint matched an existing record and the cached analysis was returned.
type UploadResumeDTO struct {
	ResumeID   uint        `json:"resume_id"`
	FileKey    string      `json:"file_key"`
	FileURL    string      `json:"file_url"`
	Duplicate  bool        `json:"duplicate"`
	Analysis   AnalysisDTO `json:"analysis"`
	UploadedAt time.Time   `json:"uploaded_at"`
}

// QuestionDTO is a question as presented to the candidate (no score/feedback).
type QuestionDTO struct {
	QuestionIndex int    `json:"question_index"`
	Text          string `json:"text"`
	Category      string `json:"category"`
}

// SessionDTO describes a session to the client. Resumed is set by
// create-or-resume so the caller never has to re-derive it from the cursor.
type SessionDTO struct {
	ID              uint         `json:"id"`
	ResumeID        uint         `json:"resume_id"`
	QuestionCount   int          `json:"question_count"`
	CurrentIndex    int          `json:"current_index"`
	Status          string       `json:"status"`
	Resumed         bool         `json:"resumed"`
	CurrentQuestion *QuestionDTO `json:"current_question,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// SubmitAnswerDTO is the result of one answer submission. Graded is false when
// grading was deferred after retry exhaustion; the answer itself is durable
// either way.
type SubmitAnswerDTO struct {
	Graded          bool         `json:"graded"`
	Score           *float64     `json:"score,omitempty"`
	Feedback        string       `json:"feedback,omitempty"`
	HasNextQuestion bool         `json:"has_next_question"`
	NextQuestion    *QuestionDTO `json:"next_question,omitempty"`
	SessionStatus   string       `json:"session_status"`
}

type CategoryScoreDTO struct {
	Category      string  `json:"category"`
	Score         float64 `json:"score"`
	QuestionCount int     `json:"question_count"`
}

type QuestionDetailDTO struct {
	QuestionIndex int      `json:"question_index"`
	Text          string   `json:"text"`
	Category      string   `json:"category"`
	UserAnswer    *string  `json:"user_answer,omitempty"`
	Score         *float64 `json:"score,omitempty"`
	Feedback      *string  `json:"feedback,omitempty"`
}

type ReferenceAnswerDTO struct {
	QuestionIndex int      `json:"question_index"`
	Text          string   `json:"text"`
	KeyPoints     []string `json:"key_points"`
}

// ReportDTO is the cached rollup of a completed session.
type ReportDTO struct {
	SessionID        uint                 `json:"session_id"`
	OverallScore     float64              `json:"overall_score"`
	CategoryScores   []CategoryScoreDTO   `json:"category_scores"`
	OverallFeedback  string               `json:"overall_feedback"`
	Strengths        []string             `json:"strengths"`
	Improvements     []string             `json:"improvements"`
	QuestionDetails  []QuestionDetailDTO  `json:"question_details"`
	ReferenceAnswers []ReferenceAnswerDTO `json:"reference_answers"`
	CreatedAt        time.Time            `json:"created_at"`
}
