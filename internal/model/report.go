package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InterviewReport is created exactly once per completed session, the first
// time a report is requested, and cached thereafter.
type InterviewReport struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	SessionID        uint           `json:"session_id" gorm:"not null;uniqueIndex"`
	OverallScore     float64        `json:"overall_score" gorm:"not null"`
	CategoryScores   datatypes.JSON `json:"category_scores"`
	OverallFeedback  string         `json:"overall_feedback" gorm:"type:text"`
	Strengths        datatypes.JSON `json:"strengths"`
	Improvements     datatypes.JSON `json:"improvements"`
	QuestionDetails  datatypes.JSON `json:"question_details"`
	ReferenceAnswers datatypes.JSON `json:"reference_answers"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
