package model

import (
	"time"

	"gorm.io/gorm"
)

// InterviewQuestion is identified by its index within the owning session's
// sequence. The index never changes; an answer, once recorded, is never
// overwritten (submissions target the current cursor only).
type InterviewQuestion struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	SessionID     uint           `json:"session_id" gorm:"not null;uniqueIndex:idx_session_question"`
	QuestionIndex int            `json:"question_index" gorm:"not null;uniqueIndex:idx_session_question"`
	Text          string         `json:"text" gorm:"type:text;not null"`
	Category      string         `json:"category" gorm:"not null;index"`
	UserAnswer    *string        `json:"user_answer,omitempty" gorm:"type:text"`
	Score         *float64       `json:"score,omitempty"`
	Feedback      *string        `json:"feedback,omitempty" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
