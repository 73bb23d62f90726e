package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	SessionNotStarted = "not_started"
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

// InterviewSession holds a fixed-length question sequence decided at creation
// and a 0-based cursor into it. At most one session with status != completed
// may exist per resume at any time.
type InterviewSession struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	ResumeID      uint                `json:"resume_id" gorm:"not null;index"`
	QuestionCount int                 `json:"question_count" gorm:"not null"`
	CurrentIndex  int                 `json:"current_index" gorm:"not null;default:0"`
	Status        string              `json:"status" gorm:"not null;default:'not_started';index"`
	Questions     []InterviewQuestion `json:"questions,omitempty" gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Report        *InterviewReport    `json:"report,omitempty" gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	DeletedAt     gorm.DeletedAt      `gorm:"index" json:"-"`
}

// Active reports whether the session still accepts submissions.
func (s *InterviewSession) Active() bool {
	return s.Status != SessionCompleted
}

// HasProgress distinguishes a resumed session from a fresh one: any advanced
// cursor or recorded answer counts as progress.
func (s *InterviewSession) HasProgress() bool {
	if s.CurrentIndex > 0 {
		return true
	}
	for _, q := range s.Questions {
		if q.UserAnswer != nil {
			return true
		}
	}
	return false
}
