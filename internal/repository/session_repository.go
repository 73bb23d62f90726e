package repository

import (
	"github.com/lshigami/Margay/internal/apperr"
	"github.com/lshigami/Margay/internal/model"
	"gorm.io/gorm"
)

type SessionRepository interface {
	CreateWithQuestions(session *model.InterviewSession) error
	FindByID(id uint) (*model.InterviewSession, error)
	FindByIDWithQuestions(id uint) (*model.InterviewSession, error)
	FindActiveByResumeID(resumeID uint) (*model.InterviewSession, error)
	RecordAnswerAndAdvance(sessionID uint, fromIndex int, answer string, newStatus string) error
	UpdateQuestionGrade(sessionID uint, questionIndex int, score float64, feedback string) error
	CompleteEarly(sessionID uint, fromIndex int, feedback string) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// CreateWithQuestions persists the session and its full question sequence in
// one transaction; nothing is written if any insert fails.
func (r *sessionRepository) CreateWithQuestions(session *model.InterviewSession) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(session).Error
	})
}

func (r *sessionRepository) FindByID(id uint) (*model.InterviewSession, error) {
	var session model.InterviewSession
	if err := r.db.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindByIDWithQuestions(id uint) (*model.InterviewSession, error) {
	var session model.InterviewSession
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("interview_questions.question_index ASC")
	}).First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindActiveByResumeID(resumeID uint) (*model.InterviewSession, error) {
	var session model.InterviewSession
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("interview_questions.question_index ASC")
	}).Where("resume_id = ? AND status <> ?", resumeID, model.SessionCompleted).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// RecordAnswerAndAdvance records the answer at fromIndex and moves the cursor
// to fromIndex+1 in one transaction. The cursor update is a compare-and-swap on
// (id, current_index, status): of two submissions racing for the same index,
// exactly one sees its row updated and the other gets ErrIndexMismatch.
func (r *sessionRepository) RecordAnswerAndAdvance(sessionID uint, fromIndex int, answer string, newStatus string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.InterviewSession{}).
			Where("id = ? AND current_index = ? AND status <> ?", sessionID, fromIndex, model.SessionCompleted).
			Updates(map[string]interface{}{
				"current_index": fromIndex + 1,
				"status":        newStatus,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrIndexMismatch
		}

		res = tx.Model(&model.InterviewQuestion{}).
			Where("session_id = ? AND question_index = ? AND user_answer IS NULL", sessionID, fromIndex).
			Update("user_answer", answer)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Answer already present for this index: never overwrite.
			return apperr.ErrIndexMismatch
		}
		return nil
	})
}

func (r *sessionRepository) UpdateQuestionGrade(sessionID uint, questionIndex int, score float64, feedback string) error {
	return r.db.Model(&model.InterviewQuestion{}).
		Where("session_id = ? AND question_index = ?", sessionID, questionIndex).
		Updates(map[string]interface{}{
			"score":    score,
			"feedback": feedback,
		}).Error
}

// CompleteEarly zero-fills every unanswered question from fromIndex onward and
// transitions the session to completed. Guarded against an already-completed
// session so concurrent calls settle on exactly one winner.
func (r *sessionRepository) CompleteEarly(sessionID uint, fromIndex int, feedback string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.InterviewSession{}).
			Where("id = ? AND status <> ?", sessionID, model.SessionCompleted).
			Update("status", model.SessionCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrSessionCompleted
		}

		zero := 0.0
		return tx.Model(&model.InterviewQuestion{}).
			Where("session_id = ? AND question_index >= ? AND score IS NULL", sessionID, fromIndex).
			Updates(map[string]interface{}{
				"score":    zero,
				"feedback": feedback,
			}).Error
	})
}
