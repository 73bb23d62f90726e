package repository

import (
	"github.com/lshigami/Margay/internal/model"
	"gorm.io/gorm"
)

type ResumeRepository interface {
	Create(resume *model.Resume) error
	FindByID(id uint) (*model.Resume, error)
	FindByFingerprint(fingerprint string) (*model.Resume, error)
	LatestAnalysis(resumeID uint) (*model.ResumeAnalysis, error)
	CreateAnalysis(analysis *model.ResumeAnalysis) error
	Delete(id uint) error
}

type resumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) ResumeRepository {
	return &resumeRepository{db: db}
}

func (r *resumeRepository) Create(resume *model.Resume) error {
	return r.db.Create(resume).Error
}

func (r *resumeRepository) FindByID(id uint) (*model.Resume, error) {
	var resume model.Resume
	if err := r.db.First(&resume, id).Error; err != nil {
		return nil, err
	}
	return &resume, nil
}

func (r *resumeRepository) FindByFingerprint(fingerprint string) (*model.Resume, error) {
	var resume model.Resume
	if err := r.db.Where("fingerprint = ?", fingerprint).First(&resume).Error; err != nil {
		return nil, err
	}
	return &resume, nil
}

// LatestAnalysis returns the canonical (most recent) analysis for a resume.
func (r *resumeRepository) LatestAnalysis(resumeID uint) (*model.ResumeAnalysis, error) {
	var analysis model.ResumeAnalysis
	err := r.db.Where("resume_id = ?", resumeID).Order("created_at DESC").First(&analysis).Error
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (r *resumeRepository) CreateAnalysis(analysis *model.ResumeAnalysis) error {
	return r.db.Create(analysis).Error
}

// Delete removes the resume together with its analyses, sessions, questions
// and reports in a single transaction. The rows are removed outright rather
// than soft-deleted: a soft-deleted resume would keep its fingerprint in the
// unique index and block re-uploading the same content.
func (r *resumeRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var sessionIDs []uint
		if err := tx.Model(&model.InterviewSession{}).Where("resume_id = ?", id).Pluck("id", &sessionIDs).Error; err != nil {
			return err
		}
		if len(sessionIDs) > 0 {
			if err := tx.Unscoped().Where("session_id IN ?", sessionIDs).Delete(&model.InterviewReport{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("session_id IN ?", sessionIDs).Delete(&model.InterviewQuestion{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Delete(&model.InterviewSession{}, sessionIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("resume_id = ?", id).Delete(&model.ResumeAnalysis{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Resume{}, id).Error
	})
}
