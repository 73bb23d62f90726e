package repository

import (
	"github.com/lshigami/Margay/internal/model"
	"gorm.io/gorm"
)

type ReportRepository interface {
	Create(report *model.InterviewReport) error
	FindBySessionID(sessionID uint) (*model.InterviewReport, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(report *model.InterviewReport) error {
	return r.db.Create(report).Error
}

func (r *reportRepository) FindBySessionID(sessionID uint) (*model.InterviewReport, error) {
	var report model.InterviewReport
	if err := r.db.Where("session_id = ?", sessionID).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}
