package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ResumeAnalysis is immutable once created. A resume may be re-analyzed, in
// which case the latest row is canonical.
type ResumeAnalysis struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	ResumeID     uint           `json:"resume_id" gorm:"not null;index"`
	OverallScore int            `json:"overall_score" gorm:"not null"`
	Summary      string         `json:"summary" gorm:"type:text"`
	Strengths    datatypes.JSON `json:"strengths"`
	Weaknesses   datatypes.JSON `json:"weaknesses"`
	Sections     datatypes.JSON `json:"sections"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
