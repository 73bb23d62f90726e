package model

import (
	"time"

	"gorm.io/gorm"
)

// Resume identity is its content fingerprint: a stable hash over normalized
// extracted text, so formatting-only re-uploads still match. No two rows share
// a fingerprint.
type Resume struct {
	ID          uint               `gorm:"primarykey" json:"id"`
	Fingerprint string             `json:"fingerprint" gorm:"not null;uniqueIndex;size:64"`
	FileName    string             `json:"file_name" gorm:"not null"`
	StorageKey  string             `json:"storage_key"`
	StorageURL  string             `json:"storage_url"`
	ResumeText  string             `json:"resume_text" gorm:"type:text;not null"`
	Analyses    []ResumeAnalysis   `json:"analyses,omitempty" gorm:"foreignKey:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Sessions    []InterviewSession `json:"sessions,omitempty" gorm:"foreignKey:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"-"`
}
