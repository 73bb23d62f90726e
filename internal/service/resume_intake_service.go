package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lshigami/Margay/internal/apperr"
	"github.com/lshigami/Margay/internal/dto"
	"github.com/lshigami/Margay/internal/extract"
	"github.com/lshigami/Margay/internal/fingerprint"
	"github.com/lshigami/Margay/internal/model"
	"github.com/lshigami/Margay/internal/repository"
	"github.com/lshigami/Margay/internal/storage"
)

// ResumeIntakeService validates, deduplicates and records uploaded resumes.
// Repeated upload of content-identical documents is idempotent: no second
// storage write, no second analysis call.
type ResumeIntakeService interface {
	Intake(ctx context.Context, fileBytes []byte, filename string) (*dto.UploadResumeDTO, error)
	Delete(ctx context.Context, resumeID uint) error
}

type resumeIntakeService struct {
	resumeRepo repository.ResumeRepository
	store      storage.ObjectStorage
	llm        LLMService
	retry      RetryPolicy
}

func NewResumeIntakeService(
	resumeRepo repository.ResumeRepository,
	store storage.ObjectStorage,
	llm LLMService,
	retry RetryPolicy,
) ResumeIntakeService {
	return &resumeIntakeService{
		resumeRepo: resumeRepo,
		store:      store,
		llm:        llm,
		retry:      retry,
	}
}

func (s *resumeIntakeService) Intake(ctx context.Context, fileBytes []byte, filename string) (*dto.UploadResumeDTO, error) {
	if len(fileBytes) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", apperr.ErrExtractionFailed)
	}
	if !extract.AllowedExtension(filename) {
		return nil, fmt.Errorf("%w: unsupported file type %q", apperr.ErrExtractionFailed, filepath.Ext(filename))
	}

	text, err := extract.Text(filename, fileBytes)
	if err != nil {
		return nil, err
	}

	fp := fingerprint.Compute(text)

	existing, err := s.resumeRepo.FindByFingerprint(fp)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fingerprint lookup: %w", err)
	}
	if existing != nil {
		log.Info().Uint("resumeID", existing.ID).Str("fingerprint", fp).Msg("Duplicate resume detected, returning cached analysis")
		return s.duplicateResult(ctx, existing)
	}

	// First sight: blob first, then the record, then analysis.
	key := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if err := s.store.Put(ctx, key, fileBytes, contentType); err != nil {
		return nil, fmt.Errorf("store resume blob: %w", err)
	}
	fileURL, err := s.store.URL(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Could not build public URL for stored resume")
		fileURL = ""
	}

	resume := &model.Resume{
		Fingerprint: fp,
		FileName:    filename,
		StorageKey:  key,
		StorageURL:  fileURL,
		ResumeText:  text,
	}
	if err := s.resumeRepo.Create(resume); err != nil {
		return nil, fmt.Errorf("create resume record: %w", err)
	}

	analysis, err := s.analyzeAndPersist(ctx, resume)
	if err != nil {
		return nil, err
	}

	log.Info().Uint("resumeID", resume.ID).Str("file", filename).Int("score", analysis.OverallScore).Msg("Resume intake completed")
	return &dto.UploadResumeDTO{
		ResumeID:   resume.ID,
		FileKey:    resume.StorageKey,
		FileURL:    resume.StorageURL,
		Duplicate:  false,
		Analysis:   *analysis,
		UploadedAt: resume.CreatedAt,
	}, nil
}

func (s *resumeIntakeService) duplicateResult(ctx context.Context, resume *model.Resume) (*dto.UploadResumeDTO, error) {
	var analysisDTO *dto.AnalysisDTO

	cached, err := s.resumeRepo.LatestAnalysis(resume.ID)
	switch {
	case err == nil:
		analysisDTO = analysisModelToDTO(cached)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// A previous intake persisted the record but failed before the
		// analysis landed; regenerate now.
		analysisDTO, err = s.analyzeAndPersist(ctx, resume)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("load cached analysis: %w", err)
	}

	return &dto.UploadResumeDTO{
		ResumeID:   resume.ID,
		FileKey:    resume.StorageKey,
		FileURL:    resume.StorageURL,
		Duplicate:  true,
		Analysis:   *analysisDTO,
		UploadedAt: resume.CreatedAt,
	}, nil
}

func (s *resumeIntakeService) analyzeAndPersist(ctx context.Context, resume *model.Resume) (*dto.AnalysisDTO, error) {
	var result *ResumeAnalysisResult
	err := s.retry.Do(ctx, "analyze_resume", func(ctx context.Context) error {
		var callErr error
		result, callErr = s.llm.AnalyzeResume(ctx, resume.ResumeText)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrGenerationFailed, err)
	}

	analysis := &model.ResumeAnalysis{
		ResumeID:     resume.ID,
		OverallScore: result.OverallScore,
		Summary:      result.Summary,
		Strengths:    mustJSON(result.Strengths),
		Weaknesses:   mustJSON(result.Weaknesses),
		Sections:     mustJSON(result.Sections),
	}
	if err := s.resumeRepo.CreateAnalysis(analysis); err != nil {
		return nil, fmt.Errorf("persist resume analysis: %w", err)
	}

	return &dto.AnalysisDTO{
		OverallScore: result.OverallScore,
		Summary:      result.Summary,
		Strengths:    result.Strengths,
		Weaknesses:   result.Weaknesses,
		Sections:     result.Sections,
	}, nil
}

// Delete removes the stored blob best-effort, then cascades record deletion.
// A storage failure is logged and does not block the record cleanup.
func (s *resumeIntakeService) Delete(ctx context.Context, resumeID uint) error {
	resume, err := s.resumeRepo.FindByID(resumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrResumeNotFound
		}
		return fmt.Errorf("load resume: %w", err)
	}

	if resume.StorageKey != "" {
		if err := s.store.Delete(ctx, resume.StorageKey); err != nil {
			log.Warn().Err(err).Str("key", resume.StorageKey).Msg("Failed to delete stored resume file, continuing with record deletion")
		}
	}

	if err := s.resumeRepo.Delete(resumeID); err != nil {
		return fmt.Errorf("delete resume record: %w", err)
	}
	log.Info().Uint("resumeID", resumeID).Msg("Resume deleted")
	return nil
}

func analysisModelToDTO(analysis *model.ResumeAnalysis) *dto.AnalysisDTO {
	out := &dto.AnalysisDTO{
		OverallScore: analysis.OverallScore,
		Summary:      analysis.Summary,
	}
	unmarshalColumn(analysis.Strengths, &out.Strengths, "strengths")
	unmarshalColumn(analysis.Weaknesses, &out.Weaknesses, "weaknesses")
	unmarshalColumn(analysis.Sections, &out.Sections, "sections")
	return out
}

func mustJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON column value")
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}

// unmarshalColumn decodes a stored JSON column into out. Columns are written
// through mustJSON so a decode failure means the stored row was tampered with
// or truncated; the response falls back to an empty value for that field.
func unmarshalColumn(data datatypes.JSON, out interface{}, column string) {
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Warn().Err(err).Str("column", column).Msg("Failed to decode stored JSON column")
	}
}
