package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/lshigami/Margay/internal/apperr"
	"github.com/lshigami/Margay/internal/dto"
	"github.com/lshigami/Margay/internal/model"
	"github.com/lshigami/Margay/internal/repository"
)

// ReportService aggregates a completed session into a cached report. The
// first request after completion computes and persists it; every later
// request returns the same object without recomputation.
type ReportService interface {
	GetReport(ctx context.Context, sessionID uint) (*dto.ReportDTO, error)
}

type reportService struct {
	sessionRepo repository.SessionRepository
	reportRepo  repository.ReportRepository
	llm         LLMService
	retry       RetryPolicy
	group       singleflight.Group
}

func NewReportService(
	sessionRepo repository.SessionRepository,
	reportRepo repository.ReportRepository,
	llm LLMService,
	retry RetryPolicy,
) ReportService {
	return &reportService{
		sessionRepo: sessionRepo,
		reportRepo:  reportRepo,
		llm:         llm,
		retry:       retry,
	}
}

func (s *reportService) GetReport(ctx context.Context, sessionID uint) (*dto.ReportDTO, error) {
	// Single-flight per session id: a client double-submitting the report
	// request triggers exactly one synthesis.
	result, err, _ := s.group.Do(fmt.Sprintf("report-%d", sessionID), func() (interface{}, error) {
		return s.getOrSynthesize(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*dto.ReportDTO), nil
}

func (s *reportService) getOrSynthesize(ctx context.Context, sessionID uint) (*dto.ReportDTO, error) {
	session, err := s.sessionRepo.FindByIDWithQuestions(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.Status != model.SessionCompleted {
		return nil, apperr.ErrSessionNotCompleted
	}

	cached, err := s.reportRepo.FindBySessionID(sessionID)
	if err == nil {
		return reportModelToDTO(cached), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cached report lookup: %w", err)
	}

	// Grading deferred during submission is settled now, before aggregation.
	if err := s.regradePending(ctx, session); err != nil {
		return nil, err
	}

	report, err := s.synthesize(ctx, session)
	if err != nil {
		// The session stays COMPLETED; the caller retries GetReport.
		return nil, err
	}

	if err := s.reportRepo.Create(report); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	log.Info().Uint("sessionID", sessionID).Float64("overallScore", report.OverallScore).Msg("Interview report synthesized")
	return reportModelToDTO(report), nil
}

// regradePending grades answered questions whose score never landed because
// per-answer grading exhausted its retries during submission.
func (s *reportService) regradePending(ctx context.Context, session *model.InterviewSession) error {
	for i := range session.Questions {
		q := &session.Questions[i]
		if q.Score != nil || q.UserAnswer == nil {
			continue
		}

		var grade *AnswerGrade
		err := s.retry.Do(ctx, "regrade_answer", func(ctx context.Context) error {
			var callErr error
			grade, callErr = s.llm.GradeAnswer(ctx, q.Text, *q.UserAnswer)
			return callErr
		})
		if err != nil {
			return fmt.Errorf("%w: deferred grading for question %d: %s", apperr.ErrSynthesisFailed, q.QuestionIndex, err)
		}
		if err := s.sessionRepo.UpdateQuestionGrade(session.ID, q.QuestionIndex, grade.Score, grade.Feedback); err != nil {
			return fmt.Errorf("persist deferred grade: %w", err)
		}
		q.Score = &grade.Score
		feedback := grade.Feedback
		q.Feedback = &feedback
	}
	return nil
}

type referenceAnswerResult struct {
	questionIndex int
	reference     *ReferenceAnswer
	err           error
}

func (s *reportService) synthesize(ctx context.Context, session *model.InterviewSession) (*model.InterviewReport, error) {
	tuples := make([]GradedTuple, 0, len(session.Questions))
	for _, q := range session.Questions {
		tuple := GradedTuple{
			QuestionIndex: q.QuestionIndex,
			Question:      q.Text,
			Category:      q.Category,
		}
		if q.UserAnswer != nil {
			tuple.Answer = *q.UserAnswer
		}
		if q.Score != nil {
			tuple.Score = *q.Score
		}
		if q.Feedback != nil {
			tuple.Feedback = *q.Feedback
		}
		tuples = append(tuples, tuple)
	}

	var synthesis *ReportSynthesis
	err := s.retry.Do(ctx, "synthesize_report", func(ctx context.Context) error {
		var callErr error
		synthesis, callErr = s.llm.SynthesizeReport(ctx, tuples)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrSynthesisFailed, err)
	}

	// Reference answers fan out per question, unanswered ones included.
	resultsChan := make(chan referenceAnswerResult, len(session.Questions))
	for _, q := range session.Questions {
		go func(q model.InterviewQuestion) {
			var reference *ReferenceAnswer
			refErr := s.retry.Do(ctx, "reference_answer", func(ctx context.Context) error {
				var callErr error
				reference, callErr = s.llm.ReferenceAnswer(ctx, q.Text)
				return callErr
			})
			resultsChan <- referenceAnswerResult{questionIndex: q.QuestionIndex, reference: reference, err: refErr}
		}(q)
	}

	references := make([]dto.ReferenceAnswerDTO, 0, len(session.Questions))
	for range session.Questions {
		res := <-resultsChan
		if res.err != nil {
			return nil, fmt.Errorf("%w: reference answer for question %d: %s", apperr.ErrSynthesisFailed, res.questionIndex, res.err)
		}
		references = append(references, dto.ReferenceAnswerDTO{
			QuestionIndex: res.questionIndex,
			Text:          res.reference.Text,
			KeyPoints:     res.reference.KeyPoints,
		})
	}
	close(resultsChan)
	sort.Slice(references, func(i, j int) bool {
		return references[i].QuestionIndex < references[j].QuestionIndex
	})

	details := make([]dto.QuestionDetailDTO, 0, len(session.Questions))
	for _, q := range session.Questions {
		var detail dto.QuestionDetailDTO
		if err := copier.Copy(&detail, &q); err != nil {
			return nil, fmt.Errorf("copy question detail: %w", err)
		}
		details = append(details, detail)
	}

	return &model.InterviewReport{
		SessionID:        session.ID,
		OverallScore:     OverallScore(session.Questions),
		CategoryScores:   mustJSON(CategoryScores(session.Questions)),
		OverallFeedback:  synthesis.OverallFeedback,
		Strengths:        mustJSON(synthesis.Strengths),
		Improvements:     mustJSON(synthesis.Improvements),
		QuestionDetails:  mustJSON(details),
		ReferenceAnswers: mustJSON(references),
	}, nil
}

func reportModelToDTO(report *model.InterviewReport) *dto.ReportDTO {
	out := &dto.ReportDTO{
		SessionID:       report.SessionID,
		OverallScore:    report.OverallScore,
		OverallFeedback: report.OverallFeedback,
		CreatedAt:       report.CreatedAt,
	}
	unmarshalColumn(report.CategoryScores, &out.CategoryScores, "category_scores")
	unmarshalColumn(report.Strengths, &out.Strengths, "strengths")
	unmarshalColumn(report.Improvements, &out.Improvements, "improvements")
	unmarshalColumn(report.QuestionDetails, &out.QuestionDetails, "question_details")
	unmarshalColumn(report.ReferenceAnswers, &out.ReferenceAnswers, "reference_answers")
	return out
}
