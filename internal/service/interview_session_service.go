package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/lshigami/Margay/internal/apperr"
	"github.com/lshigami/Margay/internal/dto"
	"github.com/lshigami/Margay/internal/model"
	"github.com/lshigami/Margay/internal/repository"
)

// NonResponseFeedback is recorded on questions zero-filled by early completion.
const NonResponseFeedback = "No answer was provided for this question."

// InterviewSessionService owns the session lifecycle: creation with
// resumption lookup, index-gated answer submission and early completion.
type InterviewSessionService interface {
	CreateOrResume(ctx context.Context, resumeID uint, questionCount int) (*dto.SessionDTO, error)
	FindUnfinished(ctx context.Context, resumeID uint) (*dto.SessionDTO, error)
	SubmitAnswer(ctx context.Context, sessionID uint, questionIndex int, answer string) (*dto.SubmitAnswerDTO, error)
	CompleteEarly(ctx context.Context, sessionID uint) error
}

type interviewSessionService struct {
	resumeRepo  repository.ResumeRepository
	sessionRepo repository.SessionRepository
	llm         LLMService
	retry       RetryPolicy

	mu          sync.Mutex
	resumeLocks map[uint]*sync.Mutex
}

func NewInterviewSessionService(
	resumeRepo repository.ResumeRepository,
	sessionRepo repository.SessionRepository,
	llm LLMService,
	retry RetryPolicy,
) InterviewSessionService {
	return &interviewSessionService{
		resumeRepo:  resumeRepo,
		sessionRepo: sessionRepo,
		llm:         llm,
		retry:       retry,
		resumeLocks: make(map[uint]*sync.Mutex),
	}
}

// resumeLock returns the creation lock for a resume id. Holding it for the
// duration of create-or-resume enforces at most one active session per resume.
func (s *interviewSessionService) resumeLock(resumeID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.resumeLocks[resumeID]
	if !ok {
		lock = &sync.Mutex{}
		s.resumeLocks[resumeID] = lock
	}
	return lock
}

func (s *interviewSessionService) CreateOrResume(ctx context.Context, resumeID uint, questionCount int) (*dto.SessionDTO, error) {
	lock := s.resumeLock(resumeID)
	lock.Lock()
	defer lock.Unlock()

	resume, err := s.resumeRepo.FindByID(resumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrResumeNotFound
		}
		return nil, fmt.Errorf("load resume: %w", err)
	}

	active, err := s.sessionRepo.FindActiveByResumeID(resumeID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("active session lookup: %w", err)
	}
	if active != nil {
		log.Info().Uint("resumeID", resumeID).Uint("sessionID", active.ID).Int("cursor", active.CurrentIndex).Msg("Resuming existing interview session")
		return sessionToDTO(active, true), nil
	}

	var generated []GeneratedQuestion
	err = s.retry.Do(ctx, "generate_questions", func(ctx context.Context) error {
		var callErr error
		generated, callErr = s.llm.GenerateQuestions(ctx, resume.ResumeText, questionCount)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrGenerationFailed, err)
	}
	if len(generated) < questionCount {
		return nil, fmt.Errorf("%w: requested %d questions, got %d", apperr.ErrGenerationFailed, questionCount, len(generated))
	}
	generated = generated[:questionCount]

	session := &model.InterviewSession{
		ResumeID:      resumeID,
		QuestionCount: questionCount,
		CurrentIndex:  0,
		Status:        model.SessionNotStarted,
	}
	for i, q := range generated {
		session.Questions = append(session.Questions, model.InterviewQuestion{
			QuestionIndex: i,
			Text:          q.Text,
			Category:      q.Category,
		})
	}

	// All-or-nothing: no partial session survives a failed insert.
	if err := s.sessionRepo.CreateWithQuestions(session); err != nil {
		return nil, fmt.Errorf("persist interview session: %w", err)
	}

	log.Info().Uint("resumeID", resumeID).Uint("sessionID", session.ID).Int("questions", questionCount).Msg("Interview session created")
	return sessionToDTO(session, false), nil
}

// FindUnfinished returns the active session for a resume, or nil when there is
// none, so a caller can offer "continue" vs "start new" before committing.
func (s *interviewSessionService) FindUnfinished(ctx context.Context, resumeID uint) (*dto.SessionDTO, error) {
	session, err := s.sessionRepo.FindActiveByResumeID(resumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("active session lookup: %w", err)
	}
	return sessionToDTO(session, session.HasProgress()), nil
}

func (s *interviewSessionService) SubmitAnswer(ctx context.Context, sessionID uint, questionIndex int, answer string) (*dto.SubmitAnswerDTO, error) {
	session, err := s.sessionRepo.FindByIDWithQuestions(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !session.Active() {
		return nil, apperr.ErrSessionCompleted
	}
	if questionIndex != session.CurrentIndex {
		return nil, fmt.Errorf("%w: submitted %d, cursor at %d", apperr.ErrIndexMismatch, questionIndex, session.CurrentIndex)
	}
	if questionIndex < 0 || questionIndex >= len(session.Questions) {
		return nil, fmt.Errorf("%w: index %d out of range", apperr.ErrIndexMismatch, questionIndex)
	}

	newIndex := questionIndex + 1
	newStatus := model.SessionInProgress
	if newIndex >= session.QuestionCount {
		newStatus = model.SessionCompleted
	}

	// The answer is made durable before the blocking grading call so a grading
	// timeout never loses user input. The CAS inside serializes racers.
	if err := s.sessionRepo.RecordAnswerAndAdvance(sessionID, questionIndex, answer, newStatus); err != nil {
		if errors.Is(err, apperr.ErrIndexMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("record answer: %w", err)
	}

	result := &dto.SubmitAnswerDTO{
		HasNextQuestion: newIndex < session.QuestionCount,
		SessionStatus:   newStatus,
	}
	if result.HasNextQuestion {
		next := session.Questions[newIndex]
		result.NextQuestion = &dto.QuestionDTO{
			QuestionIndex: next.QuestionIndex,
			Text:          next.Text,
			Category:      next.Category,
		}
	}

	question := session.Questions[questionIndex]
	var grade *AnswerGrade
	gradeErr := s.retry.Do(ctx, "grade_answer", func(ctx context.Context) error {
		var callErr error
		grade, callErr = s.llm.GradeAnswer(ctx, question.Text, answer)
		return callErr
	})
	if gradeErr != nil {
		// Answer stays recorded; scoring is recomputed lazily at report time.
		log.Warn().Err(gradeErr).Uint("sessionID", sessionID).Int("questionIndex", questionIndex).Msg("Grading deferred after retry exhaustion")
		result.Graded = false
		return result, nil
	}

	if err := s.sessionRepo.UpdateQuestionGrade(sessionID, questionIndex, grade.Score, grade.Feedback); err != nil {
		log.Error().Err(err).Uint("sessionID", sessionID).Int("questionIndex", questionIndex).Msg("Failed to persist grade, deferring to report time")
		result.Graded = false
		return result, nil
	}

	result.Graded = true
	result.Score = &grade.Score
	result.Feedback = grade.Feedback
	return result, nil
}

// CompleteEarly scores every question from the cursor onward as zero with
// non-response feedback and moves the session to its terminal state. The
// cursor is left where it was.
func (s *interviewSessionService) CompleteEarly(ctx context.Context, sessionID uint) error {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrSessionNotFound
		}
		return fmt.Errorf("load session: %w", err)
	}
	if !session.Active() {
		return apperr.ErrSessionCompleted
	}

	if err := s.sessionRepo.CompleteEarly(sessionID, session.CurrentIndex, NonResponseFeedback); err != nil {
		if errors.Is(err, apperr.ErrSessionCompleted) {
			return err
		}
		return fmt.Errorf("complete session early: %w", err)
	}
	log.Info().Uint("sessionID", sessionID).Int("cursor", session.CurrentIndex).Msg("Interview session completed early")
	return nil
}

func sessionToDTO(session *model.InterviewSession, resumed bool) *dto.SessionDTO {
	var out dto.SessionDTO
	if err := copier.Copy(&out, session); err != nil {
		log.Error().Err(err).Uint("sessionID", session.ID).Msg("Failed to copy session to DTO")
	}
	out.Resumed = resumed
	if session.Status != model.SessionCompleted && session.CurrentIndex < len(session.Questions) {
		current := session.Questions[session.CurrentIndex]
		out.CurrentQuestion = &dto.QuestionDTO{
			QuestionIndex: current.QuestionIndex,
			Text:          current.Text,
			Category:      current.Category,
		}
	}
	return &out
}
