package apperr

import "errors"

// Engine error taxonomy. Controllers map these to HTTP statuses; services wrap
// them with fmt.Errorf("...: %w", ...) so callers match with errors.Is.
var (
	// ErrExtractionFailed means the uploaded document yielded no usable text.
	// Terminal: the user must re-upload a different file.
	ErrExtractionFailed = errors.New("resume text extraction failed")

	// ErrGenerationFailed means the AI backend could not produce the requested
	// question set. The caller may retry session creation.
	ErrGenerationFailed = errors.New("question generation failed")

	ErrResumeNotFound  = errors.New("resume not found")
	ErrSessionNotFound = errors.New("interview session not found")

	// ErrSessionCompleted rejects submissions and early completion against a
	// session that already reached its terminal state.
	ErrSessionCompleted = errors.New("interview session already completed")

	// ErrIndexMismatch rejects a submission whose question index does not equal
	// the session cursor (stale tab, duplicate retry, lost race).
	ErrIndexMismatch = errors.New("question index does not match session cursor")

	// ErrSessionNotCompleted rejects report requests for in-progress sessions.
	ErrSessionNotCompleted = errors.New("interview session is not completed")

	// ErrSynthesisFailed means report generation failed after the session
	// completed. The session stays COMPLETED and GetReport may be retried.
	ErrSynthesisFailed = errors.New("report synthesis failed")
)
