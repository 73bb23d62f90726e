package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Margay/internal/dto"
	"github.com/lshigami/Margay/internal/service"
	"github.com/rs/zerolog/log"
)

type InterviewController struct {
	sessionSvc service.InterviewSessionService
	reportSvc  service.ReportService
}

func NewInterviewController(sessionSvc service.InterviewSessionService, reportSvc service.ReportService) *InterviewController {
	return &InterviewController{
		sessionSvc: sessionSvc,
		reportSvc:  reportSvc,
	}
}

func (ctrl *InterviewController) RegisterRoutes(apiV1 *gin.RouterGroup) {
	resumes := apiV1.Group("/resumes")
	resumes.GET("/:resume_id/unfinished-session", ctrl.GetUnfinishedSessionHandler)
	resumes.POST("/:resume_id/sessions", ctrl.CreateSessionHandler)

	sessions := apiV1.Group("/sessions")
	sessions.POST("/:session_id/answers", ctrl.SubmitAnswerHandler)
	sessions.POST("/:session_id/complete", ctrl.CompleteSessionHandler)
	sessions.GET("/:session_id/report", ctrl.GetReportHandler)
}

// CreateSessionHandler godoc
// @Summary Start or resume an interview session
// @Description Generates a fresh set of questions for the resume. If the resume already has a session in progress, that session is returned instead of creating a second one.
// @Tags sessions
// @Accept json
// @Produce json
// @Param resume_id path int true "Resume ID"
// @Param session body dto.CreateSessionRequest true "Requested question count (1-20)"
// @Success 200 {object} dto.SessionDTO "Existing in-progress session resumed"
// @Success 201 {object} dto.SessionDTO "New session created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request body or resume ID"
// @Failure 404 {object} dto.ErrorResponse "Resume not found"
// @Failure 502 {object} dto.ErrorResponse "Question generation unavailable"
// @Router /resumes/{resume_id}/sessions [post]
func (ctrl *InterviewController) CreateSessionHandler(c *gin.Context) {
	resumeID, err := strconv.ParseUint(c.Param("resume_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid resume ID format"})
		return
	}

	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind CreateSessionRequest")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	session, err := ctrl.sessionSvc.CreateOrResume(c.Request.Context(), uint(resumeID), req.QuestionCount)
	if err != nil {
		log.Error().Err(err).Uint64("resumeID", resumeID).Msg("Failed to create interview session")
		c.JSON(statusFor(err), dto.ErrorResponse{Message: "Failed to create interview session", Details: []string{err.Error()}})
		return
	}

	if session.Resumed {
		c.JSON(http.StatusOK, session)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetUnfinishedSessionHandler godoc
// @Summary Look up an unfinished session for a resume
// @Description Returns the session a client can offer to resume, or 204 when the resume has no session in progress.
// @Tags sessions
// @Produce json
// @Param resume_id path int true "Resume ID"
// @Success 200 {object} dto.SessionDTO
// @Success 204 "No unfinished session"
// @Failure 400 {object} dto.ErrorResponse "Invalid resume ID format"
// @Failure 404 {object} dto.ErrorResponse "Resume not found"
// @Router /resumes/{resume_id}/unfinished-session [get]
func (ctrl *InterviewController) GetUnfinishedSessionHandler(c *gin.Context) {
	resumeID, err := strconv.ParseUint(c.Param("resume_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid resume ID format"})
		return
	}

	session, err := ctrl.sessionSvc.FindUnfinished(c.Request.Context(), uint(resumeID))
	if err != nil {
		log.Error().Err(err).Uint64("resumeID", resumeID).Msg("Failed to look up unfinished session")
		c.JSON(statusFor(err), dto.ErrorResponse{Message: "Failed to look up unfinished session", Details: []string{err.Error()}})
		return
	}
	if session == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, session)
}

// SubmitAnswerHandler godoc
// @Summary Submit an answer for the session's current question
// @Description Records the answer, grades it, and advances the cursor. The question index must match the session's current position; a stale index means another submission already advanced the session.
// @Tags sessions
// @Accept json
// @Produce json
// @Param session_id path int true "Session ID"
// @Param answer body dto.SubmitAnswerRequest true "Question index and answer text"
// @Success 200 {object} dto.SubmitAnswerDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request body or session ID"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session already completed, or question index out of step"
// @Router /sessions/{session_id}/answers [post]
func (ctrl *InterviewController) SubmitAnswerHandler(c *gin.Context) {
	sessionID, err := strconv.ParseUint(c.Param("session_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid session ID format"})
		return
	}

	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind SubmitAnswerRequest")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	result, err := ctrl.sessionSvc.SubmitAnswer(c.Request.Context(), uint(sessionID), *req.QuestionIndex, req.Answer)
	if err != nil {
		log.Error().Err(err).Uint64("sessionID", sessionID).Int("questionIndex", *req.QuestionIndex).Msg("Failed to submit answer")
		c.JSON(statusFor(err), dto.ErrorResponse{Message: "Failed to submit answer", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, result)
}

// CompleteSessionHandler godoc
// @Summary End a session before all questions are answered
// @Description Marks the session completed. Unanswered questions score zero and are flagged as not answered in the report.
// @Tags sessions
// @Param session_id path int true "Session ID"
// @Success 204 "No Content"
// @Failure 400 {object} dto.ErrorResponse "Invalid session ID format"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session already completed"
// @Router /sessions/{session_id}/complete [post]
func (ctrl *InterviewController) CompleteSessionHandler(c *gin.Context) {
	sessionID, err := strconv.ParseUint(c.Param("session_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid session ID format"})
		return
	}

	if err := ctrl.sessionSvc.CompleteEarly(c.Request.Context(), uint(sessionID)); err != nil {
		log.Error().Err(err).Uint64("sessionID", sessionID).Msg("Failed to complete session")
		c.JSON(statusFor(err), dto.ErrorResponse{Message: "Failed to complete session", Details: []string{err.Error()}})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetReportHandler godoc
// @Summary Get the scored report for a completed session
// @Description Synthesizes the report on first request and returns the stored copy on every request after that. Requesting a report for a session still in progress is a conflict.
// @Tags sessions
// @Produce json
// @Param session_id path int true "Session ID"
// @Success 200 {object} dto.ReportDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid session ID format"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session not completed yet"
// @Failure 502 {object} dto.ErrorResponse "Report synthesis unavailable"
// @Router /sessions/{session_id}/report [get]
func (ctrl *InterviewController) GetReportHandler(c *gin.Context) {
	sessionID, err := strconv.ParseUint(c.Param("session_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid session ID format"})
		return
	}

	report, err := ctrl.reportSvc.GetReport(c.Request.Context(), uint(sessionID))
	if err != nil {
		log.Error().Err(err).Uint64("sessionID", sessionID).Msg("Failed to build interview report")
		c.JSON(statusFor(err), dto.ErrorResponse{Message: "Failed to build interview report", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, report)
}
