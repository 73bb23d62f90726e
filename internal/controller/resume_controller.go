package controller

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Margay/internal/dto"
	"github.com/lshigami/Margay/internal/service"
	"github.com/rs/zerolog/log"
)

// 10 MiB cap on uploaded resume files.
const maxResumeSize = 10 << 20

type ResumeController struct {
	intakeSvc service.ResumeIntakeService
}

func NewResumeController(intakeSvc service.ResumeIntakeService) *ResumeController {
	return &ResumeController{intakeSvc: intakeSvc}
}

func (ctrl *ResumeController) RegisterRoutes(apiV1 *gin.RouterGroup) {
	resumes := apiV1.Group("/resumes")
	resumes.POST("", ctrl.UploadResumeHandler)
	resumes.DELETE("/:resume_id", ctrl.DeleteResumeHandler)

	apiV1.GET("/health", ctrl.HealthHandler)
}

// UploadResumeHandler godoc
// @Summary Upload a resume and get an AI critique
// @Description Accepts a PDF, TXT or Markdown resume. Re-uploading the same content (ignoring whitespace and casing) returns the existing record with its cached critique instead of creating a duplicate.
// @Tags resumes
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Resume file (.pdf, .txt or .md)"
// @Success 200 {object} dto.UploadResumeDTO "Duplicate content, existing record returned"
// @Success 201 {object} dto.UploadResumeDTO "New resume stored and analyzed"
// @Failure 400 {object} dto.ErrorResponse "Missing file, unsupported type or unreadable document"
// @Failure 502 {object} dto.ErrorResponse "Resume analysis unavailable"
// @Router /resumes [post]
func (ctrl *ResumeController) UploadResumeHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "A 'file' form field is required"})
		return
	}
	if fileHeader.Size > maxResumeSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Resume file exceeds the 10MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to read uploaded file"})
		return
	}

	result, err := ctrl.intakeSvc.Intake(c.Request.Context(), fileBytes, fileHeader.Filename)
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Resume intake failed")
		c.JSON(statusFor(err), dto.ErrorResponse{Message: "Failed to process resume", Details: []string{err.Error()}})
		return
	}

	if result.Duplicate {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// DeleteResumeHandler godoc
// @Summary Delete a resume
// @Description Removes the resume, its critique, and every interview session derived from it. The stored file is deleted best-effort.
// @Tags resumes
// @Param resume_id path int true "Resume ID"
// @Success 204 "No Content"
// @Failure 400 {object} dto.ErrorResponse "Invalid resume ID format"
// @Failure 404 {object} dto.ErrorResponse "Resume not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /resumes/{resume_id} [delete]
func (ctrl *ResumeController) DeleteResumeHandler(c *gin.Context) {
	resumeID, err := strconv.ParseUint(c.Param("resume_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid resume ID format"})
		return
	}

	if err := ctrl.intakeSvc.Delete(c.Request.Context(), uint(resumeID)); err != nil {
		log.Error().Err(err).Uint64("resumeID", resumeID).Msg("Failed to delete resume")
		c.JSON(statusFor(err), dto.ErrorResponse{Message: "Failed to delete resume", Details: []string{err.Error()}})
		return
	}
	c.Status(http.StatusNoContent)
}

// HealthHandler godoc
// @Summary Service health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (ctrl *ResumeController) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
