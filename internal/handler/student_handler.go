package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ortegadev/autoescuela-api/internal/service"
	appErrors "github.com/ortegadev/autoescuela-api/pkg/errors"
	"github.com/ortegadev/autoescuela-api/pkg/response"
)

// StudentHandler exposes student profile and license endpoints.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// attachLicenseRequest is the license grant payload.
type attachLicenseRequest struct {
	CategoryID int64 `json:"category_id" binding:"required,gt=0"`
}

// Get godoc
// @Summary Fetch a student profile with licenses
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return
	}
	profile, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// AttachLicense godoc
// @Summary Grant a license category to a student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param payload body attachLicenseRequest true "Category"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/licenses [post]
func (h *StudentHandler) AttachLicense(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return
	}
	var req attachLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.students.AttachLicense(c.Request.Context(), id, req.CategoryID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "license attached"}, nil)
}

// DetachLicense godoc
// @Summary Revoke a license category from a student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param categoryId path int true "License category ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/licenses/{categoryId} [delete]
func (h *StudentHandler) DetachLicense(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return
	}
	categoryID, ok := idParam(c, "categoryId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid category id"))
		return
	}
	if err := h.students.DetachLicense(c.Request.Context(), id, categoryID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "license detached"}, nil)
}

// ListProfessors godoc
// @Summary List professors
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /professors [get]
func (h *StudentHandler) ListProfessors(c *gin.Context) {
	professors, err := h.students.ListProfessors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professors, nil)
}
