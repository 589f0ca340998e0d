package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ortegadev/autoescuela-api/internal/models"
	"github.com/ortegadev/autoescuela-api/internal/service"
	appErrors "github.com/ortegadev/autoescuela-api/pkg/errors"
	"github.com/ortegadev/autoescuela-api/pkg/response"
)

// ClassHandler exposes class session endpoints.
type ClassHandler struct {
	classes *service.ClassService
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes *service.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

// List godoc
// @Summary List class sessions
// @Tags Classes
// @Produce json
// @Param subjectId query int false "Filter by subject"
// @Param professorId query int false "Filter by professor"
// @Param scheduleId query int false "Filter by weekly schedule"
// @Param from query string false "Date from (YYYY-MM-DD)"
// @Param to query string false "Date to (YYYY-MM-DD)"
// @Param open query bool false "Only open classes"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	var filter models.ClassFilter
	if v, err := strconv.ParseInt(c.Query("subjectId"), 10, 64); err == nil {
		filter.SubjectID = v
	}
	if v, err := strconv.ParseInt(c.Query("professorId"), 10, 64); err == nil {
		filter.ProfessorID = v
	}
	if v, err := strconv.ParseInt(c.Query("scheduleId"), 10, 64); err == nil {
		filter.ScheduleID = &v
	}
	if v, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		filter.DateFrom = &v
	}
	if v, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		filter.DateTo = &v
	}
	filter.OnlyOpen = c.Query("open") == "true"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	classes, pagination, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Fetch a class session
// @Tags Classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class id"))
		return
	}
	class, err := h.classes.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Create godoc
// @Summary Create a class session
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Delete godoc
// @Summary Delete a class session and its reservations
// @Tags Classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class id"))
		return
	}
	if err := h.classes.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "class deleted"}, nil)
}

// Roster godoc
// @Summary Download the attendance sheet for a class
// @Tags Classes
// @Produce application/pdf
// @Param id path int true "Class ID"
// @Success 200 {file} binary
// @Router /classes/{id}/roster.pdf [get]
func (h *ClassHandler) Roster(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class id"))
		return
	}
	payload, filename, err := h.classes.RosterPDF(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", payload)
}

// RosterCSV godoc
// @Summary Download the attendance sheet for a class as CSV
// @Tags Classes
// @Produce text/csv
// @Param id path int true "Class ID"
// @Success 200 {file} binary
// @Router /classes/{id}/roster.csv [get]
func (h *ClassHandler) RosterCSV(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class id"))
		return
	}
	payload, filename, err := h.classes.RosterCSV(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", payload)
}
