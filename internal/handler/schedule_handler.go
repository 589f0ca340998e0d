package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ortegadev/autoescuela-api/internal/service"
	appErrors "github.com/ortegadev/autoescuela-api/pkg/errors"
	"github.com/ortegadev/autoescuela-api/pkg/response"
)

// ScheduleHandler exposes weekly schedule endpoints.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// List godoc
// @Summary List weekly schedules
// @Tags Schedules
// @Produce json
// @Param active query bool false "Only active weeks"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	weeks, err := h.schedules.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weeks, nil)
}

// Create godoc
// @Summary Create a weekly schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.CreateWeekRequest true "Week payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.CreateWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	week, err := h.schedules.CreateWeek(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, week)
}

// Candidates godoc
// @Summary List unassigned classes inside a week's date range
// @Tags Schedules
// @Produce json
// @Param id path int true "Week ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/candidates [get]
func (h *ScheduleHandler) Candidates(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule id"))
		return
	}
	classes, err := h.schedules.Candidates(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// ToggleActive godoc
// @Summary Toggle a week's active flag
// @Tags Schedules
// @Produce json
// @Param id path int true "Week ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/toggle [patch]
func (h *ScheduleHandler) ToggleActive(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule id"))
		return
	}
	week, err := h.schedules.ToggleActive(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// Assign godoc
// @Summary Assign classes to a weekly schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path int true "Week ID"
// @Param payload body service.AssignClassesRequest true "Class IDs"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/assign [post]
func (h *ScheduleHandler) Assign(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule id"))
		return
	}
	var req service.AssignClassesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assigned, err := h.schedules.Assign(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"assigned": assigned}, nil)
}

// Unassign godoc
// @Summary Detach a class from its weekly schedule
// @Tags Schedules
// @Produce json
// @Param classId path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/classes/{classId} [delete]
func (h *ScheduleHandler) Unassign(c *gin.Context) {
	classID, ok := idParam(c, "classId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class id"))
		return
	}
	if err := h.schedules.Unassign(c.Request.Context(), classID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "class unassigned"}, nil)
}

// Delete godoc
// @Summary Delete a weekly schedule
// @Tags Schedules
// @Produce json
// @Param id path int true "Week ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule id"))
		return
	}
	if err := h.schedules.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "schedule deleted"}, nil)
}
