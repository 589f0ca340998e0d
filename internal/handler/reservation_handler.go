package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ortegadev/autoescuela-api/internal/models"
	"github.com/ortegadev/autoescuela-api/internal/service"
	appErrors "github.com/ortegadev/autoescuela-api/pkg/errors"
	"github.com/ortegadev/autoescuela-api/pkg/response"
)

// ReservationHandler exposes the seat-booking endpoints.
type ReservationHandler struct {
	reservations *service.ReservationService
}

// NewReservationHandler constructs ReservationHandler.
func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// Book godoc
// @Summary Book a seat in a class session
// @Tags Reservations
// @Accept json
// @Produce json
// @Param payload body service.BookRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /reservations [post]
func (h *ReservationHandler) Book(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reservation, err := h.reservations.Book(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reservation)
}

// BookAsAdmin godoc
// @Summary Book a seat on behalf of a student
// @Tags Reservations
// @Accept json
// @Produce json
// @Param payload body service.AdminBookRequest true "Admin booking payload"
// @Success 201 {object} response.Envelope
// @Router /reservations/admin/create [post]
func (h *ReservationHandler) BookAsAdmin(c *gin.Context) {
	var req service.AdminBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reservation, err := h.reservations.BookAsAdmin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reservation)
}

// ListMine godoc
// @Summary List the caller's active reservations
// @Tags Reservations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reservations/mine [get]
func (h *ReservationHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	reservations, err := h.reservations.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservations, nil)
}

// Cancel godoc
// @Summary Cancel an owned reservation
// @Tags Reservations
// @Produce json
// @Param id path int true "Reservation ID"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reservation id"))
		return
	}
	reservation, err := h.reservations.Cancel(c.Request.Context(), claims.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservation, nil)
}

// MarkAttendance godoc
// @Summary Record attendance on a reservation (owner or admin)
// @Tags Reservations
// @Accept json
// @Produce json
// @Param id path int true "Reservation ID"
// @Param payload body service.AttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id}/attendance [patch]
func (h *ReservationHandler) MarkAttendance(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reservation id"))
		return
	}
	var req service.AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	var (
		reservation *models.Reservation
		err         error
	)
	if claims.Role == models.RoleAdmin {
		reservation, err = h.reservations.MarkAttendanceAsAdmin(c.Request.Context(), id, req)
	} else {
		reservation, err = h.reservations.MarkAttendance(c.Request.Context(), claims.UserID, id, req)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservation, nil)
}
