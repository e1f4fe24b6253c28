package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/middleware"
	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/internal/services"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
	"github.com/jo-service/marketplace-backend/pkg/utils"
)

type BookingHandler struct {
	bookings *services.BookingService
}

func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

func actorFrom(c *gin.Context) services.Actor {
	id, participantType := middleware.Participant(c)
	actor := services.Actor{ID: id, Role: participantType}
	if claims := middleware.Claims(c); claims != nil && claims.Type == utils.TypeUser {
		actor.IsAdmin = claims.Role == string(models.RoleAdmin)
	}
	return actor
}

func listOptions(c *gin.Context) services.BookingListOptions {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return services.BookingListOptions{
		Status: models.BookingStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	}
}

// bookingID reads the :id path parameter, rejecting values that cannot be a booking id.
func bookingID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		c.Error(apperrors.BadRequest("Invalid booking ID."))
		return "", false
	}
	return id, true
}

type CreateBookingInput struct {
	ProviderID             string    `json:"providerId" binding:"required"`
	ServiceDateTime        time.Time `json:"serviceDateTime" binding:"required"`
	ServiceLocationDetails string    `json:"serviceLocationDetails"`
	UserNotes              string    `json:"userNotes"`
	Photos                 []string  `json:"photos"`
}

// Create books a provider on behalf of the authenticated user
func (h *BookingHandler) Create(c *gin.Context) {
	var input CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.BadRequest("Provider and service date/time are required."))
		return
	}

	userID, _ := middleware.Participant(c)
	booking, err := h.bookings.Create(c.Request.Context(), userID, services.CreateBookingInput{
		ProviderID:             input.ProviderID,
		ServiceDateTime:        input.ServiceDateTime,
		ServiceLocationDetails: input.ServiceLocationDetails,
		UserNotes:              input.UserNotes,
		Photos:                 input.Photos,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) ListForUser(c *gin.Context) {
	userID, _ := middleware.Participant(c)
	page, err := h.bookings.ListForUser(c.Request.Context(), userID, listOptions(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *BookingHandler) ListForProvider(c *gin.Context) {
	providerID, _ := middleware.Participant(c)
	page, err := h.bookings.ListForProvider(c.Request.Context(), providerID, listOptions(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	actor := actorFrom(c)
	booking, err := h.bookings.Get(c.Request.Context(), id, actor)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking":            booking,
		"allowedTransitions": services.AllowedTransitions(actor.Role, booking.Status),
	})
}

type UpdateStatusInput struct {
	Status string `json:"status"`
}

// UpdateStatus answers 400 for an unknown status, 403 for a foreign booking
// or an illegal transition, 404 for an unknown booking and 409 when the
// booking changed underneath the request.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Status == "" {
		c.Error(apperrors.BadRequest("Invalid status provided."))
		return
	}

	booking, err := h.bookings.UpdateStatus(c.Request.Context(), id, actorFrom(c), models.BookingStatus(input.Status))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type ReassignInput struct {
	NewProviderID string `json:"newProviderId" binding:"required"`
	Reason        string `json:"reason"`
}

func (h *BookingHandler) Reassign(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var input ReassignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.BadRequest("New provider ID is required"))
		return
	}

	booking, err := h.bookings.Reassign(c.Request.Context(), id, actorFrom(c), input.NewProviderID, utils.SanitizeNotes(input.Reason))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// AuditTrail lists the administrative actions recorded for a booking
func (h *BookingHandler) AuditTrail(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	actions, err := h.bookings.AuditTrail(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}
