package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/middleware"
	"github.com/jo-service/marketplace-backend/internal/services"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
)

type RatingHandler struct {
	ratings *services.RatingService
}

func NewRatingHandler(ratings *services.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

type CreateRatingInput struct {
	ProviderID string `json:"providerId"`
	BookingID  string `json:"bookingId"`
	Rating     int    `json:"rating"`
	Review     string `json:"review"`
}

// Create POST /ratings/provider
func (h *RatingHandler) Create(c *gin.Context) {
	var input CreateRatingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.BadRequest("Provider ID, booking ID, and rating are required"))
		return
	}

	userID, _ := middleware.Participant(c)
	rating, err := h.ratings.Create(c.Request.Context(), userID, services.CreateRatingInput{
		ProviderID: input.ProviderID,
		BookingID:  input.BookingID,
		Score:      input.Rating,
		Review:     input.Review,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, rating)
}

// Check GET /ratings/check/:bookingId
func (h *RatingHandler) Check(c *gin.Context) {
	userID, _ := middleware.Participant(c)
	rated, err := h.ratings.HasRated(c.Request.Context(), c.Param("bookingId"), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasRated": rated})
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return page, limit
}

// ForProvider GET /ratings/provider/:providerId
func (h *RatingHandler) ForProvider(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.ratings.ListForProvider(c.Request.Context(), c.Param("providerId"), page, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Mine GET /ratings/user
func (h *RatingHandler) Mine(c *gin.Context) {
	userID, _ := middleware.Participant(c)
	page, limit := pageParams(c)
	result, err := h.ratings.ListForUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
