package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/internal/services"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
	"github.com/jo-service/marketplace-backend/pkg/utils"
)

type AdminHandler struct {
	admin *services.AdminService
}

func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type ProviderStatusInput struct {
	Status          string `json:"status" binding:"required"`
	RejectionReason string `json:"rejectionReason"`
}

// UpdateProviderStatus PUT /admin/providers/:id/status
func (h *AdminHandler) UpdateProviderStatus(c *gin.Context) {
	var input ProviderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.BadRequest("Invalid verification status"))
		return
	}

	provider, err := h.admin.UpdateProviderStatus(c.Request.Context(), actorFrom(c), c.Param("id"),
		models.VerificationStatus(input.Status), utils.SanitizeNotes(input.RejectionReason))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Provider status updated", "provider": provider})
}

type AccountStatusInput struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// UpdateAccountStatus PUT /admin/users/:id/status
func (h *AdminHandler) UpdateAccountStatus(c *gin.Context) {
	var input AccountStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.BadRequest("Invalid account status"))
		return
	}

	user, err := h.admin.SetAccountStatus(c.Request.Context(), actorFrom(c), c.Param("id"),
		models.AccountStatus(input.Status), utils.SanitizeNotes(input.Reason))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account status updated", "user": user})
}

type AnnouncementInput struct {
	Audience string `json:"audience"`
	Type     string `json:"type" binding:"required"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// Announce POST /admin/announcements
func (h *AdminHandler) Announce(c *gin.Context) {
	var input AnnouncementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.BadRequest("Announcement type is required"))
		return
	}

	count, err := h.admin.Announce(c.Request.Context(), actorFrom(c), services.Announcement{
		Audience: models.ParticipantType(input.Audience),
		Type:     models.NotificationType(input.Type),
		Title:    utils.TruncateString(input.Title, 120),
		Body:     utils.SanitizeNotes(input.Message),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Announcement queued", "recipients": count})
}

// GetAuditLogs GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	logs, err := h.admin.AuditLog(c.Request.Context(), services.AuditLogFilter{
		TargetType: c.Query("targetType"),
		TargetID:   c.Query("targetId"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
