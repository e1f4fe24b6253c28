package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/middleware"
	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/internal/realtime"
	"github.com/jo-service/marketplace-backend/internal/services"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
	"github.com/jo-service/marketplace-backend/pkg/logger"
)

// ChatHandler serves conversation history and the REST side of chat.
// Live delivery goes through the registry the relay maintains.
type ChatHandler struct {
	store        *services.MessageStore
	relay        *realtime.Relay
	registry     *realtime.Registry
	events       *services.MessageEvents
	historyLimit int
}

func NewChatHandler(store *services.MessageStore, relay *realtime.Relay, registry *realtime.Registry, events *services.MessageEvents, historyLimit int) *ChatHandler {
	return &ChatHandler{
		store:        store,
		relay:        relay,
		registry:     registry,
		events:       events,
		historyLimit: historyLimit,
	}
}

// partnerOf returns the other participant of a conversation id, or "" when
// me is not part of it.
func partnerOf(conversationID, me string) string {
	a, b, ok := strings.Cut(conversationID, "_")
	if !ok {
		return ""
	}
	switch me {
	case a:
		return b
	case b:
		return a
	}
	return ""
}

// GetConversations lists the caller's conversations, most recent first
func (h *ChatHandler) GetConversations(c *gin.Context) {
	me, _ := middleware.Participant(c)
	conversations, err := h.store.ListConversations(c.Request.Context(), me)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetHistory returns the latest messages exchanged with another participant
func (h *ChatHandler) GetHistory(c *gin.Context) {
	me, _ := middleware.Participant(c)
	other := c.Param("id")

	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.Error(apperrors.BadRequest("limit must be a positive integer"))
			return
		}
		limit = n
	}

	conversationID := models.ConversationID(me, other)
	messages, err := h.store.FindConversationHistory(c.Request.Context(), conversationID, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversationId": conversationID,
		"messages":       messages,
	})
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	me, _ := middleware.Participant(c)
	conversationID := c.Param("conversationId")

	updated, err := h.store.MarkRead(c.Request.Context(), conversationID, me)
	if err != nil {
		c.Error(err)
		return
	}

	// Let the other side know its messages were seen
	if partner := partnerOf(conversationID, me); updated > 0 && partner != "" {
		if conn, ok := h.registry.Lookup(partner); ok && conn.IsOpen() {
			conn.Send(realtime.DataFrame(realtime.FrameMessagesRead, gin.H{
				"conversationId": conversationID,
				"readerId":       me,
			}))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Messages marked as read",
		"modifiedCount": updated,
	})
}

func (h *ChatHandler) GetUnreadCount(c *gin.Context) {
	me, _ := middleware.Participant(c)
	count, err := h.store.UnreadCount(c.Request.Context(), c.Param("id"), me)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	me, _ := middleware.Participant(c)
	if err := h.store.DeleteMessage(c.Request.Context(), c.Param("messageId"), me); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}

func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	me, _ := middleware.Participant(c)
	deleted, err := h.store.DeleteConversation(c.Request.Context(), c.Param("conversationId"), me)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Conversation deleted successfully",
		"deletedCount": deleted,
	})
}

type SendImagesInput struct {
	Images      []string `json:"images" binding:"required,min=1"`
	Text        string   `json:"text"`
	MessageType string   `json:"messageType"`
}

// SendImages stores an image message whose files the upload service already
// holds, then relays it like a realtime frame.
func (h *ChatHandler) SendImages(c *gin.Context) {
	var input SendImagesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.BadRequest("At least one image is required."))
		return
	}

	messageType := models.MessageImage
	if input.MessageType == string(models.MessageBookingImages) {
		messageType = models.MessageBookingImages
	}

	me, senderType := middleware.Participant(c)
	recipientID := c.Param("recipientId")
	msg := &models.Message{
		ConversationID: models.ConversationID(me, recipientID),
		SenderID:       me,
		SenderType:     senderType,
		RecipientID:    recipientID,
		RecipientType:  senderType.Other(),
		MessageType:    messageType,
		Text:           input.Text,
		Images:         input.Images,
	}
	if err := h.store.Save(c.Request.Context(), msg); err != nil {
		c.Error(err)
		return
	}
	if h.events != nil {
		h.events.Publish(*msg)
	}

	delivered := false
	if conn, ok := h.registry.Lookup(recipientID); ok && conn.IsOpen() {
		delivered = conn.Send(realtime.DataFrame(realtime.FrameMessage, msg.Payload()))
	}
	logger.Debug().Str("message_id", msg.ID).Bool("delivered", delivered).Msg("Image message stored")

	c.JSON(http.StatusCreated, gin.H{
		"message":   msg,
		"delivered": delivered,
	})
}

// GetPresence reports whether a participant currently holds a realtime connection
func (h *ChatHandler) GetPresence(c *gin.Context) {
	id := c.Param("participantId")
	c.JSON(http.StatusOK, gin.H{
		"participantId": id,
		"online":        h.relay.IsOnline(c.Request.Context(), id),
	})
}
