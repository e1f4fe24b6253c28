package services

import (
	"context"
	"errors"

	"github.com/jo-service/marketplace-backend/internal/models"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
	"github.com/jo-service/marketplace-backend/pkg/logger"
	"github.com/jo-service/marketplace-backend/pkg/utils"
	"gorm.io/gorm"
)

// NotificationPayload is what a caller hands to the notification service
type NotificationPayload struct {
	Title     string
	Body      string
	Type      models.NotificationType
	Data      map[string]string
	BookingID string
	MessageID string
}

// Notifier sends a notification to one participant. Booking status changes
// depend on it and only log its errors.
type Notifier interface {
	SendNotification(ctx context.Context, userID string, p NotificationPayload) error
	SendNotificationToProvider(ctx context.Context, providerID string, p NotificationPayload) error
}

// PushSender delivers a notification to a device token.
type PushSender interface {
	Push(ctx context.Context, deviceToken string, n *models.Notification) error
}

// LogPushSender records pushes in the log instead of calling a push gateway.
type LogPushSender struct{}

func (LogPushSender) Push(ctx context.Context, deviceToken string, n *models.Notification) error {
	logger.Info().
		Str("recipient", n.RecipientID).
		Str("type", string(n.Type)).
		Str("title", n.Title).
		Msg("Push notification dispatched")
	return nil
}

// LiveSender reaches participants that hold an open realtime connection.
type LiveSender interface {
	IsOnline(participantID string) bool
	Notify(participantID string, data interface{}) bool
}

type NotificationService struct {
	db   *gorm.DB
	push PushSender
	live LiveSender
}

// NewNotificationService wires the store with optional push and live channels.
// Either may be nil.
func NewNotificationService(db *gorm.DB, push PushSender, live LiveSender) *NotificationService {
	return &NotificationService{db: db, push: push, live: live}
}

func (s *NotificationService) SendNotification(ctx context.Context, userID string, p NotificationPayload) error {
	return s.send(ctx, models.ParticipantUser, userID, p)
}

func (s *NotificationService) SendNotificationToProvider(ctx context.Context, providerID string, p NotificationPayload) error {
	return s.send(ctx, models.ParticipantProvider, providerID, p)
}

type recipientProfile struct {
	FCMToken string
	Settings models.NotificationSettings
}

func (s *NotificationService) loadRecipient(ctx context.Context, model models.ParticipantType, id string) (*recipientProfile, error) {
	var err error
	profile := &recipientProfile{}
	if model == models.ParticipantProvider {
		var provider models.Provider
		err = s.db.WithContext(ctx).First(&provider, "id = ?", id).Error
		profile.FCMToken, profile.Settings = provider.FCMToken, provider.NotificationSettings
	} else {
		var user models.User
		err = s.db.WithContext(ctx).First(&user, "id = ?", id).Error
		profile.FCMToken, profile.Settings = user.FCMToken, user.NotificationSettings
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(string(model) + " not found")
		}
		return nil, apperrors.Internal("Failed to load notification recipient", err)
	}
	return profile, nil
}

func (s *NotificationService) send(ctx context.Context, model models.ParticipantType, recipientID string, p NotificationPayload) error {
	profile, err := s.loadRecipient(ctx, model, recipientID)
	if err != nil {
		return err
	}
	if !profile.Settings.Allows(p.Type) {
		logger.Debug().Str("recipient", recipientID).Str("type", string(p.Type)).Msg("Notification disabled by recipient settings")
		return nil
	}

	n := &models.Notification{
		RecipientID:    recipientID,
		RecipientModel: model,
		Type:           p.Type,
		Title:          p.Title,
		Message:        p.Body,
		Data:           p.Data,
	}
	if p.BookingID != "" {
		n.RelatedBookingID = &p.BookingID
	}
	if p.MessageID != "" {
		n.RelatedMessageID = &p.MessageID
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return apperrors.Internal("Failed to store notification", err)
	}

	if s.live != nil {
		s.live.Notify(recipientID, n)
	}
	if s.push != nil && profile.FCMToken != "" {
		if err := s.push.Push(ctx, profile.FCMToken, n); err != nil {
			return apperrors.Internal("Failed to push notification", err)
		}
	}
	return nil
}

// Consume turns persisted chat messages into new_message notifications for
// recipients without an open connection. It returns when ctx is done or
// events is closed.
func (s *NotificationService) Consume(ctx context.Context, events <-chan models.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := s.NotifyNewMessage(ctx, msg); err != nil {
				logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to send new message notification")
			}
		}
	}
}

// NotifyNewMessage notifies the recipient of msg unless they are connected.
func (s *NotificationService) NotifyNewMessage(ctx context.Context, msg models.Message) error {
	if s.live != nil && s.live.IsOnline(msg.RecipientID) {
		return nil
	}

	body := msg.Text
	if body == "" && len(msg.Images) > 0 {
		body = "Sent you an image"
	}
	p := NotificationPayload{
		Title:     "New Message",
		Body:      utils.TruncateString(body, 120),
		Type:      models.NotificationNewMessage,
		MessageID: msg.ID,
		Data: map[string]string{
			"conversationId": msg.ConversationID,
			"senderId":       msg.SenderID,
			"senderType":     string(msg.SenderType),
		},
	}
	return s.send(ctx, msg.RecipientType, msg.RecipientID, p)
}

type NotificationListOptions struct {
	Page       int
	Limit      int
	UnreadOnly bool
}

type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	UnreadCount   int64                 `json:"unreadCount"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

// List returns a page of the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID string, opts NotificationListOptions) (*NotificationPage, error) {
	page, limit := normalizePage(opts.Page, opts.Limit)

	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if opts.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Internal("Failed to fetch notifications", err)
	}

	var notifications []models.Notification
	err := query.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&notifications).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch notifications", err)
	}

	unread, err := s.UnreadCount(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	return &NotificationPage{
		Notifications: notifications,
		Total:         total,
		UnreadCount:   unread,
		Page:          page,
		Limit:         limit,
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Internal("Failed to get unread count", err)
	}
	return count, nil
}

func (s *NotificationService) owned(ctx context.Context, id, recipientID string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Notification not found")
		}
		return nil, apperrors.Internal("Failed to fetch notification", err)
	}
	if n.RecipientID != recipientID {
		return nil, apperrors.Forbidden("Not authorized to access this notification")
	}
	return &n, nil
}

// MarkRead marks one of the recipient's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) (*models.Notification, error) {
	n, err := s.owned(ctx, id, recipientID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(n).Update("is_read", true).Error; err != nil {
		return nil, apperrors.Internal("Failed to mark notification as read", err)
	}
	n.IsRead = true
	return n, nil
}

// MarkAllRead marks all of the recipient's notifications as read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, apperrors.Internal("Failed to mark notifications as read", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *NotificationService) Delete(ctx context.Context, id, recipientID string) error {
	n, err := s.owned(ctx, id, recipientID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(n).Error; err != nil {
		return apperrors.Internal("Failed to delete notification", err)
	}
	return nil
}

func accountModel(model models.ParticipantType) interface{} {
	if model == models.ParticipantProvider {
		return &models.Provider{}
	}
	return &models.User{}
}

// SetDeviceToken stores or clears (empty token) the push token of an account.
func (s *NotificationService) SetDeviceToken(ctx context.Context, model models.ParticipantType, id, token string) error {
	result := s.db.WithContext(ctx).Model(accountModel(model)).Where("id = ?", id).Update("fcm_token", token)
	if result.Error != nil {
		return apperrors.Internal("Failed to update FCM token", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound(string(model) + " not found")
	}
	return nil
}

func (s *NotificationService) Settings(ctx context.Context, model models.ParticipantType, id string) (models.NotificationSettings, error) {
	profile, err := s.loadRecipient(ctx, model, id)
	if err != nil {
		return models.NotificationSettings{}, err
	}
	return profile.Settings, nil
}

// UpdateSettings replaces the notification opt-ins of an account.
func (s *NotificationService) UpdateSettings(ctx context.Context, model models.ParticipantType, id string, settings models.NotificationSettings) (models.NotificationSettings, error) {
	// A map so that false values are written
	result := s.db.WithContext(ctx).Model(accountModel(model)).Where("id = ?", id).Updates(map[string]interface{}{
		"notify_booking_updates": settings.BookingUpdates,
		"notify_chat_messages":   settings.ChatMessages,
		"notify_ratings":         settings.Ratings,
		"notify_promotions":      settings.Promotions,
	})
	if result.Error != nil {
		return models.NotificationSettings{}, apperrors.Internal("Failed to update notification settings", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NotificationSettings{}, apperrors.NotFound(string(model) + " not found")
	}
	return settings, nil
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
