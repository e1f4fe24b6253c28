package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jo-service/marketplace-backend/internal/models"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessage(from, to string, text string) *models.Message {
	return &models.Message{
		ConversationID: models.ConversationID(from, to),
		SenderID:       from,
		SenderType:     models.ParticipantUser,
		RecipientID:    to,
		RecipientType:  models.ParticipantProvider,
		Text:           text,
	}
}

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	store := NewMessageStore(openTestDB(t))
	ctx := context.Background()

	msg := newMessage("u1", "p1", "  hello  ")
	require.NoError(t, store.Save(ctx, msg))

	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
	assert.Equal(t, models.MessageText, msg.MessageType)
	assert.Equal(t, "  hello  ", msg.Text)
}

func TestSaveKeepsTextAsSent(t *testing.T) {
	store := NewMessageStore(openTestDB(t))
	ctx := context.Background()

	sent := "  <b>bold</b> <script>alert(1)</script>\n"
	msg := newMessage("u1", "p1", sent)
	require.NoError(t, store.Save(ctx, msg))

	history, err := store.FindConversationHistory(ctx, msg.ConversationID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sent, history[0].Text)
	assert.Equal(t, sent, history[0].Payload().Text)
}

func TestSaveValidation(t *testing.T) {
	store := NewMessageStore(openTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(m *models.Message)
		ok     bool
	}{
		{"text message without text", func(m *models.Message) { m.Text = " " }, false},
		{"image message without images or text", func(m *models.Message) {
			m.MessageType = models.MessageImage
			m.Text = ""
		}, false},
		{"image message with images only", func(m *models.Message) {
			m.MessageType = models.MessageImage
			m.Text = ""
			m.Images = []string{"/uploads/chat/a.png"}
		}, true},
		{"booking images without text", func(m *models.Message) {
			m.MessageType = models.MessageBookingImages
			m.Text = ""
			m.Images = []string{"https://cdn.example.com/b.jpg"}
		}, true},
		{"unknown message type", func(m *models.Message) { m.MessageType = "video" }, false},
		{"bad image reference", func(m *models.Message) {
			m.MessageType = models.MessageImage
			m.Images = []string{"ftp://example.com/a.png"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := newMessage("u1", "p1", "hi")
			tt.mutate(msg)
			err := store.Save(ctx, msg)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
		})
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	store := NewMessageStore(openTestDB(t))
	ctx := context.Background()

	first := newMessage("u1", "p1", "first")
	require.NoError(t, store.Save(ctx, first))
	second := newMessage("p1", "u1", "second")
	second.SenderType, second.RecipientType = models.ParticipantProvider, models.ParticipantUser
	second.MessageType = models.MessageImage
	second.Images = []string{"/uploads/chat/x.webp"}
	require.NoError(t, store.Save(ctx, second))

	history, err := store.FindConversationHistory(ctx, models.ConversationID("p1", "u1"), 0)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "first", history[0].Text)
	assert.Equal(t, "u1", history[0].SenderID)
	assert.Equal(t, "second", history[1].Text)
	assert.Equal(t, []string{"/uploads/chat/x.webp"}, history[1].Images)
	assert.False(t, history[1].Timestamp.Before(history[0].Timestamp))
}

func TestHistoryReturnsMostRecentWindowAscending(t *testing.T) {
	store := NewMessageStore(openTestDB(t))
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < MaxHistoryLimit+5; i++ {
		msg := newMessage("u1", "p1", "msg")
		msg.Timestamp = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Save(ctx, msg))
	}

	history, err := store.FindConversationHistory(ctx, models.ConversationID("u1", "p1"), 500)
	require.NoError(t, err)
	require.Len(t, history, MaxHistoryLimit)

	assert.True(t, history[0].Timestamp.Equal(base.Add(5*time.Second)))
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].Timestamp.After(history[i-1].Timestamp))
	}

	short, err := store.FindConversationHistory(ctx, models.ConversationID("u1", "p1"), 3)
	require.NoError(t, err)
	require.Len(t, short, 3)
	assert.True(t, short[2].Timestamp.Equal(base.Add(time.Duration(MaxHistoryLimit+4)*time.Second)))
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	store := NewMessageStore(openTestDB(t))
	ctx := context.Background()
	conv := models.ConversationID("u1", "p1")

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, newMessage("u1", "p1", "hi")))
	}
	reply := newMessage("p1", "u1", "yo")
	reply.SenderType, reply.RecipientType = models.ParticipantProvider, models.ParticipantUser
	require.NoError(t, store.Save(ctx, reply))

	count, err := store.UnreadCount(ctx, conv, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	changed, err := store.MarkRead(ctx, conv, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)

	changed, err = store.MarkRead(ctx, conv, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)

	count, err = store.UnreadCount(ctx, conv, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	history, err := store.FindConversationHistory(ctx, conv, 10)
	require.NoError(t, err)
	for _, m := range history {
		if m.RecipientID == "p1" {
			assert.True(t, m.IsRead)
			assert.NotNil(t, m.ReadAt)
		}
	}
}

func TestDeleteMessageOnlyBySender(t *testing.T) {
	store := NewMessageStore(openTestDB(t))
	ctx := context.Background()

	msg := newMessage("u1", "p1", "keep me")
	require.NoError(t, store.Save(ctx, msg))

	err := store.DeleteMessage(ctx, msg.ID, "p1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apperrors.StatusOf(err))

	found, err := store.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep me", found.Text)

	require.NoError(t, store.DeleteMessage(ctx, msg.ID, "u1"))
	_, err = store.FindByID(ctx, msg.ID)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))

	err = store.DeleteMessage(ctx, "missing", "u1")
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

func TestDeleteConversation(t *testing.T) {
	store := NewMessageStore(openTestDB(t))
	ctx := context.Background()
	conv := models.ConversationID("u1", "p1")

	require.NoError(t, store.Save(ctx, newMessage("u1", "p1", "a")))
	require.NoError(t, store.Save(ctx, newMessage("u1", "p1", "b")))
	require.NoError(t, store.Save(ctx, newMessage("u2", "p1", "other")))

	_, err := store.DeleteConversation(ctx, conv, "stranger")
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))

	removed, err := store.DeleteConversation(ctx, conv, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	history, err := store.FindConversationHistory(ctx, conv, 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	other, err := store.FindConversationHistory(ctx, models.ConversationID("u2", "p1"), 10)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestListConversations(t *testing.T) {
	db := openTestDB(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	user := createUser(t, db, "Asha")
	older := createProvider(t, db, "Old Plumber", models.VerificationVerified)
	newer := createProvider(t, db, "New Electrician", models.VerificationVerified)

	base := time.Now().Add(-time.Hour)
	m1 := newMessage(older.ID, user.ID, "old news")
	m1.SenderType, m1.RecipientType = models.ParticipantProvider, models.ParticipantUser
	m1.Timestamp = base
	require.NoError(t, store.Save(ctx, m1))

	m2 := newMessage(user.ID, newer.ID, "fresh")
	m2.Timestamp = base.Add(time.Minute)
	require.NoError(t, store.Save(ctx, m2))

	m3 := newMessage(newer.ID, user.ID, "reply")
	m3.SenderType, m3.RecipientType = models.ParticipantProvider, models.ParticipantUser
	m3.Timestamp = base.Add(2 * time.Minute)
	require.NoError(t, store.Save(ctx, m3))

	list, err := store.ListConversations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, newer.ID, list[0].PartnerID)
	assert.Equal(t, "New Electrician", list[0].PartnerName)
	assert.Equal(t, models.ParticipantProvider, list[0].PartnerType)
	assert.Equal(t, "reply", list[0].LastMessage)
	assert.Equal(t, int64(1), list[0].UnreadCount)

	assert.Equal(t, older.ID, list[1].PartnerID)
	assert.Equal(t, "Old Plumber", list[1].PartnerName)
	assert.Equal(t, int64(1), list[1].UnreadCount)
}

func TestListConversationsKeepsQuietConversations(t *testing.T) {
	db := openTestDB(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	user := createUser(t, db, "Asha")
	quiet := createProvider(t, db, "Quiet Painter", models.VerificationVerified)
	busy := createProvider(t, db, "Busy Plumber", models.VerificationVerified)

	base := time.Now().Add(-48 * time.Hour)
	first := newMessage(user.ID, quiet.ID, "are you free next month?")
	first.Timestamp = base
	require.NoError(t, store.Save(ctx, first))

	chatter := make([]models.Message, 2500)
	for i := range chatter {
		m := newMessage(user.ID, busy.ID, "ping")
		m.Timestamp = base.Add(time.Duration(i+1) * time.Second)
		chatter[i] = *m
	}
	require.NoError(t, db.CreateInBatches(chatter, 500).Error)

	list, err := store.ListConversations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, busy.ID, list[0].PartnerID)
	assert.Equal(t, quiet.ID, list[1].PartnerID)
	assert.Equal(t, "are you free next month?", list[1].LastMessage)
}
