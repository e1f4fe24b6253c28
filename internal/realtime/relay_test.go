package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jo-service/marketplace-backend/internal/models"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
	"github.com/jo-service/marketplace-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu       sync.Mutex
	messages []models.Message
	err      error
}

func (s *memoryStore) Save(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if err := msg.Validate(); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *memoryStore) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (p *recordingPublisher) Publish(msg models.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return true
}

var testTokens = map[string]*utils.Claims{
	"user-token":     {ID: "u1", Type: utils.TypeUser},
	"provider-token": {ID: "p1", Type: utils.TypeProvider},
	"no-type-token":  {ID: "x1"},
}

func fakeVerifier(token string) (*utils.Claims, error) {
	claims, ok := testTokens[token]
	if !ok {
		return nil, errors.New("token is malformed")
	}
	return claims, nil
}

var (
	user     = Participant{ID: "u1", Type: models.ParticipantUser}
	provider = Participant{ID: "p1", Type: models.ParticipantProvider}
)

func TestHandleFrameRejectsMalformedFrames(t *testing.T) {
	store := &memoryStore{}
	relay := NewRelay(NewRegistry(), store, fakeVerifier)
	reply := &fakeConn{}

	relay.HandleFrame(context.Background(), user, reply, []byte("{not json"))
	relay.HandleFrame(context.Background(), user, reply, []byte(`{"recipientId":"p1"}`))
	relay.HandleFrame(context.Background(), user, reply, []byte(`{"text":"hi"}`))

	frames := reply.Frames()
	require.Len(t, frames, 3)
	for _, f := range frames {
		assert.Equal(t, FrameError, f.Type)
	}
	assert.Empty(t, store.Messages())
	assert.True(t, reply.IsOpen())
}

func TestHandleFrameOfflineRecipient(t *testing.T) {
	store := &memoryStore{}
	events := &recordingPublisher{}
	relay := NewRelay(NewRegistry(), store, fakeVerifier, WithEvents(events))
	reply := &fakeConn{}

	relay.HandleFrame(context.Background(), user, reply, []byte(`{"recipientId":"p1","text":"hi"}`))

	frames := reply.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, FrameError, frames[0].Type)
	assert.Equal(t, "User p1 is not online.", frames[0].Message)

	saved := store.Messages()
	require.Len(t, saved, 1)
	assert.Equal(t, "u1", saved[0].SenderID)
	assert.Equal(t, "p1", saved[0].RecipientID)
	assert.Equal(t, "hi", saved[0].Text)
	assert.Equal(t, models.ParticipantProvider, saved[0].RecipientType)
	assert.Equal(t, "p1_u1", saved[0].ConversationID)

	require.Len(t, events.msgs, 1)
	assert.Equal(t, saved[0].ID, events.msgs[0].ID)
}

func TestHandleFrameDeliversToRecipient(t *testing.T) {
	registry := NewRegistry()
	store := &memoryStore{}
	relay := NewRelay(registry, store, fakeVerifier)
	recipient, reply := &fakeConn{}, &fakeConn{}
	registry.Register("u1", recipient)

	relay.HandleFrame(context.Background(), provider, reply, []byte(`{"recipientId":"u1","text":"on my way"}`))

	assert.Empty(t, reply.Frames())
	frames := recipient.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, FrameMessage, frames[0].Type)

	payload, ok := frames[0].Data.(models.MessagePayload)
	require.True(t, ok)
	assert.Equal(t, "p1", payload.SenderID)
	assert.Equal(t, models.ParticipantProvider, payload.SenderType)
	assert.Equal(t, models.ParticipantUser, payload.RecipientType)
	assert.Equal(t, "on my way", payload.Text)

	raw, err := json.Marshal(frames[0])
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"id"`)
	assert.NotContains(t, string(raw), "createdAt")
}

func TestHandleFrameClosedRecipientIsOffline(t *testing.T) {
	registry := NewRegistry()
	relay := NewRelay(registry, &memoryStore{}, fakeVerifier)
	stale, reply := &fakeConn{}, &fakeConn{}
	stale.Close()
	registry.Register("p1", stale)

	relay.HandleFrame(context.Background(), user, reply, []byte(`{"recipientId":"p1","text":"hello"}`))

	frames := reply.Frames()
	require.Len(t, frames, 1)
	assert.Contains(t, frames[0].Message, "not online")
}

func TestHandleFrameStoreFailure(t *testing.T) {
	registry := NewRegistry()
	recipient, reply := &fakeConn{}, &fakeConn{}
	registry.Register("p1", recipient)
	store := &memoryStore{err: apperrors.Internal("Failed to store message", errors.New("db down"))}
	relay := NewRelay(registry, store, fakeVerifier)

	relay.HandleFrame(context.Background(), user, reply, []byte(`{"recipientId":"p1","text":"hello"}`))

	frames := reply.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, "Failed to store message.", frames[0].Message)
	assert.Empty(t, recipient.Frames())
}

type frameWithPayload struct {
	Type    string                `json:"type"`
	Message string                `json:"message"`
	Data    models.MessagePayload `json:"data"`
}

func startRelay(t *testing.T, opts ...Option) (*Relay, *Registry, *memoryStore, string) {
	registry := NewRegistry()
	store := &memoryStore{}
	relay := NewRelay(registry, store, fakeVerifier, opts...)
	server := httptest.NewServer(relay)
	t.Cleanup(server.Close)
	return relay, registry, store, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frameWithPayload {
	var f frameWithPayload
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestRelayRejectsMissingAndInvalidTokens(t *testing.T) {
	_, registry, _, url := startRelay(t)

	for _, query := range []string{"", "?token=bogus", "?token=no-type-token"} {
		conn := dial(t, url+query)

		f := readFrame(t, conn)
		assert.Equal(t, FrameError, f.Type)

		_, _, err := conn.ReadMessage()
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr, query)
		assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	}
	assert.Zero(t, registry.Len())
}

func TestRelayWelcomesAuthenticatedClient(t *testing.T) {
	_, registry, _, url := startRelay(t)

	conn := dial(t, url+"?auth_token=user-token")
	f := readFrame(t, conn)
	assert.Equal(t, FrameInfo, f.Type)
	assert.Equal(t, welcomeMessage, f.Message)
	assert.True(t, registry.IsOnline("u1"))

	conn.Close()
	assert.Eventually(t, func() bool { return registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRelayEndToEndDelivery(t *testing.T) {
	_, _, store, url := startRelay(t)

	userConn := dial(t, url+"?token=user-token")
	readFrame(t, userConn)

	require.NoError(t, userConn.WriteJSON(InboundFrame{RecipientID: "p1", Text: "hi"}))
	f := readFrame(t, userConn)
	assert.Equal(t, FrameError, f.Type)
	assert.Contains(t, f.Message, "User p1 is not online.")
	require.Len(t, store.Messages(), 1)
	assert.Equal(t, "hi", store.Messages()[0].Text)

	providerConn := dial(t, url+"?token=provider-token")
	readFrame(t, providerConn)

	require.NoError(t, userConn.WriteJSON(InboundFrame{RecipientID: "p1", Text: "are you free tomorrow?"}))
	f = readFrame(t, providerConn)
	assert.Equal(t, FrameMessage, f.Type)
	assert.Equal(t, "u1", f.Data.SenderID)
	assert.Equal(t, models.ParticipantProvider, f.Data.RecipientType)
	assert.Equal(t, "are you free tomorrow?", f.Data.Text)
	assert.Equal(t, "p1_u1", f.Data.ConversationID)
}

func TestRelayReconnectRoutesToLatest(t *testing.T) {
	_, registry, _, url := startRelay(t)

	oldConn := dial(t, url+"?token=provider-token")
	readFrame(t, oldConn)
	newConn := dial(t, url+"?token=provider-token")
	readFrame(t, newConn)

	userConn := dial(t, url+"?token=user-token")
	readFrame(t, userConn)

	require.NoError(t, userConn.WriteJSON(InboundFrame{RecipientID: "p1", Text: "ping"}))
	f := readFrame(t, newConn)
	assert.Equal(t, "ping", f.Data.Text)

	require.NoError(t, oldConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := oldConn.ReadMessage()
	assert.Error(t, err)

	oldConn.Close()
	time.Sleep(100 * time.Millisecond)
	assert.True(t, registry.IsOnline("p1"))

	require.NoError(t, userConn.WriteJSON(InboundFrame{RecipientID: "p1", Text: "still there?"}))
	f = readFrame(t, newConn)
	assert.Equal(t, "still there?", f.Data.Text)
}

func TestRelayFrameRateLimit(t *testing.T) {
	_, _, store, url := startRelay(t, WithFrameRate(60, 2))

	conn := dial(t, url+"?token=user-token")
	readFrame(t, conn)

	for i := 0; i < 3; i++ {
		require.NoError(t, conn.WriteJSON(InboundFrame{RecipientID: "p1", Text: "spam"}))
	}
	assert.Contains(t, readFrame(t, conn).Message, "not online")
	assert.Contains(t, readFrame(t, conn).Message, "not online")
	assert.Contains(t, readFrame(t, conn).Message, "Rate limit exceeded")
	assert.Len(t, store.Messages(), 2)
}

func TestRelayShutdownClosesClients(t *testing.T) {
	relay, registry, _, url := startRelay(t)

	conn := dial(t, url+"?token=user-token")
	readFrame(t, conn)

	relay.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)
	assert.Zero(t, registry.Len())
}
