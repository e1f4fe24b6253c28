package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jo-service/marketplace-backend/internal/models"
	apperrors "github.com/jo-service/marketplace-backend/pkg/errors"
	"github.com/jo-service/marketplace-backend/pkg/logger"
	"github.com/jo-service/marketplace-backend/pkg/utils"
	"golang.org/x/time/rate"
)

const welcomeMessage = "Welcome to the Chat Service!"

// TokenVerifier turns a bearer token into verified claims
type TokenVerifier func(token string) (*utils.Claims, error)

// MessageSaver persists a chat message, assigning its id and timestamp
type MessageSaver interface {
	Save(ctx context.Context, msg *models.Message) error
}

// MessagePublisher hands persisted messages to background consumers
type MessagePublisher interface {
	Publish(msg models.Message) bool
}

// Participant is the authenticated identity behind a connection
type Participant struct {
	ID   string
	Type models.ParticipantType
}

// Relay authenticates websocket connections and routes chat frames
// between them, persisting every message before delivery.
type Relay struct {
	registry *Registry
	store    MessageSaver
	verify   TokenVerifier
	presence Presence
	events   MessagePublisher
	upgrader websocket.Upgrader

	frameLimit rate.Limit
	frameBurst int
}

type Option func(*Relay)

func WithPresence(p Presence) Option {
	return func(r *Relay) { r.presence = p }
}

func WithEvents(e MessagePublisher) Option {
	return func(r *Relay) { r.events = e }
}

// WithFrameRate limits each connection to perMinute frames with the given burst.
func WithFrameRate(perMinute, burst int) Option {
	return func(r *Relay) {
		r.frameLimit = rate.Limit(float64(perMinute) / 60)
		r.frameBurst = burst
	}
}

func WithCheckOrigin(check func(*http.Request) bool) Option {
	return func(r *Relay) { r.upgrader.CheckOrigin = check }
}

func NewRelay(registry *Registry, store MessageSaver, verify TokenVerifier, opts ...Option) *Relay {
	r := &Relay{
		registry: registry,
		store:    store,
		verify:   verify,
		presence: NewLocalPresence(registry),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(req *http.Request) bool { return true },
		},
		frameLimit: rate.Limit(30.0 / 60),
		frameBurst: 10,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const authRequiredMessage = "Authentication required or invalid token payload."

type authError struct {
	message     string
	closeReason string
}

func (r *Relay) authenticate(req *http.Request) (Participant, *authError) {
	token := req.URL.Query().Get("token")
	if token == "" {
		token = req.URL.Query().Get("auth_token")
	}
	if token == "" {
		return Participant{}, &authError{authRequiredMessage, "Authentication required"}
	}

	claims, err := r.verify(token)
	if err != nil {
		return Participant{}, &authError{"Authentication error: " + err.Error(), "Invalid token"}
	}

	participantType, ok := models.ParticipantTypeFromClaim(claims.Type)
	if claims.ID == "" || !ok {
		return Participant{}, &authError{authRequiredMessage, "Authentication required"}
	}
	return Participant{ID: claims.ID, Type: participantType}, nil
}

// ServeHTTP upgrades the request, authenticates it from the token query
// parameter and starts the connection's read and write loops.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	participant, authErr := r.authenticate(req)
	if authErr != nil {
		logger.Info().Str("ip", req.RemoteAddr).Str("reason", authErr.closeReason).Msg("Websocket connection rejected")
		r.reject(conn, authErr)
		return
	}

	client := newClient(r, conn, participant)
	if prev := r.registry.Register(participant.ID, client); prev != nil {
		logger.Debug().Str("participant", participant.ID).Msg("Replaced existing connection")
	}
	r.markOnline(participant.ID)

	logger.Info().
		Str("participant", participant.ID).
		Str("type", string(participant.Type)).
		Msg("Websocket client connected")

	client.Send(InfoFrame(welcomeMessage))
	go client.writePump()
	go client.readPump()
}

func (r *Relay) reject(conn *websocket.Conn, authErr *authError) {
	deadline := time.Now().Add(writeWait)
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.WriteJSON(ErrorFrame(authErr.message))
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, authErr.closeReason), deadline)
	_ = conn.Close()
}

// HandleFrame processes one inbound frame from sender. Every failure is
// reported back through reply and none of them end the connection.
func (r *Relay) HandleFrame(ctx context.Context, sender Participant, reply Conn, raw []byte) {
	var in InboundFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		reply.Send(ErrorFrame("Invalid message format."))
		return
	}
	recipientID := strings.TrimSpace(in.RecipientID)
	if recipientID == "" || strings.TrimSpace(in.Text) == "" {
		reply.Send(ErrorFrame("Invalid message format. Required fields: recipientId, text."))
		return
	}

	msg := &models.Message{
		ConversationID: models.ConversationID(sender.ID, recipientID),
		SenderID:       sender.ID,
		SenderType:     sender.Type,
		RecipientID:    recipientID,
		RecipientType:  sender.Type.Other(),
		MessageType:    models.MessageText,
		Text:           in.Text,
	}
	if err := r.store.Save(ctx, msg); err != nil {
		logger.Error().Err(err).Str("sender", sender.ID).Str("recipient", recipientID).Msg("Failed to store message")
		if appErr, ok := apperrors.As(err); ok && appErr.Code == http.StatusBadRequest {
			reply.Send(ErrorFrame(appErr.Message))
			return
		}
		reply.Send(ErrorFrame("Failed to store message."))
		return
	}

	if r.events != nil {
		r.events.Publish(*msg)
	}

	if conn, ok := r.registry.Lookup(recipientID); ok && conn.IsOpen() {
		if conn.Send(DataFrame(FrameMessage, msg.Payload())) {
			return
		}
	}
	logger.Debug().Str("recipient", recipientID).Msg("Recipient not connected, message kept for history")
	reply.Send(ErrorFrame(fmt.Sprintf("User %s is not online.", recipientID)))
}

// disconnect drops c from the registry unless a newer connection replaced it.
func (r *Relay) disconnect(c *Client) {
	if r.registry.UnregisterConn(c.participant.ID, c) {
		r.markOffline(c.participant.ID)
		logger.Info().Str("participant", c.participant.ID).Msg("Websocket client disconnected")
	}
}

func (r *Relay) markOnline(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.presence.MarkOnline(ctx, id); err != nil {
		logger.Warn().Err(err).Str("participant", id).Msg("Failed to record presence")
	}
}

func (r *Relay) markOffline(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.presence.MarkOffline(ctx, id); err != nil {
		logger.Warn().Err(err).Str("participant", id).Msg("Failed to clear presence")
	}
}

// IsOnline answers from the presence mirror, falling back to the local registry.
func (r *Relay) IsOnline(ctx context.Context, id string) bool {
	if r.registry.IsOnline(id) {
		return true
	}
	online, err := r.presence.IsOnline(ctx, id)
	if err != nil {
		logger.Warn().Err(err).Str("participant", id).Msg("Presence lookup failed")
		return false
	}
	return online
}

// Shutdown closes every registered connection with a normal closure.
func (r *Relay) Shutdown() {
	for _, id := range r.registry.Online() {
		conn, ok := r.registry.Lookup(id)
		if !ok {
			continue
		}
		if c, ok := conn.(*Client); ok {
			c.closeWith(websocket.CloseGoingAway, "Server shutting down")
		}
	}
}
