package services

import (
	"sync"

	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/pkg/logger"
)

// MessageEvents fans persisted messages out to background consumers.
// Publishing never blocks the relay: a full buffer drops the event.
type MessageEvents struct {
	mu     sync.RWMutex
	ch     chan models.Message
	closed bool
}

func NewMessageEvents(buffer int) *MessageEvents {
	if buffer < 1 {
		buffer = 1
	}
	return &MessageEvents{ch: make(chan models.Message, buffer)}
}

// Publish queues msg and reports whether it was accepted.
func (e *MessageEvents) Publish(msg models.Message) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return false
	}
	select {
	case e.ch <- msg:
		return true
	default:
		logger.Warn().Str("message_id", msg.ID).Msg("Message event buffer full, dropping event")
		return false
	}
}

// C is the receive side handed to consumers.
func (e *MessageEvents) C() <-chan models.Message {
	return e.ch
}

// Close stops accepting events and closes the channel. Safe to call twice.
func (e *MessageEvents) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}
