package services

import (
	"testing"

	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMessageEventsDropsWhenFull(t *testing.T) {
	events := NewMessageEvents(1)

	assert.True(t, events.Publish(models.Message{ID: "a"}))
	assert.False(t, events.Publish(models.Message{ID: "b"}))

	got := <-events.C()
	assert.Equal(t, "a", got.ID)
}

func TestMessageEventsClose(t *testing.T) {
	events := NewMessageEvents(4)
	events.Close()
	events.Close()

	assert.False(t, events.Publish(models.Message{ID: "late"}))
	_, open := <-events.C()
	assert.False(t, open)
}
