package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jo-service/marketplace-backend/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 16 * 1024
	sendBuffer   = 64
)

// Client is one authenticated websocket connection. Reads are handled one
// frame at a time; all writes go through send and the single write loop.
type Client struct {
	relay       *Relay
	conn        *websocket.Conn
	participant Participant
	limiter     *rate.Limiter

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(r *Relay, conn *websocket.Conn, participant Participant) *Client {
	return &Client{
		relay:       r,
		conn:        conn,
		participant: participant,
		limiter:     rate.NewLimiter(r.frameLimit, r.frameBurst),
		send:        make(chan []byte, sendBuffer),
		done:        make(chan struct{}),
	}
}

func (c *Client) Send(f Frame) bool {
	b, err := json.Marshal(f)
	if err != nil {
		logger.Error().Err(err).Str("frame", f.Type).Msg("Failed to encode frame")
		return false
	}
	if !c.IsOpen() {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		logger.Warn().Str("participant", c.participant.ID).Msg("Send buffer full, dropping frame")
		return false
	}
}

func (c *Client) IsOpen() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
		c.relay.disconnect(c)
	})
}

func (c *Client) closeWith(code int, reason string) {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	c.close()
}

func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.relay.markOnline(c.participant.ID)
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Str("participant", c.participant.ID).Msg("Websocket read error")
			}
			return
		}
		if !c.limiter.Allow() {
			c.Send(ErrorFrame("Rate limit exceeded. Slow down."))
			continue
		}
		c.relay.HandleFrame(context.Background(), c.participant, c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
