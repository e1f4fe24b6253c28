package realtime

// Frame types sent from server to client
const (
	FrameInfo         = "info"
	FrameError        = "error"
	FrameMessage      = "message"
	FrameNotification = "notification"
	FrameMessagesRead = "messages_read"
)

// Frame is one server to client JSON text frame
type Frame struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func InfoFrame(message string) Frame {
	return Frame{Type: FrameInfo, Message: message}
}

func ErrorFrame(message string) Frame {
	return Frame{Type: FrameError, Message: message}
}

func DataFrame(frameType string, data interface{}) Frame {
	return Frame{Type: frameType, Data: data}
}

// InboundFrame is what a client sends to chat with another participant
type InboundFrame struct {
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
}
