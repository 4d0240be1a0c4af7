package messaging

import "context"

// InboundMessage is one customer message as delivered by a channel adapter.
type InboundMessage struct {
	Channel     string `json:"channel"`
	MessageID   string `json:"message_id,omitempty"`
	SenderID    string `json:"sender_id"`
	DisplayName string `json:"display_name,omitempty"`
	Text        string `json:"text"`
	HasMedia    bool   `json:"has_media,omitempty"`
}

// Reply is the text to send back. Emphasis markers are sent as-is.
type Reply struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

// Processor turns an inbound message into at most one reply. ok is false when
// nothing should be sent.
type Processor interface {
	Handle(ctx context.Context, msg InboundMessage) (reply Reply, ok bool)
}

const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
	ChannelAPI      = "api"
	ChannelBus      = "bus"
)
