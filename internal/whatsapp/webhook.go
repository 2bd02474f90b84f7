// Package whatsapp provides the Evolution API client and webhook event parsing.
package whatsapp

// EventMessagesUpsert is the only webhook event that triggers the chat
// pipeline; all other events are acknowledged and ignored.
const EventMessagesUpsert = "messages.upsert"

// WebhookEvent is the inbound Evolution webhook payload.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  MessageData `json:"data"`
}

// MessageData is the message portion of a messages.upsert event.
type MessageData struct {
	Key     MessageKey      `json:"key"`
	Message *MessageContent `json:"message"`
}

// MessageKey identifies a WhatsApp message and its sender.
type MessageKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// MessageContent holds the possible text carriers of a WhatsApp message.
type MessageContent struct {
	Conversation        string        `json:"conversation"`
	ExtendedTextMessage *ExtendedText `json:"extendedTextMessage"`
	ImageMessage        *ImageMessage `json:"imageMessage"`
}

// ExtendedText is the payload of quoted/linked text messages.
type ExtendedText struct {
	Text string `json:"text"`
}

// ImageMessage carries an image and its optional caption.
type ImageMessage struct {
	Caption string `json:"caption"`
}

// Text returns the first non-empty of: plain conversation text, extended text,
// image caption. Empty means the message carries no usable text.
func (d *MessageData) Text() string {
	if d.Message == nil {
		return ""
	}
	if d.Message.Conversation != "" {
		return d.Message.Conversation
	}
	if d.Message.ExtendedTextMessage != nil && d.Message.ExtendedTextMessage.Text != "" {
		return d.Message.ExtendedTextMessage.Text
	}
	if d.Message.ImageMessage != nil {
		return d.Message.ImageMessage.Caption
	}
	return ""
}
