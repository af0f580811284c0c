// Package bus defines the message types that flow between chat channels and
// the bridge hub, and the in-process bus that carries them.
package bus

import "time"

// ChannelType names a chat surface.
type ChannelType string

const (
	ChannelTelegram ChannelType = "telegram"
	ChannelSlack    ChannelType = "slack"
	ChannelCLI      ChannelType = "cli"
)

// InboundMessage is a user message received from a chat channel.
type InboundMessage struct {
	channel   string         // "telegram", "slack", "cli"
	senderID  string         // user identifier within the channel
	chatID    string         // chat / channel / DM identifier
	content   string         // message text
	timestamp time.Time      // when the message was received
	metadata  map[string]any // channel-specific extra data (message_id, thread_ts, …)
}

// NewInboundMessage creates an InboundMessage with Timestamp set to now.
// Use SetMetadata to attach optional channel-specific fields.
func NewInboundMessage(channel ChannelType, senderID, chatID, content string) InboundMessage {
	return InboundMessage{
		channel:   string(channel),
		senderID:  senderID,
		chatID:    chatID,
		content:   content,
		timestamp: time.Now(),
	}
}

func (m InboundMessage) Channel() string                { return m.channel }
func (m InboundMessage) SenderID() string               { return m.senderID }
func (m InboundMessage) ChatID() string                 { return m.chatID }
func (m InboundMessage) Content() string                { return m.content }
func (m InboundMessage) Timestamp() time.Time           { return m.timestamp }
func (m InboundMessage) Metadata() map[string]any       { return m.metadata }
func (m *InboundMessage) SetMetadata(md map[string]any) { m.metadata = md }

// SessionKey returns the key used to look up the conversation bridge.
// Format: "channel:chat_id".
func (m InboundMessage) SessionKey() string {
	return m.channel + ":" + m.chatID
}

// OutboundMessage is an assistant reply to be sent back through a channel.
type OutboundMessage struct {
	channel  string
	chatID   string
	content  string
	metadata map[string]any // channel-specific hints (message_id, thread_ts, …)
}

// NewOutboundMessage creates an OutboundMessage.
func NewOutboundMessage(channel, chatID, content string) OutboundMessage {
	return OutboundMessage{
		channel: channel,
		chatID:  chatID,
		content: content,
	}
}

func (m OutboundMessage) Channel() string                { return m.channel }
func (m OutboundMessage) ChatID() string                 { return m.chatID }
func (m OutboundMessage) Content() string                { return m.content }
func (m OutboundMessage) Metadata() map[string]any       { return m.metadata }
func (m *OutboundMessage) SetMetadata(md map[string]any) { m.metadata = md }
