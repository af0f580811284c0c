package bus

// Bus is the contract between chat channels and the bridge hub.
type Bus interface {
	// PublishInbound delivers a user message from a channel to the hub.
	PublishInbound(msg InboundMessage)
	// PublishOutbound delivers an assistant reply to the channel manager.
	PublishOutbound(msg OutboundMessage)
	// InboundChan returns a receive-only channel for the hub to consume.
	InboundChan() <-chan InboundMessage
	// OutboundChan returns a receive-only channel for the channel manager to consume.
	OutboundChan() <-chan OutboundMessage
}

// MessageBus is the default in-process Bus backed by buffered Go channels,
// so senders never block on a slow consumer.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
}

// NewMessageBus creates a MessageBus with the given buffer size per direction.
func NewMessageBus(bufSize int) Bus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, bufSize),
		outbound: make(chan OutboundMessage, bufSize),
	}
}

func (b *MessageBus) PublishInbound(msg InboundMessage)   { b.inbound <- msg }
func (b *MessageBus) PublishOutbound(msg OutboundMessage) { b.outbound <- msg }

func (b *MessageBus) InboundChan() <-chan InboundMessage   { return b.inbound }
func (b *MessageBus) OutboundChan() <-chan OutboundMessage { return b.outbound }
