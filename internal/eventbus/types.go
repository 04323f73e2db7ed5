package eventbus

import "time"

// Topic represents an event topic.
type Topic string

const (
	TopicFanOutStarted    Topic = "fanout_started"
	TopicProviderStarted  Topic = "provider_started"
	TopicProviderResult   Topic = "provider_result"
	TopicFanOutFinished   Topic = "fanout_finished"
	TopicInboundMessage   Topic = "inbound_message"
	TopicOutboundMessage  Topic = "outbound_message"
	TopicCredentialChange Topic = "credential_change"
	TopicValidation       Topic = "validation"
	TopicError            Topic = "error"
	TopicStatusChange     Topic = "status_change"
)

// ProgressTopics are the topics a live progress feed follows.
var ProgressTopics = []Topic{
	TopicFanOutStarted,
	TopicProviderStarted,
	TopicProviderResult,
	TopicFanOutFinished,
	TopicValidation,
	TopicError,
}

// Event is a message passed through the event bus.
type Event struct {
	Topic     Topic     `json:"topic"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler processes an event.
type Handler func(Event)
