// internal/models/message.go
package models

import (
	"encoding/json"
	"time"
)

// Channel identifies a message transport/format.
type Channel string

const (
	// ChannelAPI is the structured caller channel: queries arrive
	// verbatim and replies pass the downstream payload through.
	ChannelAPI Channel = "api"
	// ChannelConversational is the messaging channel: free-form text
	// is normalized and replies are rendered as chat text.
	ChannelConversational Channel = "conversational"
)

// MessageKind classifies an outbound reply.
type MessageKind string

const (
	KindText       MessageKind = "text"
	KindStructured MessageKind = "structured"
	KindError      MessageKind = "error"
)

// InboundMessage is the canonical intake record. Immutable once
// created; every pipeline instance starts from exactly one of these.
type InboundMessage struct {
	ID         string           `json:"id"`
	Channel    Channel          `json:"channel"`
	SenderID   string           `json:"senderId"`
	RawText    string           `json:"rawText,omitempty"`
	RawQuery   *StructuredQuery `json:"rawQuery,omitempty"`
	ReceivedAt time.Time        `json:"receivedAt"`
}

// StructuredQuery is the structured-channel intake payload. The query
// is used verbatim; no normalization phase applies.
type StructuredQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// NormalizedQuery is the canonical search intent derived from an
// InboundMessage. CanonicalText is always defined, possibly empty.
type NormalizedQuery struct {
	CanonicalText string `json:"canonicalText"`
	OriginalText  string `json:"originalText"`
	SenderID      string `json:"senderId"`
}

// SearchRequest is the downstream search contract. Limit is always
// positive and capped by the per-channel configured maximum.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// OutboundMessage is the single reply produced per InboundMessage.
type OutboundMessage struct {
	Recipient string          `json:"recipient"`
	Body      json.RawMessage `json:"body"`
	Channel   Channel         `json:"channel"`
	Kind      MessageKind     `json:"kind"`
}

// TextReply is the conversational outbound wire format.
type TextReply struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorReply is the outbound wire format for caller-visible failures.
type ErrorReply struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// State is a pipeline instance's position in its lifecycle. Transitions
// are forward-only; Sent and Errored are terminal.
type State string

const (
	StateReceived   State = "received"
	StateNormalized State = "normalized"
	StateValidated  State = "validated"
	StateDispatched State = "dispatched"
	StateFormatted  State = "formatted"
	StateSent       State = "sent"
	StateErrored    State = "errored"
)
