package domain

import "fmt"

// Sender identifies the author of a chat message. It is a closed set:
// every message is either the user's or the assistant's.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single chat turn half. Messages are immutable once appended;
// the body is opaque to the core (it may contain markdown or code fences).
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Conversation is a named, ordered sequence of messages. Insertion order is
// chronological and meaningful. A Conversation always has a name; its message
// sequence may be empty.
type Conversation struct {
	Name     string    `json:"name"`
	Messages []Message `json:"messages"`
}

// NewConversationName derives a display name from a 1-based position,
// e.g. NewConversationName(1) == "Conversation 1".
func NewConversationName(n int) string {
	return fmt.Sprintf("Conversation %d", n)
}

// DefaultCollection returns the collection a user starts with: a single
// empty conversation. A user's collection is never allowed to be empty.
func DefaultCollection() []Conversation {
	return []Conversation{{Name: NewConversationName(1), Messages: []Message{}}}
}
