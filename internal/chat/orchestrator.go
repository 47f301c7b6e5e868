// Package chat coordinates one conversation turn: optimistic user append,
// proxy call, assistant (or fallback) append.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"chat-agent/internal/domain"
)

// FallbackReply is the assistant message shown when generation fails. A
// failed turn surfaces as ordinary chat data, never as an error to the user.
const FallbackReply = "Sorry, something went wrong."

// ErrTurnInFlight is returned when Submit is called while a previous turn is
// still awaiting its reply. Admission is one turn at a time; callers should
// disable input until the pending turn resolves.
var ErrTurnInFlight = errors.New("chat: a turn is already in flight")

// MessageAppender is the slice of the conversation store the orchestrator
// needs. It only ever appends through it, never touches the collection
// directly.
type MessageAppender interface {
	AppendMessage(ctx context.Context, msg domain.Message) error
}

// Generator produces one reply for one prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Turn is the outcome of one Submit call.
type Turn struct {
	// Skipped is true when the input was blank and nothing was appended.
	Skipped bool
	// Failed is true when generation failed and the fallback reply was
	// appended instead of a real one.
	Failed bool
	// Reply is the assistant message appended for this turn.
	Reply domain.Message
}

type Orchestrator struct {
	store    MessageAppender
	llm      Generator
	inFlight atomic.Bool
}

func New(store MessageAppender, llm Generator) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("chat: store must not be nil")
	}
	if llm == nil {
		return nil, errors.New("chat: generator must not be nil")
	}
	return &Orchestrator{store: store, llm: llm}, nil
}

// Submit runs one turn for text against the selected conversation.
//
// The user message is appended before the network call resolves and is never
// rolled back: a failed generation leaves the user turn in place and appends
// FallbackReply, so the failure is legible in-line without any rollback
// machinery. Blank input is an intentional no-op. The error return covers
// only internal store failures, never generation outcome.
func (o *Orchestrator) Submit(ctx context.Context, text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{Skipped: true}, nil
	}
	if !o.inFlight.CompareAndSwap(false, true) {
		return Turn{}, ErrTurnInFlight
	}
	defer o.inFlight.Store(false)

	if err := o.store.AppendMessage(ctx, domain.Message{Sender: domain.SenderUser, Text: text}); err != nil {
		return Turn{}, err
	}

	turn := Turn{}
	reply, err := o.llm.Generate(ctx, text)
	if err != nil {
		slog.Warn("generation failed, appending fallback reply", "err", err)
		turn.Failed = true
		reply = FallbackReply
	}

	turn.Reply = domain.Message{Sender: domain.SenderAssistant, Text: reply}
	if err := o.store.AppendMessage(ctx, turn.Reply); err != nil {
		return Turn{}, err
	}
	return turn, nil
}
