// Package store owns the active user's conversation collection: which
// conversations exist, which one is selected, and every mutation applied to
// them. All mutations flow through this package and are mirrored to the
// injected repository after they commit.
package store

import (
	"context"
	"errors"
	"fmt"

	"chat-agent/internal/domain"
)

// Repository is the persistence adapter the store writes through. The
// concrete implementation lives in internal/repository; tests inject an
// in-memory fake.
type Repository interface {
	Load(ctx context.Context, userID string) ([]domain.Conversation, error)
	Save(ctx context.Context, userID string, convs []domain.Conversation) error
}

// Store holds the in-memory collection for one user session. It is driven by
// a single logical thread of user actions and is not goroutine-safe.
//
// The collection is never empty: deleting the last conversation replaces it
// with a fresh default one, and the selected index always satisfies
// 0 <= selected < len(conversations).
type Store struct {
	repo          Repository
	userID        string
	conversations []domain.Conversation
	selected      int
}

func New(repo Repository) (*Store, error) {
	if repo == nil {
		return nil, errors.New("store: repository must not be nil")
	}
	return &Store{repo: repo}, nil
}

// Initialize loads userID's persisted collection and resets selection to the
// first conversation. It must be called once per user-identity change; a
// guest-to-signed-in transition counts as a change.
func (s *Store) Initialize(ctx context.Context, userID string) error {
	convs, err := s.repo.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("store: initialize %q: %w", userID, err)
	}
	s.userID = userID
	s.conversations = convs
	s.selected = 0
	return nil
}

// Conversations returns the current collection. Callers must treat the
// returned slice as read-only; all mutation goes through Store operations.
func (s *Store) Conversations() []domain.Conversation {
	return s.conversations
}

func (s *Store) SelectedIndex() int {
	return s.selected
}

// Selected returns the currently selected conversation.
func (s *Store) Selected() domain.Conversation {
	return s.conversations[s.selected]
}

// Select moves the selection to index i. An out-of-range index is a no-op:
// the UI is not expected to offer one, but a stray call must not corrupt
// state.
func (s *Store) Select(i int) {
	if i < 0 || i >= len(s.conversations) {
		return
	}
	s.selected = i
}

// CreateConversation appends a new empty conversation named after its
// position and makes it the selected one.
func (s *Store) CreateConversation(ctx context.Context) error {
	s.conversations = append(s.conversations, domain.Conversation{
		Name:     domain.NewConversationName(len(s.conversations) + 1),
		Messages: []domain.Message{},
	})
	s.selected = len(s.conversations) - 1
	return s.persist(ctx)
}

// DeleteConversation removes the conversation at index i. If that empties
// the collection it is replaced with a single fresh default conversation.
// Selection follows the same logical conversation where possible: deleting
// an earlier conversation shifts the selection down by one, deleting the
// selected one resets it to the first. Out-of-range is a no-op.
func (s *Store) DeleteConversation(ctx context.Context, i int) error {
	if i < 0 || i >= len(s.conversations) {
		return nil
	}
	s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
	switch {
	case len(s.conversations) == 0:
		s.conversations = domain.DefaultCollection()
		s.selected = 0
	case i == s.selected:
		s.selected = 0
	case i < s.selected:
		s.selected--
	}
	return s.persist(ctx)
}

// AppendMessage appends msg to the selected conversation. Messages are only
// ever appended, never edited in place.
func (s *Store) AppendMessage(ctx context.Context, msg domain.Message) error {
	if len(s.conversations) == 0 {
		return errors.New("store: no conversation selected")
	}
	c := &s.conversations[s.selected]
	c.Messages = append(c.Messages, msg)
	return s.persist(ctx)
}

// persist mirrors the collection to the repository. The in-memory mutation
// has already committed when this runs; a failed write is reported but not
// rolled back, so a crash before the next successful save loses at most the
// unwritten tail.
func (s *Store) persist(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.userID, s.conversations); err != nil {
		return fmt.Errorf("store: persist collection: %w", err)
	}
	return nil
}
