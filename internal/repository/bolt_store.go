package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"chat-agent/internal/domain"
)

const defaultBucket = "chatConversations"

// Store persists per-user conversation collections in a local bbolt
// database. One bucket holds the whole namespace; keys are user IDs and
// values are the JSON-encoded conversation array. The store is a durability
// mirror of the in-memory collection: Save replaces a user's entry wholesale
// and Load reads it back once at session start.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

type Option func(*Store)

// WithBucket overrides the bucket name the store reads and writes. Separate
// bucket names give independent namespaces within the same database file.
func WithBucket(name string) Option {
	return func(s *Store) {
		s.bucket = []byte(name)
	}
}

// New opens (creating if needed) the database file at path.
func New(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("repository: database path must not be empty")
	}
	s := &Store{bucket: []byte(defaultBucket)}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.bucket) == 0 {
		return nil, errors.New("repository: bucket name must not be empty")
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("repository: open database %q: %w", path, err)
	}
	s.db = db
	return s, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored collection for userID. An absent key, an empty or
// malformed value, and a stored collection with zero entries all yield the
// default single-conversation collection; none of these is an error. Only a
// real database failure errors.
func (s *Store) Load(ctx context.Context, userID string) ([]domain.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("repository: user ID must not be empty")
	}

	var convs []domain.Conversation
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(userID))
		if len(raw) == 0 {
			return nil
		}
		// Corrupt stored JSON is treated the same as absence.
		if e := json.Unmarshal(raw, &convs); e != nil {
			convs = nil
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository: load collection for %q: %w", userID, err)
	}
	if len(convs) == 0 {
		return domain.DefaultCollection(), nil
	}
	return convs, nil
}

// Save replaces userID's stored collection with convs in one write
// transaction. Other users' entries are untouched. Repeated saves of the
// same value are a no-op observably.
func (s *Store) Save(ctx context.Context, userID string, convs []domain.Conversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("repository: user ID must not be empty")
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}

	raw, err := json.Marshal(convs)
	if err != nil {
		return fmt.Errorf("repository: encode collection for %q: %w", userID, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, e := tx.CreateBucketIfNotExists(s.bucket)
		if e != nil {
			return e
		}
		return b.Put([]byte(userID), raw)
	})
	if err != nil {
		return fmt.Errorf("repository: save collection for %q: %w", userID, err)
	}
	return nil
}
