// Package identity obtains and persists the pseudonymous user token that
// identifies a conversation's owner to the chat backend.
package identity

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultKey is the storage key the widget has always used for the token.
const DefaultKey = "chatUserId"

const (
	tokenPrefix = "user_"
	tokenLength = 13
)

// Identity is an opaque client-local user token.
type Identity string

func (i Identity) String() string { return string(i) }

// Storage is the durable key/value space the identity lives in.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Store hands out one stable identity per storage scope.
type Store struct {
	storage  Storage
	key      string
	generate func() Identity

	mu     sync.Mutex
	cached Identity
}

type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithGenerator replaces the random token generator.
func WithGenerator(gen func() Identity) Option {
	return func(s *Store) {
		if gen != nil {
			s.generate = gen
		}
	}
}

func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		key:      DefaultKey,
		generate: Generate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the saved identity, creating and saving one on first
// use. Storage failures never surface: the store falls back to an
// ephemeral identity that lives as long as the Store does.
func (s *Store) GetOrCreate(ctx context.Context) Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached
	}

	if s.storage != nil {
		stored, ok, err := s.storage.Get(ctx, s.key)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("key", s.key).Msg("identity storage unreadable, using ephemeral identity")
		case ok && stored != "":
			s.cached = Identity(stored)
			return s.cached
		}
	}

	id := s.generate()
	if s.storage != nil {
		if err := s.storage.Set(ctx, s.key, string(id)); err != nil {
			log.Warn().Err(err).Str("key", s.key).Msg("failed to persist identity, it will not survive restart")
		}
	}
	log.Debug().Str("user_id", string(id)).Msg("created identity")
	s.cached = id
	return id
}

// Generate returns a fresh "user_" token with 13 base-36 characters drawn
// from a random UUID.
func Generate() Identity {
	u := uuid.New()
	n := new(big.Int).SetBytes(u[:])
	digits := n.Text(36)
	if len(digits) < tokenLength {
		digits = strings.Repeat("0", tokenLength-len(digits)) + digits
	}
	return Identity(tokenPrefix + digits[len(digits)-tokenLength:])
}
