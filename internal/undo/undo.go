// Package undo keeps short-lived tokens that let an owner revert a manual archive.
//
// Entries live in process memory, so a token is only honoured by the instance
// that issued it.
package undo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/and161185/taskkeeper/internal/errs"
)

// Entry is what a token resolves to.
type Entry struct {
	Owner   uuid.UUID
	TodoIDs []uuid.UUID
	Expires time.Time
}

// Store is a bounded TTL map of undo tokens.
// When full, Put evicts the oldest entry.
type Store struct {
	mu      sync.Mutex
	entries *lru.Cache
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// New builds a Store. capacity must be positive.
func New(ttl time.Duration, capacity int, now func() time.Time, log *zap.Logger) (*Store, error) {
	if ttl <= 0 {
		return nil, errs.Invalid("undo.ttl", "must be positive")
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{ttl: ttl, now: now, log: log}
	c, err := lru.NewWithEvict(capacity, s.onEvict)
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}
	s.entries = c
	return s, nil
}

func (s *Store) onEvict(key, _ any) {
	s.log.Debug("undo entry dropped", zap.String("token", key.(uuid.UUID).String()))
}

// Put stores ids for owner and returns the token with its expiry.
func (s *Store) Put(owner uuid.UUID, todoIDs []uuid.UUID) (uuid.UUID, time.Time, error) {
	token, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("undo token: %w", err)
	}
	e := Entry{
		Owner:   owner,
		TodoIDs: append([]uuid.UUID(nil), todoIDs...),
		Expires: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.entries.Add(token, e)
	s.mu.Unlock()
	return token, e.Expires, nil
}

// Take consumes a live token. Expired, unknown and foreign tokens all
// report ErrNotFound; a foreign token is left in place for its owner.
func (s *Store) Take(token, owner uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.entries.Peek(token)
	if !ok {
		return nil, fmt.Errorf("undo token: %w", errs.ErrNotFound)
	}
	e := v.(Entry)
	if !s.now().Before(e.Expires) {
		s.entries.Remove(token)
		return nil, fmt.Errorf("undo token expired: %w", errs.ErrNotFound)
	}
	if e.Owner != owner {
		return nil, fmt.Errorf("undo token: %w", errs.ErrNotFound)
	}
	s.entries.Remove(token)
	return e.TodoIDs, nil
}

// Sweep removes expired entries and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for _, k := range s.entries.Keys() {
		v, ok := s.entries.Peek(k)
		if !ok {
			continue
		}
		if !now.Before(v.(Entry).Expires) {
			s.entries.Remove(k)
			n++
		}
	}
	return n
}

// Len reports the number of held entries, expired ones included until swept.
func (s *Store) Len() int {
	return s.entries.Len()
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				s.log.Debug("undo sweep", zap.Int("expired", n))
			}
		}
	}
}
