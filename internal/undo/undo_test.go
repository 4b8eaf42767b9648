package undo

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/taskkeeper/internal/errs"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newStore(t *testing.T, capacity int) (*Store, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	s, err := New(30*time.Second, capacity, c.now, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s, c
}

func TestStore_PutTake(t *testing.T) {
	s, c := newStore(t, 4)
	owner := uuid.Must(uuid.NewV4())
	ids := []uuid.UUID{uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())}

	token, exp, err := s.Put(owner, ids)
	require.NoError(t, err)
	require.Equal(t, c.t.Add(30*time.Second), exp)

	got, err := s.Take(token, owner)
	require.NoError(t, err)
	require.Equal(t, ids, got)

	_, err = s.Take(token, owner)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_Take_ForeignOwnerKeepsEntry(t *testing.T) {
	s, _ := newStore(t, 4)
	owner := uuid.Must(uuid.NewV4())
	token, _, err := s.Put(owner, []uuid.UUID{uuid.Must(uuid.NewV4())})
	require.NoError(t, err)

	_, err = s.Take(token, uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = s.Take(token, owner)
	require.NoError(t, err)
}

func TestStore_Take_Expired(t *testing.T) {
	s, c := newStore(t, 4)
	owner := uuid.Must(uuid.NewV4())
	token, _, err := s.Put(owner, nil)
	require.NoError(t, err)

	c.advance(30 * time.Second)
	_, err = s.Take(token, owner)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Zero(t, s.Len())
}

func TestStore_CapacityEvictsOldest(t *testing.T) {
	s, _ := newStore(t, 2)
	owner := uuid.Must(uuid.NewV4())

	first, _, _ := s.Put(owner, nil)
	second, _, _ := s.Put(owner, nil)
	third, _, _ := s.Put(owner, nil)

	require.Equal(t, 2, s.Len())
	_, err := s.Take(first, owner)
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = s.Take(second, owner)
	require.NoError(t, err)
	_, err = s.Take(third, owner)
	require.NoError(t, err)
}

func TestStore_Sweep(t *testing.T) {
	s, c := newStore(t, 8)
	owner := uuid.Must(uuid.NewV4())

	_, _, _ = s.Put(owner, nil)
	c.advance(20 * time.Second)
	live, _, _ := s.Put(owner, nil)
	c.advance(10 * time.Second)

	require.Equal(t, 1, s.Sweep())
	require.Equal(t, 1, s.Len())
	_, err := s.Take(live, owner)
	require.NoError(t, err)
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	s, _ := newStore(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(0, 4, nil, nil)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = New(time.Second, 0, nil, nil)
	require.Error(t, err)
}
