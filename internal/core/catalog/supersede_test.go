// internal/core/catalog/supersede_test.go
package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/preloved-be/internal/core/catalog"
)

func TestSuperseder_LastWriteWins(t *testing.T) {
	s := catalog.NewSuperseder()

	firstCtx, first := s.Begin(context.Background(), "session-1")
	secondCtx, second := s.Begin(context.Background(), "session-1")

	require.ErrorIs(t, context.Cause(firstCtx), catalog.ErrSuperseded)
	assert.False(t, first.Current())
	assert.True(t, second.Current())
	assert.NoError(t, secondCtx.Err())

	assert.False(t, first.Done(), "stale result must be discarded")
	assert.Equal(t, 1, s.InFlight())
	assert.True(t, second.Done())
	assert.Equal(t, 0, s.InFlight())
	assert.Error(t, secondCtx.Err())
}

func TestSuperseder_KeysAreIndependent(t *testing.T) {
	s := catalog.NewSuperseder()

	aCtx, a := s.Begin(context.Background(), "a")
	_, b := s.Begin(context.Background(), "b")

	assert.NoError(t, aCtx.Err())
	assert.True(t, a.Current())
	assert.True(t, b.Current())
	assert.Equal(t, 2, s.InFlight())

	a.Done()
	b.Done()
}

func TestSuperseder_ParentCancellation(t *testing.T) {
	s := catalog.NewSuperseder()
	parent, cancel := context.WithCancel(context.Background())

	ctx, ticket := s.Begin(parent, "k")
	cancel()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.True(t, ticket.Done())
}
