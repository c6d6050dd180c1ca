package events

import (
	"context"
	"testing"

	"github.com/metabranch/metabranch/pkg/errors"
	"github.com/metabranch/metabranch/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	var got []RefUpdate
	bus.Subscribe(ListenerFunc(func(_ context.Context, ev RefUpdate) error {
		got = append(got, ev)
		return nil
	}))

	old := store.HashObject([]byte("old"))
	new_ := store.HashObject([]byte("new"))
	bus.Publish(context.Background(), RefUpdate{
		Repo:  "accounts",
		Ref:   "refs/accounts/07/7",
		Old:   old,
		New:   new_,
		Actor: "svc",
	})

	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].EventID)
	assert.False(t, got[0].At.IsZero())
	assert.Equal(t, old, got[0].Old)
	assert.False(t, got[0].Deleted())
}

func TestBusListenerFailureDoesNotStopDelivery(t *testing.T) {
	bus := NewBus()
	calls := 0
	bus.Subscribe(ListenerFunc(func(context.Context, RefUpdate) error {
		calls++
		return errors.New("listener down")
	}))
	bus.Subscribe(ListenerFunc(func(context.Context, RefUpdate) error {
		calls++
		return nil
	}))

	bus.Publish(context.Background(), RefUpdate{Repo: "accounts", Ref: "refs/accounts/01/1"})
	assert.Equal(t, 2, calls)
}

func TestDeletedEvent(t *testing.T) {
	ev := RefUpdate{Old: store.HashObject([]byte("x"))}
	assert.True(t, ev.Deleted())
}
