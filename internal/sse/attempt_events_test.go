package sse

import (
	"context"
	"testing"
	"time"

	"controle-acesso/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_OnlyReachesEventSubscribers(t *testing.T) {
	e := NewAttemptEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mine := e.SubscribeToEvent(ctx, "ev-1")
	other := e.SubscribeToEvent(ctx, "ev-2")

	e.Emit(models.AccessAttempt{ID: "a1", EventID: "ev-1", Verdict: models.VerdictAdmit})

	select {
	case got := <-mine:
		assert.Equal(t, "a1", got.ID)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive attempt")
	}

	select {
	case got := <-other:
		t.Fatalf("unexpected attempt on other event: %+v", got)
	default:
	}
}

func TestEmit_FullBufferDoesNotBlock(t *testing.T) {
	e := NewAttemptEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e.SubscribeToEvent(ctx, "ev-1")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			e.Emit(models.AccessAttempt{EventID: "ev-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a slow client")
	}
}

func TestSubscribe_RemovedOnCancel(t *testing.T) {
	e := NewAttemptEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := e.SubscribeToEvent(ctx, "ev-1")
	require.Equal(t, 1, e.ClientCount("ev-1"))

	cancel()

	require.Eventually(t, func() bool { return e.ClientCount("ev-1") == 0 }, time.Second, 10*time.Millisecond)
	_, open := <-ch
	assert.False(t, open)

	// emitting after removal is safe
	e.Emit(models.AccessAttempt{EventID: "ev-1"})
}
