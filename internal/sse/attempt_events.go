package sse

import (
	"context"
	"sync"

	"controle-acesso/internal/models"
)

// AttemptEmitter fans access attempts out to live admin streams, keyed by event.
type AttemptEmitter struct {
	eventClients     map[string][]chan models.AccessAttempt
	eventClientMutex sync.RWMutex
}

func NewAttemptEmitter() *AttemptEmitter {
	return &AttemptEmitter{
		eventClients: make(map[string][]chan models.AccessAttempt),
	}
}

// SubscribeToEvent registers a client for eventID. The channel is closed once
// ctx is done.
func (e *AttemptEmitter) SubscribeToEvent(ctx context.Context, eventID string) <-chan models.AccessAttempt {
	clientChan := make(chan models.AccessAttempt, 10)

	e.eventClientMutex.Lock()
	e.eventClients[eventID] = append(e.eventClients[eventID], clientChan)
	e.eventClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeEventClient(eventID, clientChan)
	}()

	return clientChan
}

// Emit broadcasts the attempt to every subscriber of its event. Slow clients
// whose buffer is full miss the message.
func (e *AttemptEmitter) Emit(attempt models.AccessAttempt) {
	// the read lock is held across the sends so a concurrent remove cannot
	// close a channel mid-send
	e.eventClientMutex.RLock()
	defer e.eventClientMutex.RUnlock()

	for _, clientChan := range e.eventClients[attempt.EventID] {
		select {
		case clientChan <- attempt:
		default:
		}
	}
}

func (e *AttemptEmitter) removeEventClient(eventID string, clientChan chan models.AccessAttempt) {
	e.eventClientMutex.Lock()
	defer e.eventClientMutex.Unlock()

	clients := e.eventClients[eventID]
	for i, ch := range clients {
		if ch == clientChan {
			e.eventClients[eventID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.eventClients[eventID]) == 0 {
		delete(e.eventClients, eventID)
	}
}

// ClientCount returns the number of live subscribers for an event.
func (e *AttemptEmitter) ClientCount(eventID string) int {
	e.eventClientMutex.RLock()
	defer e.eventClientMutex.RUnlock()
	return len(e.eventClients[eventID])
}
