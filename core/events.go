// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package core

import "sync"

// EventKind identifies which of the five WalletEvent shapes an event
// carries.
type EventKind int

const (
	EventTransactionCreated EventKind = iota
	EventTransactionUpdated
	EventBalanceUnlocked
	EventSyncProgressUpdated
	EventSyncCompleted
)

// WalletEvent is one entry on the EventBus queue.
type WalletEvent struct {
	Kind EventKind

	// TransactionIndex is set for EventTransactionCreated and
	// EventTransactionUpdated.
	TransactionIndex int

	// Processed/Total are set for EventSyncProgressUpdated.
	Processed uint32
	Total     uint32
}

// EventBus is a FIFO queue of WalletEvent with blocking Get semantics.
// Producers call Push from inside the ready-event critical section;
// consumers call Get from any goroutine. Grounded on the same
// notify-on-a-channel pattern wallet/session.go uses to let a consumer
// block on a result without holding the dispatcher's own lock.
type EventBus struct {
	mu      sync.Mutex
	queue   []WalletEvent
	notify  chan struct{}
	stopped bool
}

// NewEventBus returns an empty, running event bus.
func NewEventBus() *EventBus {
	return &EventBus{notify: make(chan struct{}, 1)}
}

// Push appends an event and wakes one blocked Get caller, if any. Must be
// called with the ready-event critical section held.
func (b *EventBus) Push(ev WalletEvent) {
	b.mu.Lock()
	b.queue = append(b.queue, ev)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Get blocks until an event is available or Stop is called, in which
// case it returns ErrOperationCancelled.
func (b *EventBus) Get() (WalletEvent, error) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			ev := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return ev, nil
		}
		if b.stopped {
			b.mu.Unlock()
			// Pass the wake-up on so the next blocked Get also sees the
			// stop; Stop itself posts only one token.
			select {
			case b.notify <- struct{}{}:
			default:
			}
			return WalletEvent{}, NewError(ErrOperationCancelled, "event queue stopped")
		}
		b.mu.Unlock()

		<-b.notify
	}
}

// Stop wakes every blocked Get caller with ErrOperationCancelled. Called
// from Wallet.stop().
func (b *EventBus) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Reset clears stopped state and the queue. Called from shutdown().
func (b *EventBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = false
	b.queue = nil
}
