// SPDX-License-Identifier: MPL-2.0

// Package lifecycle provides the shared state machine for long-running
// termhost services: the fallback SSH server and tunnel client processes.
// A service embeds Base and drives it through the transition helpers; an
// instance is single-use and must be recreated after it stops or fails.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	// StateCreated indicates the service was created but Start() not called.
	StateCreated State = iota
	// StateStarting indicates Start() was called and setup is in progress.
	StateStarting
	// StateRunning indicates the service is up and doing its job.
	StateRunning
	// StateStopping indicates graceful shutdown is in progress.
	StateStopping
	// StateStopped is terminal: the service shut down cleanly.
	StateStopped
	// StateFailed is terminal: startup failed or a fatal runtime error occurred.
	StateFailed
)

// ErrInvalidState is the sentinel error wrapped by InvalidStateError.
var ErrInvalidState = errors.New("invalid lifecycle state")

type (
	// State is the lifecycle state of a service.
	State int32

	// InvalidStateError is returned when a State value is not one of the
	// defined lifecycle states. It wraps ErrInvalidState for errors.Is().
	InvalidStateError struct {
		Value State
	}

	// Base holds the lifecycle machinery a service embeds: atomic state,
	// an internal context, a goroutine WaitGroup, a readiness channel and
	// an async error channel.
	Base struct {
		state atomic.Int32

		mu      sync.Mutex
		lastErr error

		ctx     context.Context
		cancel  context.CancelFunc
		wg      sync.WaitGroup
		readyCh chan struct{}
		errCh   chan error
	}
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Validate returns nil for a defined lifecycle state.
func (s State) Validate() error {
	switch s {
	case StateCreated, StateStarting, StateRunning, StateStopping, StateStopped, StateFailed:
		return nil
	default:
		return &InvalidStateError{Value: s}
	}
}

// IsTerminal reports whether the state is Stopped or Failed.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid lifecycle state %d", e.Value)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// NewBase creates a Base in the Created state.
func NewBase() *Base {
	b := &Base{
		readyCh: make(chan struct{}),
		errCh:   make(chan error, 1),
	}
	b.state.Store(int32(StateCreated))
	return b
}

// State returns the current state (lock-free read).
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning reports whether the service is in the Running state.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns the channel carrying fatal async errors. It is closed when
// the service stops.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the error that moved the service to Failed, or nil.
func (b *Base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// TransitionToStarting moves Created -> Starting. The cancelled-context
// check happens before the swap so a serve goroutine can never observe
// Running after the caller has already given up.
func (b *Base) TransitionToStarting(ctx context.Context) error {
	select {
	case <-ctx.Done():
		b.TransitionToFailed(fmt.Errorf("context cancelled before start: %w", ctx.Err()))
		return b.LastError()
	default:
	}

	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start service in state %s", b.State())
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	return nil
}

// TransitionToRunning moves Starting -> Running and signals readiness.
func (b *Base) TransitionToRunning() {
	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(b.readyCh)
	}
}

// TransitionToFailed records the error, moves to Failed and cancels the
// internal context.
func (b *Base) TransitionToFailed(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()

	b.state.Store(int32(StateFailed))
	if b.cancel != nil {
		b.cancel()
	}
	b.SendError(err)
}

// TransitionToStopping moves a live service to Stopping and cancels the
// internal context. Returns false when there is nothing to stop (already
// stopping, stopped, failed, or never started).
func (b *Base) TransitionToStopping() bool {
	for {
		current := b.State()
		switch current {
		case StateStopped, StateFailed, StateStopping:
			return false
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if !b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				continue
			}
			if b.cancel != nil {
				b.cancel()
			}
			return true
		default:
			return false
		}
	}
}

// TransitionToStopped marks the service fully stopped. Call only after
// WaitForShutdown has returned.
func (b *Base) TransitionToStopped() {
	b.state.Store(int32(StateStopped))
}

// WaitForReady blocks until the service is running or ctx is cancelled.
func (b *Base) WaitForReady(ctx context.Context) error {
	select {
	case <-b.readyCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for service ready: %w", ctx.Err())
	}
}

// WaitForShutdown blocks until every tracked goroutine has exited.
func (b *Base) WaitForShutdown() {
	b.wg.Wait()
}

// Context returns the internal context, nil before Start.
func (b *Base) Context() context.Context {
	return b.ctx
}

// AddGoroutine registers a goroutine; call before starting it.
func (b *Base) AddGoroutine() {
	b.wg.Add(1)
}

// DoneGoroutine marks a tracked goroutine finished; defer it first thing.
func (b *Base) DoneGoroutine() {
	b.wg.Done()
}

// SendError delivers an error to Err() without blocking; a full channel
// drops the error.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}

// CloseErrChannel closes the error channel once the service is stopped.
func (b *Base) CloseErrChannel() {
	close(b.errCh)
}

// ReadyChannel exposes the readiness channel for custom select loops.
func (b *Base) ReadyChannel() <-chan struct{} {
	return b.readyCh
}
