// Package plasticity is the command execution and history core of an
// interactive editor: a preemptible command executor over a serially
// queued geometry database, with memento-based undo/redo.
package plasticity

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is a command's lifecycle position. Transitions are monotonic:
// None → Started → one of Finished, Cancelled, Interrupted; terminal
// states never change again.
type State int32

const (
	// None: created, not yet running. A command superseded while it
	// only ever waited in the pending slot stays None forever.
	None State = iota
	// Started: the effect routine is running on the document queue.
	Started
	// Finished: the effect completed without error and was not
	// superseded. Only Finished commands reach history.
	Finished
	// Cancelled: the effect returned an error, panicked, or the
	// consumer explicitly cancelled the command.
	Cancelled
	// Interrupted: a newer command preempted this one while it was
	// active. Distinct from Cancelled so observers can tell
	// "superseded" apart from "failed".
	Interrupted
)

func (s State) String() string {
	switch s {
	case None:
		return "None"
	case Started:
		return "Started"
	case Finished:
		return "Finished"
	case Cancelled:
		return "Cancelled"
	case Interrupted:
		return "Interrupted"
	}
	return "State(?)"
}

func (s State) Terminal() bool {
	return s == Finished || s == Cancelled || s == Interrupted
}

// Effect is a command's work. It runs on the document's serial queue;
// ctx is cancelled when the command is interrupted or cancelled, and
// the routine is expected to notice at its own suspension points and
// bail out. It may keep running after interruption; its eventual
// return is recorded but cannot change an Interrupted outcome.
type Effect func(ctx context.Context) error

// Command is one user-initiated, cancellable unit of document work.
type Command struct {
	id     uuid.UUID
	label  string
	editor *Editor
	effect Effect

	state  atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc
}

func newCommand(ed *Editor, label string, effect Effect) *Command {
	ctx, cancel := context.WithCancel(context.Background())
	return &Command{
		id:     uuid.New(),
		label:  label,
		editor: ed,
		effect: effect,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Command) ID() uuid.UUID { return c.id }
func (c *Command) Label() string { return c.label }

func (c *Command) State() State {
	return State(c.state.Load())
}

// Interrupt marks the command superseded and signals its cancellation
// hook. Cooperative: in-flight work is not torn down. No-op once the
// command is terminal.
func (c *Command) Interrupt() {
	if c.mark(Interrupted) {
		c.cancel()
	}
}

// Cancel is the consumer explicitly rejecting the command, before or
// during execution.
func (c *Command) Cancel() {
	if c.mark(Cancelled) {
		c.cancel()
	}
}

// mark CASes into a terminal state from None or Started.
func (c *Command) mark(to State) bool {
	for {
		from := c.State()
		if from.Terminal() {
			return false
		}
		if c.state.CompareAndSwap(int32(from), int32(to)) {
			return true
		}
	}
}

// start flips None → Started. Fails if the command was already
// interrupted or cancelled while waiting.
func (c *Command) start() bool {
	return c.state.CompareAndSwap(int32(None), int32(Started))
}

// settle records the effect's own outcome. Loses to a terminal state
// already decided (an interrupt stays an interrupt no matter how the
// work settled).
func (c *Command) settle(to State) bool {
	ok := c.state.CompareAndSwap(int32(Started), int32(to))
	if ok {
		c.cancel()
	}
	return ok
}
