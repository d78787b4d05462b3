package plasticity

import (
	"context"
	"sync"
	"time"

	"github.com/shaunstanislauslau/plasticity/utils"
)

// Executor runs commands one at a time against the document, and lets
// a newly enqueued command preempt the one in flight. Last writer
// wins: only the most recently enqueued command can reach Finished.
//
// Preemption is advisory. Interrupting flips the command's state and
// cancels its context, but the executor never tears down the effect's
// own work; the drain loop simply waits for the document queue to hand
// the turn over. A command that ignores its context stalls that
// document's queue, which is a contract on effects, not something
// enforced here.
//
// An interrupted command's partial mutations are not rolled back.
// Interrupted commands never reach history, so the previous history
// entry is the recovery point; effects that need atomicity snapshot
// and restore themselves.
type Executor struct {
	queue      *utils.Serial
	originator *EditorOriginator
	history    *History
	signals    *Signals
	log        utils.Logger

	mu      sync.Mutex
	active  *Command
	pending *Command
	waiting *utils.Done // handle of the pending command
	running bool
}

func newExecutor(queue *utils.Serial, o *EditorOriginator, h *History, s *Signals, log utils.Logger) *Executor {
	return &Executor{
		queue:      queue,
		originator: o,
		history:    h,
		signals:    s,
		log:        log,
	}
}

// Enqueue hands a command to the executor. The returned handle settles
// once the command is terminal or dropped, and never carries an error:
// failures are observable only through command state.
//
// If the executor is idle the command becomes active before Enqueue
// returns. Otherwise the active command is flipped to Interrupted
// synchronously, and any command still waiting in the pending slot is
// dropped: its state stays None, its handle settles, command-ended is
// still published.
func (x *Executor) Enqueue(cmd *Command) *utils.Done {
	done := utils.NewDone()

	x.mu.Lock()
	if !x.running {
		x.running = true
		x.active = cmd
		x.mu.Unlock()
		go x.drain(cmd, done)
		return done
	}
	dropped, droppedDone := x.pending, x.waiting
	x.pending, x.waiting = cmd, done
	active := x.active
	x.mu.Unlock()

	if dropped != nil {
		x.log.Debug("command dropped", "id", dropped.ID(), "label", dropped.Label())
		commandsDropped.Inc()
		x.signals.publishCommandEnded(dropped)
		droppedDone.Settle(nil)
	}
	if active != nil {
		active.Interrupt()
	}
	return done
}

// drain owns the active slot: it executes cmd, then keeps taking the
// pending command until the slot is empty.
func (x *Executor) drain(cmd *Command, done *utils.Done) {
	for {
		x.execute(cmd)
		done.Settle(nil)

		x.mu.Lock()
		x.active = nil
		cmd, done = x.pending, x.waiting
		x.pending, x.waiting = nil, nil
		if cmd == nil {
			x.running = false
			x.mu.Unlock()
			return
		}
		x.active = cmd
		x.mu.Unlock()
	}
}

func (x *Executor) execute(cmd *Command) {
	began := time.Now()
	err := x.queue.Enqueue(cmd.ctx, func(ctx context.Context) error {
		if !cmd.start() {
			// superseded or cancelled before its turn came up
			return nil
		}
		x.signals.publishCommandStarted(cmd)
		return cmd.effect(ctx)
	}).Wait(context.Background())

	switch {
	case cmd.State().Terminal():
		// interrupt or explicit cancel already decided; the effect's
		// own settlement is recorded but changes nothing
		if err != nil {
			x.log.Debug("superseded command settled", "id", cmd.ID(), "err", err)
		}
	case err != nil:
		cmd.settle(Cancelled)
		x.log.Warn("command failed", "id", cmd.ID(), "label", cmd.Label(), "err", err)
	default:
		if cmd.settle(Finished) {
			x.checkpoint(cmd)
		}
	}

	outcome := cmd.State()
	commandsTotal.WithLabelValues(outcome.String()).Inc()
	commandDuration.Observe(time.Since(began).Seconds())
	x.signals.publishCommandEnded(cmd)
}

// checkpoint captures the net effect of a finished command as one
// history entry.
func (x *Executor) checkpoint(cmd *Command) {
	m, err := x.originator.Snapshot(context.Background())
	if err != nil {
		x.log.Error("checkpoint failed", "id", cmd.ID(), "err", err)
		return
	}
	x.history.Add(m, cmd.Label())
	x.signals.publishCommandFinished(cmd)
}

// Active returns the command currently owned by the drain loop, nil
// between commands.
func (x *Executor) Active() *Command {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.active
}
