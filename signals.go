package plasticity

import (
	"sync"
	"sync/atomic"

	"github.com/learn-decentralized-systems/toyqueue"
	"github.com/learn-decentralized-systems/toytlv"
	"github.com/puzpuzpuz/xsync/v3"
)

// Signal record literals, one per event kind. Hose subscribers get
// each event as a TLV record of the matching literal wrapping the
// command's uuid (empty body for history-changed).
const (
	SigCommandStarted  = byte('C')
	SigCommandFinished = byte('F')
	SigCommandEnded    = byte('E')
	SigHistoryChanged  = byte('H')
)

const SignalHoseLimit = 1 << 16

// Signals is the editor's notification hub: the only coupling point
// between the command core and UI/rendering layers. Publishing is
// side-effect-free on this side; handlers run synchronously on the
// publishing goroutine and must not mutate editor state.
//
// Two consumption styles: in-process callbacks (On*) and record hoses
// (AddHose) that feed TLV records to out-of-process or queued
// consumers, in the manner of a packet hose.
type Signals struct {
	nextID atomic.Uint64

	started  *xsync.MapOf[uint64, func(*Command)]
	finished *xsync.MapOf[uint64, func(*Command)]
	ended    *xsync.MapOf[uint64, func(*Command)]
	history  *xsync.MapOf[uint64, func()]

	hoseLock sync.Mutex
	hoses    map[string]toyqueue.DrainCloser
}

func NewSignals() *Signals {
	return &Signals{
		started:  xsync.NewMapOf[uint64, func(*Command)](),
		finished: xsync.NewMapOf[uint64, func(*Command)](),
		ended:    xsync.NewMapOf[uint64, func(*Command)](),
		history:  xsync.NewMapOf[uint64, func()](),
		hoses:    make(map[string]toyqueue.DrainCloser),
	}
}

func (s *Signals) subscribe(m *xsync.MapOf[uint64, func(*Command)], f func(*Command)) (unsubscribe func()) {
	id := s.nextID.Add(1)
	m.Store(id, f)
	return func() { m.Delete(id) }
}

// OnCommandStarted fires when a command's effect begins running.
func (s *Signals) OnCommandStarted(f func(*Command)) (unsubscribe func()) {
	return s.subscribe(s.started, f)
}

// OnCommandFinished fires only for commands that reached Finished,
// after their history entry exists.
func (s *Signals) OnCommandFinished(f func(*Command)) (unsubscribe func()) {
	return s.subscribe(s.finished, f)
}

// OnCommandEnded fires for every command the executor saw, whatever
// the outcome, dropped ones included.
func (s *Signals) OnCommandEnded(f func(*Command)) (unsubscribe func()) {
	return s.subscribe(s.ended, f)
}

// OnHistoryChanged fires on every append, undo, redo, or reset.
func (s *Signals) OnHistoryChanged(f func()) (unsubscribe func()) {
	id := s.nextID.Add(1)
	s.history.Store(id, f)
	return func() { s.history.Delete(id) }
}

// AddHose registers a named record consumer. A previous hose under the
// same name is closed and replaced.
func (s *Signals) AddHose(name string) toyqueue.FeedCloser {
	queue := toyqueue.RecordQueue{Limit: SignalHoseLimit}
	s.hoseLock.Lock()
	old := s.hoses[name]
	s.hoses[name] = &queue
	s.hoseLock.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return queue.Blocking()
}

func (s *Signals) RemoveHose(name string) {
	s.hoseLock.Lock()
	old := s.hoses[name]
	delete(s.hoses, name)
	s.hoseLock.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

// broadcast drains one record to every hose; a hose that errors is
// dropped.
func (s *Signals) broadcast(rec []byte) {
	recs := toyqueue.Records{rec}
	s.hoseLock.Lock()
	for name, hose := range s.hoses {
		if err := hose.Drain(recs); err != nil {
			delete(s.hoses, name)
			_ = hose.Close()
		}
	}
	s.hoseLock.Unlock()
}

func commandRecord(lit byte, c *Command) []byte {
	id := c.ID()
	return toytlv.Record(lit, id[:])
}

func (s *Signals) publishCommandStarted(c *Command) {
	s.started.Range(func(_ uint64, f func(*Command)) bool {
		f(c)
		return true
	})
	s.broadcast(commandRecord(SigCommandStarted, c))
}

func (s *Signals) publishCommandFinished(c *Command) {
	s.finished.Range(func(_ uint64, f func(*Command)) bool {
		f(c)
		return true
	})
	s.broadcast(commandRecord(SigCommandFinished, c))
}

func (s *Signals) publishCommandEnded(c *Command) {
	s.ended.Range(func(_ uint64, f func(*Command)) bool {
		f(c)
		return true
	})
	s.broadcast(commandRecord(SigCommandEnded, c))
}

func (s *Signals) publishHistoryChanged() {
	s.history.Range(func(_ uint64, f func()) bool {
		f()
		return true
	})
	s.broadcast(toytlv.Record(SigHistoryChanged))
}

// Close shuts every hose down.
func (s *Signals) Close() {
	s.hoseLock.Lock()
	for name, hose := range s.hoses {
		delete(s.hoses, name)
		_ = hose.Close()
	}
	s.hoseLock.Unlock()
}
