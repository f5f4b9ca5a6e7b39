package match

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"

	"github.com/yy824/ScopeX/ring"
)

const defaultShellRingCapacity = 1 << 16

// pushRetryBudget bounds how many Gosched-and-retry spins push attempts
// before giving up on a ring that refuses to drain. At that point the
// worker is either stalled or the producer is outrunning it badly enough
// that spinning forever would just hang the submitter.
const pushRetryBudget = 1 << 20

// envelopeKind tags a CmdEnvelope's payload union.
type envelopeKind uint8

const (
	envAdd envelopeKind = iota + 1
	envCancel
	envStop
)

// OneShot is a single-value, single-waker reply slot: the worker
// fulfills it exactly once, the submitter blocks on it exactly once.
// Capacity 1 means Fulfill never blocks even if nobody is awaiting yet.
type OneShot[T any] chan T

// NewOneShot returns a ready-to-use reply slot.
func NewOneShot[T any]() OneShot[T] {
	return make(OneShot[T], 1)
}

// Fulfill publishes the result. Must be called exactly once.
func (o OneShot[T]) Fulfill(v T) {
	o <- v
}

// Await blocks until Fulfill is called.
func (o OneShot[T]) Await() T {
	return <-o
}

// CmdEnvelope is the ring's payload: a tagged ADD/CANCEL/STOP variant,
// each carrying a trace token for downstream correlation (never engine
// identity) and, for ADD/CANCEL, a one-shot reply slot.
type CmdEnvelope struct {
	kind  envelopeKind
	trace string

	addCmd   OrderCmd
	addReply OneShot[AddResult]

	cancelID    Id
	cancelReply OneShot[bool]
}

// AsyncEngineShell wraps a MatchingEngine behind a wait-free SPSC ring so
// exactly one producer goroutine can submit commands while a dedicated
// worker goroutine owns the engine exclusively. Submission blocks the
// caller on the command's reply slot, so from the API's perspective a
// call to AddOrder/CancelOrder still looks synchronous.
//
// Snapshot and Metrics bypass the ring entirely and read the engine
// directly under mu in read mode; every mutating dispatch in run() takes
// mu in write mode around the same call. This is the reader-writer-lock
// alternative to routing reads through the ring too.
type AsyncEngineShell struct {
	engine *MatchingEngine
	ring   *ring.SpscRing[CmdEnvelope]
	mu     sync.RWMutex

	closed  atomic.Bool
	stopped chan struct{}
}

// NewAsyncEngineShell starts the worker goroutine and returns the shell.
// ringCapacity must be a power of two; 0 selects a default of 2^16.
func NewAsyncEngineShell(engine *MatchingEngine, ringCapacity int) *AsyncEngineShell {
	if ringCapacity <= 0 {
		ringCapacity = defaultShellRingCapacity
	}
	s := &AsyncEngineShell{
		engine:  engine,
		ring:    ring.NewSpscRing[CmdEnvelope](ringCapacity),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

// push busy-retries with a yield on a transiently full ring, per §4.4,
// up to pushRetryBudget spins. It returns false if the ring never
// drained in that window, logging ErrRingExhausted with env's trace so
// the caller can give up rather than block on a reply that will never
// be fulfilled.
func (s *AsyncEngineShell) push(env CmdEnvelope) bool {
	for attempt := 0; !s.ring.Push(env); attempt++ {
		if attempt >= pushRetryBudget {
			logger.Error("ring push gave up", "err", ErrRingExhausted, "trace", env.trace, "kind", env.kind)
			return false
		}
		runtime.Gosched()
	}
	return true
}

// AddOrder submits cmd to the worker and blocks for its AddResult. If the
// shell has already been stopped, or the ring never drains in time, it
// logs the reason and answers with a terminal Reject instead of
// submitting into a worker that will never pick it up.
func (s *AsyncEngineShell) AddOrder(cmd OrderCmd) AddResult {
	if s.closed.Load() {
		logger.Warn("add order submitted after shutdown", "err", ErrShutdown)
		return AddResult{Status: Reject, OrderID: cmd.OrderID, Remaining: cmd.Qty}
	}

	reply := NewOneShot[AddResult]()
	env := CmdEnvelope{kind: envAdd, trace: xid.New().String(), addCmd: cmd, addReply: reply}
	if !s.push(env) {
		return AddResult{Status: Reject, OrderID: cmd.OrderID, Remaining: cmd.Qty}
	}
	return reply.Await()
}

// CancelOrder submits a cancellation and blocks for its bool outcome,
// with the same shutdown/exhausted-ring fallback as AddOrder.
func (s *AsyncEngineShell) CancelOrder(id Id) bool {
	if s.closed.Load() {
		logger.Warn("cancel order submitted after shutdown", "err", ErrShutdown)
		return false
	}

	reply := NewOneShot[bool]()
	env := CmdEnvelope{kind: envCancel, trace: xid.New().String(), cancelID: id, cancelReply: reply}
	if !s.push(env) {
		return false
	}
	return reply.Await()
}

// Snapshot reads the book directly, outside the ring.
func (s *AsyncEngineShell) Snapshot(depth int) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Snapshot(depth)
}

// Metrics reads the engine's counters directly, outside the ring.
func (s *AsyncEngineShell) Metrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Metrics()
}

// DepthCache returns the wrapped engine's depth mirror. The cache has its
// own lock and is refreshed by the worker goroutine on every admission,
// so callers may read it without going through s.mu at all.
func (s *AsyncEngineShell) DepthCache() *DepthCache {
	return s.engine.DepthCache()
}

// Stop enqueues a STOP envelope and blocks until the worker has drained
// the ring and exited. Calling Stop more than once is safe: later calls
// just wait on the same close.
func (s *AsyncEngineShell) Stop() {
	if !s.closed.CompareAndSwap(false, true) {
		<-s.stopped
		return
	}

	env := CmdEnvelope{kind: envStop, trace: xid.New().String()}
	if !s.push(env) {
		logger.Error("stop envelope never reached the worker", "err", ErrShutdown, "trace", env.trace)
		return
	}
	<-s.stopped
}

// run is the worker's loop: pop, dispatch, repeat, until a STOP envelope
// triggers a drain and exit.
func (s *AsyncEngineShell) run() {
	for {
		var env CmdEnvelope
		if !s.ring.Pop(&env) {
			runtime.Gosched()
			continue
		}
		if s.dispatch(env) {
			s.drainOnStop()
			close(s.stopped)
			return
		}
	}
}

// dispatch invokes the engine for one envelope and fulfils its reply. It
// reports whether env was a STOP.
func (s *AsyncEngineShell) dispatch(env CmdEnvelope) bool {
	switch env.kind {
	case envAdd:
		s.mu.Lock()
		res := s.engine.AddOrder(env.addCmd)
		s.mu.Unlock()
		env.addReply.Fulfill(res)
	case envCancel:
		s.mu.Lock()
		ok := s.engine.CancelOrder(env.cancelID)
		s.mu.Unlock()
		env.cancelReply.Fulfill(ok)
	case envStop:
		return true
	default:
		logger.Error("dropping envelope", "err", ErrUnknownCommand, "trace", env.trace, "kind", env.kind)
	}
	return false
}

// drainOnStop empties whatever is left in the ring after a STOP,
// fulfilling every pending reply with a terminal outcome rather than
// leaving a submitter blocked forever. It drains in batches via
// TryPopN since nothing here needs per-command dispatch ordering against
// a live book anymore. Every envelope found here arrived after STOP was
// already enqueued, so each one is logged as a dropped, still-outstanding
// reply.
func (s *AsyncEngineShell) drainOnStop() {
	buf := make([]CmdEnvelope, 256)
	for {
		n := s.ring.TryPopN(buf)
		if n == 0 {
			return
		}
		for _, env := range buf[:n] {
			switch env.kind {
			case envAdd:
				logger.Warn("add order dropped by stop drain", "err", ErrShutdown, "trace", env.trace)
				env.addReply.Fulfill(AddResult{
					Status:    Reject,
					OrderID:   env.addCmd.OrderID,
					Remaining: env.addCmd.Qty,
				})
			case envCancel:
				logger.Warn("cancel order dropped by stop drain", "err", ErrShutdown, "trace", env.trace)
				env.cancelReply.Fulfill(false)
			case envStop:
				// a second STOP raced in during shutdown; nothing to fulfil
			default:
				logger.Error("dropping envelope", "err", ErrUnknownCommand, "trace", env.trace, "kind", env.kind)
			}
		}
	}
}

var _ IEngine = (*AsyncEngineShell)(nil)
