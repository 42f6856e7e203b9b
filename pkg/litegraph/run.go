package litegraph

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/litegraph/pkg/litegraph/observability"
)

// stepConfig holds per-call options for RunStep.
type stepConfig struct {
	propagate bool
	limit     int
}

// StepOption configures RunStep.
type StepOption func(*stepConfig)

// PropagateErrors makes RunStep return node errors as they happen and let
// panics escape, bypassing the CatchErrors and ThrowErrors policy.
func PropagateErrors() StepOption {
	return func(c *stepConfig) {
		c.propagate = true
	}
}

// WithNodeLimit executes only the first n nodes of the execution order in
// each iteration. Useful to run a graph up to a given node.
func WithNodeLimit(n int) StepOption {
	return func(c *stepConfig) {
		if n > 0 {
			c.limit = n
		}
	}
}

// RunStep runs num iterations over the executable nodes in execution
// order. Each node first drains its deferred actions, then executes when
// its mode is Always.
//
// Errors and panics are caught: ErrorsInExecution becomes true and the
// error is returned when ThrowErrors is set, otherwise it is logged and
// the running loop, if any, is asked to stop. PropagateErrors disables
// catching.
//
// Whatever the outcome, the step timing is updated, the iteration counter
// advances, the per-step guards reset and trigger counters decay.
func (g *Graph) RunStep(ctx context.Context, num int, opts ...StepOption) (err error) {
	if ctx == nil {
		return ErrNilContext
	}
	var cfg stepConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if num <= 0 {
		num = 1
	}

	start := time.Now()
	if g.startTime.IsZero() {
		g.startTime = start
	}
	g.globalTime = start.Sub(g.startTime)

	stepCtx, span := g.spans.StartStepSpan(ctx, g.id, g.iteration)
	defer func() {
		g.finishStep(stepCtx, start, num, err)
		g.spans.EndSpanWithError(span, err)
	}()

	if cfg.propagate {
		var current NodeID
		return g.iterate(stepCtx, num, cfg.limit, &current)
	}

	err = g.iterateCatching(stepCtx, num, cfg.limit)
	if err == nil {
		g.errorsInExecution = false
		return nil
	}
	g.errorsInExecution = true
	if g.settings.ThrowErrors {
		return err
	}
	observability.LogStepError(g.logger, g.id, g.iteration, err)
	g.RequestStop()
	return nil
}

func (g *Graph) iterateCatching(ctx context.Context, num, limit int) (err error) {
	var current NodeID
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{NodeID: current, Value: r, Stack: string(debug.Stack())}
		}
	}()
	return g.iterate(ctx, num, limit, &current)
}

func (g *Graph) iterate(ctx context.Context, num, limit int, current *NodeID) error {
	if g.executableStale {
		g.refreshExecutable()
	}
	nodes := g.nodesExecutable
	if nodes == nil {
		nodes = g.nodes
	}
	if limit <= 0 || limit > len(nodes) {
		limit = len(nodes)
	}
	nodes = nodes[:limit]

	for range num {
		for _, n := range nodes {
			if n.graph != g {
				continue
			}
			*current = n.ID
			if g.settings.UseDeferredActions && len(n.pending) > 0 {
				if err := n.ExecutePendingActions(ctx); err != nil {
					return err
				}
			}
			if n.Mode == Always {
				if err := n.DoExecute(ctx, nil); err != nil {
					return err
				}
			}
		}
		g.fixedTime += g.settings.FixedTimeLapse
		if _, err := g.handlers.Dispatch(EventExecuteStep, nil); err != nil {
			return err
		}
	}
	_, err := g.handlers.Dispatch(EventAfterExecuteGraph, nil)
	return err
}

func (g *Graph) finishStep(ctx context.Context, start time.Time, num int, err error) {
	now := time.Now()
	elapsed := max(now.Sub(start), time.Microsecond)
	g.executionTime = elapsed
	g.globalTime += elapsed
	g.iteration++
	if g.lastUpdate.IsZero() {
		g.lastUpdate = start
	}
	g.elapsedTime = now.Sub(g.lastUpdate)
	g.lastUpdate = now

	clear(g.nodesExecuting)
	clear(g.nodesActioning)
	clear(g.executedAction)
	clear(g.ancestorsCalculated)

	for _, n := range g.nodes {
		if n.executeTriggered > 0 {
			n.executeTriggered--
		}
		if n.actionTriggered > 0 {
			n.actionTriggered--
		}
	}
	g.metrics.RecordStep(ctx, num, elapsed, err)
}

// runner is the state of one tick loop.
type runner struct {
	group  *errgroup.Group
	cancel context.CancelFunc
	ops    chan func()
	done   chan struct{}

	once sync.Once
	err  error
}

// Start runs the tick loop on its own goroutine, one RunStep per interval.
// A zero interval uses FrameInterval. Starting a running graph does
// nothing.
//
// Before the loop starts, onPlayEvent fires and onStart is sent to every
// node. Each tick fires onBeforeStep, runs one step and fires onAfterStep.
// The loop ends on Stop, RequestStop, cancellation of ctx or, when
// CatchErrors is off, a step error; it then fires onStopEvent and sends
// onStop to every node.
func (g *Graph) Start(ctx context.Context, interval time.Duration) error {
	if ctx == nil {
		return ErrNilContext
	}
	if interval <= 0 {
		interval = g.settings.FrameInterval
	}
	if interval <= 0 {
		return fmt.Errorf("start: invalid frame interval %v", interval)
	}

	g.runMu.Lock()
	if g.run != nil && !g.run.finished() {
		g.runMu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(ctx)
	eg, egCtx := errgroup.WithContext(loopCtx)
	r := &runner{
		group:  eg,
		cancel: cancel,
		ops:    make(chan func()),
		done:   make(chan struct{}),
	}
	g.run = r
	g.runMu.Unlock()

	g.status.Store(int32(StatusRunning))
	g.handlers.Dispatch(EventPlay, nil)
	if err := g.SendEventToAllNodes(ctx, EventStart, nil, Always); err != nil {
		g.status.Store(int32(StatusStopped))
		g.runMu.Lock()
		g.run = nil
		g.runMu.Unlock()
		cancel()
		close(r.done)
		return fmt.Errorf("start: %w", err)
	}
	g.startTime = time.Now()
	g.lastUpdate = g.startTime
	observability.LogGraphStart(g.logger, g.id, interval)

	eg.Go(func() error {
		return g.loop(egCtx, r, interval)
	})
	return nil
}

func (g *Graph) loop(ctx context.Context, r *runner, interval time.Duration) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{NodeID: -1, Value: p, Stack: string(debug.Stack())}
		}
		g.status.Store(int32(StatusStopped))
		g.handlers.Dispatch(EventStopGraph, nil)
		if serr := g.SendEventToAllNodes(context.WithoutCancel(ctx), EventStop, nil, Always); serr != nil && err == nil {
			err = serr
		}
		observability.LogGraphStop(g.logger, g.id, g.iteration, err)
		close(r.done)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case op := <-r.ops:
			op()
		case <-ticker.C:
			if err := g.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (g *Graph) tick(ctx context.Context) error {
	if _, err := g.handlers.Dispatch(EventBeforeStep, nil); err != nil {
		return err
	}
	var opts []StepOption
	if !g.settings.CatchErrors {
		opts = append(opts, PropagateErrors())
	}
	if err := g.RunStep(ctx, 1, opts...); err != nil {
		return err
	}
	_, err := g.handlers.Dispatch(EventAfterStep, nil)
	return err
}

// current returns the runner of the loop still running, or nil.
func (g *Graph) current() *runner {
	if r := g.last(); r != nil && !r.finished() {
		return r
	}
	return nil
}

// last returns the runner of the most recent loop, running or not.
func (g *Graph) last() *runner {
	g.runMu.Lock()
	defer g.runMu.Unlock()
	return g.run
}

func (r *runner) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// RequestStop asks the tick loop to stop without waiting for it. It is
// safe to call from node hooks and on a stopped graph.
func (g *Graph) RequestStop() {
	if r := g.current(); r != nil {
		r.cancel()
	}
}

// Stop stops the tick loop and waits for it to exit, returning the error
// that ended it. Stopping a stopped graph returns nil. Node hooks must use
// RequestStop instead, as the loop cannot wait for itself.
func (g *Graph) Stop() error {
	r := g.current()
	if r == nil {
		return nil
	}
	r.cancel()
	return r.wait()
}

// Wait blocks until the tick loop exits and returns the error that ended
// it. Once the loop has exited, Wait keeps returning that error until the
// next Start. It returns ErrNotRunning when the graph was never started.
func (g *Graph) Wait() error {
	r := g.last()
	if r == nil {
		return ErrNotRunning
	}
	return r.wait()
}

func (r *runner) wait() error {
	r.once.Do(func() {
		r.err = r.group.Wait()
		r.cancel()
	})
	<-r.done
	return r.err
}

// Do runs fn with exclusive access to the graph: between two ticks when
// the loop is running, directly otherwise. Use it to mutate a running
// graph from other goroutines. fn must not call Stop or Do.
func (g *Graph) Do(fn func(*Graph) error) error {
	r := g.current()
	if r == nil {
		return fn(g)
	}
	res := make(chan error, 1)
	select {
	case r.ops <- func() { res <- fn(g) }:
		return <-res
	case <-r.done:
		return fn(g)
	}
}

// SendEventToAllNodes dispatches event on every node in mode, in
// execution order. Behaviors receive it through GraphEventHandler with
// params as the context parameter.
func (g *Graph) SendEventToAllNodes(ctx context.Context, event string, params any, mode Mode) error {
	if ctx == nil {
		return ErrNilContext
	}
	nodes := g.nodesInOrder
	if nodes == nil {
		nodes = g.nodes
	}
	for _, n := range nodes {
		if n.Mode != mode {
			continue
		}
		h, ok := n.behavior.(GraphEventHandler)
		if !ok && !n.handlers.Has(event) {
			continue
		}
		nctx := newNodeContext(ctx, n, params, "")
		_, err := n.handlers.Dispatch(event, func(...any) (any, error) {
			if ok {
				return nil, h.OnGraphEvent(nctx, event)
			}
			return nil, nil
		}, Context(nctx))
		if err != nil {
			return &NodeError{NodeID: n.ID, Type: n.Type, Op: event, Err: err}
		}
	}
	return nil
}

// Trigger dispatches onTrigger on the graph handlers with action and param.
func (g *Graph) Trigger(action string, param any) error {
	_, err := g.handlers.Dispatch(EventTrigger, nil, action, param)
	return err
}
