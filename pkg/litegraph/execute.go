package litegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/litegraph/pkg/litegraph/observability"
)

func newActionCall(id NodeID, kind string) string {
	return fmt.Sprintf("%d_%s_%s", id, kind, uuid.NewString())
}

// DoExecute runs the node's execute hook once.
//
// The call is skipped when the node is disabled, already executing in
// this step, already executed in this iteration (EnsureNodeSingleExecution)
// or already executed for the same action call
// (EnsureUniqueExecutionAndActionCall). Afterwards the onExecuted output,
// if any, is triggered.
func (n *Node) DoExecute(ctx context.Context, param any, opts ...CallOption) error {
	if ctx == nil {
		return ErrNilContext
	}
	if n.Mode == Never {
		return nil
	}
	g := n.graph
	if g == nil {
		return ErrNotInGraph
	}
	cfg := newCallConfig(opts)
	if cfg.actionCall == "" {
		cfg.actionCall = newActionCall(n.ID, "exec")
	}
	st := g.settings

	switch {
	case g.nodesExecuting[n.ID]:
		observability.LogReentrySkipped(g.logger, int(n.ID), "execute", "already executing")
		return nil
	case st.EnsureNodeSingleExecution && n.executed && n.execVersion >= g.iteration:
		observability.LogReentrySkipped(g.logger, int(n.ID), "execute", "already executed this iteration")
		return nil
	case st.EnsureUniqueExecutionAndActionCall && g.executedAction[n.ID] == cfg.actionCall:
		observability.LogReentrySkipped(g.logger, int(n.ID), "execute", "action call already executed")
		return nil
	}

	nctx := newNodeContext(ctx, n, param, cfg.actionCall)
	spanCtx, span := g.spans.StartNodeSpan(ctx, int(n.ID), n.Type, "execute")
	nctx.Context = spanCtx
	start := time.Now()

	g.nodesExecuting[n.ID] = true
	_, err := n.handlers.Dispatch(EventExecute, func(...any) (any, error) {
		if e, ok := n.behavior.(Executor); ok {
			return nil, e.OnExecute(nctx)
		}
		return nil, nil
	}, Context(nctx))
	delete(g.nodesExecuting, n.ID)

	g.metrics.RecordNodeExecution(spanCtx, n.Type, time.Since(start), err)
	g.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogNodeError(g.logger, int(n.ID), "execute", err)
		return &NodeError{NodeID: n.ID, Type: n.Type, Op: "execute", Err: err}
	}

	n.executed = true
	n.execVersion = g.iteration
	n.actionCall = cfg.actionCall
	g.executedAction[n.ID] = cfg.actionCall
	n.executeTriggered = 2

	_, err = n.handlers.Dispatch(EventAfterExecute, func(...any) (any, error) {
		return nil, n.triggerExecuted(ctx, param, cfg.actionCall)
	}, Context(nctx))
	return err
}

// ActionDo delivers an action to the node's action hook.
//
// A call carrying the token of an action the node is currently handling
// is dropped, as is one whose token the node already handled when
// EnsureUniqueExecutionAndActionCall is set.
func (n *Node) ActionDo(ctx context.Context, action string, param any, slot int, opts ...CallOption) error {
	if ctx == nil {
		return ErrNilContext
	}
	g := n.graph
	if g == nil {
		return ErrNotInGraph
	}
	cfg := newCallConfig(opts)
	if cfg.actionCall == "" {
		cfg.actionCall = newActionCall(n.ID, "action")
	}

	switch {
	case g.nodesActioning[n.ID] == cfg.actionCall:
		observability.LogReentrySkipped(g.logger, int(n.ID), "action", "action call in flight")
		return nil
	case g.settings.EnsureUniqueExecutionAndActionCall && g.executedAction[n.ID] == cfg.actionCall:
		observability.LogReentrySkipped(g.logger, int(n.ID), "action", "action call already handled")
		return nil
	}

	nctx := newNodeContext(ctx, n, param, cfg.actionCall)
	spanCtx, span := g.spans.StartNodeSpan(ctx, int(n.ID), n.Type, "action")
	nctx.Context = spanCtx

	prev, hadPrev := g.nodesActioning[n.ID]
	g.nodesActioning[n.ID] = cfg.actionCall
	_, err := n.handlers.Dispatch(EventAction, func(...any) (any, error) {
		if h, ok := n.behavior.(ActionHandler); ok {
			return nil, h.OnAction(nctx, action, slot)
		}
		return nil, nil
	}, Context(nctx), action, slot)
	if hadPrev {
		g.nodesActioning[n.ID] = prev
	} else {
		delete(g.nodesActioning, n.ID)
	}

	g.metrics.RecordAction(spanCtx, n.Type, action, err)
	g.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogNodeError(g.logger, int(n.ID), "action", err)
		return &NodeError{NodeID: n.ID, Type: n.Type, Op: "action", Err: err}
	}

	n.actionCall = cfg.actionCall
	g.executedAction[n.ID] = cfg.actionCall
	n.actionTriggered = 2

	_, err = n.handlers.Dispatch(EventAfterAction, func(...any) (any, error) {
		return nil, n.triggerExecuted(ctx, param, cfg.actionCall)
	}, Context(nctx))
	return err
}

func (n *Node) triggerExecuted(ctx context.Context, param any, actionCall string) error {
	i := n.FindOutputSlot(ExecutedOutputName)
	if i == -1 {
		return nil
	}
	return n.TriggerSlot(ctx, i, param, 0, WithActionCall(actionCall))
}

// Trigger fires every event output named event, or every event output
// when event is empty.
func (n *Node) Trigger(ctx context.Context, event string, param any, opts ...CallOption) error {
	for i, out := range n.Outputs {
		if out.Type != Event || (event != "" && out.Name != event) {
			continue
		}
		if err := n.TriggerSlot(ctx, i, param, 0, opts...); err != nil {
			return err
		}
	}
	return nil
}

// TriggerSlot fires the links of an event output. A non-zero linkID
// restricts delivery to that link.
//
// OnTrigger targets, and links arriving on an input named onTrigger,
// execute synchronously. Other targets receive the event as an action:
// queued for their next step when deferred actions are enabled and the
// target executes on steps, delivered at once otherwise. All links of one
// call share one action call token.
func (n *Node) TriggerSlot(ctx context.Context, slot int, param any, linkID LinkID, opts ...CallOption) error {
	if ctx == nil {
		return ErrNilContext
	}
	g := n.graph
	out := n.output(slot)
	if g == nil || n.Mode == Never || out == nil || len(out.Links) == 0 || g.ancestorsCall {
		return nil
	}
	cfg := newCallConfig(opts)
	st := g.settings

	for _, id := range append([]LinkID(nil), out.Links...) {
		if linkID != 0 && linkID != id {
			continue
		}
		l := g.links[id]
		if l == nil {
			continue
		}
		l.Data = param
		target := g.NodeByID(l.TargetID)
		if target == nil {
			continue
		}
		in := target.input(l.TargetSlot)

		if target.Mode == OnTrigger || (in != nil && in.Name == TriggerInputName) {
			if cfg.actionCall == "" {
				cfg.actionCall = newActionCall(n.ID, "trigg")
			}
			if st.RefreshAncestorsOnTriggers {
				if err := target.RefreshAncestors(ctx, "", param, WithActionCall(cfg.actionCall)); err != nil {
					return err
				}
			}
			if target.canExecute() {
				if err := target.DoExecute(ctx, param, WithActionCall(cfg.actionCall)); err != nil {
					return err
				}
			}
			continue
		}

		if !target.canAction() {
			continue
		}
		if cfg.actionCall == "" {
			cfg.actionCall = newActionCall(n.ID, "act")
		}
		if st.RefreshAncestorsOnActions {
			if err := target.RefreshAncestors(ctx, "", param, WithActionCall(cfg.actionCall)); err != nil {
				return err
			}
		}
		action := ""
		if in != nil {
			action = in.Name
		}
		if st.UseDeferredActions && target.canExecute() {
			target.pending = append(target.pending, pendingAction{
				action:     action,
				param:      param,
				actionCall: cfg.actionCall,
				slot:       l.TargetSlot,
			})
			continue
		}
		if err := target.ActionDo(ctx, action, param, l.TargetSlot, WithActionCall(cfg.actionCall)); err != nil {
			return err
		}
	}
	return nil
}

// ExecutePendingActions delivers the queued deferred actions in arrival
// order. Actions queued while draining wait for the next drain.
func (n *Node) ExecutePendingActions(ctx context.Context) error {
	queue := n.pending
	n.pending = nil
	for i, p := range queue {
		if err := n.ActionDo(ctx, p.action, p.param, p.slot, WithActionCall(p.actionCall)); err != nil {
			n.pending = append(queue[i+1:len(queue):len(queue)], n.pending...)
			return err
		}
	}
	return nil
}

// RefreshAncestors re-executes the upstream data providers of the node in
// execution order, so a triggered node sees current inputs. Triggers are
// suppressed while the refresh runs.
func (n *Node) RefreshAncestors(ctx context.Context, action string, param any, opts ...CallOption) error {
	g := n.graph
	if g == nil || len(n.Inputs) == 0 {
		return nil
	}
	if g.settings.PreventAncestorRecalculation && g.ancestorsCalculated[n.ID] {
		return nil
	}
	cfg := newCallConfig(opts)
	if cfg.actionCall == "" {
		cfg.actionCall = newActionCall(n.ID, "ancestors")
	}

	ancestors := g.Ancestors(n, AncestorOptions{
		ModesSkip: []Mode{Never, OnEvent, OnTrigger},
		ModesOnly: []Mode{Always, OnRequest},
		TypesSkip: []SlotType{Action},
	})

	wasCalling := g.ancestorsCall
	g.ancestorsCall = true
	defer func() { g.ancestorsCall = wasCalling }()

	for _, a := range ancestors {
		if g.settings.PreventAncestorRecalculation && g.ancestorsCalculated[a.ID] {
			continue
		}
		if err := a.DoExecute(ctx, param, WithActionCall(cfg.actionCall)); err != nil {
			return err
		}
		g.ancestorsCalculated[a.ID] = true
	}
	g.ancestorsCalculated[n.ID] = true
	return nil
}
