// Package callback implements a prioritized multi-subscriber event dispatcher.
//
// Every hook a litegraph node or graph exposes is dispatched through a
// Handler, so external code can observe or override built-in behaviour
// without subclassing:
//
//	h := callback.New()
//	id := h.Register("onExecute", func(call callback.Call, args ...any) (any, error) {
//	    return callback.Result{PreventDefault: true}, nil
//	}, callback.WithPriority(10))
//	defer h.Unregister("onExecute", id)
//
//	v, err := h.Dispatch("onExecute", builtin, ctx)
//
// # Merge rules
//
// Handlers run in descending priority. A plain return value becomes the
// dispatch result only while no structured Result has set one. A Result
// with Set replaces the stored value when its Priority is at least the
// stored priority. PreventDefault skips the default implementation and
// handlers registered with AsDefault. StopReplication ends the handler
// chain without taking the stopping handler's value; the default still
// runs unless prevented.
//
// The default implementation runs once per dispatch, before the first
// negative-priority handler or at the end, and also when nothing is
// registered.
package callback
