package callback

import (
	"slices"
	"sync"
)

// Func is a subscriber. It receives the per-call info and the dispatch
// arguments. Returning a Result (or *Result) participates in the
// structured merge; any other non-nil value is a plain value.
type Func func(call Call, args ...any) (any, error)

// DefaultFunc is the built-in behaviour an event falls back to.
type DefaultFunc func(args ...any) (any, error)

// Call describes one handler invocation within a dispatch.
type Call struct {
	Name     string
	ID       int
	Priority int

	// Current is the merged return value so far.
	Current any

	// Results holds every raw value returned earlier in this dispatch,
	// including the default's.
	Results []any
}

// Result is a structured handler return.
type Result struct {
	// Value is the value to return when Set is true.
	Value any
	Set   bool

	// Priority decides which structured value wins. A later value
	// replaces the stored one when its priority is greater or equal.
	Priority int

	// PreventDefault suppresses the default implementation and any
	// handler registered with AsDefault.
	PreventDefault bool

	// StopReplication skips the remaining handlers. The Result's own
	// value is discarded.
	StopReplication bool
}

// Return builds a Result carrying v with the given result priority.
func Return(v any, priority int) Result {
	return Result{Value: v, Set: true, Priority: priority}
}

type entry struct {
	id        int
	priority  int
	fn        Func
	isDefault bool
	once      bool
}

type chain struct {
	lastID  int
	entries []entry
}

// Handler dispatches named events to prioritized subscribers.
// All methods are safe for concurrent use.
type Handler struct {
	mu       sync.Mutex
	events   map[string]*chain
	watchers []func(name string)
}

// New creates an empty handler.
func New() *Handler {
	return &Handler{events: make(map[string]*chain)}
}

// Register subscribes fn to name and returns its id. Ids are allocated per
// event name starting at 0. Handlers are kept in descending priority;
// equal priorities keep registration order. A nil fn registers nothing
// and returns -1.
func (h *Handler) Register(name string, fn Func, opts ...Option) int {
	if fn == nil {
		return -1
	}
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.events[name]
	if !ok {
		c = &chain{}
		h.events[name] = c
	}
	e := entry{
		id:        c.lastID,
		priority:  cfg.priority,
		fn:        fn,
		isDefault: cfg.isDefault,
		once:      cfg.once,
	}
	c.lastID++

	pos := len(c.entries)
	for i, existing := range c.entries {
		if existing.priority < e.priority {
			pos = i
			break
		}
	}
	c.entries = slices.Insert(c.entries, pos, e)
	h.notifyLocked(name)
	return e.id
}

// Unregister removes the handler with the given id.
func (h *Handler) Unregister(name string, id int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.events[name]
	if !ok {
		return false
	}
	i := slices.IndexFunc(c.entries, func(e entry) bool { return e.id == id })
	if i < 0 {
		return false
	}
	c.entries = slices.Delete(c.entries, i, i+1)
	h.notifyLocked(name)
	return true
}

// Has reports whether name has at least one handler.
func (h *Handler) Has(name string) bool {
	return h.Len(name) > 0
}

// Len returns the number of handlers registered for name.
func (h *Handler) Len(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.events[name]; ok {
		return len(c.entries)
	}
	return 0
}

// Clear drops every handler of name. The id counter is kept.
func (h *Handler) Clear(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.events[name]; ok && len(c.entries) > 0 {
		c.entries = nil
		h.notifyLocked(name)
	}
}

// Watch calls fn with the event name after every change to that event's
// handler list. fn runs with the handler locked and must not call back
// into h.
func (h *Handler) Watch(fn func(name string)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.watchers = append(h.watchers, fn)
}

func (h *Handler) notifyLocked(name string) {
	for _, fn := range h.watchers {
		fn(name)
	}
}

func (h *Handler) snapshot(name string) []entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.events[name]
	if !ok || len(c.entries) == 0 {
		return nil
	}
	return slices.Clone(c.entries)
}

// Dispatch runs the handlers of name in priority order and merges their
// returns. def, when non-nil, runs exactly once: before the first handler
// with a negative priority, or after all handlers otherwise. It is skipped
// when a handler asked to prevent the default. A handler returning
// StopReplication ends the chain without contributing its value; the
// default still runs unless prevented.
//
// The first error returned by a handler or by def aborts the dispatch and
// is returned along with the value merged so far.
func (h *Handler) Dispatch(name string, def DefaultFunc, args ...any) (any, error) {
	entries := h.snapshot(name)

	var (
		merged      any
		structured  bool
		storedPrio  int
		results     []any
		prevented   bool
		defaultDone = def == nil
	)

	runDefault := func() error {
		defaultDone = true
		if prevented {
			return nil
		}
		v, err := def(args...)
		if err != nil {
			return err
		}
		results = append(results, v)
		if v != nil && !structured {
			merged = v
		}
		return nil
	}

	for _, e := range entries {
		if !defaultDone && e.priority < 0 {
			if err := runDefault(); err != nil {
				return merged, err
			}
		}
		if prevented && e.isDefault {
			continue
		}

		v, err := e.fn(Call{
			Name:     name,
			ID:       e.id,
			Priority: e.priority,
			Current:  merged,
			Results:  slices.Clone(results),
		}, args...)
		if e.once {
			h.Unregister(name, e.id)
		}
		if err != nil {
			return merged, err
		}
		results = append(results, v)

		res, ok := asResult(v)
		if !ok {
			if v != nil && !structured {
				merged = v
			}
			continue
		}
		if res.PreventDefault {
			prevented = true
		}
		if res.StopReplication {
			break
		}
		if res.Set && (!structured || res.Priority >= storedPrio) {
			merged = res.Value
			storedPrio = res.Priority
			structured = true
		}
	}

	if !defaultDone {
		if err := runDefault(); err != nil {
			return merged, err
		}
	}
	return merged, nil
}

func asResult(v any) (Result, bool) {
	switch r := v.(type) {
	case Result:
		return r, true
	case *Result:
		if r == nil {
			return Result{}, false
		}
		return *r, true
	}
	return Result{}, false
}
