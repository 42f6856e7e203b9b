package litegraph

import (
	"time"

	"github.com/randalmurphal/litegraph/pkg/litegraph/config"
)

// Settings are the engine switches of a graph.
type Settings struct {
	// UseDeferredActions queues actions on nodes that also execute, to be
	// delivered at the start of their next step.
	UseDeferredActions bool

	// CatchErrors recovers node errors and panics inside the tick loop
	// instead of propagating them out of Start.
	CatchErrors bool

	// ThrowErrors makes RunStep return caught errors. When false, caught
	// errors are logged and the graph is stopped.
	ThrowErrors bool

	// DoAddTriggerSlots creates the onExecuted output on the source side of
	// an event connection made with ConnectByTypeOutput.
	DoAddTriggerSlots bool

	// AllowMultiOutputForEvents lets an event output feed several links.
	AllowMultiOutputForEvents bool

	// RefreshAncestorsOnTriggers re-executes the data providers of a node
	// before it runs because of a trigger.
	RefreshAncestorsOnTriggers bool

	// RefreshAncestorsOnActions does the same before an action is delivered.
	RefreshAncestorsOnActions bool

	// PreventAncestorRecalculation executes each ancestor at most once per
	// step while refreshing.
	PreventAncestorRecalculation bool

	// EnsureNodeSingleExecution runs each node at most once per iteration.
	EnsureNodeSingleExecution bool

	// EnsureUniqueExecutionAndActionCall drops executions and actions that
	// repeat the action call token the node last handled.
	EnsureUniqueExecutionAndActionCall bool

	// ReprocessSlotsOnConfigure reconciles serialized slots with the ones
	// the node type declares when a node is configured.
	ReprocessSlotsOnConfigure bool

	// HistoryEnabled records a snapshot after every saving change.
	HistoryEnabled bool

	// HistoryMaxSave bounds the number of snapshots kept.
	HistoryMaxSave int

	// MaxNodes bounds the number of nodes; 0 means unlimited.
	MaxNodes int

	// FixedTimeLapse is added to FixedTime on every iteration.
	FixedTimeLapse time.Duration

	// FrameInterval is the tick period used by Start when none is given.
	FrameInterval time.Duration
}

// DefaultSettings returns the settings a graph starts with.
func DefaultSettings() Settings {
	return Settings{
		UseDeferredActions:        true,
		CatchErrors:               true,
		ThrowErrors:               true,
		AllowMultiOutputForEvents: true,
		ReprocessSlotsOnConfigure: true,
		HistoryMaxSave:            40,
		FixedTimeLapse:            10 * time.Millisecond,
		FrameInterval:             16 * time.Millisecond,
	}
}

// SettingsFromConfig overlays cfg on DefaultSettings. It reads the
// "engine" section:
//
//	engine:
//	  deferred_actions: true
//	  catch_errors: true
//	  throw_errors: true
//	  add_trigger_slots: false
//	  multi_output_events: true
//	  refresh_ancestors_on_triggers: false
//	  refresh_ancestors_on_actions: false
//	  prevent_ancestor_recalculation: false
//	  single_execution: false
//	  unique_action_call: false
//	  reprocess_slots: true
//	  max_nodes: 0
//	  fixed_time_lapse: 10ms
//	  frame_interval: 16ms
//
// and the "history" section (enabled, max_save).
func SettingsFromConfig(cfg config.Config) Settings {
	s := DefaultSettings()
	e := cfg.Sub("engine")
	s.UseDeferredActions = e.Bool("deferred_actions", s.UseDeferredActions)
	s.CatchErrors = e.Bool("catch_errors", s.CatchErrors)
	s.ThrowErrors = e.Bool("throw_errors", s.ThrowErrors)
	s.DoAddTriggerSlots = e.Bool("add_trigger_slots", s.DoAddTriggerSlots)
	s.AllowMultiOutputForEvents = e.Bool("multi_output_events", s.AllowMultiOutputForEvents)
	s.RefreshAncestorsOnTriggers = e.Bool("refresh_ancestors_on_triggers", s.RefreshAncestorsOnTriggers)
	s.RefreshAncestorsOnActions = e.Bool("refresh_ancestors_on_actions", s.RefreshAncestorsOnActions)
	s.PreventAncestorRecalculation = e.Bool("prevent_ancestor_recalculation", s.PreventAncestorRecalculation)
	s.EnsureNodeSingleExecution = e.Bool("single_execution", s.EnsureNodeSingleExecution)
	s.EnsureUniqueExecutionAndActionCall = e.Bool("unique_action_call", s.EnsureUniqueExecutionAndActionCall)
	s.ReprocessSlotsOnConfigure = e.Bool("reprocess_slots", s.ReprocessSlotsOnConfigure)
	s.MaxNodes = e.Int("max_nodes", s.MaxNodes)
	s.FixedTimeLapse = e.Duration("fixed_time_lapse", s.FixedTimeLapse)
	s.FrameInterval = e.Duration("frame_interval", s.FrameInterval)

	h := cfg.Sub("history")
	s.HistoryEnabled = h.Bool("enabled", s.HistoryEnabled)
	s.HistoryMaxSave = h.Int("max_save", s.HistoryMaxSave)
	return s
}

// LoadSettings reads a YAML or JSON configuration file and returns the
// settings it describes.
func LoadSettings(path string) (Settings, error) {
	cfg, err := config.FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	return SettingsFromConfig(cfg), nil
}
