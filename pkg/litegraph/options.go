package litegraph

import (
	"log/slog"

	"github.com/randalmurphal/litegraph/pkg/litegraph/observability"
	"github.com/randalmurphal/litegraph/pkg/litegraph/snapshot"
)

// Option configures a Graph.
type Option func(*Graph)

// WithRegistry sets the node-type registry used to create nodes while
// loading serialized graphs. Default: an empty registry.
func WithRegistry(r *Registry) Option {
	return func(g *Graph) {
		if r != nil {
			g.registry = r
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithSettings replaces the engine settings. Default: DefaultSettings().
func WithSettings(s Settings) Option {
	return func(g *Graph) {
		g.settings = s
	}
}

// WithMetrics sets the metrics recorder. Default: no metrics.
//
// Example:
//
//	g := litegraph.NewGraph(litegraph.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(g *Graph) {
		if m != nil {
			g.metrics = m
		}
	}
}

// WithSpanManager sets the tracer used for step and node spans.
// Default: no tracing.
func WithSpanManager(s observability.SpanManager) Option {
	return func(g *Graph) {
		if s != nil {
			g.spans = s
		}
	}
}

// WithHistoryStore sets where undo snapshots are kept. Default: an
// in-memory store. The graph does not close the store.
func WithHistoryStore(s snapshot.Store) Option {
	return func(g *Graph) {
		if s != nil {
			g.history.store = s
		}
	}
}

// WithID sets the graph id used to key snapshots and tag logs.
// Default: a random UUID.
func WithID(id string) Option {
	return func(g *Graph) {
		if id != "" {
			g.id = id
		}
	}
}
