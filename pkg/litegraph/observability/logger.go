// Package observability provides the logging, metrics and tracing hooks
// used by the litegraph engine.
//
// Logging goes through log/slog helpers that accept a nil logger.
// Metrics and tracing use OpenTelemetry and fall back to no-op
// implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger returns a logger tagged with the graph id and node id.
func EnrichLogger(logger *slog.Logger, graphID string, nodeID int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("graph_id", graphID),
		slog.Int("node_id", nodeID),
	)
}

// LogGraphStart logs the start of the tick loop.
func LogGraphStart(logger *slog.Logger, graphID string, interval time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("graph starting",
		slog.String("graph_id", graphID),
		slog.Duration("interval", interval),
	)
}

// LogGraphStop logs the end of the tick loop.
func LogGraphStop(logger *slog.Logger, graphID string, iteration int, err error) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.String("graph_id", graphID),
		slog.Int("iteration", iteration),
	}
	if err != nil {
		logger.Error("graph stopped on error", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	logger.Info("graph stopped", attrs...)
}

// LogStepError logs a step failure that was caught and not rethrown.
func LogStepError(logger *slog.Logger, graphID string, iteration int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("step failed, stopping graph",
		slog.String("graph_id", graphID),
		slog.Int("iteration", iteration),
		slog.String("error", err.Error()),
	)
}

// LogNodeError logs a node execution or action failure.
func LogNodeError(logger *slog.Logger, nodeID int, op string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.Int("node_id", nodeID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogConnectRejected logs a refused connection. Topology errors are
// reported and leave the graph unchanged.
func LogConnectRejected(logger *slog.Logger, originID, originSlot, targetID, targetSlot int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("connection rejected",
		slog.Int("origin_id", originID),
		slog.Int("origin_slot", originSlot),
		slog.Int("target_id", targetID),
		slog.Int("target_slot", targetSlot),
		slog.String("error", err.Error()),
	)
}

// LogReentrySkipped logs a call suppressed by an idempotency guard.
func LogReentrySkipped(logger *slog.Logger, nodeID int, op, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("node call skipped",
		slog.Int("node_id", nodeID),
		slog.String("operation", op),
		slog.String("reason", reason),
	)
}

// LogUnknownNodeType logs a node type that could not be instantiated.
func LogUnknownNodeType(logger *slog.Logger, nodeType string, nodeID int) {
	if logger == nil {
		return
	}
	logger.Warn("unknown node type, keeping placeholder",
		slog.String("type", nodeType),
		slog.Int("node_id", nodeID),
	)
}

// LogHistorySaved logs a history snapshot.
func LogHistorySaved(logger *slog.Logger, action string, seq, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("history snapshot saved",
		slog.String("action", action),
		slog.Int("seq", seq),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogHistoryError logs a history store failure (non-fatal).
func LogHistoryError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("history operation failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation returns a function reporting the milliseconds elapsed
// since TimedOperation was called.
//
//	done := TimedOperation()
//	// ... work ...
//	ms := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
