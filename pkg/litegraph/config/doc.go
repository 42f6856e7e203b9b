// Package config provides typed access to loosely structured configuration.
//
// A Config wraps the map produced by decoding YAML or JSON. Accessors take a
// default that is returned when the key is missing or has the wrong type, so
// callers never handle conversion errors:
//
//	cfg, err := config.FromFile("litegraph.yaml")
//	if err != nil {
//	    return err
//	}
//	engine := cfg.Sub("engine")
//	deferred := engine.Bool("deferred_actions", true)
//	frame := engine.Duration("frame_interval", 16*time.Millisecond)
//
// A typical engine file:
//
//	engine:
//	  deferred_actions: true
//	  throw_errors: false
//	  max_nodes: 500
//	  frame_interval: 20ms
//	history:
//	  enabled: true
//	  max_save: 100
//	  store: sqlite
//	  path: ./history.db
//
// Duration accepts Go duration strings or a number of milliseconds.
// Merge overlays one Config on another, recursing into nested sections.
package config
