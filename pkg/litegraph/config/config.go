package config

import (
	"maps"
	"time"
)

// Config wraps a map[string]any for typed value extraction.
// Accessors return the supplied default when the key is missing
// or holds a value of the wrong type.
type Config struct {
	data map[string]any
}

// New creates a Config from data. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string at key, or def.
func (c Config) String(key, def string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return def
}

// Bool returns the boolean at key, or def.
func (c Config) Bool(key string, def bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return def
}

// Int returns the integer at key, or def. Floats without a fractional
// part are accepted since JSON decodes every number as float64.
func (c Config) Int(key string, def int) int {
	switch v := c.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return def
}

// Float returns the number at key as float64, or def.
func (c Config) Float(key string, def float64) float64 {
	switch v := c.data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Duration returns the duration at key, or def.
//
// Strings are parsed with time.ParseDuration; bare numbers are
// interpreted as milliseconds, the unit frame intervals are written in.
func (c Config) Duration(key string, def time.Duration) time.Duration {
	switch v := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v * float64(time.Millisecond))
	case time.Duration:
		return v
	}
	return def
}

// Sub returns the nested section at key. A missing or non-map value
// yields an empty Config.
func (c Config) Sub(key string) Config {
	switch v := c.data[key].(type) {
	case map[string]any:
		return New(v)
	case Config:
		return v
	}
	return New(nil)
}

// Has reports whether key is set.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Any returns the raw value at key.
func (c Config) Any(key string) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

// Merge returns a Config holding c overlaid with other. Nested sections
// are merged recursively; other wins on conflicts.
func (c Config) Merge(other Config) Config {
	out := maps.Clone(c.data)
	if out == nil {
		out = make(map[string]any)
	}
	for k, v := range other.data {
		mine, okMine := out[k].(map[string]any)
		theirs, okTheirs := v.(map[string]any)
		if okMine && okTheirs {
			out[k] = New(mine).Merge(New(theirs)).data
			continue
		}
		out[k] = v
	}
	return New(out)
}

// Raw returns a shallow copy of the underlying map.
func (c Config) Raw() map[string]any {
	return maps.Clone(c.data)
}
