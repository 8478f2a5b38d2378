package config

import (
	"time"
)

// Config wraps a decoded configuration document for typed value extraction.
// Accessors return the default when the key is missing or the value has the
// wrong shape.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string value for key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal.
// JSON numbers (float64) are accepted when they have no fractional part.
func (c Config) Int(key string, defaultVal int) int {
	switch val := c.data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal.
//
// Accepts:
//   - string: parsed with time.ParseDuration ("250ms", "2s")
//   - int, int64, float64: milliseconds
//   - time.Duration: used directly
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case int:
		return time.Duration(val) * time.Millisecond
	case int64:
		return time.Duration(val) * time.Millisecond
	case float64:
		return time.Duration(val * float64(time.Millisecond))
	case time.Duration:
		return val
	}
	return defaultVal
}

// StringSlice returns the string list for key, or defaultVal.
// A single string is treated as a one-element list.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	if s, ok := toStrings(c.data[key]); ok {
		return s
	}
	return defaultVal
}

// StringSliceMap returns a mapping of string to string list, as used for
// the kinds table (child: [parents...]). Entries with a null value map to
// an empty list. Returns nil if key is missing or any value is malformed.
func (c Config) StringSliceMap(key string) map[string][]string {
	m, ok := toMap(c.data[key])
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		if v == nil {
			out[k] = []string{}
			continue
		}
		s, ok := toStrings(v)
		if !ok {
			return nil
		}
		out[k] = s
	}
	return out
}

// Sub returns the nested section under key. Missing or non-map values
// yield an empty Config.
func (c Config) Sub(key string) Config {
	if m, ok := toMap(c.data[key]); ok {
		return New(m)
	}
	return New(nil)
}

// Has returns true if the key exists in the config.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Keys returns the top-level keys in no particular order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Raw returns the underlying map. It should not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

func toMap(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case Config:
		return val.data, true
	}
	return nil, false
}

func toStrings(v any) ([]string, bool) {
	switch val := v.(type) {
	case string:
		return []string{val}, true
	case []string:
		return val, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
