// Package config provides the read-only key/value configuration consumed by
// the rescale configurators.
//
// Keys are distinguished by presence: a key that is absent falls back to the
// caller's default, while a key explicitly set to null stays null. This is the
// difference between "use the default statistic" and "disable this rescale".
package config

import (
	"math"
	"os"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/atomscale/pkg/errors"
)

// Config is an immutable view over a configuration mapping.
type Config struct {
	values map[string]interface{}
}

// New copies m into a Config. Nested values are not copied.
func New(m map[string]interface{}) *Config {
	values := make(map[string]interface{}, len(m))
	for k, v := range m {
		values[k] = v
	}
	return &Config{values: values}
}

// Parse reads a YAML (or JSON) document whose top level is a mapping.
func Parse(data []byte) (*Config, error) {
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	return New(m), nil
}

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading config %s", path)
	}
	return cfg, nil
}

// Get returns the value stored under key and whether the key is present.
// A present key may hold nil.
func (c *Config) Get(key string) (interface{}, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[key]
	return v, ok
}

// GetOr returns the value under key, or def if the key is absent.
func (c *Config) GetOr(key string, def interface{}) interface{} {
	if v, ok := c.Get(key); ok {
		return v
	}
	return def
}

// Has reports whether key is present.
func (c *Config) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Int returns the integer under key or def when absent or null. Numbers
// with a fractional part are rejected rather than truncated.
func (c *Config) Int(key string, def int) (int, error) {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return def, nil
	}
	switch f := v.(type) {
	case float64:
		if f != math.Trunc(f) {
			return def, errors.NewValidationError(key, "expected an integer", v)
		}
	case float32:
		if float64(f) != math.Trunc(float64(f)) {
			return def, errors.NewValidationError(key, "expected an integer", v)
		}
	}
	var out int
	if err := mapstructure.WeakDecode(v, &out); err != nil {
		return def, errors.NewValidationError(key, "expected an integer", v)
	}
	return out, nil
}

// Bool returns the boolean under key or def when absent or null.
func (c *Config) Bool(key string, def bool) (bool, error) {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return def, nil
	}
	b, isBool := v.(bool)
	if !isBool {
		return def, errors.NewValidationError(key, "expected a boolean", v)
	}
	return b, nil
}

// Keys returns the present keys in sorted order.
func (c *Config) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of c with key set to value.
func (c *Config) With(key string, value interface{}) *Config {
	var base map[string]interface{}
	if c != nil {
		base = c.values
	}
	out := New(base)
	out.values[key] = value
	return out
}

// Decode fills out, a pointer to a struct tagged with `mapstructure`, from
// the configuration. Unknown keys are ignored; fields whose key is absent keep
// their current value, so callers set defaults before decoding.
func (c *Config) Decode(out interface{}) error {
	if c == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: false,
		TagName:          "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "building config decoder")
	}
	if err := dec.Decode(c.values); err != nil {
		return errors.Wrap(err, "decoding config")
	}
	return nil
}
