package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Document is a configuration parsed from a single source document.
type Document struct {
	source string
	path   string
	values map[string]any
}

var _ Config = (*Document)(nil)

// NewDocument builds a Document from already decoded values. The values are
// copied and normalized, so later changes to the input map are not visible.
func NewDocument(source string, values map[string]any) (*Document, error) {
	normalized, err := normalizeMap(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, source, err)
	}
	return &Document{source: source, values: normalized}, nil
}

// Parse decodes data according to the extension of name. ".json" and
// ".jsonc" are read as JSON with comments, ".toml" as TOML and everything
// else as YAML. An empty document yields an empty configuration.
func Parse(name string, data []byte) (*Document, error) {
	raw := map[string]any{}

	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonc":
		stripped := jsonc.ToJSON(data)
		if len(bytes.TrimSpace(stripped)) > 0 {
			err = json.Unmarshal(stripped, &raw)
		}
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrInvalidConfig, name, err)
	}

	return NewDocument(name, raw)
}

// Source names the document this configuration was parsed from.
func (d *Document) Source() string { return d.source }

// Path returns the qualified path of this scope.
func (d *Document) Path() string { return d.path }

// Sub returns the nested scope under key.
func (d *Document) Sub(key string) Config {
	nested, _ := d.values[key].(map[string]any)
	return &Document{
		source: d.source,
		path:   joinPath(d.path, key),
		values: nested,
	}
}

// Lookup returns a copy of the value stored under key.
func (d *Document) Lookup(key string) (any, bool) {
	v, ok := d.values[key]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Keys returns the sorted keys of this scope.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (d *Document) String() string {
	if d.path == "" {
		return d.source
	}
	return d.source + "#" + d.path
}

// normalizeMap converts decoder output into the value set documented on
// Config.Lookup. Null entries are dropped so that they read as absent.
func normalizeMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v == nil {
			continue
		}
		n, err := normalize(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

func normalize(v any) (any, error) {
	switch t := v.(type) {
	case string, bool:
		return t, nil
	case int:
		return t, nil
	case int8:
		return int(t), nil
	case int16:
		return int(t), nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case uint:
		return int(t), nil
	case uint8:
		return int(t), nil
	case uint16:
		return int(t), nil
	case uint32:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float32:
		return normalizeFloat(float64(t)), nil
	case float64:
		return normalizeFloat(t), nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		converted := make(map[string]any, len(t))
		for k, val := range t {
			converted[fmt.Sprint(k)] = val
		}
		return normalizeMap(converted)
	case []map[string]any:
		list := make([]any, 0, len(t))
		for _, m := range t {
			n, err := normalizeMap(m)
			if err != nil {
				return nil, err
			}
			list = append(list, n)
		}
		return list, nil
	case []any:
		list := make([]any, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			list = append(list, n)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 {
		return int(f)
	}
	return f
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
