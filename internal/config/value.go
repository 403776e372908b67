package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Value is the set of types a property can be read as.
type Value interface {
	string | bool | int | float64 | []string
}

// ValueOrDefault reads key from c as T, returning def when the key is absent.
// Strings are parsed into booleans and numbers, and a comma separated string
// is accepted where a list is expected.
func ValueOrDefault[T Value](c Config, key string, def T) (T, error) {
	raw, ok := c.Lookup(key)
	if !ok {
		return def, nil
	}
	converted, err := convert(raw, any(def))
	if err != nil {
		return def, fmt.Errorf("%w: %s holds %T: %w", ErrTypeMismatch, joinPath(c.Path(), key), raw, err)
	}
	return converted.(T), nil
}

var errUnconvertible = errors.New("no conversion available")

func convert(raw, want any) (any, error) {
	switch want.(type) {
	case string:
		switch v := raw.(type) {
		case string:
			return v, nil
		case bool, int, float64:
			return fmt.Sprint(v), nil
		}
	case bool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(strings.TrimSpace(v))
		}
	case int:
		switch v := raw.(type) {
		case int:
			return v, nil
		case string:
			return strconv.Atoi(strings.TrimSpace(v))
		}
	case float64:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			return strconv.ParseFloat(strings.TrimSpace(v), 64)
		}
	case []string:
		switch v := raw.(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				switch item.(type) {
				case string, bool, int, float64:
					out = append(out, fmt.Sprint(item))
				default:
					return nil, fmt.Errorf("list element of type %T", item)
				}
			}
			return out, nil
		case string:
			return splitList(v), nil
		}
	}
	return nil, errUnconvertible
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
