package tools

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Args are decoded tool arguments. Numbers arrive as float64.
type Args map[string]any

func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// String returns the trimmed string value, or def when absent or blank.
func (a Args) String(key, def string) string {
	switch v := a[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return def
}

func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return def
		}
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func (a Args) Bool(key string, def bool) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// Strings returns the non-blank string elements of an array argument.
func (a Args) Strings(key string) []string {
	out := []string{}
	switch v := a[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

// With returns a copy of a with key set.
func (a Args) With(key string, v any) Args {
	out := make(Args, len(a)+1)
	for k, val := range a {
		out[k] = val
	}
	out[key] = v
	return out
}
