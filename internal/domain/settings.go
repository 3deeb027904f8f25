package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Settings is an immutable set of named account configuration values.
// Every change produces a new Settings; existing values are never modified,
// so a reader holding one always sees a complete version.
type Settings struct {
	values map[string]any
}

func NewSettings(values map[string]any) Settings {
	return Settings{values: cloneValues(values)}
}

func (s Settings) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s Settings) Len() int {
	return len(s.values)
}

// Keys returns the setting names in sorted order.
func (s Settings) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the underlying values.
func (s Settings) Map() map[string]any {
	return cloneValues(s.values)
}

// With returns a new Settings with every key of patch applied on top of s.
func (s Settings) With(patch map[string]any) Settings {
	next := cloneValues(s.values)
	for k, v := range patch {
		next[k] = cloneValue(v)
	}
	return Settings{values: next}
}

func (s Settings) MarshalJSON() ([]byte, error) {
	if s.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.values)
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	s.values = values
	return nil
}

// cloneValues copies nested maps and slices as well, so a patch value that is
// itself a map cannot be mutated through an older Settings.
func cloneValues(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneValues(t)
	case []any:
		cp := make([]any, len(t))
		for i := range t {
			cp[i] = cloneValue(t[i])
		}
		return cp
	default:
		return v
	}
}
