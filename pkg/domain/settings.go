package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/mohae/deepcopy"
)

// Settings is the mutable configuration bag shared by every step of a single
// wizard run. Steps read the keys relevant to them and write back only their
// own keys.
//
// Settings is not safe for concurrent use; it is owned by exactly one engine.
type Settings struct {
	values map[string]any
}

// NewSettings creates a Settings bag seeded with a deep copy of seed.
// The caller keeps ownership of seed, which is never mutated.
func NewSettings(seed map[string]any) *Settings {
	s := &Settings{values: make(map[string]any, len(seed))}
	for k, v := range seed {
		s.values[k] = deepCopy(v)
	}
	return s
}

// Get returns the raw value stored under key.
func (s *Settings) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// String returns the value under key formatted as a string.
// Missing keys and nil values yield "".
func (s *Settings) String(key string) string {
	v, ok := s.values[key]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", v)
}

// Bool reports whether the value under key is a true boolean.
func (s *Settings) Bool(key string) bool {
	b, _ := s.values[key].(bool)
	return b
}

// Set stores value under key.
func (s *Settings) Set(key string, value any) {
	s.values[key] = value
}

// Has reports whether key is present.
func (s *Settings) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Delete removes key.
func (s *Settings) Delete(key string) {
	delete(s.values, key)
}

// Len returns the number of keys.
func (s *Settings) Len() int {
	return len(s.values)
}

// Keys returns the stored keys in lexical order.
func (s *Settings) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent deep copy.
func (s *Settings) Clone() *Settings {
	return NewSettings(s.values)
}

// Snapshot returns a deep copy of the underlying map.
func (s *Settings) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = deepCopy(v)
	}
	return out
}

// Restore replaces the content of s with a deep copy of snapshot.
func (s *Settings) Restore(snapshot map[string]any) {
	s.values = make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		s.values[k] = deepCopy(v)
	}
}

// Equal reports whether both bags hold deeply equal values.
func (s *Settings) Equal(other *Settings) bool {
	if s == nil || other == nil {
		return s == other
	}
	return reflect.DeepEqual(s.values, other.values)
}

// Decode decodes the bag into out (a pointer to a struct or map) using
// `mapstructure` tags. Input is weakly typed so values typed in as strings
// (e.g. "8080", "true") decode into numeric and boolean fields.
func (s *Settings) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create settings decoder: %w", err)
	}
	if err := decoder.Decode(s.values); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	return nil
}

// MarshalJSON encodes the bag as a flat JSON object.
func (s *Settings) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.values)
}

// UnmarshalJSON replaces the bag with the decoded JSON object.
func (s *Settings) UnmarshalJSON(data []byte) error {
	values := make(map[string]any)
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	s.values = values
	return nil
}

// deepCopy copies maps, slices and pointers of any element type so no
// container is shared with the seed or a snapshot.
func deepCopy(v any) any {
	return deepcopy.Copy(v)
}
