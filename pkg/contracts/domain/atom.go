package domain

import (
	"fmt"
	"sort"
	"time"
)

// TimestampLayout is the fixed layout of timestamp fields ("2006-01-02 15:04:05.000").
const TimestampLayout = "2006-01-02 15:04:05.000"

// Standard field names set by upstream collaborators.
const (
	FieldDatetime = "datetime"
	FieldOpen     = "open"
	FieldHigh     = "high"
	FieldLow      = "low"
	FieldClose    = "close"
	FieldVolume   = "volume"
)

// Atom is one flat record flowing through the engine: an ordered mapping from
// field name to a scalar value (float64, int64, string, bool or nil).
//
// Defect labels live in a side-table owned by the atom and never alter fields.
// Atom identity is pointer identity.
type Atom struct {
	keys   []string
	fields map[string]any
	labels map[string][]string
}

// NewAtom builds an atom from alternating key/value pairs.
// It panics on an odd argument count or a non-string key, like a bad literal would.
func NewAtom(kv ...any) *Atom {
	if len(kv)%2 != 0 {
		panic("domain: NewAtom requires key/value pairs")
	}
	a := &Atom{fields: make(map[string]any, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("domain: NewAtom key %v is not a string", kv[i]))
		}
		a.Set(key, kv[i+1])
	}
	return a
}

// FromMap builds an atom from a map, using keys for field order.
// Map entries missing from keys are appended in sorted order.
func FromMap(keys []string, values map[string]any) *Atom {
	a := &Atom{fields: make(map[string]any, len(values))}
	for _, k := range keys {
		if v, ok := values[k]; ok {
			a.Set(k, v)
		}
	}
	rest := make([]string, 0)
	for k := range values {
		if !a.Has(k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		a.Set(k, values[k])
	}
	return a
}

// Set stores a field, keeping the original position when the key already exists.
func (a *Atom) Set(key string, value any) {
	if a.fields == nil {
		a.fields = make(map[string]any)
	}
	if _, exists := a.fields[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.fields[key] = normalize(value)
}

// Get returns a field value.
func (a *Atom) Get(key string) (any, bool) {
	v, ok := a.fields[key]
	return v, ok
}

// Has reports whether the field exists.
func (a *Atom) Has(key string) bool {
	_, ok := a.fields[key]
	return ok
}

// Delete removes a field.
func (a *Atom) Delete(key string) {
	if _, ok := a.fields[key]; !ok {
		return
	}
	delete(a.fields, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in insertion order.
func (a *Atom) Keys() []string {
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	return keys
}

// Len returns the number of fields.
func (a *Atom) Len() int {
	return len(a.keys)
}

// Float returns a field as float64. Numeric strings are parsed.
func (a *Atom) Float(key string) (float64, bool) {
	v, ok := a.fields[key]
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// String returns a field formatted as a string.
func (a *Atom) String(key string) (string, bool) {
	v, ok := a.fields[key]
	if !ok || v == nil {
		return "", false
	}
	if s, isString := v.(string); isString {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Time parses a timestamp field using TimestampLayout.
func (a *Atom) Time(key string) (time.Time, error) {
	v, ok := a.fields[key]
	if !ok {
		return time.Time{}, fmt.Errorf("field %q not found", key)
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("field %q is %T, not a timestamp string", key, v)
	}
	return ParseTime(s)
}

// Fields returns a fresh map of the fields, without labels.
func (a *Atom) Fields() map[string]any {
	out := make(map[string]any, len(a.fields))
	for k, v := range a.fields {
		out[k] = v
	}
	return out
}

// ToMap returns the fields plus every label list under its label key.
func (a *Atom) ToMap() map[string]any {
	out := a.Fields()
	for k, l := range a.labels {
		list := make([]string, len(l))
		copy(list, l)
		out[k] = list
	}
	return out
}

// Copy returns a new atom with copied fields; label lists are shared.
func (a *Atom) Copy() *Atom {
	c := &Atom{
		keys:   make([]string, len(a.keys)),
		fields: a.Fields(),
	}
	copy(c.keys, a.keys)
	if a.labels != nil {
		c.labels = make(map[string][]string, len(a.labels))
		for k, l := range a.labels {
			c.labels[k] = l
		}
	}
	return c
}

// Clone returns a deep copy, labels included.
func (a *Atom) Clone() *Atom {
	c := a.Copy()
	for k, l := range c.labels {
		list := make([]string, len(l))
		copy(list, l)
		c.labels[k] = list
	}
	return c
}

// Equal compares fields regardless of order. Labels are ignored.
func (a *Atom) Equal(other *Atom) bool {
	if a == nil || other == nil {
		return a == other
	}
	if len(a.fields) != len(other.fields) {
		return false
	}
	for k, v := range a.fields {
		ov, ok := other.fields[k]
		if !ok || !EqualValues(v, ov) {
			return false
		}
	}
	return true
}

// AddLabel appends text to the label list stored under key.
func (a *Atom) AddLabel(key, text string) {
	if a.labels == nil {
		a.labels = make(map[string][]string)
	}
	a.labels[key] = append(a.labels[key], text)
}

// Labels returns a copy of the label list stored under key.
func (a *Atom) Labels(key string) []string {
	l := a.labels[key]
	if len(l) == 0 {
		return nil
	}
	out := make([]string, len(l))
	copy(out, l)
	return out
}

// LabelKeys returns the label keys in sorted order.
func (a *Atom) LabelKeys() []string {
	keys := make([]string, 0, len(a.labels))
	for k := range a.labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasLabels reports whether any label was added.
func (a *Atom) HasLabels() bool {
	for _, l := range a.labels {
		if len(l) > 0 {
			return true
		}
	}
	return false
}

// GoString renders the atom for debugging.
func (a *Atom) GoString() string {
	return fmt.Sprintf("Atom%v", a.ToMap())
}

// FormatTime formats t in UTC with TimestampLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTime parses a TimestampLayout string as UTC.
func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
