package domain

import "strings"

// LowerKeys returns a copy of the atom with every field name lower-cased.
// Labels are carried over unchanged.
func LowerKeys(a *Atom) *Atom {
	out := a.Copy()
	out.keys = out.keys[:0]
	out.fields = make(map[string]any, len(a.fields))
	for _, k := range a.keys {
		out.Set(strings.ToLower(k), a.fields[k])
	}
	return out
}

// RenameKeys returns a copy of the atom with fields renamed through aliases.
// Names without an alias are kept.
func RenameKeys(a *Atom, aliases map[string]string) *Atom {
	out := a.Copy()
	out.keys = out.keys[:0]
	out.fields = make(map[string]any, len(a.fields))
	for _, k := range a.keys {
		name := k
		if alias, ok := aliases[k]; ok {
			name = alias
		}
		out.Set(name, a.fields[k])
	}
	return out
}
