package args

import "strings"

// Arg is one parsed token. Index is the token's position in the original
// input and survives removals.
type Arg struct {
	Index    int
	Key      string
	KeyLower string
	Value    string
}

// IsKeyed reports whether the token came from key=value.
func (a Arg) IsKeyed() bool { return a.Key != "" }

func (a Arg) String() string {
	if a.IsKeyed() {
		return a.Key + "=" + a.Value
	}
	return a.Value
}

// Manager is an ordered view over parsed arguments.
type Manager struct {
	args []Arg
}

// Parse tokenizes content into a Manager.
func Parse(content string) *Manager {
	return &Manager{args: Tokenize(content)}
}

// FromStrings wraps already-split values as positional arguments, unchanged.
func FromStrings(values []string) *Manager {
	m := &Manager{args: make([]Arg, 0, len(values))}
	for i, v := range values {
		m.args = append(m.args, Arg{Index: i, Value: v})
	}
	return m
}

// Len returns the number of remaining arguments.
func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	return len(m.args)
}

// All returns a copy of the remaining arguments in order.
func (m *Manager) All() []Arg {
	if m == nil {
		return nil
	}
	return append([]Arg(nil), m.args...)
}

// Clone returns an independent copy.
func (m *Manager) Clone() *Manager {
	if m == nil {
		return nil
	}
	return &Manager{args: m.All()}
}

// FindByKey returns the first argument whose key matches, ignoring case.
func (m *Manager) FindByKey(key string) (Arg, bool) {
	if i := m.indexOfKey(key); i >= 0 {
		return m.args[i], true
	}
	return Arg{}, false
}

// ValueByKey distinguishes a missing key (ok == false) from a key given
// with an empty value ("", true).
func (m *Manager) ValueByKey(key string) (string, bool) {
	arg, ok := m.FindByKey(key)
	return arg.Value, ok
}

// RemoveByKey removes and returns the first argument with the given key.
func (m *Manager) RemoveByKey(key string) (Arg, bool) {
	i := m.indexOfKey(key)
	if i < 0 {
		return Arg{}, false
	}
	arg := m.args[i]
	m.args = append(m.args[:i:i], m.args[i+1:]...)
	return arg, true
}

// ValueAt returns the value at position i of the remaining arguments.
func (m *Manager) ValueAt(i int) (string, bool) {
	if m == nil || i < 0 || i >= len(m.args) {
		return "", false
	}
	return m.args[i].Value, true
}

// UnkeyedValues returns the positional values in original order.
func (m *Manager) UnkeyedValues() []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, a := range m.args {
		if !a.IsKeyed() {
			out = append(out, a.Value)
		}
	}
	return out
}

// Keyed returns the keyed arguments in original order.
func (m *Manager) Keyed() []Arg {
	if m == nil {
		return nil
	}
	var out []Arg
	for _, a := range m.args {
		if a.IsKeyed() {
			out = append(out, a)
		}
	}
	return out
}

func (m *Manager) String() string {
	if m == nil {
		return ""
	}
	parts := make([]string, len(m.args))
	for i, a := range m.args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

func (m *Manager) indexOfKey(key string) int {
	if m == nil || key == "" {
		return -1
	}
	lower := strings.ToLower(key)
	for i, a := range m.args {
		if a.IsKeyed() && a.KeyLower == lower {
			return i
		}
	}
	return -1
}
