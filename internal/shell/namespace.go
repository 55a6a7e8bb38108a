package shell

import "sort"

// Namespace is an evaluated module's export object.
type Namespace interface {
	// Get returns the current value of an export. ok is false when the
	// module has no export with that name.
	Get(name string) (value any, ok bool)

	// Exports returns the export names in sorted order.
	Exports() []string
}

// MapNamespace is a Namespace backed by a map.
type MapNamespace map[string]any

// Get implements Namespace.
func (m MapNamespace) Get(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Exports implements Namespace.
func (m MapNamespace) Exports() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
