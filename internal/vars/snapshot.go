package vars

// Snapshot is a point-in-time flattened view of the scope stack. It is built
// fresh for every send and never shared between resolutions: scopes mutate
// over time, including from scripts, so a cached snapshot would go stale.
type Snapshot struct {
	values map[string]string
}

func (s Snapshot) Lookup(key string) (string, bool) {
	if s.values == nil {
		return "", false
	}
	value, ok := s.values[key]
	return value, ok
}

func (s Snapshot) Len() int {
	return len(s.values)
}

// BuildSnapshot flattens the scope collections in increasing precedence:
// Global first, then Environment, then Session. A higher scope overwrites a
// lower one on key collision, and within one collection a later duplicate
// shadows the earlier entry. Disabled entries never participate.
func BuildSnapshot(global, environment, session []Variable) Snapshot {
	values := make(map[string]string, len(global)+len(environment)+len(session))
	for _, scope := range [][]Variable{global, environment, session} {
		for _, entry := range scope {
			if !entry.Enabled || entry.Key == "" {
				continue
			}
			values[entry.Key] = entry.Value
		}
	}
	return Snapshot{values: values}
}
