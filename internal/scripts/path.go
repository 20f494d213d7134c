package scripts

import (
	"strconv"
	"strings"
)

// lookupPath walks a decoded body along a dotted/bracket path such as
// "data.items[2].id" or `tokens["access"]`. It is total: a missing or
// mistyped segment reports false, it never panics.
func lookupPath(value interface{}, path string) (interface{}, bool) {
	segments, ok := splitPath(path)
	if !ok {
		return nil, false
	}
	current := value
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]interface{}:
			next, present := node[segment]
			if !present {
				return nil, false
			}
			current = next
		case []interface{}:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}
			current = node[index]
		default:
			return nil, false
		}
	}
	return current, true
}

// splitPath turns "a.b[0].c" into ["a" "b" "0" "c"]. Bracket segments may be
// bare indexes or quoted keys.
func splitPath(path string) ([]string, bool) {
	var segments []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		switch ch := path[i]; ch {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, false
			}
			inner := path[i+1 : i+end]
			if len(inner) >= 2 && (inner[0] == '"' || inner[0] == '\'') && inner[len(inner)-1] == inner[0] {
				inner = inner[1 : len(inner)-1]
			}
			if inner == "" {
				return nil, false
			}
			segments = append(segments, inner)
			i += end
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return segments, len(segments) > 0
}
