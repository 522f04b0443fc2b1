package chain

import (
	"strings"

	"contentforge/internal/types"
)

// ResolvePath walks a dot-separated path through nested maps. A path with
// no dots is a plain key lookup. Values, map[string]any, map[string]string
// and map-kind types.Value are traversed.
func ResolvePath(root map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	if v, ok := root[path]; ok {
		return v, true
	}

	var cur any = root
	for _, part := range strings.Split(path, ".") {
		next, ok := child(cur, part)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func child(node any, key string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		v, ok := n[key]
		return v, ok
	case map[string]string:
		v, ok := n[key]
		return v, ok
	case types.Values:
		v, ok := n[key]
		return v, ok
	case types.Value:
		if n.Kind() != types.KindMap {
			return nil, false
		}
		v, ok := n.Entries()[key]
		return v, ok
	default:
		return nil, false
	}
}
