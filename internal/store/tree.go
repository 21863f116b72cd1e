package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// splitPath turns "games/abc/players" into its segments. The empty path
// is the root.
func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" || s == "." || s == ".." {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segs, nil
}

func joinPath(segs ...string) string {
	return strings.Join(segs, "/")
}

// normalize converts v into the generic JSON tree form (maps, slices,
// float64, string, bool, nil) used by both stores.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func getAt(node any, segs []string) (any, bool) {
	for _, seg := range segs {
		switch n := node.(type) {
		case map[string]any:
			child, ok := n[seg]
			if !ok {
				return nil, false
			}
			node = child
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(n) {
				return nil, false
			}
			node = n[i]
		default:
			return nil, false
		}
	}
	return node, node != nil
}

// setAt stores value at segs below node and returns the new node. Missing
// intermediate objects are created; a nil value removes the key.
func setAt(node any, segs []string, value any) (any, error) {
	if len(segs) == 0 {
		return value, nil
	}
	head, rest := segs[0], segs[1:]

	switch n := node.(type) {
	case []any:
		i, err := strconv.Atoi(head)
		if err != nil || i < 0 || i >= len(n) {
			return nil, fmt.Errorf("%w: index %q out of range", ErrInvalidPath, head)
		}
		child, err := setAt(n[i], rest, value)
		if err != nil {
			return nil, err
		}
		n[i] = child
		return n, nil
	case map[string]any:
		child, err := setAt(n[head], rest, value)
		if err != nil {
			return nil, err
		}
		if child == nil {
			delete(n, head)
		} else {
			n[head] = child
		}
		return n, nil
	default:
		if value == nil {
			return node, nil
		}
		child, err := setAt(nil, rest, value)
		if err != nil {
			return nil, err
		}
		return map[string]any{head: child}, nil
	}
}

// applyChanges normalizes each change and writes it below node in
// lexical key order, so a parent and its child in one update resolve the
// same way in every store.
func applyChanges(node any, changes map[string]any) (any, error) {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		segs, err := splitPath(k)
		if err != nil {
			return nil, err
		}
		if len(segs) == 0 {
			return nil, fmt.Errorf("%w: empty update key", ErrInvalidPath)
		}
		v, err := normalize(changes[k])
		if err != nil {
			return nil, err
		}
		node, err = setAt(node, segs, v)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// overlaps reports whether a change at one path can alter the value seen
// at the other.
func overlaps(a, b []string) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func encode(v any, found bool) (json.RawMessage, error) {
	if !found {
		return nil, nil
	}
	return json.Marshal(v)
}

// cloneTree deep-copies a generic JSON tree.
func cloneTree(v any) any {
	switch n := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, c := range n {
			out[k] = cloneTree(c)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, c := range n {
			out[i] = cloneTree(c)
		}
		return out
	default:
		return v
	}
}
