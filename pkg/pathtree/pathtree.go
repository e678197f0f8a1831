// Package pathtree converts between dotted-path flat mappings and nested
// mappings. Questionnaires are authored as nested schema trees but submitted
// as flat form fields; stored answers are flattened back for lookup.
package pathtree

import (
	"fmt"
	"sort"
	"strings"
)

// Delimiter separates path segments in flat keys.
const Delimiter = "."

// ErrPathConflict reports flat keys where one key is a prefix of another
// (e.g. "a.b" and "a.b.c"). The original behavior was an undefined overwrite;
// here it is a configuration error and the whole conversion is rejected.
type ErrPathConflict struct {
	Path string
}

func (e *ErrPathConflict) Error() string {
	return fmt.Sprintf("pathtree: key %q conflicts with a nested branch", e.Path)
}

// Flatten walks nested depth-first and records every leaf (any non-mapping
// value, including nil) under the dot-joined path of its ancestors.
func Flatten(nested map[string]any) map[string]any {
	flat := make(map[string]any)
	flattenInto(flat, "", nested)
	return flat
}

func flattenInto(flat map[string]any, prefix string, node map[string]any) {
	for key, value := range node {
		path := key
		if prefix != "" {
			path = prefix + Delimiter + key
		}
		if child, ok := value.(map[string]any); ok {
			flattenInto(flat, path, child)
			continue
		}
		flat[path] = value
	}
}

// Unflatten rebuilds a nested mapping from flat dotted keys. Keys are applied
// in sorted order so conflicts are detected deterministically.
func Unflatten(flat map[string]any) (map[string]any, error) {
	nested := make(map[string]any)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		segments := strings.Split(key, Delimiter)
		node := nested
		for _, segment := range segments[:len(segments)-1] {
			existing, ok := node[segment]
			if !ok {
				child := make(map[string]any)
				node[segment] = child
				node = child
				continue
			}
			child, ok := existing.(map[string]any)
			if !ok {
				// A leaf already sits where a branch is needed.
				return nil, &ErrPathConflict{Path: key}
			}
			node = child
		}
		last := segments[len(segments)-1]
		if existing, ok := node[last]; ok {
			if _, isBranch := existing.(map[string]any); isBranch {
				// A branch already sits where this leaf would go.
				return nil, &ErrPathConflict{Path: key}
			}
		}
		node[last] = flat[key]
	}
	return nested, nil
}
