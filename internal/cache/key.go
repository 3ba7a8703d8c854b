package cache

import (
	"fmt"
	"sort"
	"strings"
)

// KeySeparator delimits the segments of a derived cache key.
const KeySeparator = "|"

// CreateKey derives a deterministic cache key from a namespace prefix and a
// parameter set. Parameter names are sorted lexicographically before
// rendering, so two logically identical parameter maps produce the same key
// regardless of insertion or iteration order.
func CreateKey(prefix string, params map[string]any) string {
	if len(params) == 0 {
		return prefix
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(params)+1)
	parts = append(parts, prefix)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%v", name, params[name]))
	}
	return strings.Join(parts, KeySeparator)
}

// keyNamespace extracts the namespace prefix of a key for metric labels.
func keyNamespace(key string) string {
	if i := strings.Index(key, KeySeparator); i >= 0 {
		return key[:i]
	}
	return key
}
