package cache

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// maxKeyLen bounds derived key length. Longer keys collapse to a hash so the
// cache never stores unbounded key strings.
const maxKeyLen = 200

// Param is a single named parameter contributing to a cache key.
type Param struct {
	Name  string
	Value any
}

// P is shorthand for constructing a Param.
func P(name string, value any) Param {
	return Param{Name: name, Value: value}
}

// Key derives a deterministic cache key for an operation and its parameters.
// Parameters are sorted by name before joining, so callers may pass them in
// any order. Keys over maxKeyLen are replaced by the operation name plus an
// xxhash of the full string.
func Key(operation string, params ...Param) string {
	ps := slices.Clone(params)
	slices.SortFunc(ps, func(a, b Param) int {
		return strings.Compare(a.Name, b.Name)
	})

	var sb strings.Builder
	sb.WriteString(operation)
	for _, p := range ps {
		sb.WriteByte(':')
		sb.WriteString(p.Name)
		sb.WriteByte(':')
		fmt.Fprintf(&sb, "%v", p.Value)
	}

	key := sb.String()
	if len(key) <= maxKeyLen {
		return key
	}
	return operation + ":" + strconv.FormatUint(xxhash.Sum64String(key), 16)
}
