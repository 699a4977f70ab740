// Package paths distinguishes the logical "/contents/..." paths stored on
// change requests from the raw keys used against the object store. Keeping
// two types forces every conversion through one function each way, so a
// path cannot be stripped twice or not at all.
package paths

import "strings"

// Prefix is the logical prefix carried by every target and source path.
const Prefix = "/contents"

// LogicalPath is a client-facing path, always prefixed "/contents".
type LogicalPath string

// StorageKey is a raw object-store key, never prefixed.
type StorageKey string

// IsLogical reports whether s carries the logical prefix.
func IsLogical(s string) bool {
	return s == Prefix || strings.HasPrefix(s, Prefix+"/")
}

// Key strips the logical prefix to obtain the object-store key.
func (p LogicalPath) Key() StorageKey {
	s := string(p)
	if s == Prefix {
		return ""
	}
	return StorageKey(strings.TrimPrefix(s, Prefix+"/"))
}

// Logical prepends the logical prefix to a storage key.
func (k StorageKey) Logical() LogicalPath {
	if k == "" {
		return Prefix
	}
	return LogicalPath(Prefix + "/" + string(k))
}

func (p LogicalPath) String() string { return string(p) }

func (k StorageKey) String() string { return string(k) }
