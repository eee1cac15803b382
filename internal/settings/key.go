package settings

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultSeparator separates key components unless a tree is configured
// otherwise.
const DefaultSeparator = '/'

// Key is a hierarchical settings path split into components.
type Key struct {
	parts []string
	sep   rune
}

// NewKey splits raw on sep. Empty components are dropped, so "a//b/" and
// "a/b" name the same key.
func NewKey(raw string, sep rune) Key {
	fields := strings.Split(raw, string(sep))
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if field == "" {
			continue
		}
		parts = append(parts, field)
	}
	return Key{parts: parts, sep: sep}
}

// Depth returns the number of components.
func (k Key) Depth() int {
	return len(k.parts)
}

// At returns the component at depth i. It panics when i is outside
// [0, Depth()).
func (k Key) At(i int) string {
	return k.parts[i]
}

// Last returns the final component, or "" for an empty key.
func (k Key) Last() string {
	if len(k.parts) == 0 {
		return ""
	}
	return k.parts[len(k.parts)-1]
}

// Separator returns the separator the key was split on.
func (k Key) Separator() rune {
	return k.sep
}

// Components returns a copy of the key components.
func (k Key) Components() []string {
	out := make([]string, len(k.parts))
	copy(out, k.parts)
	return out
}

// Prefix returns the key made of the first n components.
func (k Key) Prefix(n int) Key {
	if n > len(k.parts) {
		n = len(k.parts)
	}
	if n < 0 {
		n = 0
	}
	parts := make([]string, n)
	copy(parts, k.parts[:n])
	return Key{parts: parts, sep: k.sep}
}

// Parent returns the key without its final component.
func (k Key) Parent() Key {
	return k.Prefix(len(k.parts) - 1)
}

// Append returns a new key with component added at the end.
func (k Key) Append(component string) Key {
	parts := make([]string, len(k.parts), len(k.parts)+1)
	copy(parts, k.parts)
	return Key{parts: append(parts, component), sep: k.sep}
}

// Equal reports whether both keys have the same depth and every component
// matches case-insensitively.
func (k Key) Equal(other Key) bool {
	if len(k.parts) != len(other.parts) {
		return false
	}
	for i := range k.parts {
		if foldName(k.parts[i]) != foldName(other.parts[i]) {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix matches the leading components of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix.parts) > len(k.parts) {
		return false
	}
	for i := range prefix.parts {
		if foldName(k.parts[i]) != foldName(prefix.parts[i]) {
			return false
		}
	}
	return true
}

// String joins the components with the key separator.
func (k Key) String() string {
	return strings.Join(k.parts, string(k.sep))
}

// foldName returns the case-folded form used for key matching. A Caser is
// stateful, so each call gets its own.
func foldName(s string) string {
	return cases.Fold().String(s)
}
