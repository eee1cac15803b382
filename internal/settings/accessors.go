package settings

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// The accessors below share one convention: they return a zero value
// without looking anything up when *status is already in error, set
// StatusNoValue when the key is missing, and set a type-specific status
// when the value does not convert.

func (t *Tree) lookup(key string, status *Status) (*Value, bool) {
	if *status != StatusOK {
		return nil, false
	}
	v, ok := t.Value(key)
	if !ok {
		*status = StatusNoValue
		return nil, false
	}
	return v, true
}

// ToString returns the value at key as text.
func (t *Tree) ToString(key string, status *Status) string {
	v, ok := t.lookup(key, status)
	if !ok {
		return ""
	}
	return v.ToString()
}

// ToInt returns the value at key as an int.
func (t *Tree) ToInt(key string, status *Status) int {
	v, ok := t.lookup(key, status)
	if !ok {
		return 0
	}
	i, ok := v.ToInt()
	if !ok {
		*status = StatusIntConversionFail
	}
	return i
}

// ToDouble returns the value at key as a float64.
func (t *Tree) ToDouble(key string, status *Status) float64 {
	v, ok := t.lookup(key, status)
	if !ok {
		return 0
	}
	f, ok := v.ToDouble()
	if !ok {
		*status = StatusDoubleConversionFail
	}
	return f
}

// ToStringList returns the value at key as a list of strings.
func (t *Tree) ToStringList(key string, status *Status) []string {
	v, ok := t.lookup(key, status)
	if !ok {
		return nil
	}
	list, ok := v.ToStringList()
	if !ok {
		*status = StatusStringListConversionFail
	}
	return list
}

// ToIntList returns the value at key as a list of ints.
func (t *Tree) ToIntList(key string, status *Status) []int {
	v, ok := t.lookup(key, status)
	if !ok {
		return nil
	}
	list, ok := v.ToIntList()
	if !ok {
		*status = StatusIntListConversionFail
	}
	return list
}

// ToDoubleList returns the value at key as a list of float64s.
func (t *Tree) ToDoubleList(key string, status *Status) []float64 {
	v, ok := t.lookup(key, status)
	if !ok {
		return nil
	}
	list, ok := v.ToDoubleList()
	if !ok {
		*status = StatusDoubleListConversionFail
	}
	return list
}

// FirstLetter returns the upper-cased first letter of the value at key, or
// 0 for an empty value.
func (t *Tree) FirstLetter(key string, status *Status) rune {
	v, ok := t.lookup(key, status)
	if !ok {
		return 0
	}
	s := v.ToString()
	if s == "" {
		return 0
	}
	r, size := utf8.DecodeRuneInString(s)
	upper := cases.Upper(language.Und).String(s[:size])
	if u, _ := utf8.DecodeRuneInString(upper); u != utf8.RuneError {
		return u
	}
	return r
}

// StartsWith reports whether the value at key begins with prefix, ignoring
// case.
func (t *Tree) StartsWith(key, prefix string, status *Status) bool {
	v, ok := t.lookup(key, status)
	if !ok {
		return false
	}
	return strings.HasPrefix(foldName(v.ToString()), foldName(prefix))
}
