package settings

import (
	"fmt"
	"strconv"
)

// Value is a typed setting value with a declared default. The zero Value has
// TypeUndefined and holds nothing; LABEL nodes carry one.
type Value struct {
	typ      Type
	typeName string
	params   string
	p        typeParams
	def      datum
	cur      datum
}

// NewValue declares a value of the named type. The default must parse
// against the type; the current value starts at the default.
func NewValue(typeName, defaultValue, params string) (*Value, error) {
	t, ok := LookupType(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidValue, typeName)
	}
	p, err := parseParams(t, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s parameters: %v", ErrInvalidValue, t, err)
	}
	def, err := parseDatum(t, p, defaultValue)
	if err != nil {
		return nil, fmt.Errorf("%w: default: %v", ErrInvalidValue, err)
	}
	return &Value{typ: t, typeName: typeName, params: params, p: p, def: def, cur: def}, nil
}

// Type returns the declared type tag.
func (v *Value) Type() Type {
	return v.typ
}

// TypeName returns the type name as it was declared.
func (v *Value) TypeName() string {
	return v.typeName
}

// Params returns the declared type parameters.
func (v *Value) Params() string {
	return v.params
}

// Options returns the choices of an OptionList value.
func (v *Value) Options() []string {
	out := make([]string, len(v.p.options))
	copy(out, v.p.options)
	return out
}

// Set parses raw into the current value. On failure the current value is
// left untouched. The stored text may be the canonical form of raw rather
// than raw itself: Bool, OptionList and a "time" RandomSeed are rewritten,
// and surrounding whitespace is trimmed for every type but String.
func (v *Value) Set(raw string) error {
	if v.typ == TypeUndefined {
		return ErrNotSetting
	}
	d, err := parseDatum(v.typ, v.p, raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, v.typ, err)
	}
	v.cur = d
	return nil
}

// Reset restores the declared default.
func (v *Value) Reset() {
	v.cur = v.def
}

// Default returns the declared default in text form.
func (v *Value) Default() string {
	return v.def.text
}

// IsSet reports whether the current value differs from the default. For a
// required setting, which has no default, that means it holds a value.
func (v *Value) IsSet() bool {
	if v.typ == TypeUndefined {
		return false
	}
	if v.cur.empty || v.def.empty {
		return v.cur.empty != v.def.empty
	}
	return !equalDatum(v.typ, v.cur, v.def)
}

// IsEmpty reports whether the current value holds nothing.
func (v *Value) IsEmpty() bool {
	return v.typ == TypeUndefined || v.cur.empty
}

// Equal reports whether both values have the same type and equal current
// values.
func (v *Value) Equal(other *Value) bool {
	if v.typ != other.typ {
		return false
	}
	if v.cur.empty || other.cur.empty {
		return v.cur.empty == other.cur.empty
	}
	return equalDatum(v.typ, v.cur, other.cur)
}

// Compare orders the current values of two values of the same type. ok is
// false when the types differ, either value is empty, or the type has no
// order for these values.
func (v *Value) Compare(other *Value) (int, bool) {
	if v.typ != other.typ || v.typ == TypeUndefined || v.cur.empty || other.cur.empty {
		return 0, false
	}
	return compareDatum(v.typ, v.cur, other.cur)
}

func equalDatum(t Type, a, b datum) bool {
	if c, ok := compareDatum(t, a, b); ok {
		return c == 0
	}
	return a.text == b.text
}

// withText returns a copy of v whose current value is parsed from raw.
func (v *Value) withText(raw string) (*Value, error) {
	clone := *v
	if err := clone.Set(raw); err != nil {
		return nil, err
	}
	return &clone, nil
}

// ToString returns the current value in text form.
func (v *Value) ToString() string {
	return v.cur.text
}

// ToBool converts the current value to a boolean.
func (v *Value) ToBool() (bool, bool) {
	if v.cur.empty {
		return false, false
	}
	if v.typ == TypeBool {
		return v.cur.i == 1, true
	}
	b, err := strconv.ParseBool(v.cur.text)
	return b, err == nil
}

// ToInt converts the current value to an int. Integer types and Bool convert
// directly; other types succeed only when their text is an integer.
func (v *Value) ToInt() (int, bool) {
	if v.cur.empty {
		return 0, false
	}
	switch {
	case v.typ == TypeRandomSeed && v.cur.seedTime:
		return 0, false
	case v.typ.isInteger() || v.typ == TypeBool:
		return int(v.cur.i), true
	}
	i, err := strconv.Atoi(v.cur.text)
	return i, err == nil
}

// ToDouble converts the current value to a float64. DateTime converts to its
// Modified Julian Date and Time to seconds.
func (v *Value) ToDouble() (float64, bool) {
	if v.cur.empty {
		return 0, false
	}
	switch {
	case v.typ == TypeRandomSeed && v.cur.seedTime:
		return 0, false
	case v.typ.isReal():
		return v.cur.f, true
	case v.typ.isInteger():
		return float64(v.cur.i), true
	}
	f, err := strconv.ParseFloat(v.cur.text, 64)
	return f, err == nil
}

// ToStringList returns list values element-wise and scalars as a single
// element list. Labels have no list form.
func (v *Value) ToStringList() ([]string, bool) {
	if v.typ == TypeUndefined {
		return nil, false
	}
	if v.cur.empty {
		return []string{}, true
	}
	switch v.typ {
	case TypeInputFileList, TypeStringList:
		return append([]string(nil), v.cur.strs...), true
	case TypeIntList, TypeDoubleList:
		return splitList(v.cur.text), true
	}
	return []string{v.cur.text}, true
}

// ToIntList converts IntList values and integer scalars.
func (v *Value) ToIntList() ([]int, bool) {
	if v.cur.empty {
		return []int{}, v.typ.isList()
	}
	switch {
	case v.typ == TypeIntList:
		return append([]int(nil), v.cur.ints...), true
	case v.typ == TypeRandomSeed && v.cur.seedTime:
		return nil, false
	case v.typ.isInteger():
		return []int{int(v.cur.i)}, true
	}
	return nil, false
}

// ToDoubleList converts DoubleList and IntList values and numeric scalars.
func (v *Value) ToDoubleList() ([]float64, bool) {
	if v.cur.empty {
		return []float64{}, v.typ.isList()
	}
	switch {
	case v.typ == TypeDoubleList:
		return append([]float64(nil), v.cur.floats...), true
	case v.typ == TypeIntList:
		out := make([]float64, len(v.cur.ints))
		for i, n := range v.cur.ints {
			out[i] = float64(n)
		}
		return out, true
	}
	if f, ok := v.ToDouble(); ok {
		return []float64{f}, true
	}
	return nil, false
}
