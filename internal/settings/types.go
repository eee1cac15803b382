package settings

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Type identifies the declared type of a setting value.
type Type uint8

const (
	TypeUndefined Type = iota
	TypeBool
	TypeInt
	TypeUnsignedInt
	TypeIntPositive
	TypeIntRange
	TypeDouble
	TypeDoubleRange
	TypeString
	TypeInputFile
	TypeOutputFile
	TypeInputDirectory
	TypeInputFileList
	TypeStringList
	TypeIntList
	TypeDoubleList
	TypeOptionList
	TypeRandomSeed
	TypeDateTime
	TypeTime
)

var typeNames = [...]string{
	TypeUndefined:      "",
	TypeBool:           "Bool",
	TypeInt:            "Int",
	TypeUnsignedInt:    "UnsignedInt",
	TypeIntPositive:    "IntPositive",
	TypeIntRange:       "IntRange",
	TypeDouble:         "Double",
	TypeDoubleRange:    "DoubleRange",
	TypeString:         "String",
	TypeInputFile:      "InputFile",
	TypeOutputFile:     "OutputFile",
	TypeInputDirectory: "InputDirectory",
	TypeInputFileList:  "InputFileList",
	TypeStringList:     "StringList",
	TypeIntList:        "IntList",
	TypeDoubleList:     "DoubleList",
	TypeOptionList:     "OptionList",
	TypeRandomSeed:     "RandomSeed",
	TypeDateTime:       "DateTime",
	TypeTime:           "Time",
}

var typesByName = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, name := range typeNames {
		if name == "" {
			continue
		}
		m[foldName(name)] = Type(t)
	}
	return m
}()

// String returns the canonical type name.
func (t Type) String() string {
	if int(t) < len(typeNames) && t != TypeUndefined {
		return typeNames[t]
	}
	return "Undefined"
}

// LookupType resolves a type name case-insensitively.
func LookupType(name string) (Type, bool) {
	t, ok := typesByName[foldName(strings.TrimSpace(name))]
	return t, ok
}

func (t Type) isList() bool {
	switch t {
	case TypeInputFileList, TypeStringList, TypeIntList, TypeDoubleList:
		return true
	}
	return false
}

func (t Type) isInteger() bool {
	switch t {
	case TypeInt, TypeUnsignedInt, TypeIntPositive, TypeIntRange, TypeRandomSeed:
		return true
	}
	return false
}

func (t Type) isReal() bool {
	switch t {
	case TypeDouble, TypeDoubleRange, TypeDateTime, TypeTime:
		return true
	}
	return false
}

func (t Type) isText() bool {
	switch t {
	case TypeString, TypeInputFile, TypeOutputFile, TypeInputDirectory:
		return true
	}
	return false
}

// datum is one parsed value. text is what ToString reports; the remaining
// fields hold whichever typed form the declared type uses.
type datum struct {
	text   string
	empty  bool
	i      int64
	f      float64
	strs   []string
	ints   []int
	floats []float64
	// seedTime marks a RandomSeed of "time", which has no numeric order.
	seedTime bool
}

// typeParams holds the parsed declaration parameters of a value.
type typeParams struct {
	ilo, ihi int64
	flo, fhi float64
	options  []string
}

const mjdEpochOffsetDays = 40587.0 // MJD of 1970-01-01

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-1-2 15:4:5.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-1-2T15:4:5.999999999",
	"02-01-2006 15:04:05.999999999",
	"2-1-2006 15:4:5.999999999",
	"2006/01/02/15:04:05.999999999",
	"2006/1/2/15:4:5.999999999",
}

func parseParams(t Type, raw string) (typeParams, error) {
	p := typeParams{ilo: math.MinInt64, ihi: math.MaxInt64, flo: math.Inf(-1), fhi: math.Inf(1)}
	raw = strings.TrimSpace(raw)
	switch t {
	case TypeIntRange:
		lo, hi, err := splitRange(raw)
		if err != nil {
			return p, err
		}
		if lo != "" && !strings.EqualFold(lo, "MIN") {
			v, err := strconv.ParseInt(lo, 10, 64)
			if err != nil {
				return p, fmt.Errorf("range minimum %q: %w", lo, err)
			}
			p.ilo = v
		}
		if hi != "" && !strings.EqualFold(hi, "MAX") {
			v, err := strconv.ParseInt(hi, 10, 64)
			if err != nil {
				return p, fmt.Errorf("range maximum %q: %w", hi, err)
			}
			p.ihi = v
		}
		if p.ilo > p.ihi {
			return p, fmt.Errorf("range minimum %d exceeds maximum %d", p.ilo, p.ihi)
		}
	case TypeDoubleRange:
		lo, hi, err := splitRange(raw)
		if err != nil {
			return p, err
		}
		if lo != "" && !strings.EqualFold(lo, "MIN") {
			v, err := strconv.ParseFloat(lo, 64)
			if err != nil {
				return p, fmt.Errorf("range minimum %q: %w", lo, err)
			}
			p.flo = v
		}
		if hi != "" && !strings.EqualFold(hi, "MAX") {
			v, err := strconv.ParseFloat(hi, 64)
			if err != nil {
				return p, fmt.Errorf("range maximum %q: %w", hi, err)
			}
			p.fhi = v
		}
		if p.flo > p.fhi {
			return p, fmt.Errorf("range minimum %g exceeds maximum %g", p.flo, p.fhi)
		}
	case TypeOptionList:
		seen := make(map[string]struct{})
		for _, opt := range splitList(raw) {
			folded := foldName(opt)
			if _, dup := seen[folded]; dup {
				return p, fmt.Errorf("duplicate option %q", opt)
			}
			seen[folded] = struct{}{}
			p.options = append(p.options, opt)
		}
		if len(p.options) == 0 {
			return p, fmt.Errorf("option list requires at least one option")
		}
	}
	return p, nil
}

func splitRange(raw string) (string, string, error) {
	if raw == "" {
		return "", "", nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("range parameters %q must be \"min,max\"", raw)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	fields := strings.Split(raw, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// parseDatum converts raw text into the typed representation of t. Empty
// text is accepted for every type and means "no value".
func parseDatum(t Type, p typeParams, raw string) (datum, error) {
	if t == TypeString {
		if raw == "" {
			return datum{empty: true}, nil
		}
		return datum{text: raw}, nil
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return datum{empty: true}, nil
	}
	d := datum{text: text}
	switch t {
	case TypeBool:
		switch strings.ToLower(text) {
		case "true", "yes", "on", "1":
			d.i, d.text = 1, "true"
		case "false", "no", "off", "0":
			d.i, d.text = 0, "false"
		default:
			return d, fmt.Errorf("%q is not a boolean", text)
		}
	case TypeInt, TypeUnsignedInt, TypeIntPositive, TypeIntRange:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return d, fmt.Errorf("%q is not an integer", text)
		}
		switch {
		case t == TypeUnsignedInt && v < 0:
			return d, fmt.Errorf("%d must not be negative", v)
		case t == TypeIntPositive && v < 1:
			return d, fmt.Errorf("%d must be positive", v)
		case t == TypeIntRange && (v < p.ilo || v > p.ihi):
			return d, fmt.Errorf("%d outside range [%d, %d]", v, p.ilo, p.ihi)
		}
		d.i = v
	case TypeDouble, TypeDoubleRange:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(v) {
			return d, fmt.Errorf("%q is not a number", text)
		}
		if t == TypeDoubleRange && (v < p.flo || v > p.fhi) {
			return d, fmt.Errorf("%g outside range [%g, %g]", v, p.flo, p.fhi)
		}
		d.f = v
	case TypeInputFile, TypeOutputFile, TypeInputDirectory:
	case TypeInputFileList, TypeStringList:
		d.strs = splitList(text)
	case TypeIntList:
		for _, item := range splitList(text) {
			v, err := strconv.Atoi(item)
			if err != nil {
				return d, fmt.Errorf("list element %q is not an integer", item)
			}
			d.ints = append(d.ints, v)
		}
	case TypeDoubleList:
		for _, item := range splitList(text) {
			v, err := strconv.ParseFloat(item, 64)
			if err != nil || math.IsNaN(v) {
				return d, fmt.Errorf("list element %q is not a number", item)
			}
			d.floats = append(d.floats, v)
		}
	case TypeOptionList:
		idx, err := matchOption(p.options, text)
		if err != nil {
			return d, err
		}
		d.i, d.text = int64(idx), p.options[idx]
	case TypeRandomSeed:
		if strings.EqualFold(text, "time") {
			d.text, d.seedTime = "time", true
			break
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil || v < 1 {
			return d, fmt.Errorf("%q is not \"time\" or a positive integer", text)
		}
		d.i = v
	case TypeDateTime:
		v, err := parseDateTime(text)
		if err != nil {
			return d, err
		}
		d.f = v
	case TypeTime:
		v, err := parseDuration(text)
		if err != nil {
			return d, err
		}
		d.f = v
	default:
		return d, fmt.Errorf("type %s cannot hold a value", t)
	}
	return d, nil
}

// matchOption accepts an exact case-insensitive match or a unique
// case-insensitive prefix of one option.
func matchOption(options []string, text string) (int, error) {
	folded := foldName(text)
	match := -1
	for i, opt := range options {
		fo := foldName(opt)
		if fo == folded {
			return i, nil
		}
		if strings.HasPrefix(fo, folded) {
			if match >= 0 {
				return -1, fmt.Errorf("%q is ambiguous between %q and %q", text, options[match], opt)
			}
			match = i
		}
	}
	if match < 0 {
		return -1, fmt.Errorf("%q is not one of %s", text, strings.Join(options, ", "))
	}
	return match, nil
}

// parseDateTime returns the instant as a Modified Julian Date.
func parseDateTime(text string) (float64, error) {
	for _, layout := range dateTimeLayouts {
		ts, err := time.ParseInLocation(layout, text, time.UTC)
		if err == nil {
			return float64(ts.UnixNano())/float64(24*time.Hour) + mjdEpochOffsetDays, nil
		}
	}
	mjd, err := strconv.ParseFloat(text, 64)
	if err != nil || mjd <= 0 || math.IsInf(mjd, 0) {
		return 0, fmt.Errorf("%q is not a date-time", text)
	}
	return mjd, nil
}

// parseDuration accepts "HH:MM:SS[.sss]" or a plain number of seconds.
func parseDuration(text string) (float64, error) {
	parts := strings.Split(text, ":")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || v < 0 || math.IsNaN(v) {
			return 0, fmt.Errorf("%q is not a time", text)
		}
		return v, nil
	case 3:
		h, errH := strconv.Atoi(parts[0])
		m, errM := strconv.Atoi(parts[1])
		s, errS := strconv.ParseFloat(parts[2], 64)
		if errH != nil || errM != nil || errS != nil || h < 0 || m < 0 || m > 59 || s < 0 || s >= 60 {
			return 0, fmt.Errorf("%q is not a time", text)
		}
		return float64(h)*3600 + float64(m)*60 + s, nil
	default:
		return 0, fmt.Errorf("%q is not a time", text)
	}
}

// compareDatum orders two non-empty data of type t. ok is false when t has
// no ordering for these data.
func compareDatum(t Type, a, b datum) (int, bool) {
	switch {
	case t == TypeRandomSeed:
		if a.seedTime || b.seedTime {
			return 0, false
		}
		return cmp.Compare(a.i, b.i), true
	case t == TypeBool || t == TypeOptionList || t.isInteger():
		return cmp.Compare(a.i, b.i), true
	case t.isReal():
		return cmp.Compare(a.f, b.f), true
	case t.isText():
		return strings.Compare(a.text, b.text), true
	case t == TypeInputFileList || t == TypeStringList:
		return slices.CompareFunc(a.strs, b.strs, strings.Compare), true
	case t == TypeIntList:
		return slices.Compare(a.ints, b.ints), true
	case t == TypeDoubleList:
		return slices.Compare(a.floats, b.floats), true
	}
	return 0, false
}
