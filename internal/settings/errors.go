package settings

import "errors"

var (
	// ErrNotFound indicates the requested key is not present in the tree.
	ErrNotFound = errors.New("settings: key not found")
	// ErrInvalidDefinition indicates a rejected AddSetting declaration.
	ErrInvalidDefinition = errors.New("settings: invalid definition")
	// ErrInvalidValue indicates a value rejected by its declared type.
	ErrInvalidValue = errors.New("settings: invalid value")
	// ErrNotSetting indicates a value operation on a LABEL node.
	ErrNotSetting = errors.New("settings: node is not a setting")
	// ErrInvalidLogic indicates an unknown dependency or group operator.
	ErrInvalidLogic = errors.New("settings: invalid dependency logic")
	// ErrNoFileHandler indicates Load or Save without a FileHandler.
	ErrNoFileHandler = errors.New("settings: no file handler")
	// ErrStaleBuilder indicates a Builder used after the tree was cleared.
	ErrStaleBuilder = errors.New("settings: builder refers to a cleared tree")

	ErrIntConversion        = errors.New("settings: int conversion failed")
	ErrDoubleConversion     = errors.New("settings: double conversion failed")
	ErrStringListConversion = errors.New("settings: string list conversion failed")
	ErrIntListConversion    = errors.New("settings: int list conversion failed")
	ErrDoubleListConversion = errors.New("settings: double list conversion failed")
)

// Status is the sticky error code threaded through the typed accessors on
// Tree. Accessors do nothing when handed a status that is already in error,
// so a run of lookups can be checked once at the end.
type Status int

const (
	StatusOK Status = iota
	StatusNoValue
	StatusIntConversionFail
	StatusDoubleConversionFail
	StatusStringListConversionFail
	StatusIntListConversionFail
	StatusDoubleListConversionFail
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoValue:
		return "no value"
	case StatusIntConversionFail:
		return "int conversion failed"
	case StatusDoubleConversionFail:
		return "double conversion failed"
	case StatusStringListConversionFail:
		return "string list conversion failed"
	case StatusIntListConversionFail:
		return "int list conversion failed"
	case StatusDoubleListConversionFail:
		return "double list conversion failed"
	default:
		return "unknown status"
	}
}

// Err maps the status onto the package sentinel errors; StatusOK yields nil.
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusNoValue:
		return ErrNotFound
	case StatusIntConversionFail:
		return ErrIntConversion
	case StatusDoubleConversionFail:
		return ErrDoubleConversion
	case StatusStringListConversionFail:
		return ErrStringListConversion
	case StatusIntListConversionFail:
		return ErrIntListConversion
	case StatusDoubleListConversionFail:
		return ErrDoubleListConversion
	default:
		return errors.New("settings: " + s.String())
	}
}
