package column

// Type drives how a column value is compared, filtered and formatted.
type Type interface {
	TypeName() string
}

// StringType renders values as text.
type StringType struct{}

func (StringType) TypeName() string { return "string" }

// NumberType formats numbers for a locale.
type NumberType struct {
	Locale   string // BCP 47 tag, "en" when empty
	Decimals int    // fixed fraction digits; -1 keeps the value's precision
	Prefix   string
	Suffix   string
}

func (NumberType) TypeName() string { return "number" }

// DateTimeType parses and reformats timestamps.
type DateTimeType struct {
	// SourceLayout parses string values. Empty means any recognisable format.
	SourceLayout string
	OutputLayout string
	// Location converts the value before formatting, e.g. "Europe/Budapest".
	Location string
}

func (DateTimeType) TypeName() string { return "datetime" }

// ListType joins slice values.
type ListType struct {
	Separator string
}

func (ListType) TypeName() string { return "list" }

// IsNumeric reports whether values of t compare as numbers.
func IsNumeric(t Type) bool {
	_, ok := t.(NumberType)
	return ok
}

// IsTemporal reports whether values of t compare as timestamps.
func IsTemporal(t Type) bool {
	_, ok := t.(DateTimeType)
	return ok
}
