package recast

import "fmt"

// WarningCode identifies a kind of non-fatal decode condition.
type WarningCode string

const (
	// WarnUnresolvedReference: a forward reference matched no registered record.
	// The field's raw value is passed through.
	WarnUnresolvedReference WarningCode = "unresolved_reference"

	// WarnAmbiguousReference: a forward reference matched several records.
	// The nearest common ancestor is decoded and subtype selection decides.
	WarnAmbiguousReference WarningCode = "ambiguous_reference"

	// WarnMissingField: a declared field was absent from the input mapping.
	WarnMissingField WarningCode = "missing_field"

	// WarnExtraFieldsDropped: undeclared keys were discarded.
	WarnExtraFieldsDropped WarningCode = "extra_fields_dropped"

	// WarnPassthrough: a sequence or mapping field received a value of
	// another shape, which was kept as is.
	WarnPassthrough WarningCode = "passthrough"

	// WarnNarrowed: a decoded subtype was stored into a field of an
	// embedded ancestor type, keeping only the ancestor's part.
	WarnNarrowed WarningCode = "narrowed"
)

// Warning describes a recoverable condition met while decoding.
type Warning struct {
	Code    WarningCode
	Type    string // Record type being decoded, if any
	Field   string // Field involved, if any
	Message string
}

func (w Warning) String() string {
	switch {
	case w.Type != "" && w.Field != "":
		return fmt.Sprintf("%s: %s.%s: %s", w.Code, w.Type, w.Field, w.Message)
	case w.Type != "":
		return fmt.Sprintf("%s: %s: %s", w.Code, w.Type, w.Message)
	default:
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
}
