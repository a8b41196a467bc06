package log

// Canonical field names for structured logging.
const (
	FieldComponent = "component"
	FieldItem      = "item"
	FieldSlot      = "slot"
	FieldHandle    = "handle"
	FieldPosition  = "position_ms"
	FieldRatio     = "ratio"
	FieldPercent   = "percent"
	FieldOldState  = "old_state"
	FieldNewState  = "new_state"
	FieldCause     = "cause"
	FieldSource    = "source"
	FieldPath      = "path"
)
