package logger

// Standard field names for structured log entries. Use these instead of raw
// strings so warnings from every stage can be filtered the same way.
const (
	FieldComponent = "component"
	FieldGroup     = "group"
	FieldItem      = "item"
	FieldRegion    = "region"
	FieldMarker    = "marker"
	FieldPath      = "path"
	FieldCount     = "count"
	FieldSize      = "size"
	FieldDelta     = "delta"
	FieldRuntime   = "runtime"
	FieldReason    = "reason"
	FieldError     = "error"
)
