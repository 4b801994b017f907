package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldPeriod     = "period"
	FieldIncome     = "income_cents"
	FieldExpenses   = "expenses_cents"
	FieldStudent    = "student"
	FieldCourse     = "course"
	FieldFilename   = "filename"
	FieldArtifact   = "artifact_path"
	FieldBytes      = "bytes"
	FieldFontMode   = "font_mode"
	FieldFontPath   = "font_path"
	FieldURL        = "url"
	FieldChart      = "chart"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentReport    = "report"
	ComponentFonts     = "fonts"
	ComponentChart     = "chart"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTemplate  = "template"
)

// Operations defines standard operation names
const (
	OpValidate  = "validate"
	OpProvision = "provision"
	OpFetch     = "fetch"
	OpRender    = "render"
	OpCompose   = "compose"
	OpDownload  = "download"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithSubmission adds the identifying fields of a report submission
func (f LogFields) WithSubmission(student, course, period string) LogFields {
	f[FieldStudent] = student
	f[FieldCourse] = course
	f[FieldPeriod] = period
	return f
}

// WithBudget adds the headline amounts of a budget
func (f LogFields) WithBudget(incomeCents, expensesCents int64) LogFields {
	f[FieldIncome] = incomeCents
	f[FieldExpenses] = expensesCents
	return f
}

// WithArtifact adds fields describing a produced file
func (f LogFields) WithArtifact(path, filename string, size int64) LogFields {
	f[FieldArtifact] = path
	f[FieldFilename] = filename
	f[FieldBytes] = size
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
