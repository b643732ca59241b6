package dialect

import "fmt"

// Severity classifies a diagnostic. Warning means a degraded but produced
// result (e.g. an unmapped type fell back to text); Error means the unit
// was skipped or aborted.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is one issue reported by a parser or generator alongside its
// primary result. Location is free-form: "file.prisma:12", "Order.status".
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Location string   `json:"location"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Location, d.Message)
}

// Diagnostics collects issues in emission order.
type Diagnostics []Diagnostic

// Warnf appends a Warning diagnostic.
func (ds *Diagnostics) Warnf(location, format string, args ...interface{}) {
	*ds = append(*ds, Diagnostic{
		Severity: SeverityWarning,
		Location: location,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Errorf appends an Error diagnostic.
func (ds *Diagnostics) Errorf(location, format string, args ...interface{}) {
	*ds = append(*ds, Diagnostic{
		Severity: SeverityError,
		Location: location,
		Message:  fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any diagnostic is Error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the Error-severity diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// ParseError marks one malformed declaration. It is carried in an Error
// diagnostic's message and never aborts a batch.
type ParseError struct {
	Location string
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("parse error: %s", e.Reason)
	}
	return fmt.Sprintf("parse error at %s: %s", e.Location, e.Reason)
}
