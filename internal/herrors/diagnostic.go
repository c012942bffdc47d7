package herrors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Severity is the diagnostic severity. AI confidence gating (spec §4.4)
// maps directly onto these tiers: >=0.90 is never surfaced, 0.70-0.90
// surfaces SevInfo, 0.50-0.70 surfaces SevWarning, <0.50 surfaces SevError
// and halts the build.
type Severity string

const (
	SevInfo    Severity = "info"
	SevWarning Severity = "warning"
	SevError   Severity = "error"
)

// Span is a half-open source range, mirrored from the AST package so this
// package has no dependency on it (errors must be constructible from any
// phase, including ones that never see an *ast.File, such as the AI
// engine reporting on cached bytes).
type Span struct {
	File        string `json:"file"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	EndLine     int    `json:"end_line,omitempty"`
	EndColumn   int    `json:"end_column,omitempty"`
}

func (s Span) String() string {
	if s.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Diagnostic is the canonical structured error/warning/info Haira emits.
// It carries everything spec §7 requires: code, message, primary span,
// optional secondary spans, optional hint.
type Diagnostic struct {
	Code      string   `json:"code"`
	Kind      Kind     `json:"kind"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Primary   *Span    `json:"primary,omitempty"`
	Secondary []Span   `json:"secondary,omitempty"`
	Hint      string   `json:"hint,omitempty"`

	// Data carries phase-specific structured context (e.g. the function
	// name and context digest for AI errors, the first-rejected operation
	// for CIR validation errors) so errors are never swallowed silently.
	Data map[string]any `json:"data,omitempty"`
}

func New(code string, message string) *Diagnostic {
	info, ok := Registry[code]
	kind := KindTypeError
	if ok {
		kind = info.Kind
	}
	return &Diagnostic{
		Code:     code,
		Kind:     kind,
		Severity: SevError,
		Message:  message,
	}
}

func (d *Diagnostic) At(span Span) *Diagnostic {
	d.Primary = &span
	return d
}

func (d *Diagnostic) WithHint(hint string) *Diagnostic {
	d.Hint = hint
	return d
}

func (d *Diagnostic) WithSeverity(sev Severity) *Diagnostic {
	d.Severity = sev
	return d
}

func (d *Diagnostic) WithData(key string, value any) *Diagnostic {
	if d.Data == nil {
		d.Data = map[string]any{}
	}
	d.Data[key] = value
	return d
}

func (d *Diagnostic) Error() string {
	if d == nil {
		return "<nil diagnostic>"
	}
	loc := "<unknown>"
	if d.Primary != nil {
		loc = d.Primary.String()
	}
	msg := fmt.Sprintf("%s: %s [%s]: %s", loc, d.Severity, d.Code, d.Message)
	if d.Hint != "" {
		msg += "\n  hint: " + d.Hint
	}
	return msg
}

// ToJSON renders the diagnostic as deterministic JSON: struct fields
// appear in declaration order, and encoding/json sorts the keys of any
// map field lexicographically.
func (d *Diagnostic) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// AsDiagnostic extracts a *Diagnostic from an error chain.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// Bag accumulates diagnostics across a phase that tolerates partial
// recovery (resolver, inferer, per spec §7 propagation policy: "each
// phase collects multiple independent errors and continues locally
// where recovery is safe, then halts the pipeline at the phase
// boundary").
type Bag struct {
	diags []*Diagnostic
}

func (b *Bag) Add(d *Diagnostic) { b.diags = append(b.diags, d) }

func (b *Bag) All() []*Diagnostic { return b.diags }

// HasErrors reports whether any accumulated diagnostic is SevError,
// which per policy halts the pipeline at the next phase boundary.
func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

func (b *Bag) Err() error {
	if !b.HasErrors() {
		return nil
	}
	for _, d := range b.diags {
		if d.Severity == SevError {
			return d
		}
	}
	return nil
}
