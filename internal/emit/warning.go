package emit

import (
	"fmt"

	"github.com/hargabyte/cl-bindgen/internal/cdecl"
)

// WarningKind classifies a non-fatal problem found during a pass.
type WarningKind string

const (
	// AnonymousDeclarationUnresolved is reported for an anonymous struct or
	// union that no typedef or variable claimed before the end of the file.
	AnonymousDeclarationUnresolved WarningKind = "anonymous-declaration-unresolved"
	// MacroValueUnresolved is reported for a macro whose body is not a single
	// literal.
	MacroValueUnresolved WarningKind = "macro-value-unresolved"
	// EnumValueUnresolved is reported for enumerators whose value is not a
	// constant expression over known names.
	EnumValueUnresolved WarningKind = "enum-value-unresolved"
	// UnsupportedTypeSkipped is reported when best-effort mode drops a
	// declaration whose type has no CFFI equivalent.
	UnsupportedTypeSkipped WarningKind = "unsupported-type-skipped"
	// ParseDiagnostic carries a parser diagnostic through to the caller.
	ParseDiagnostic WarningKind = "parse-diagnostic"
	// UnrecognizedDeclaration is reported for declaration kinds with no
	// translation.
	UnrecognizedDeclaration WarningKind = "unrecognized-declaration"
)

// Warning is a diagnostic attached to a source location.
type Warning struct {
	Kind    WarningKind    `json:"kind" yaml:"kind"`
	Message string         `json:"message" yaml:"message"`
	Loc     cdecl.Location `json:"location" yaml:"location"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Loc, w.Kind, w.Message)
}
