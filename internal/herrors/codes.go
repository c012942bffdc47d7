// Package herrors provides the closed error taxonomy shared by every phase
// of the Haira compiler. Every diagnostic the compiler emits carries one of
// the codes defined here, grouped by the phase that raised it.
package herrors

// Error code constants organized by phase. The taxonomy is closed per
// spec §7: LexError, ParseError, NameError, AmbiguityError,
// RedefinitionError, TypeError (with four subkinds), CIRValidationError,
// AIInterpretationError, AIOfflineMiss, AIConfidenceTooLow,
// CacheCorruptError, CodeGenError, LinkError, IOError.
const (
	// ------------------------------------------------------------------
	// Lexer errors (LEX###)
	// ------------------------------------------------------------------

	LEX001 = "LEX001" // unterminated string literal
	LEX002 = "LEX002" // invalid escape sequence
	LEX003 = "LEX003" // unrecognized character

	// ------------------------------------------------------------------
	// Parser errors (PAR###)
	// ------------------------------------------------------------------

	PAR001 = "PAR001" // unexpected token
	PAR002 = "PAR002" // missing closing delimiter
	PAR003 = "PAR003" // invalid function declaration
	PAR004 = "PAR004" // invalid ai declaration

	// ------------------------------------------------------------------
	// Name resolution errors (NAM###) — Symbol & Scope Resolver (A)
	// ------------------------------------------------------------------

	NAM001 = "NAM001" // NameError: unresolved identifier
	NAM002 = "NAM002" // AmbiguityError: name visible from more than one scope
	NAM003 = "NAM003" // RedefinitionError: duplicate declaration in one scope

	// ------------------------------------------------------------------
	// Type errors (TYP###) — Type System & Inference (B)
	// ------------------------------------------------------------------

	TYP001 = "TYP001" // ArityMismatch
	TYP002 = "TYP002" // UnboundField
	TYP003 = "TYP003" // CannotInfer
	TYP004 = "TYP004" // Mismatch (general TypeError)

	// ------------------------------------------------------------------
	// CIR errors (CIR###) — CIR Schema & Validator (C)
	// ------------------------------------------------------------------

	CIR001 = "CIR001" // CIRValidationError: well-formedness violation
	CIR002 = "CIR002" // CIRValidationError: type-safety violation
	CIR003 = "CIR003" // CIRValidationError: forbidden effect op

	// ------------------------------------------------------------------
	// AI intent engine errors (AI###) — component D
	// ------------------------------------------------------------------

	AI001 = "AI001" // AIInterpretationError: two-strike policy exhausted
	AI002 = "AI002" // AIOfflineMiss: offline mode, cache miss
	AI003 = "AI003" // AIConfidenceTooLow: confidence below 0.50
	AI004 = "AI004" // verify-ai digest mismatch

	// ------------------------------------------------------------------
	// Cache errors (CAC###)
	// ------------------------------------------------------------------

	CAC001 = "CAC001" // CacheCorruptError: malformed cache entry
	CAC002 = "CAC002" // CacheCorruptError: lock/cache digest mismatch

	// ------------------------------------------------------------------
	// Codegen / link errors (GEN###, LNK###) — components H, I
	// ------------------------------------------------------------------

	GEN001 = "GEN001" // CodeGenError: unsupported MIR shape
	GEN002 = "GEN002" // CodeGenError: backend failure
	LNK001 = "LNK001" // LinkError: platform linker failed

	// ------------------------------------------------------------------
	// I/O errors (IO###)
	// ------------------------------------------------------------------

	IO001 = "IO001" // IOError: file not found / unreadable
	IO002 = "IO002" // IOError: write failed
)

// Kind is the closed top-level taxonomy named in spec §7.
type Kind string

const (
	KindLexError             Kind = "LexError"
	KindParseError            Kind = "ParseError"
	KindNameError             Kind = "NameError"
	KindAmbiguityError        Kind = "AmbiguityError"
	KindRedefinitionError     Kind = "RedefinitionError"
	KindTypeError             Kind = "TypeError"
	KindCIRValidationError    Kind = "CIRValidationError"
	KindAIInterpretationError Kind = "AIInterpretationError"
	KindAIOfflineMiss         Kind = "AIOfflineMiss"
	KindAIConfidenceTooLow    Kind = "AIConfidenceTooLow"
	KindCacheCorruptError     Kind = "CacheCorruptError"
	KindCodeGenError          Kind = "CodeGenError"
	KindLinkError             Kind = "LinkError"
	KindIOError               Kind = "IOError"
)

// TypeErrorSubkind is the closed set of TypeError{...} variants.
type TypeErrorSubkind string

const (
	ArityMismatch TypeErrorSubkind = "ArityMismatch"
	UnboundField  TypeErrorSubkind = "UnboundField"
	CannotInfer   TypeErrorSubkind = "CannotInfer"
	Mismatch      TypeErrorSubkind = "Mismatch"
)

// ErrorInfo carries static metadata about an error code.
type ErrorInfo struct {
	Code  string
	Kind  Kind
	Phase string
}

// Registry maps every code above to its taxonomy entry. Kept in a single
// table (rather than scattered per-package) so CLI help text and the JSON
// encoder stay in sync with the taxonomy by construction.
var Registry = map[string]ErrorInfo{
	LEX001: {LEX001, KindLexError, "lexer"},
	LEX002: {LEX002, KindLexError, "lexer"},
	LEX003: {LEX003, KindLexError, "lexer"},

	PAR001: {PAR001, KindParseError, "parser"},
	PAR002: {PAR002, KindParseError, "parser"},
	PAR003: {PAR003, KindParseError, "parser"},
	PAR004: {PAR004, KindParseError, "parser"},

	NAM001: {NAM001, KindNameError, "resolver"},
	NAM002: {NAM002, KindAmbiguityError, "resolver"},
	NAM003: {NAM003, KindRedefinitionError, "resolver"},

	TYP001: {TYP001, KindTypeError, "typecheck"},
	TYP002: {TYP002, KindTypeError, "typecheck"},
	TYP003: {TYP003, KindTypeError, "typecheck"},
	TYP004: {TYP004, KindTypeError, "typecheck"},

	CIR001: {CIR001, KindCIRValidationError, "cir"},
	CIR002: {CIR002, KindCIRValidationError, "cir"},
	CIR003: {CIR003, KindCIRValidationError, "cir"},

	AI001: {AI001, KindAIInterpretationError, "aiengine"},
	AI002: {AI002, KindAIOfflineMiss, "aiengine"},
	AI003: {AI003, KindAIConfidenceTooLow, "aiengine"},
	AI004: {AI004, KindAIInterpretationError, "aiengine"},

	CAC001: {CAC001, KindCacheCorruptError, "cache"},
	CAC002: {CAC002, KindCacheCorruptError, "cache"},

	GEN001: {GEN001, KindCodeGenError, "codegen"},
	GEN002: {GEN002, KindCodeGenError, "codegen"},
	LNK001: {LNK001, KindLinkError, "link"},

	IO001: {IO001, KindIOError, "io"},
	IO002: {IO002, KindIOError, "io"},
}

// ExitCode maps a Kind to the CLI exit code specified in spec §6:
// 0 success, 1 any compilation error, 2 I/O error, 3 AI-offline miss.
func ExitCode(k Kind) int {
	switch k {
	case KindAIOfflineMiss:
		return 3
	case KindIOError:
		return 2
	default:
		return 1
	}
}
