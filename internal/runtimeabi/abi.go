// Package runtimeabi declares the Go-side signatures of the C runtime
// ABI spec §6 enumerates. The runtime itself is a separate C library
// linked in by the Codegen Bridge (component H); this package only
// describes each function's name and scalar signature so codegen can
// build the matching LLVM function declarations before emitting calls
// into it. Grounded on the teacher's internal/builtins registry shape
// (a single init-time registration table keyed by name, each entry
// carrying its signature and metadata) — adapted from the teacher's
// pure-Go builtin table (type + eval.Value implementation) to an ABI
// table (scalar kind signature only; there is no Go implementation to
// register, since the callee lives in the emitted runtime, not here).
package runtimeabi

// Kind is the closed set of scalar ABI types spec §6's function table
// uses, mirroring the fixed codegen value representations of §4.8.
type Kind string

const (
	KindVoid    Kind = "void"
	KindI8      Kind = "i8"
	KindI64     Kind = "i64"
	KindF64     Kind = "f64"
	KindPtr     Kind = "ptr"        // opaque pointer (void*, HairaString*, HairaChannel*)
	KindCString Kind = "cstring"    // const char* paired with an i64 length, per haira_print
	KindFuncPtr Kind = "funcptr"    // void (*)(void), used by spawn/spawn_joinable
)

// Signature is one ABI function's Go-visible shape.
type Signature struct {
	Name    string
	Params  []Kind
	Returns Kind
}

// Table is the closed ABI surface from spec §6, in declaration order.
var Table = []Signature{
	{Name: "haira_print", Params: []Kind{KindCString, KindI64}, Returns: KindVoid},
	{Name: "haira_print_int", Params: []Kind{KindI64}, Returns: KindVoid},
	{Name: "haira_print_float", Params: []Kind{KindF64}, Returns: KindVoid},
	{Name: "haira_print_bool", Params: []Kind{KindI8}, Returns: KindVoid},
	{Name: "haira_println", Params: nil, Returns: KindVoid},

	{Name: "haira_alloc", Params: []Kind{KindI64}, Returns: KindPtr},
	{Name: "haira_realloc", Params: []Kind{KindPtr, KindI64}, Returns: KindPtr},
	{Name: "haira_free", Params: []Kind{KindPtr}, Returns: KindVoid},

	{Name: "haira_string_concat", Params: []Kind{KindCString, KindI64, KindCString, KindI64}, Returns: KindPtr},
	{Name: "haira_int_to_string", Params: []Kind{KindI64}, Returns: KindPtr},
	{Name: "haira_float_to_string", Params: []Kind{KindF64}, Returns: KindPtr},

	{Name: "haira_panic", Params: []Kind{KindCString, KindI64}, Returns: KindVoid}, // _Noreturn

	{Name: "haira_set_error", Params: []Kind{KindI64}, Returns: KindVoid},
	{Name: "haira_get_error", Params: nil, Returns: KindI64},
	{Name: "haira_has_error", Params: nil, Returns: KindI64},
	{Name: "haira_clear_error", Params: nil, Returns: KindVoid},

	{Name: "haira_spawn", Params: []Kind{KindFuncPtr}, Returns: KindI64},
	{Name: "haira_spawn_joinable", Params: []Kind{KindFuncPtr}, Returns: KindI64},
	{Name: "haira_thread_join", Params: []Kind{KindI64}, Returns: KindVoid},
	{Name: "haira_sleep", Params: []Kind{KindI64}, Returns: KindVoid},

	{Name: "haira_channel_new", Params: []Kind{KindI64}, Returns: KindPtr},
	{Name: "haira_channel_send", Params: []Kind{KindPtr, KindI64}, Returns: KindVoid},
	{Name: "haira_channel_receive", Params: []Kind{KindPtr}, Returns: KindI64},
	{Name: "haira_channel_close", Params: []Kind{KindPtr}, Returns: KindVoid},
	{Name: "haira_channel_has_data", Params: []Kind{KindPtr}, Returns: KindI64},
	{Name: "haira_channel_is_closed", Params: []Kind{KindPtr}, Returns: KindI64},
}

// byName is built once at init, mirroring the teacher's registry
// pattern of a name-keyed lookup populated alongside a declaration
// table instead of requiring every caller to scan Table linearly.
var byName = func() map[string]Signature {
	m := make(map[string]Signature, len(Table))
	for _, sig := range Table {
		m[sig.Name] = sig
	}
	return m
}()

// Lookup returns the declared signature for a runtime ABI function
// name, or false if it isn't part of the closed surface.
func Lookup(name string) (Signature, bool) {
	sig, ok := byName[name]
	return sig, ok
}

// BuiltinToABI maps a materialized HIR/MIR builtin call name to the
// runtime ABI function(s) the codegen bridge lowers it to, for the
// handful of builtins that are direct 1:1 runtime calls rather than
// inline MIR sequences (string concatenation and numeric-to-string
// conversion; list/map/iterator builtins compile to inline loops over
// the fixed list/map representations from §4.8, not runtime calls).
var BuiltinToABI = map[string]string{
	"string.concat": "haira_string_concat",
	"to_string":     "haira_int_to_string", // codegen selects the float overload by operand type at emission time
	"file.read":     "haira_panic",          // FileRead never survives validation (effect-gated); present only to document intent
}
