// Package aiengine implements the AI Intent Engine (component D): the
// deterministic context builder, the layered + single-flight cache, the
// live LLM client, and the two-strike validation / confidence gating
// pipeline described in spec §4.4. Grounded on the teacher's
// context-then-cache-then-client layering for its own generated-code
// paths, with the live client itself sourced from
// theRebelliousNerd-codenerd's genai wrapper (this compiler's teacher
// carries no LLM client of its own).
package aiengine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/sunholo/haira/internal/cir"
)

// TypeInfo is one named type visible to an AI-backed function's context,
// kept in the canonical JSON sorted by name (spec §4.4).
type TypeInfo struct {
	Name   string      `json:"name"`
	Fields []cir.Param `json:"fields,omitempty"`
}

// ProjectSchema tells the model which effect-bearing capabilities the
// project has declared, so it never proposes an op the validator will
// reject outright (spec §4.3's effect policy).
type ProjectSchema struct {
	HasDatabase bool `json:"has_database"`
	HasHTTP     bool `json:"has_http"`
}

// Context is the exact JSON shape spec §4.4 fixes field-for-field. Field
// order here IS the wire order: Go's encoding/json emits struct fields
// in declaration order, so this struct's layout is load-bearing, not
// cosmetic — reordering it changes the cache key for every existing
// cache entry.
type Context struct {
	FunctionName    string      `json:"function_name"`
	IntentText      *string     `json:"intent_text"`
	Params          []cir.Param `json:"params"`
	ExpectedReturn  string      `json:"expected_return"`
	TypesInScope    []TypeInfo  `json:"types_in_scope"`
	ProjectSchema   ProjectSchema `json:"project_schema"`
	Model           string      `json:"model"`
	CIRVersion      string      `json:"cir_version"`
}

// NewContext builds a Context, sorting TypesInScope by name as spec
// §4.4 requires; numeric floats are never part of a Context (params and
// return are canonical type strings, never numbers), so the "numeric
// floats are never included" rule is upheld by construction.
func NewContext(funcName string, intentText *string, params []cir.Param, expectedReturn string,
	typesInScope []TypeInfo, schema ProjectSchema, model string) *Context {

	sorted := append([]TypeInfo(nil), typesInScope...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return &Context{
		FunctionName:   funcName,
		IntentText:     intentText,
		Params:         params,
		ExpectedReturn: expectedReturn,
		TypesInScope:   sorted,
		ProjectSchema:  schema,
		Model:          model,
		CIRVersion:     cir.SchemaVersion,
	}
}

// CanonicalJSON renders the context in its fixed field order with no
// extra whitespace — the exact bytes that feed both the SHA-256 cache
// key and the live LLM request body, so "same context ⇒ same key" holds
// by construction (spec §8 cache determinism property).
func (c *Context) CanonicalJSON() ([]byte, error) {
	return json.Marshal(c)
}

// CacheKey is SHA-256(serialized_context) hex-encoded (spec §4.4).
func (c *Context) CacheKey() (string, error) {
	data, err := c.CanonicalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
