// Package cir defines the Canonical Intermediate Representation
// (component C): the closed wire format that is the sole contract
// between the external LLM and the rest of the compiler (spec §4.3).
// Grounded on the teacher's schema package shape (a closed tagged-op
// enum plus a canonical JSON encoder used for both the wire format and
// golden-file tests), adapted to CIR's specific 28-operation set.
package cir

import (
	"bytes"
	"encoding/json"
)

// SchemaVersion is embedded in every CIR file (spec §6); a mismatch is a
// hard error unless --refresh-ai is given.
const SchemaVersion = "1.0"

// Op is the closed CIR operation set (spec §4.3). Adding an operation
// requires a language version bump — it is never done silently.
type Op string

const (
	OpGetField    Op = "GetField"
	OpGetIndex    Op = "GetIndex"
	OpSetField    Op = "SetField"
	OpMap         Op = "Map"
	OpFilter      Op = "Filter"
	OpReduce      Op = "Reduce"
	OpGroupBy     Op = "GroupBy"
	OpSort        Op = "Sort"
	OpTake        Op = "Take"
	OpCount       Op = "Count"
	OpSum         Op = "Sum"
	OpMin         Op = "Min"
	OpMax         Op = "Max"
	OpAvg         Op = "Avg"
	OpIf          Op = "If"
	OpMatch       Op = "Match"
	OpLoop        Op = "Loop"
	OpConstruct   Op = "Construct"
	OpCreateList  Op = "CreateList"
	OpCreateMap   Op = "CreateMap"
	OpBinaryOp    Op = "BinaryOp"
	OpUnaryOp     Op = "UnaryOp"
	OpCall        Op = "Call"
	OpLiteral     Op = "Literal"
	OpDbQuery     Op = "DbQuery"
	OpHttpRequest Op = "HttpRequest"
	OpFileRead    Op = "FileRead"
	OpFileWrite   Op = "FileWrite"
)

// AllOps is the closed set, in the order spec §4.3 enumerates them.
var AllOps = []Op{
	OpGetField, OpGetIndex, OpSetField, OpMap, OpFilter, OpReduce, OpGroupBy,
	OpSort, OpTake, OpCount, OpSum, OpMin, OpMax, OpAvg, OpIf, OpMatch, OpLoop,
	OpConstruct, OpCreateList, OpCreateMap, OpBinaryOp, OpUnaryOp, OpCall,
	OpLiteral, OpDbQuery, OpHttpRequest, OpFileRead, OpFileWrite,
}

// effectGatedOps are forbidden unless the function signature declares
// `effects {...}`; this release never populates that table (open
// question #1, DESIGN.md), so these three are unconditionally rejected.
var effectGatedOps = map[Op]bool{
	OpFileWrite:   true,
	OpDbQuery:     true,
	OpHttpRequest: true,
}

func IsValidOp(o Op) bool {
	for _, known := range AllOps {
		if known == o {
			return true
		}
	}
	return false
}

// Param is a (name, canonical-type-string) pair, shared by Function
// parameters and Record/Variant field specs.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// RecordSpec is a Record type the function introduces as a side effect
// of a Construct op (spec §4.5: "newly introduced Record types are
// inserted into the module's type environment").
type RecordSpec struct {
	Name   string  `json:"name"`
	Fields []Param `json:"fields"`
}

// Operation is one tagged CIR op. Fields is op-specific payload (e.g.
// BinaryOp's "operator", Literal's "value", Sort's "by"); Nested carries
// the op lists of a transform body (Map/Filter/Reduce's lambda, If's
// branches, Match's arms, Loop's body) so every CIR function is a single
// self-contained tree with no external references.
type Operation struct {
	Op     Op             `json:"op"`
	Result string         `json:"result"`
	Inputs map[string]string `json:"inputs,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	Nested map[string][]Operation `json:"nested,omitempty"`
}

// Function is one validated CIR function (spec §3: "CIR Function").
type Function struct {
	Name       string       `json:"name"`
	Params     []Param      `json:"params"`
	ReturnType string       `json:"return_type"`
	NewRecords []RecordSpec `json:"new_records,omitempty"`
	Operations []Operation  `json:"operations"`
	Confidence float64      `json:"confidence"`
	CIRVersion string       `json:"cir_version"`
}

// Canonicalize renders v as canonical CIR JSON: sorted object keys, no
// trailing whitespace, single trailing LF (spec §6). Round-tripping any
// v through encoding/json twice — once to a generic map tree, once back
// out — is sufficient because Go's encoding/json already sorts
// map[string]any keys lexicographically at every level.
func Canonicalize(v any) ([]byte, error) {
	first, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(first, &generic); err != nil {
		return nil, err
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, err
	}
	out = bytes.TrimRight(out, "\n")
	return append(out, '\n'), nil
}

// Parse decodes canonical CIR JSON back into a Function.
func Parse(data []byte) (*Function, error) {
	var fn Function
	if err := json.Unmarshal(data, &fn); err != nil {
		return nil, err
	}
	return &fn, nil
}
