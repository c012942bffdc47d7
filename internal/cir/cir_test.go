package cir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCanonicalizeIsDeterministicAcrossCalls(t *testing.T) {
	fn := &Function{
		Name:       "add",
		Params:     []Param{{Name: "b", Type: "int"}, {Name: "a", Type: "int"}},
		ReturnType: "int",
		CIRVersion: SchemaVersion,
		Operations: []Operation{
			{Op: OpBinaryOp, Result: "return", Inputs: map[string]string{"left": "a", "right": "b"},
				Fields: map[string]any{"operator": "+"}},
		},
		Confidence: 0.95,
	}
	out1, err := Canonicalize(fn)
	if err != nil {
		t.Fatal(err)
	}
	out2, err := Canonicalize(fn)
	if err != nil {
		t.Fatal(err)
	}
	if string(out1) != string(out2) {
		t.Fatalf("canonical encoding is not stable:\n%s\nvs\n%s", out1, out2)
	}
	if out1[len(out1)-1] != '\n' {
		t.Fatal("expected trailing LF")
	}
}

func TestParseRoundTrip(t *testing.T) {
	fn := &Function{
		Name: "get_answer", ReturnType: "int", CIRVersion: SchemaVersion,
		Operations: []Operation{{Op: OpLiteral, Result: "return", Fields: map[string]any{"value": float64(42)}}},
		Confidence: 0.95,
	}
	data, err := Canonicalize(fn)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(fn, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func validFunc() *Function {
	return &Function{
		Name: "add", ReturnType: "int",
		Params: []Param{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}},
		Operations: []Operation{
			{Op: OpBinaryOp, Result: "return", Inputs: map[string]string{"left": "a", "right": "b"}},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	if d := Validate(validFunc()); d != nil {
		t.Fatalf("expected valid function to pass, got %v", d)
	}
}

func TestValidateRejectsUndefinedInput(t *testing.T) {
	fn := validFunc()
	fn.Operations[0].Inputs["left"] = "nowhere"
	d := Validate(fn)
	if d == nil || d.Code != "CIR001" {
		t.Fatalf("expected CIR001, got %v", d)
	}
}

func TestValidateRejectsDuplicateResult(t *testing.T) {
	fn := validFunc()
	fn.Operations = append(fn.Operations, Operation{Op: OpLiteral, Result: "return"})
	d := Validate(fn)
	if d == nil || d.Code != "CIR001" {
		t.Fatalf("expected CIR001 for duplicate result, got %v", d)
	}
}

func TestValidateRejectsForbiddenEffectOp(t *testing.T) {
	fn := &Function{
		Name: "writer", ReturnType: "unit",
		Operations: []Operation{{Op: OpFileWrite, Result: "return"}},
	}
	d := Validate(fn)
	if d == nil || d.Code != "CIR003" {
		t.Fatalf("expected CIR003 for FileWrite, got %v", d)
	}
}

func TestValidateRejectsMissingReturn(t *testing.T) {
	fn := &Function{
		Name: "nothing", ReturnType: "unit",
		Operations: []Operation{{Op: OpLiteral, Result: "x"}},
	}
	d := Validate(fn)
	if d == nil || d.Code != "CIR001" {
		t.Fatalf("expected CIR001 for missing return, got %v", d)
	}
}
