package codegen

import (
	"testing"

	"github.com/sunholo/haira/internal/mir"
)

func straightLineAdd() *mir.Function {
	a := mir.Value{Name: "%a"}
	b := mir.Value{Name: "%b"}
	sum := mir.Value{Name: "%sum"}
	entry := &mir.Block{
		Name: "entry",
		Instrs: []mir.Instr{
			{Op: mir.OpBinary, Result: sum, Operator: "+", Args: []mir.Value{a, b}},
		},
		Term: &mir.Return{Value: &sum},
	}
	return &mir.Function{
		Name:       "add",
		Params:     []mir.Param{{Name: "%a", Type: "int"}, {Name: "%b", Type: "int"}},
		ReturnType: "int",
		Entry:      "entry",
		Blocks:     map[string]*mir.Block{"entry": entry},
		Order:      []string{"entry"},
	}
}

func branchingMax() *mir.Function {
	cond := mir.Value{Name: "%cond"}
	one := mir.Value{Name: "%one"}
	two := mir.Value{Name: "%two"}
	merged := mir.Value{Name: "%merged"}
	entry := &mir.Block{
		Name: "entry",
		Term: &mir.If{
			Cond: cond,
			Then: mir.BlockRef{Block: "then", Args: []mir.Value{one}},
			Else: mir.BlockRef{Block: "else", Args: []mir.Value{two}},
		},
	}
	then := &mir.Block{
		Name:  "then",
		Instrs: []mir.Instr{{Op: mir.OpConst, Result: one, Const: int64(1)}},
		Term:  &mir.Goto{Target: mir.BlockRef{Block: "merge", Args: []mir.Value{one}}},
	}
	els := &mir.Block{
		Name:  "else",
		Instrs: []mir.Instr{{Op: mir.OpConst, Result: two, Const: int64(2)}},
		Term:  &mir.Goto{Target: mir.BlockRef{Block: "merge", Args: []mir.Value{two}}},
	}
	merge := &mir.Block{
		Name:   "merge",
		Params: []mir.Value{merged},
		Term:   &mir.Return{Value: &merged},
	}
	return &mir.Function{
		Name:       "choose",
		Params:     []mir.Param{{Name: "%cond", Type: "bool"}},
		ReturnType: "int",
		Entry:      "entry",
		Blocks:     map[string]*mir.Block{"entry": entry, "then": then, "else": els, "merge": merge},
		Order:      []string{"entry", "then", "else", "merge"},
	}
}

func TestEmitModuleStraightLineFunction(t *testing.T) {
	br := NewBridge("straight_line")
	defer br.Dispose()

	if err := br.EmitModule(map[string]*mir.Function{"add": straightLineAdd()}); err != nil {
		t.Fatalf("EmitModule returned an error: %v", err)
	}
}

func TestEmitModuleBranchWithBlockParamPhi(t *testing.T) {
	br := NewBridge("branching")
	defer br.Dispose()

	if err := br.EmitModule(map[string]*mir.Function{"choose": branchingMax()}); err != nil {
		t.Fatalf("EmitModule returned an error: %v", err)
	}
}

func TestEmitModuleDeclaresRuntimeABI(t *testing.T) {
	br := NewBridge("abi_surface")
	defer br.Dispose()

	if err := br.EmitModule(map[string]*mir.Function{"add": straightLineAdd()}); err != nil {
		t.Fatalf("EmitModule returned an error: %v", err)
	}
	if _, ok := br.abiFns["haira_print"]; !ok {
		t.Fatal("expected haira_print to be declared as part of the runtime ABI surface")
	}
	if _, ok := br.abiFns["haira_string_concat"]; !ok {
		t.Fatal("expected haira_string_concat to be declared as part of the runtime ABI surface")
	}
}

func TestEmitModuleRejectsCallToUndeclaredFunction(t *testing.T) {
	br := NewBridge("bad_call")
	defer br.Dispose()

	result := mir.Value{Name: "%r"}
	entry := &mir.Block{
		Name:  "entry",
		Instrs: []mir.Instr{{Op: mir.OpCall, Result: result, Callee: "does_not_exist"}},
		Term:  &mir.Return{Value: &result},
	}
	fn := &mir.Function{
		Name: "caller", ReturnType: "int", Entry: "entry",
		Blocks: map[string]*mir.Block{"entry": entry}, Order: []string{"entry"},
	}

	if err := br.EmitModule(map[string]*mir.Function{"caller": fn}); err == nil {
		t.Fatal("expected an error calling an undeclared function")
	}
}
