package cir

import (
	"fmt"

	"github.com/sunholo/haira/internal/herrors"
)

// Validate checks a CIR Function against the three rules of spec §4.3:
// well-formedness, type safety, and the effect policy. It returns the
// first violation only — the AI engine's two-strike retry (§4.4) feeds
// that single message back to the model, rather than a full diagnostic
// bag, matching the spec's "single retry with the validator's error
// message" wording.
func Validate(fn *Function) *herrors.Diagnostic {
	if d := validateWellFormed(fn); d != nil {
		return d
	}
	if d := validateEffectPolicy(fn); d != nil {
		return d
	}
	if d := validateTypeSafety(fn); d != nil {
		return d
	}
	return nil
}

// validateWellFormed checks: every referenced input variable was the
// result of an earlier op or is a parameter; result names are unique.
func validateWellFormed(fn *Function) *herrors.Diagnostic {
	known := map[string]bool{}
	for _, p := range fn.Params {
		known[p.Name] = true
	}
	seen := map[string]bool{}
	for i, op := range fn.Operations {
		if !IsValidOp(op.Op) {
			return herrors.New(herrors.CIR001, fmt.Sprintf(
				"operation %d: %q is not in the closed CIR operation set", i, op.Op)).
				WithData("op_index", i)
		}
		if op.Result == "" {
			return herrors.New(herrors.CIR001, fmt.Sprintf(
				"operation %d (%s): missing result name", i, op.Op)).WithData("op_index", i)
		}
		if seen[op.Result] {
			return herrors.New(herrors.CIR001, fmt.Sprintf(
				"operation %d (%s): duplicate result name %q", i, op.Op, op.Result)).WithData("op_index", i)
		}
		for argName, varName := range op.Inputs {
			if !known[varName] {
				return herrors.New(herrors.CIR001, fmt.Sprintf(
					"operation %d (%s): input %q references undefined variable %q",
					i, op.Op, argName, varName)).WithData("op_index", i)
			}
		}
		for _, nested := range op.Nested {
			if d := validateWellFormedOps(nested, known); d != nil {
				return d
			}
		}
		seen[op.Result] = true
		known[op.Result] = true
	}
	if !seen["return"] {
		return herrors.New(herrors.CIR001, "function produces no \"return\" result")
	}
	return nil
}

func validateWellFormedOps(ops []Operation, outer map[string]bool) *herrors.Diagnostic {
	known := map[string]bool{}
	for k := range outer {
		known[k] = true
	}
	seen := map[string]bool{}
	for i, op := range ops {
		if !IsValidOp(op.Op) {
			return herrors.New(herrors.CIR001, fmt.Sprintf(
				"nested operation %d: %q is not in the closed CIR operation set", i, op.Op))
		}
		if seen[op.Result] {
			return herrors.New(herrors.CIR001, fmt.Sprintf(
				"nested operation %d (%s): duplicate result name %q", i, op.Op, op.Result))
		}
		for argName, varName := range op.Inputs {
			if !known[varName] {
				return herrors.New(herrors.CIR001, fmt.Sprintf(
					"nested operation %d (%s): input %q references undefined variable %q",
					i, op.Op, argName, varName))
			}
		}
		seen[op.Result] = true
		known[op.Result] = true
	}
	return nil
}

// validateEffectPolicy rejects FileWrite/DbQuery/HttpRequest outright:
// this release never populates an `effects {...}` declaration (open
// question #1), so these ops can never be authorized.
func validateEffectPolicy(fn *Function) *herrors.Diagnostic {
	var offender *Operation
	walkOps(fn.Operations, func(op *Operation) {
		if offender == nil && effectGatedOps[op.Op] {
			offender = op
		}
	})
	if offender != nil {
		return herrors.New(herrors.CIR003, fmt.Sprintf(
			"operation %q requires a declared effect capability, none is granted in this release", offender.Op)).
			WithData("op", string(offender.Op))
	}
	return nil
}

func walkOps(ops []Operation, fn func(*Operation)) {
	for i := range ops {
		fn(&ops[i])
		for _, nested := range ops[i].Nested {
			walkOps(nested, fn)
		}
	}
}

// validateTypeSafety performs the minimal check this package owns
// directly: the declared return type must be present (use "unknown" to
// defer it), and the function must have at least one operation
// producing "return". Full structural type computation for op outputs,
// and the check that a materialized Return's value actually matches
// ReturnType, is delegated to (E)'s materializer (hir.Materialize /
// hir.verifyReturnType), which synthesizes each produced HIR node's
// type from its already-typed CIR inputs and rejects a mismatch with
// CIR002 before the function ever reaches desugar/MIR — CIR validation
// here only fails fast on structurally nonsensical functions before
// materialization runs at all.
func validateTypeSafety(fn *Function) *herrors.Diagnostic {
	if fn.ReturnType == "" {
		return herrors.New(herrors.CIR002, "function has no return_type (use \"unknown\" to defer)")
	}
	last := fn.Operations[len(fn.Operations)-1]
	if last.Result != "return" {
		var found bool
		for _, op := range fn.Operations {
			if op.Result == "return" {
				found = true
			}
		}
		if !found {
			return herrors.New(herrors.CIR002, "no operation produces the \"return\" result")
		}
	}
	return nil
}
