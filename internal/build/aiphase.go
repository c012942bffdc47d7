package build

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sunholo/haira/internal/aiengine"
	"github.com/sunholo/haira/internal/ast"
	"github.com/sunholo/haira/internal/cache"
	"github.com/sunholo/haira/internal/cir"
	"github.com/sunholo/haira/internal/herrors"
	"github.com/sunholo/haira/internal/hir"
	"github.com/sunholo/haira/internal/symbols"
	"github.com/sunholo/haira/internal/types"
)

// materializeAI runs the AI Intent Engine (component D) over every
// explicit `ai` declaration and every resolver-queued unresolved call
// site, then materializes each accepted CIR Function into HIR
// (component E), folding any newly introduced record types back into
// inf so every later inference call sees them (spec §4.5: "Newly
// introduced Record types are inserted into the module's type
// environment and become visible to subsequent inference").
func materializeAI(cctx context.Context, cfg Config, log *zap.Logger, files []*ast.File,
	candidates []*symbols.Candidate, inf *types.Infer) (map[string]*hir.Function, []*herrors.Diagnostic, error) {

	lf, err := cache.Load(cfg.LockPath)
	if err != nil {
		return nil, nil, fmt.Errorf("build: load lock file: %w", err)
	}

	opts := aiengine.DefaultOptions(cfg.AIModel)
	opts.Mode = cfg.Mode

	eng, err := aiengine.NewEngine(cfg.CacheDir, cfg.LockPath, lf, cfg.AIClient, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("build: ai engine: %w", err)
	}

	typesInScope := collectTypesInScope(files)
	schema := aiengine.ProjectSchema{HasDatabase: false, HasHTTP: false}

	hirFns := map[string]*hir.Function{}
	var diags []*herrors.Diagnostic

	submit := func(name string, intentText *string, params []cir.Param, expectedReturn string) {
		actx := aiengine.NewContext(name, intentText, params, expectedReturn, typesInScope, schema, cfg.AIModel)
		fn, subDiags, err := eng.Submit(cctx, actx)
		diags = append(diags, subDiags...)
		if err != nil {
			if d, ok := herrors.AsDiagnostic(err); ok {
				diags = append(diags, d)
			} else {
				diags = append(diags, herrors.New(herrors.AI001, fmt.Sprintf("%s: %v", name, err)))
			}
			return
		}
		hfn, newRecords, diag := hir.Materialize(fn, inf)
		if diag != nil {
			diags = append(diags, diag)
			return
		}
		hirFns[fn.Name] = hfn
		for _, rs := range newRecords {
			fields := make([]types.Field, len(rs.Fields))
			for i, p := range rs.Fields {
				fields[i] = types.Field{Name: p.Name, Type: inf.FromTypeString(p.Type)}
			}
			inf.RegisterRecord(rs.Name, fields)
		}
		// Register the materialized function's own signature so any
		// call site referencing it by name — including ones the
		// lowering pass below hasn't visited yet — resolves to a
		// concrete type instead of inferCall's unconstrained fallback
		// (spec §2's replay-to-fixed-point, spec §3's "every HIR/MIR
		// expression node carries a concrete (non-variable) Type").
		paramTypes := make([]types.Type, len(fn.Params))
		for i, p := range fn.Params {
			paramTypes[i] = inf.FromTypeString(p.Type)
		}
		inf.RegisterFunc(fn.Name, paramTypes, inf.FromTypeString(fn.ReturnType))
	}

	for _, f := range files {
		for _, d := range f.Decls {
			ai, ok := d.(*ast.AiDecl)
			if !ok {
				continue
			}
			sig, _ := inf.FuncSignature(ai.Name)
			params := make([]cir.Param, len(ai.Params))
			for i, p := range ai.Params {
				t := "unknown"
				if sig != nil && i < len(sig.Params) {
					t = sig.Params[i].String()
				}
				params[i] = cir.Param{Name: p.Name, Type: t}
			}
			ret := "unknown"
			if sig != nil {
				ret = sig.Return.String()
			}
			var intent *string
			if ai.IntentText != "" {
				intent = &ai.IntentText
			}
			submit(ai.Name, intent, params, ret)
		}
	}

	for _, c := range candidates {
		params := make([]cir.Param, len(c.Args))
		for i := range c.Args {
			params[i] = cir.Param{Name: fmt.Sprintf("arg%d", i), Type: "unknown"}
		}
		submit(c.Name, nil, params, "unknown")
	}

	return hirFns, diags, nil
}

// collectTypesInScope gathers every nominal record/union declared
// across the program into the AI context's types_in_scope list, sorted
// by name as spec §4.4 requires (aiengine.NewContext also sorts, this
// only needs to produce a stable order for identical builds).
func collectTypesInScope(files []*ast.File) []aiengine.TypeInfo {
	var out []aiengine.TypeInfo
	for _, f := range files {
		for _, d := range f.Decls {
			switch decl := d.(type) {
			case *ast.RecordDecl:
				out = append(out, aiengine.TypeInfo{Name: decl.Name, Fields: fieldParams(decl.Fields)})
			case *ast.UnionDecl:
				out = append(out, aiengine.TypeInfo{Name: decl.Name})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func fieldParams(fields []ast.FieldDecl) []cir.Param {
	out := make([]cir.Param, len(fields))
	for i, f := range fields {
		out[i] = cir.Param{Name: f.Name, Type: f.Type.String()}
	}
	return out
}
