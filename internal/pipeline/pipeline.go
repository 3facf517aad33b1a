// Package pipeline chains the whole front end into the single Config-driven
// entry point the CLI and REPL both call.
package pipeline

import (
	"fmt"

	"github.com/webml-go/mlcore/internal/config"
	"github.com/webml-go/mlcore/internal/core"
	"github.com/webml-go/mlcore/internal/hir"
	"github.com/webml-go/mlcore/internal/infer"
	"github.com/webml-go/mlcore/internal/sexpr"
	"github.com/webml-go/mlcore/internal/symtab"
)

// Result holds every intermediate tree the pipeline produced, so the
// caller can selectively print whichever stages cfg.Dump names.
type Result struct {
	Typed     core.TypedProgram
	AfterHIR  hir.Program
	FlatLet   hir.Program
	FlatExpr  hir.Program
	Unnested  hir.Program
	Closed    hir.Program
	Syms      *symtab.Table
}

// Run parses src, runs inference, and lowers the result through all five
// HIR stages in order.
func Run(cfg config.Config, src []byte) (Result, error) {
	untyped, syms, err := sexpr.Read(src)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: parse: %w", err)
	}

	engine := infer.NewEngine(syms)
	typed, err := engine.Infer(untyped)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: type inference: %w", err)
	}

	afterHIR := hir.AST2HIR(syms, typed)
	flatLet := hir.FlatLet(afterHIR)
	flatExpr := hir.FlatExpr(flatLet)
	unnested := hir.UnnestFunc(flatExpr)
	closed := hir.ForceClosure(unnested)

	return Result{
		Typed:    typed,
		AfterHIR: afterHIR,
		FlatLet:  flatLet,
		FlatExpr: flatExpr,
		Unnested: unnested,
		Closed:   closed,
		Syms:     syms,
	}, nil
}

// Dump renders the stages cfg asked for, in pipeline order.
func (r Result) Dump(cfg config.Config) []string {
	var out []string
	if cfg.ShouldDump(config.DumpTyped) {
		out = append(out, "=== typed ===")
		for _, d := range r.Typed.Decls {
			out = append(out, d.String())
		}
	}
	if cfg.ShouldDump(config.DumpHIR) {
		out = append(out, dumpProgram("hir", r.AfterHIR)...)
	}
	if cfg.ShouldDump(config.DumpFlatLet) {
		out = append(out, dumpProgram("flatlet", r.FlatLet)...)
	}
	if cfg.ShouldDump(config.DumpFlatExpr) {
		out = append(out, dumpProgram("flatexpr", r.FlatExpr)...)
	}
	if cfg.ShouldDump(config.DumpUnnested) {
		out = append(out, dumpProgram("unnested", r.Unnested)...)
	}
	if cfg.ShouldDump(config.DumpClosed) {
		out = append(out, dumpProgram("closed", r.Closed)...)
	}
	return out
}

func dumpProgram(label string, p hir.Program) []string {
	out := []string{fmt.Sprintf("=== %s ===", label)}
	for _, d := range p.Decls {
		out = append(out, d.String())
	}
	return out
}
