// Package symtab defines the symbol-table contract the core consumes:
// a mapping from datatype names to their constructors, produced
// by an upstream symbol-table-builder pass that is out of scope for this
// module. Table is the concrete implementation consumed by internal/infer
// and internal/hir; internal/sexpr fills one while reading datatype forms,
// and tests construct one directly.
package symtab

import "github.com/webml-go/mlcore/internal/core"

// TypeInfo describes one datatype: its ordered list of constructors, each
// with an optional payload type.
type TypeInfo struct {
	Constructors []core.CtorDef
}

// Table is the symbol table read by inference and by AST2HIR; the later
// lowering passes do not take it.
type Table struct {
	Types        map[core.Symbol]TypeInfo
	constructors map[core.Symbol]core.Symbol // constructor -> owning datatype
	payloads     map[core.Symbol]*core.Type  // constructor -> payload type (nil = nullary)
}

// New creates an empty table.
func New() *Table {
	return &Table{
		Types:        make(map[core.Symbol]TypeInfo),
		constructors: make(map[core.Symbol]core.Symbol),
		payloads:     make(map[core.Symbol]*core.Type),
	}
}

// AddDatatype registers a datatype and indexes its constructors' reverse
// mappings. Re-registering a name overwrites the previous entry.
func (t *Table) AddDatatype(name core.Symbol, ctors []core.CtorDef) {
	t.Types[name] = TypeInfo{Constructors: ctors}
	for _, c := range ctors {
		t.constructors[c.Name] = name
		t.payloads[c.Name] = c.Payload
	}
}

// GetType returns the TypeInfo for a datatype name, if any.
func (t *Table) GetType(name core.Symbol) (TypeInfo, bool) {
	ti, ok := t.Types[name]
	return ti, ok
}

// GetDatatypeOfConstructor returns the datatype owning a constructor.
func (t *Table) GetDatatypeOfConstructor(ctor core.Symbol) (core.Symbol, bool) {
	dt, ok := t.constructors[ctor]
	return dt, ok
}

// GetArgTypeOfConstructor returns the declared payload type of a
// constructor, if it takes one.
func (t *Table) GetArgTypeOfConstructor(ctor core.Symbol) (core.Type, bool) {
	ty, ok := t.payloads[ctor]
	if !ok || ty == nil {
		return core.Type{}, false
	}
	return *ty, true
}

// Constructors returns every registered constructor symbol, in no
// particular order; callers that need determinism should sort the result
// (e.g. via symbol.SortByCollation).
func (t *Table) Constructors() []core.Symbol {
	out := make([]core.Symbol, 0, len(t.constructors))
	for c := range t.constructors {
		out = append(out, c)
	}
	return out
}
