// Package symbol provides interned identifiers shared across every phase
// of the compiler: the untyped tree, the in-flight inference tree, and the
// closure-converted HIR all key their environments on the same Symbol type.
package symbol

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Symbol is an interned identifier. Equality is index equality, so two
// Symbols compare equal (via ==) iff they were interned from equal strings.
// The zero value is not a valid Symbol.
type Symbol uint32

var interner = newTable()

type table struct {
	mu     sync.RWMutex
	byName map[string]Symbol
	names  []string // names[0] is reserved; first real symbol is index 1
}

func newTable() *table {
	return &table{
		byName: make(map[string]Symbol),
		names:  []string{""},
	}
}

// Intern returns the Symbol for name, allocating one on first use.
func Intern(name string) Symbol {
	interner.mu.RLock()
	if s, ok := interner.byName[name]; ok {
		interner.mu.RUnlock()
		return s
	}
	interner.mu.RUnlock()

	interner.mu.Lock()
	defer interner.mu.Unlock()
	if s, ok := interner.byName[name]; ok {
		return s
	}
	s := Symbol(len(interner.names))
	interner.names = append(interner.names, name)
	interner.byName[name] = s
	return s
}

// String returns the original name the Symbol was interned from.
func (s Symbol) String() string {
	interner.mu.RLock()
	defer interner.mu.RUnlock()
	if int(s) >= len(interner.names) {
		return "<invalid symbol>"
	}
	return interner.names[s]
}

// Less orders two symbols by the byte order of their interned names. The
// lowering passes order closure capture lists with SortByCollation, not
// Less.
func Less(a, b Symbol) bool {
	return a.String() < b.String()
}

var collator = collate.New(language.Und)

// SortByCollation returns syms ordered by collation key over their interned
// names rather than raw byte order, so that closure capture lists (and any
// other user-visible symbol listing) are stable across locales the same way
// source text is collated elsewhere in the toolchain.
func SortByCollation(syms []Symbol) []Symbol {
	out := make([]Symbol, len(syms))
	copy(out, syms)
	sort.Slice(out, func(i, j int) bool {
		return collator.CompareString(out[i].String(), out[j].String()) < 0
	})
	return out
}
