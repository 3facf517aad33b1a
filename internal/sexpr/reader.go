// Package sexpr implements a minimal S-expression reader that builds a
// core.UntypedProgram plus the symtab.Table inference needs. It exists to
// give the REPL and CLI commands (internal/replshell, cmd/mlcorec)
// something to read; a real surface-syntax parser would replace it.
package sexpr

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/webml-go/mlcore/internal/core"
	"github.com/webml-go/mlcore/internal/symbol"
	"github.com/webml-go/mlcore/internal/symtab"
)

// Normalize strips a UTF-8 BOM and applies Unicode NFC normalization at the
// reader's input boundary, so lexically equivalent source in different
// Unicode forms parses identically.
func Normalize(src []byte) []byte {
	src = trimBOM(src)
	if !norm.NFC.IsNormal(src) {
		src = norm.NFC.Bytes(src)
	}
	return src
}

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

func trimBOM(src []byte) []byte {
	if len(src) >= len(bomUTF8) && string(src[:len(bomUTF8)]) == string(bomUTF8) {
		return src[len(bomUTF8):]
	}
	return src
}

// Read parses src (a complete top-level program of Decl forms) into the
// untyped Core tree ready for internal/infer, and the symbol table
// recording every datatype and constructor it declared.
func Read(src []byte) (core.UntypedProgram, *symtab.Table, error) {
	r := newReader(Normalize(src))

	var decls []core.UntypedDeclaration
	for r.peek().tok != scanner.EOF {
		d, err := r.readDecl()
		if err != nil {
			return core.UntypedProgram{}, nil, err
		}
		decls = append(decls, d)
	}
	return core.Program[core.Unit]{Decls: decls}, r.syms, nil
}

// token is one lexical item: '(' and ')' as themselves, or one of the
// scanner token classes (Ident, Int, Float, Char) with its text.
type token struct {
	tok  rune
	text string
}

type reader struct {
	sc   *scanner.Scanner
	syms *symtab.Table
	buf  *token // one-token lookahead
}

// operator runes accepted as part of an identifier, so that the primitive
// names (+ - * /. = <> > >= < <=) lex as ordinary atoms.
const operatorRunes = "+-*/=<>."

func newReader(src []byte) *reader {
	var sc scanner.Scanner
	sc.Init(strings.NewReader(string(src)))
	sc.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanChars
	sc.IsIdentRune = func(ch rune, i int) bool {
		if unicode.IsLetter(ch) || ch == '_' || ch == '%' {
			return true
		}
		if i > 0 && unicode.IsDigit(ch) {
			return true
		}
		return strings.ContainsRune(operatorRunes, ch)
	}
	// Errors surface through token mismatches; keep the scanner itself quiet.
	sc.Error = func(*scanner.Scanner, string) {}
	return &reader{sc: &sc, syms: symtab.New()}
}

func (r *reader) next() token {
	if r.buf != nil {
		t := *r.buf
		r.buf = nil
		return t
	}
	tok := r.sc.Scan()
	return token{tok: tok, text: r.sc.TokenText()}
}

func (r *reader) peek() token {
	if r.buf == nil {
		tok := r.sc.Scan()
		r.buf = &token{tok: tok, text: r.sc.TokenText()}
	}
	return *r.buf
}

func (r *reader) expect(tok rune) error {
	got := r.next()
	if got.tok != tok {
		return fmt.Errorf("sexpr: expected %q, got %q at %s", tok, got.text, r.sc.Position)
	}
	return nil
}

func (r *reader) ident(what string) (string, error) {
	got := r.next()
	if got.tok != scanner.Ident {
		return "", fmt.Errorf("sexpr: expected %s, got %q at %s", what, got.text, r.sc.Position)
	}
	return got.text, nil
}

// readDecl parses one top-level form: (datatype ...), (val ...), or
// (fun ...).
func (r *reader) readDecl() (core.UntypedDeclaration, error) {
	if err := r.expect('('); err != nil {
		return core.UntypedDeclaration{}, err
	}
	head, err := r.ident("a decl keyword")
	if err != nil {
		return core.UntypedDeclaration{}, err
	}
	switch head {
	case "datatype":
		return r.readDatatype()
	case "val":
		return r.readVal()
	case "fun":
		return r.readFun()
	default:
		return core.UntypedDeclaration{}, fmt.Errorf("sexpr: unknown decl form %q at %s", head, r.sc.Position)
	}
}

// (datatype Name (Ctor0) (Ctor1 PayloadTyName) ...)
func (r *reader) readDatatype() (core.UntypedDeclaration, error) {
	nameText, err := r.ident("datatype name")
	if err != nil {
		return core.UntypedDeclaration{}, err
	}
	name := symbol.Intern(nameText)

	var ctors []core.CtorDef
	for {
		t := r.next()
		if t.tok == ')' {
			break
		}
		if t.tok != '(' {
			return core.UntypedDeclaration{}, fmt.Errorf("sexpr: expected a constructor form at %s", r.sc.Position)
		}
		ctorText, err := r.ident("constructor name")
		if err != nil {
			return core.UntypedDeclaration{}, err
		}
		ctorName := symbol.Intern(ctorText)

		var payload *core.Type
		if r.peek().tok != ')' {
			tyText, err := r.ident("payload type name")
			if err != nil {
				return core.UntypedDeclaration{}, err
			}
			ty := typeByName(tyText)
			payload = &ty
		}
		if err := r.expect(')'); err != nil {
			return core.UntypedDeclaration{}, err
		}
		ctors = append(ctors, core.CtorDef{Name: ctorName, Payload: payload})
	}

	r.syms.AddDatatype(name, ctors)
	return core.NewDatatypeDecl[core.Unit](name, ctors), nil
}

// typeByName resolves a bare type-name token to a surface Type: the three
// scalar names map to their ground types, anything else is a named
// datatype reference.
func typeByName(name string) core.Type {
	switch name {
	case "Int":
		return core.TInt
	case "Real":
		return core.TReal
	case "Char":
		return core.TChar
	default:
		return core.TDatatype(symbol.Intern(name))
	}
}

// (val Name Expr) | (val rec Name Expr)
func (r *reader) readVal() (core.UntypedDeclaration, error) {
	patName, err := r.ident("a name after val")
	if err != nil {
		return core.UntypedDeclaration{}, err
	}
	rec := false
	if patName == "rec" {
		rec = true
		patName, err = r.ident("a name after val rec")
		if err != nil {
			return core.UntypedDeclaration{}, err
		}
	}

	pat := core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern(patName))
	expr, err := r.readExpr()
	if err != nil {
		return core.UntypedDeclaration{}, err
	}
	if err := r.expect(')'); err != nil {
		return core.UntypedDeclaration{}, err
	}
	return core.NewValDecl(rec, pat, expr), nil
}

// (fun Name (Param...) Expr)
func (r *reader) readFun() (core.UntypedDeclaration, error) {
	nameText, err := r.ident("a function name")
	if err != nil {
		return core.UntypedDeclaration{}, err
	}
	name := symbol.Intern(nameText)

	if err := r.expect('('); err != nil {
		return core.UntypedDeclaration{}, err
	}
	var params []core.UntypedPattern
	for r.peek().tok != ')' {
		paramText, err := r.ident("a parameter name")
		if err != nil {
			return core.UntypedDeclaration{}, err
		}
		params = append(params, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern(paramText)))
	}
	r.next() // consume ')'

	body, err := r.readExpr()
	if err != nil {
		return core.UntypedDeclaration{}, err
	}
	if err := r.expect(')'); err != nil {
		return core.UntypedDeclaration{}, err
	}
	return core.NewFunDecl(name, params, body), nil
}

// readExpr parses one expression: an atom (literal or symbol reference) or
// a parenthesized compound form.
func (r *reader) readExpr() (core.UntypedExpr, error) {
	t := r.next()
	switch t.tok {
	case scanner.Int:
		v, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return core.UntypedExpr{}, fmt.Errorf("sexpr: bad integer literal %q: %w", t.text, err)
		}
		return core.NewLiteralExpr[core.Unit](core.Unit{}, core.NewIntLiteral(v)), nil

	case scanner.Float:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return core.UntypedExpr{}, fmt.Errorf("sexpr: bad real literal %q: %w", t.text, err)
		}
		return core.NewLiteralExpr[core.Unit](core.Unit{}, core.NewRealLiteral(v)), nil

	case scanner.Char:
		cp, err := charValue(t.text)
		if err != nil {
			return core.UntypedExpr{}, fmt.Errorf("sexpr: bad char literal %q at %s", t.text, r.sc.Position)
		}
		return core.NewLiteralExpr[core.Unit](core.Unit{}, core.NewCharLiteral(cp)), nil

	case scanner.Ident:
		return core.NewSymbolExpr[core.Unit](core.Unit{}, symbol.Intern(t.text)), nil

	case '(':
		return r.readCompoundExpr()
	}
	return core.UntypedExpr{}, fmt.Errorf("sexpr: unexpected token %q at %s", t.text, r.sc.Position)
}

func charValue(text string) (uint32, error) {
	unq, err := strconv.Unquote(text)
	if err != nil || len(unq) == 0 {
		return 0, fmt.Errorf("bad char literal %q", text)
	}
	return uint32([]rune(unq)[0]), nil
}

func (r *reader) readCompoundExpr() (core.UntypedExpr, error) {
	// A compound whose head is itself a form, e.g. ((fn x x) 1): parse the
	// head expression and treat the rest as application operands.
	if r.peek().tok == '(' {
		fun, err := r.readExpr()
		if err != nil {
			return core.UntypedExpr{}, err
		}
		return r.readAppTail(fun)
	}

	head, err := r.ident("a form keyword or identifier")
	if err != nil {
		return core.UntypedExpr{}, err
	}
	if bif, ok := bifByName(head); ok {
		l, err := r.readExpr()
		if err != nil {
			return core.UntypedExpr{}, err
		}
		rr, err := r.readExpr()
		if err != nil {
			return core.UntypedExpr{}, err
		}
		if err := r.expect(')'); err != nil {
			return core.UntypedExpr{}, err
		}
		return core.NewBuiltinCall[core.Unit](core.Unit{}, bif, []core.UntypedExpr{l, rr}), nil
	}

	switch head {
	case "let":
		return r.readLet()
	case "fn":
		return r.readFn()
	case "case":
		return r.readCase()
	case "tuple":
		return r.readTuple()
	case "ctor":
		return r.readCtorExpr()
	case "extern":
		return r.readExtern()
	default:
		// Application: (f a b ...) curries left to right.
		fun := core.NewSymbolExpr[core.Unit](core.Unit{}, symbol.Intern(head))
		return r.readAppTail(fun)
	}
}

// readAppTail reads zero or more operands up to the closing paren, folding
// them into a curried application chain.
func (r *reader) readAppTail(fun core.UntypedExpr) (core.UntypedExpr, error) {
	for r.peek().tok != ')' {
		if r.peek().tok == scanner.EOF {
			return core.UntypedExpr{}, fmt.Errorf("sexpr: unterminated application at %s", r.sc.Position)
		}
		arg, err := r.readExpr()
		if err != nil {
			return core.UntypedExpr{}, err
		}
		f := fun
		fun = core.NewApp[core.Unit](core.Unit{}, &f, &arg)
	}
	r.next() // consume ')'
	return fun, nil
}

func bifByName(s string) (core.BIF, bool) {
	switch s {
	case "+":
		return core.Add, true
	case "-":
		return core.Sub, true
	case "*":
		return core.Mul, true
	case "div":
		return core.Div, true
	case "mod":
		return core.Mod, true
	case "/.":
		return core.Divf, true
	case "=":
		return core.Eq, true
	case "<>":
		return core.Neq, true
	case ">":
		return core.Gt, true
	case ">=":
		return core.Ge, true
	case "<":
		return core.Lt, true
	case "<=":
		return core.Le, true
	}
	return 0, false
}

// (let ((Name Expr) ...) Body)
func (r *reader) readLet() (core.UntypedExpr, error) {
	if err := r.expect('('); err != nil {
		return core.UntypedExpr{}, err
	}
	var binds []core.UntypedDeclaration
	for r.peek().tok != ')' {
		if err := r.expect('('); err != nil {
			return core.UntypedExpr{}, err
		}
		nameText, err := r.ident("a let-bound name")
		if err != nil {
			return core.UntypedExpr{}, err
		}
		rhs, err := r.readExpr()
		if err != nil {
			return core.UntypedExpr{}, err
		}
		if err := r.expect(')'); err != nil {
			return core.UntypedExpr{}, err
		}
		binds = append(binds, core.NewValDecl(false, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern(nameText)), rhs))
	}
	r.next() // consume ')'

	body, err := r.readExpr()
	if err != nil {
		return core.UntypedExpr{}, err
	}
	if err := r.expect(')'); err != nil {
		return core.UntypedExpr{}, err
	}
	return core.NewBinds[core.Unit](core.Unit{}, binds, &body), nil
}

// (fn Param Body)
func (r *reader) readFn() (core.UntypedExpr, error) {
	paramText, err := r.ident("a parameter name")
	if err != nil {
		return core.UntypedExpr{}, err
	}
	body, err := r.readExpr()
	if err != nil {
		return core.UntypedExpr{}, err
	}
	if err := r.expect(')'); err != nil {
		return core.UntypedExpr{}, err
	}
	return core.NewFn[core.Unit](core.Unit{}, symbol.Intern(paramText), &body), nil
}

// (case Cond (Pattern Branch) ...)
func (r *reader) readCase() (core.UntypedExpr, error) {
	cond, err := r.readExpr()
	if err != nil {
		return core.UntypedExpr{}, err
	}
	var clauses []core.CaseClause[core.Unit]
	for r.peek().tok != ')' {
		if err := r.expect('('); err != nil {
			return core.UntypedExpr{}, err
		}
		pat, err := r.readPattern()
		if err != nil {
			return core.UntypedExpr{}, err
		}
		branch, err := r.readExpr()
		if err != nil {
			return core.UntypedExpr{}, err
		}
		if err := r.expect(')'); err != nil {
			return core.UntypedExpr{}, err
		}
		clauses = append(clauses, core.CaseClause[core.Unit]{Pattern: pat, Branch: branch})
	}
	r.next() // consume ')'
	return core.NewCase[core.Unit](core.Unit{}, &cond, clauses), nil
}

func (r *reader) readPattern() (core.UntypedPattern, error) {
	t := r.next()
	switch t.tok {
	case scanner.Int:
		v, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return core.UntypedPattern{}, err
		}
		return core.NewConstantPattern[core.Unit](core.Unit{}, v), nil

	case scanner.Char:
		cp, err := charValue(t.text)
		if err != nil {
			return core.UntypedPattern{}, fmt.Errorf("sexpr: bad char pattern at %s", r.sc.Position)
		}
		return core.NewCharPattern[core.Unit](core.Unit{}, cp), nil

	case scanner.Ident:
		if t.text == "_" {
			return core.NewWildcardPattern[core.Unit](core.Unit{}), nil
		}
		name := symbol.Intern(t.text)
		// A bare constructor name in pattern position is a nullary
		// constructor match, not a variable binding.
		if _, ok := r.syms.GetDatatypeOfConstructor(name); ok {
			return core.NewConstructorPattern[core.Unit](core.Unit{}, name, nil), nil
		}
		return core.NewVariablePattern[core.Unit](core.Unit{}, name), nil

	case '(':
		// A declared constructor name distinguishes (Ctor arg) from a tuple
		// pattern (p0 p1 ...).
		if p := r.peek(); p.tok == scanner.Ident {
			if name := symbol.Intern(p.text); isKnownConstructor(r.syms, name) {
				r.next()
				if r.peek().tok == ')' {
					r.next()
					return core.NewConstructorPattern[core.Unit](core.Unit{}, name, nil), nil
				}
				arg, err := r.readPattern()
				if err != nil {
					return core.UntypedPattern{}, err
				}
				if err := r.expect(')'); err != nil {
					return core.UntypedPattern{}, err
				}
				return core.NewConstructorPattern[core.Unit](core.Unit{}, name, &arg), nil
			}
		}
		var elems []core.UntypedPattern
		for r.peek().tok != ')' {
			p, err := r.readPattern()
			if err != nil {
				return core.UntypedPattern{}, err
			}
			elems = append(elems, p)
		}
		r.next() // consume ')'
		return core.NewTuplePattern[core.Unit](core.Unit{}, elems), nil
	}
	return core.UntypedPattern{}, fmt.Errorf("sexpr: unexpected pattern token %q at %s", t.text, r.sc.Position)
}

func isKnownConstructor(syms *symtab.Table, name core.Symbol) bool {
	_, ok := syms.GetDatatypeOfConstructor(name)
	return ok
}

// (tuple Expr...)
func (r *reader) readTuple() (core.UntypedExpr, error) {
	var elems []core.UntypedExpr
	for r.peek().tok != ')' {
		e, err := r.readExpr()
		if err != nil {
			return core.UntypedExpr{}, err
		}
		elems = append(elems, e)
	}
	r.next() // consume ')'
	return core.NewTuple[core.Unit](core.Unit{}, elems), nil
}

// (ctor Name [Arg])
func (r *reader) readCtorExpr() (core.UntypedExpr, error) {
	nameText, err := r.ident("a constructor name")
	if err != nil {
		return core.UntypedExpr{}, err
	}
	name := symbol.Intern(nameText)
	if r.peek().tok == ')' {
		r.next()
		return core.NewConstructor[core.Unit](core.Unit{}, name, nil), nil
	}
	arg, err := r.readExpr()
	if err != nil {
		return core.UntypedExpr{}, err
	}
	if err := r.expect(')'); err != nil {
		return core.UntypedExpr{}, err
	}
	return core.NewConstructor[core.Unit](core.Unit{}, name, &arg), nil
}

// (extern Module Fun (ArgTyName...) RetTyName Arg...)
func (r *reader) readExtern() (core.UntypedExpr, error) {
	module, err := r.ident("a module name")
	if err != nil {
		return core.UntypedExpr{}, err
	}
	fun, err := r.ident("a function name")
	if err != nil {
		return core.UntypedExpr{}, err
	}

	if err := r.expect('('); err != nil {
		return core.UntypedExpr{}, err
	}
	var argTys []core.Type
	for r.peek().tok != ')' {
		tyText, err := r.ident("an argument type name")
		if err != nil {
			return core.UntypedExpr{}, err
		}
		argTys = append(argTys, typeByName(tyText))
	}
	r.next() // consume ')'

	retText, err := r.ident("a return type name")
	if err != nil {
		return core.UntypedExpr{}, err
	}
	retTy := typeByName(retText)

	var args []core.UntypedExpr
	for r.peek().tok != ')' {
		a, err := r.readExpr()
		if err != nil {
			return core.UntypedExpr{}, err
		}
		args = append(args, a)
	}
	r.next() // consume ')'
	return core.NewExternCall[core.Unit](core.Unit{}, module, fun, args, argTys, retTy), nil
}
