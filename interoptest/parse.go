package interoptest

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/wippyai/interop-runtime/value"
)

type stmt interface {
	line() int
}

type assignStmt struct {
	Value expr
	Index expr
	Name  string
	Line  int
}

type exprStmt struct {
	X    expr
	Line int
}

type tryStmt struct {
	CatchVar string
	Body     []stmt
	Line     int
}

type funcStmt struct {
	Name   string
	Params []string
	Body   []stmt
	Line   int
}

type returnStmt struct {
	Value expr
	Line  int
}

func (s *assignStmt) line() int { return s.Line }
func (s *exprStmt) line() int   { return s.Line }
func (s *tryStmt) line() int    { return s.Line }
func (s *funcStmt) line() int   { return s.Line }
func (s *returnStmt) line() int { return s.Line }

type expr interface{}

type literal struct {
	V value.Value
}

type ident struct {
	Name string
}

type callExpr struct {
	Name string
	Args []expr
}

type indexExpr struct {
	Index expr
	Name  string
}

type cellExpr struct {
	Elems []expr
}

type matrixExpr struct {
	Rows [][]expr
}

type binaryExpr struct {
	L, R expr
	Op   string
}

// scriptError is an interpreter failure attributed to a script line.
type scriptError struct {
	msg  string
	line int
}

func (e *scriptError) Error() string { return e.msg }

func errorf(line int, format string, args ...any) *scriptError {
	return &scriptError{msg: fmt.Sprintf(format, args...), line: line}
}

type parser struct {
	tokens []token
	pos    int
}

func parse(src string) ([]stmt, error) {
	p := &parser{tokens: tokenize(src)}
	var out []stmt
	for p.peek() != nil {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p *parser) peek() *token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *parser) next() *token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) lastLine() int {
	if len(p.tokens) == 0 {
		return 1
	}
	return p.tokens[len(p.tokens)-1].Line
}

func (p *parser) expectPunct(punct string) (*token, error) {
	t := p.next()
	if t == nil {
		return nil, errorf(p.lastLine(), "syntax error, expected '%s' at end of input", punct)
	}
	if !t.is(punct) {
		return nil, errorf(t.Line, "syntax error, expected '%s' but found '%s'", punct, t.Value)
	}
	return t, nil
}

// endStmt consumes an optional statement terminator.
func (p *parser) endStmt() error {
	t := p.peek()
	switch {
	case t == nil, t.is("}"):
		return nil
	case t.is(";"):
		p.pos++
		return nil
	}
	return errorf(t.Line, "syntax error, unexpected '%s'", t.Value)
}

func (p *parser) parseStmt() (stmt, error) {
	t := p.peek()
	if t.is(";") {
		p.pos++
		return nil, nil
	}

	if t.Type == tokIdent {
		switch t.Value {
		case "try":
			return p.parseTry()
		case "function":
			return p.parseFunction()
		case "return":
			p.pos++
			s := &returnStmt{Line: t.Line}
			if n := p.peek(); n != nil && !n.is(";") && !n.is("}") {
				x, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				s.Value = x
			}
			return s, p.endStmt()
		}
	}

	line := t.Line
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if n := p.peek(); n != nil && n.is("=") {
		p.pos++
		s := &assignStmt{Line: line}
		switch lhs := x.(type) {
		case *ident:
			s.Name = lhs.Name
		case *indexExpr:
			s.Name, s.Index = lhs.Name, lhs.Index
		default:
			return nil, errorf(line, "syntax error, invalid assignment target")
		}
		if s.Value, err = p.parseExpr(); err != nil {
			return nil, err
		}
		return s, p.endStmt()
	}

	return &exprStmt{X: x, Line: line}, p.endStmt()
}

// parseBlock parses statements up to and including the closing brace.
func (p *parser) parseBlock(what string) ([]stmt, error) {
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var body []stmt
	for {
		n := p.peek()
		if n == nil {
			return nil, errorf(p.lastLine(), "syntax error, unterminated %s block", what)
		}
		if n.is("}") {
			p.pos++
			return body, nil
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			body = append(body, s)
		}
	}
}

// parseFunction parses function name(a, b){ ... }.
func (p *parser) parseFunction() (stmt, error) {
	t := p.next()
	name := p.next()
	if name == nil || name.Type != tokIdent {
		return nil, errorf(t.Line, "syntax error, function requires a name")
	}
	s := &funcStmt{Name: name.Value, Line: t.Line}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	for {
		n := p.next()
		if n == nil {
			return nil, errorf(p.lastLine(), "syntax error, unterminated parameter list")
		}
		if n.is(")") && len(s.Params) == 0 {
			break
		}
		if n.Type != tokIdent {
			return nil, errorf(n.Line, "syntax error, bad parameter '%s'", n.Value)
		}
		s.Params = append(s.Params, n.Value)
		sep := p.next()
		if sep != nil && sep.is(")") {
			break
		}
		if sep == nil || !sep.is(",") {
			return nil, errorf(n.Line, "syntax error, expected ',' or ')' in parameter list")
		}
	}
	body, err := p.parseBlock("function")
	if err != nil {
		return nil, err
	}
	s.Body = body
	if n := p.peek(); n != nil && n.is(";") {
		p.pos++
	}
	return s, nil
}

func (p *parser) parseTry() (stmt, error) {
	t := p.next()
	s := &tryStmt{Line: t.Line}
	body, err := p.parseBlock("try")
	if err != nil {
		return nil, err
	}
	s.Body = body

	c := p.next()
	if c == nil || c.Type != tokIdent || c.Value != "catch" {
		return nil, errorf(t.Line, "syntax error, try without catch")
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	v := p.next()
	if v == nil || v.Type != tokIdent {
		return nil, errorf(c.Line, "syntax error, catch requires a variable name")
	}
	s.CatchVar = v.Value
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return s, p.endStmt()
}

// parseExpr parses sums of products; operators are left associative.
func (p *parser) parseExpr() (expr, error) {
	return p.parseBinary(0)
}

var precedence = [][]string{{"+", "-"}, {"*", "/"}}

func (p *parser) parseBinary(level int) (expr, error) {
	if level == len(precedence) {
		return p.parseOperand()
	}
	x, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t == nil || t.Type != tokPunct || !slices.Contains(precedence[level], t.Value) {
			return x, nil
		}
		p.pos++
		y, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		x = &binaryExpr{Op: t.Value, L: x, R: y}
	}
}

func (p *parser) parseOperand() (expr, error) {
	t := p.next()
	if t == nil {
		return nil, errorf(p.lastLine(), "syntax error, unexpected end of input")
	}

	switch t.Type {
	case tokNumber:
		f, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return nil, errorf(t.Line, "syntax error, bad number '%s'", t.Value)
		}
		return &literal{V: value.Double(f)}, nil

	case tokString:
		return &literal{V: value.String(t.Value)}, nil

	case tokIdent:
		switch t.Value {
		case "true":
			return &literal{V: value.Double(1)}, nil
		case "false":
			return &literal{V: value.Double(0)}, nil
		}
		n := p.peek()
		switch {
		case n != nil && n.is("("):
			p.pos++
			args, err := p.parseList(")")
			if err != nil {
				return nil, err
			}
			return &callExpr{Name: t.Value, Args: args}, nil
		case n != nil && n.is("{"):
			p.pos++
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("}"); err != nil {
				return nil, err
			}
			return &indexExpr{Name: t.Value, Index: idx}, nil
		}
		return &ident{Name: t.Value}, nil

	case tokPunct:
		switch t.Value {
		case "{":
			elems, err := p.parseList("}")
			if err != nil {
				return nil, err
			}
			return &cellExpr{Elems: elems}, nil
		case "[":
			return p.parseMatrix()
		}
	}
	return nil, errorf(t.Line, "syntax error, unexpected '%s'", t.Value)
}

// parseList parses comma separated expressions up to the closing token.
func (p *parser) parseList(closing string) ([]expr, error) {
	var out []expr
	if n := p.peek(); n != nil && n.is(closing) {
		p.pos++
		return out, nil
	}
	for {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, x)
		t := p.next()
		if t == nil {
			return nil, errorf(p.lastLine(), "syntax error, expected '%s' at end of input", closing)
		}
		if t.is(closing) {
			return out, nil
		}
		if !t.is(",") {
			return nil, errorf(t.Line, "syntax error, expected ',' or '%s' but found '%s'", closing, t.Value)
		}
	}
}

// parseMatrix parses [a, b; c, d] with ';' separating rows.
func (p *parser) parseMatrix() (expr, error) {
	m := &matrixExpr{}
	row := []expr{}
	for {
		t := p.peek()
		if t == nil {
			return nil, errorf(p.lastLine(), "syntax error, unterminated matrix")
		}
		switch {
		case t.is("]"):
			p.pos++
			if len(row) > 0 || len(m.Rows) > 0 {
				m.Rows = append(m.Rows, row)
			}
			return m, nil
		case t.is(";"):
			p.pos++
			m.Rows = append(m.Rows, row)
			row = []expr{}
		case t.is(","):
			p.pos++
		default:
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			row = append(row, x)
		}
	}
}
