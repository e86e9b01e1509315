// Package signature parses catalog signature text into type schemes.
//
//	map :: (a -> b) -> [a] -> [b]
//	(*) :: Num a => a -> a -> a
//	fmap :: Functor f => (a -> b) -> f a -> f b
package signature

import (
	"fmt"
	"strings"

	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// ParseError reports malformed signature text.
type ParseError struct {
	Input  string
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("signature %q: column %d: %s", e.Input, e.Column, e.Msg)
}

// ClassLookup resolves a class name used in a signature context.
type ClassLookup func(name string) (*typesystem.TypeClass, bool)

type Parser struct {
	input   string
	l       *Lexer
	classes ClassLookup

	curToken  Token
	peekToken Token

	// vars maps a variable name to its type variable; a name denotes one variable per signature.
	vars    map[string]typesystem.TVar
	context map[string][]*typesystem.TypeClass
	used    map[string]bool
}

func NewParser(input string, classes ClassLookup) *Parser {
	p := &Parser{
		input:   input,
		l:       NewLexer(input),
		classes: classes,
		vars:    make(map[string]typesystem.TVar),
		context: make(map[string][]*typesystem.TypeClass),
		used:    make(map[string]bool),
	}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a signature into a scheme quantified over all its variables.
func Parse(input string, classes ClassLookup) (*typesystem.Scheme, error) {
	return NewParser(input, classes).ParseScheme()
}

// ParseType parses a signature and returns its type with fresh variables.
func ParseType(input string, classes ClassLookup) (typesystem.Type, error) {
	s, err := Parse(input, classes)
	if err != nil {
		return nil, err
	}
	return s.Type, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Input: p.input, Column: p.curToken.Column, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(t TokenType) error {
	if !p.curTokenIs(t) {
		return p.unexpected(t.String())
	}
	p.nextToken()
	return nil
}

func (p *Parser) unexpected(want string) error {
	got := p.curToken.Type.String()
	if p.curToken.Literal != "" {
		got = fmt.Sprintf("%q", p.curToken.Literal)
	}
	return p.errorf("expected %s, got %s", want, got)
}

func (p *Parser) ParseScheme() (*typesystem.Scheme, error) {
	if p.hasContext() {
		if err := p.parseContext(); err != nil {
			return nil, err
		}
		if err := p.expect(IMPLY); err != nil {
			return nil, err
		}
	}

	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if !p.curTokenIs(EOF) {
		return nil, p.unexpected("'->' or end of signature")
	}

	for name := range p.context {
		if !p.used[name] {
			return nil, &ParseError{Input: p.input, Column: 1,
				Msg: fmt.Sprintf("constrained variable %s does not occur in the type", name)}
		}
	}
	return typesystem.Closed(t), nil
}

// hasContext scans ahead for "=>"; a context and a tuple type both start with '('.
func (p *Parser) hasContext() bool {
	l := NewLexer(p.input)
	for tok := l.NextToken(); tok.Type != EOF; tok = l.NextToken() {
		if tok.Type == IMPLY {
			return true
		}
	}
	return false
}

func (p *Parser) parseContext() error {
	if !p.curTokenIs(LPAREN) {
		return p.parseConstraint()
	}
	p.nextToken()
	for {
		if err := p.parseConstraint(); err != nil {
			return err
		}
		if !p.curTokenIs(COMMA) {
			break
		}
		p.nextToken()
	}
	return p.expect(RPAREN)
}

func (p *Parser) parseConstraint() error {
	if !p.curTokenIs(IDENT_UPPER) {
		return p.unexpected("class name")
	}
	className := p.curToken.Literal
	if p.classes == nil {
		return p.errorf("unknown type class %s", className)
	}
	class, ok := p.classes(className)
	if !ok {
		return p.errorf("unknown type class %s", className)
	}
	p.nextToken()

	if !p.curTokenIs(IDENT_LOWER) {
		return p.unexpected("type variable")
	}
	name := p.curToken.Literal
	p.context[name] = append(p.context[name], class)
	p.nextToken()
	return nil
}

// parseType handles right-associative arrows.
func (p *Parser) parseType() (typesystem.Type, error) {
	left, err := p.parseBType()
	if err != nil {
		return nil, err
	}
	if !p.curTokenIs(ARROW) {
		return left, nil
	}
	p.nextToken()
	right, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return typesystem.Arrow(left, right), nil
}

// parseBType handles constructor application: Either a b, f a.
func (p *Parser) parseBType() (typesystem.Type, error) {
	col := p.curToken.Column
	head, err := p.parseAType()
	if err != nil {
		return nil, err
	}

	var args []typesystem.Type
	for p.startsAType() {
		arg, err := p.parseAType()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return head, nil
	}

	switch h := head.(type) {
	case typesystem.TCon, typesystem.TVar:
		return typesystem.TApp{Constructor: h, Args: args}, nil
	case typesystem.TApp:
		name := typesystem.HeadName(h)
		if name == config.FunctionTypeName || name == config.ListTypeName || strings.HasPrefix(name, config.TuplePrefix) {
			break
		}
		merged := append(append([]typesystem.Type{}, h.Args...), args...)
		return typesystem.TApp{Constructor: h.Constructor, Args: merged}, nil
	}
	return nil, &ParseError{Input: p.input, Column: col, Msg: fmt.Sprintf("%s cannot be applied to arguments", typesystem.Pretty(head))}
}

func (p *Parser) startsAType() bool {
	switch p.curToken.Type {
	case IDENT_UPPER, IDENT_LOWER, LPAREN, LBRACKET:
		return true
	}
	return false
}

func (p *Parser) parseAType() (typesystem.Type, error) {
	switch p.curToken.Type {
	case IDENT_UPPER:
		name := p.curToken.Literal
		p.nextToken()
		return typesystem.TCon{Name: name}, nil

	case IDENT_LOWER:
		v := p.variable(p.curToken.Literal)
		p.nextToken()
		return v, nil

	case LBRACKET:
		p.nextToken()
		if p.curTokenIs(RBRACKET) {
			p.nextToken()
			return typesystem.TCon{Name: config.ListTypeName}, nil
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		return typesystem.ListOf(elem), nil

	case LPAREN:
		p.nextToken()
		if p.curTokenIs(RPAREN) {
			p.nextToken()
			return typesystem.TCon{Name: config.UnitTypeName}, nil
		}
		first, err := p.parseType()
		if err != nil {
			return nil, err
		}
		elems := []typesystem.Type{first}
		for p.curTokenIs(COMMA) {
			p.nextToken()
			elem, err := p.parseType()
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
		if err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		if len(elems) == 1 {
			return first, nil
		}
		return typesystem.TupleOf(elems...), nil
	}

	return nil, p.unexpected("a type")
}

func (p *Parser) variable(name string) typesystem.TVar {
	p.used[name] = true
	if v, ok := p.vars[name]; ok {
		return v
	}
	v := typesystem.NewVar(p.context[name]...)
	p.vars[name] = v
	return v
}
