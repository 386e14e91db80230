package nal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"senars/internal/task"
	"senars/internal/term"
)

// Parser turns Narsese-lite lines into tasks over a shared factory.
type Parser struct {
	factory *term.Factory
}

// NewParser creates a parser bound to a term factory.
func NewParser(factory *term.Factory) *Parser {
	return &Parser{factory: factory}
}

// ParseTask parses one task line, e.g.
//
//	(robin --> bird). {1.0 0.9}
//	(robin --> ?x)?
//	((--, bird) --> animal). %0.2;0.9%
func (p *Parser) ParseTask(line string) (*task.Task, error) {
	ps := &parseState{lex: newLexer(line)}
	if err := ps.advance(); err != nil {
		return nil, err
	}
	t, err := p.parseTerm(ps)
	if err != nil {
		return nil, err
	}

	if ps.cur.kind != tokPunct {
		return nil, fmt.Errorf("nal: expected punctuation after term, got %q", ps.cur.text)
	}
	punct := task.Punctuation(ps.cur.text[0])
	if err := ps.advance(); err != nil {
		return nil, err
	}

	var truth *task.Truth
	if ps.cur.kind == tokTruth {
		parsed, err := parseTruth(ps.cur.text)
		if err != nil {
			return nil, err
		}
		truth = &parsed
		if err := ps.advance(); err != nil {
			return nil, err
		}
	}
	if ps.cur.kind != tokEOF {
		return nil, fmt.Errorf("nal: trailing input %q", ps.cur.text)
	}

	if punct != task.Question && truth == nil {
		defaultTruth := task.NewTruth(1.0, 0.9)
		truth = &defaultTruth
	}
	// A negated statement subject unwraps with inverted frequency:
	// ((--, S) --> P) {f c} becomes (S --> P) {1-f c}.
	if truth != nil && t.IsCompound() && term.IsStatement(t.Op()) && t.Components()[0].Op() == term.OpNegation {
		unwrapped, err := p.factory.Compound(t.Op(), t.Components()[0].Components()[0], t.Components()[1])
		if err != nil {
			return nil, err
		}
		t = unwrapped
		inverted := truth.Negated()
		truth = &inverted
	}
	return task.New(t, punct, truth, task.DefaultBudget(), nil)
}

// ParseTerm parses a bare term.
func (p *Parser) ParseTerm(input string) (*term.Term, error) {
	ps := &parseState{lex: newLexer(input)}
	if err := ps.advance(); err != nil {
		return nil, err
	}
	t, err := p.parseTerm(ps)
	if err != nil {
		return nil, err
	}
	if ps.cur.kind != tokEOF {
		return nil, fmt.Errorf("nal: trailing input %q", ps.cur.text)
	}
	return t, nil
}

// ParseAll reads tasks line by line, skipping blanks and // comments.
func (p *Parser) ParseAll(r io.Reader) ([]*task.Task, error) {
	var out []*task.Task
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		t, err := p.ParseTask(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Recursive descent
// -----------------------------------------------------------------------------

type parseState struct {
	lex *lexer
	cur token
}

func (ps *parseState) advance() error {
	tok, err := ps.lex.next()
	if err != nil {
		return err
	}
	ps.cur = tok
	return nil
}

func (p *Parser) parseTerm(ps *parseState) (*term.Term, error) {
	switch ps.cur.kind {
	case tokAtom:
		name := ps.cur.text
		if err := ps.advance(); err != nil {
			return nil, err
		}
		return p.factory.Atom(name), nil
	case tokVariable:
		name := ps.cur.text
		if err := ps.advance(); err != nil {
			return nil, err
		}
		return p.factory.Variable(name), nil
	case tokLParen:
		return p.parseParen(ps)
	case tokLBrace:
		return p.parseSet(ps, term.OpSetExt, tokRBrace)
	case tokLBracket:
		return p.parseSet(ps, term.OpSetInt, tokRBracket)
	default:
		return nil, fmt.Errorf("nal: unexpected token %q", ps.cur.text)
	}
}

// parseParen handles both forms inside parentheses: the prefix compound
// "(op, a, b, ...)" and the infix statement "(a --> b)".
func (p *Parser) parseParen(ps *parseState) (*term.Term, error) {
	if err := ps.advance(); err != nil { // consume '('
		return nil, err
	}

	if ps.cur.kind == tokOperator {
		op := term.Operator(ps.cur.text)
		if err := ps.advance(); err != nil {
			return nil, err
		}
		comps, err := p.parseComponentList(ps)
		if err != nil {
			return nil, err
		}
		return p.factory.Compound(op, comps...)
	}

	left, err := p.parseTerm(ps)
	if err != nil {
		return nil, err
	}
	if ps.cur.kind != tokOperator {
		return nil, fmt.Errorf("nal: expected copula, got %q", ps.cur.text)
	}
	op := term.Operator(ps.cur.text)
	if !term.IsStatement(op) {
		return nil, fmt.Errorf("nal: %q is not an infix copula", op)
	}
	if err := ps.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseTerm(ps)
	if err != nil {
		return nil, err
	}
	if ps.cur.kind != tokRParen {
		return nil, fmt.Errorf("nal: expected ')', got %q", ps.cur.text)
	}
	if err := ps.advance(); err != nil {
		return nil, err
	}
	return p.factory.Compound(op, left, right)
}

// parseComponentList parses ", a, b)" after a prefix operator.
func (p *Parser) parseComponentList(ps *parseState) ([]*term.Term, error) {
	var comps []*term.Term
	for {
		switch ps.cur.kind {
		case tokComma:
			if err := ps.advance(); err != nil {
				return nil, err
			}
		case tokRParen:
			if err := ps.advance(); err != nil {
				return nil, err
			}
			if len(comps) == 0 {
				return nil, fmt.Errorf("nal: empty compound")
			}
			return comps, nil
		case tokEOF:
			return nil, fmt.Errorf("nal: unterminated compound")
		default:
			t, err := p.parseTerm(ps)
			if err != nil {
				return nil, err
			}
			comps = append(comps, t)
		}
	}
}

func (p *Parser) parseSet(ps *parseState, op term.Operator, closer tokenKind) (*term.Term, error) {
	if err := ps.advance(); err != nil { // consume opener
		return nil, err
	}
	var comps []*term.Term
	for {
		switch ps.cur.kind {
		case tokComma:
			if err := ps.advance(); err != nil {
				return nil, err
			}
		case closer:
			if err := ps.advance(); err != nil {
				return nil, err
			}
			if len(comps) == 0 {
				return nil, fmt.Errorf("nal: empty set")
			}
			return p.factory.Compound(op, comps...)
		case tokEOF:
			return nil, fmt.Errorf("nal: unterminated set")
		default:
			t, err := p.parseTerm(ps)
			if err != nil {
				return nil, err
			}
			comps = append(comps, t)
		}
	}
}

// parseTruth accepts "{1.0 0.9}" bodies in several spellings: bare
// numerals separated by space/comma/semicolon, or keyed fields with
// short or long names (f/frequency, c/confidence).
func parseTruth(body string) (task.Truth, error) {
	fields := strings.FieldsFunc(body, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == ';'
	})
	var values []float64
	var f, c *float64
	for _, field := range fields {
		if key, val, ok := strings.Cut(field, "="); ok {
			n, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return task.Truth{}, fmt.Errorf("nal: bad truth value %q", field)
			}
			switch key {
			case "f", "freq", "frequency":
				f = &n
			case "c", "conf", "confidence":
				c = &n
			default:
				return task.Truth{}, fmt.Errorf("nal: unknown truth field %q", key)
			}
			continue
		}
		n, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return task.Truth{}, fmt.Errorf("nal: bad truth value %q", field)
		}
		values = append(values, n)
	}

	switch {
	case f != nil && c != nil:
		return task.NewTruth(*f, *c), nil
	case len(values) == 2 && f == nil && c == nil:
		return task.NewTruth(values[0], values[1]), nil
	case len(values) == 1 && f == nil && c == nil:
		return task.NewTruth(values[0], 0.9), nil
	default:
		return task.Truth{}, fmt.Errorf("nal: malformed truth %q", body)
	}
}
