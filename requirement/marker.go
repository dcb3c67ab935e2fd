package requirement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sciamlab/envgen/internal/normalize"
)

// markerVariables lists the environment marker variables, including the
// legacy dotted spellings accepted on input.
var markerVariables = map[string]bool{
	"python_version":                 true,
	"python_full_version":            true,
	"os_name":                        true,
	"sys_platform":                   true,
	"platform_release":               true,
	"platform_system":                true,
	"platform_version":               true,
	"platform_machine":               true,
	"platform_python_implementation": true,
	"implementation_name":            true,
	"implementation_version":         true,
	"extra":                          true,
	"extras":                         true,
	"dependency_groups":              true,
	"python_implementation":          true,
	"os.name":                        true,
	"sys.platform":                   true,
	"platform.version":               true,
	"platform.machine":               true,
	"platform.python_implementation": true,
}

// markerOperators is ordered so that longer operators match first.
var markerOperators = []string{"===", "==", "~=", "!=", "<=", ">=", "<", ">"}

type markerTokenKind int

const (
	tokenVariable markerTokenKind = iota
	tokenString
	tokenOperator
	tokenBoolOp
	tokenLeftParen
	tokenRightParen
)

type markerToken struct {
	kind markerTokenKind
	text string
}

// markerAtom is a variable or a quoted string on one side of a comparison.
type markerAtom struct {
	variable bool
	value    string
}

func (a markerAtom) String() string {
	if a.variable {
		return a.value
	}
	return `"` + a.value + `"`
}

// markerTerm is either a comparison or a parenthesised group.
type markerTerm interface {
	render(top bool) string
}

type markerExpr struct {
	lhs markerAtom
	op  string
	rhs markerAtom
}

func (e *markerExpr) render(bool) string {
	return e.lhs.String() + " " + e.op + " " + e.rhs.String()
}

// markerGroup is a flat sequence of terms joined by "and"/"or", evaluated left
// to right; len(ops) == len(terms)-1.
type markerGroup struct {
	terms []markerTerm
	ops   []string
}

func (g *markerGroup) render(top bool) string {
	if len(g.terms) == 1 {
		return g.terms[0].render(true)
	}
	parts := make([]string, 0, 2*len(g.terms)-1)
	for i, term := range g.terms {
		if i > 0 {
			parts = append(parts, g.ops[i-1])
		}
		parts = append(parts, term.render(false))
	}
	joined := strings.Join(parts, " ")
	if top {
		return joined
	}
	return "(" + joined + ")"
}

// normalizeMarker parses an environment marker and renders it in canonical
// form: single spaces around operators, double-quoted values, legacy
// variable names rewritten, and redundant single-term parentheses dropped.
func normalizeMarker(text string) (string, error) {
	tokens, err := tokenizeMarker(text)
	if err != nil {
		return "", err
	}
	if len(tokens) == 0 {
		return "", errors.New("empty marker after ';'")
	}

	p := &markerParser{tokens: tokens}
	group, err := p.parseGroup()
	if err != nil {
		return "", err
	}
	if p.pos < len(p.tokens) {
		return "", fmt.Errorf("unexpected %q in marker", p.tokens[p.pos].text)
	}

	normalizeExtraValue(group)
	return group.render(true), nil
}

// normalizeExtraValue canonicalizes the extra name compared in the leading
// comparison, e.g. extra == "Test_Suite" becomes extra == "test-suite".
func normalizeExtraValue(group *markerGroup) {
	expr, ok := group.terms[0].(*markerExpr)
	if !ok {
		return
	}
	switch {
	case expr.lhs.variable && expr.lhs.value == "extra" && !expr.rhs.variable:
		expr.rhs.value = normalize.CanonicalName(expr.rhs.value)
	case expr.rhs.variable && expr.rhs.value == "extra" && !expr.lhs.variable:
		expr.lhs.value = normalize.CanonicalName(expr.lhs.value)
	}
}

func tokenizeMarker(text string) ([]markerToken, error) {
	var tokens []markerToken
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			tokens = append(tokens, markerToken{kind: tokenLeftParen, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, markerToken{kind: tokenRightParen, text: ")"})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(text[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string in marker: %s", text[i:])
			}
			tokens = append(tokens, markerToken{kind: tokenString, text: text[i+1 : i+1+end]})
			i += end + 2
		case isMarkerIdentStart(c):
			j := i
			for j < len(text) && isMarkerIdentChar(text[j]) {
				j++
			}
			word := text[i:j]
			i = j
			switch word {
			case "and", "or":
				tokens = append(tokens, markerToken{kind: tokenBoolOp, text: word})
			case "in":
				tokens = append(tokens, markerToken{kind: tokenOperator, text: "in"})
			case "not":
				rest := strings.TrimLeft(text[i:], " \t")
				if !strings.HasPrefix(rest, "in") || (len(rest) > 2 && isMarkerIdentChar(rest[2])) {
					return nil, errors.New(`expected "in" after "not" in marker`)
				}
				i = len(text) - len(rest) + 2
				tokens = append(tokens, markerToken{kind: tokenOperator, text: "not in"})
			default:
				if !markerVariables[word] {
					return nil, fmt.Errorf("unknown marker variable %q", word)
				}
				tokens = append(tokens, markerToken{kind: tokenVariable, text: canonicalMarkerVariable(word)})
			}
		default:
			op := ""
			for _, candidate := range markerOperators {
				if strings.HasPrefix(text[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				return nil, fmt.Errorf("unexpected character %q in marker", c)
			}
			tokens = append(tokens, markerToken{kind: tokenOperator, text: op})
			i += len(op)
		}
	}
	return tokens, nil
}

func canonicalMarkerVariable(name string) string {
	name = strings.ReplaceAll(name, ".", "_")
	if name == "python_implementation" {
		return "platform_python_implementation"
	}
	return name
}

func isMarkerIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isMarkerIdentChar(c byte) bool {
	return isMarkerIdentStart(c) || c == '.' || (c >= '0' && c <= '9')
}

type markerParser struct {
	tokens []markerToken
	pos    int
}

func (p *markerParser) peek() (markerToken, bool) {
	if p.pos >= len(p.tokens) {
		return markerToken{}, false
	}
	return p.tokens[p.pos], true
}

func (p *markerParser) parseGroup() (*markerGroup, error) {
	group := &markerGroup{}
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	group.terms = append(group.terms, term)

	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokenBoolOp {
			return group, nil
		}
		p.pos++
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		group.ops = append(group.ops, tok.text)
		group.terms = append(group.terms, term)
	}
}

func (p *markerParser) parseTerm() (markerTerm, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, errors.New("unexpected end of marker")
	}
	if tok.kind == tokenLeftParen {
		p.pos++
		group, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokenRightParen {
			return nil, errors.New("unclosed parenthesis in marker")
		}
		p.pos++
		return group, nil
	}

	lhs, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	op, ok := p.peek()
	if !ok || op.kind != tokenOperator {
		return nil, fmt.Errorf("expected comparison operator after %s in marker", lhs)
	}
	p.pos++
	rhs, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return &markerExpr{lhs: lhs, op: op.text, rhs: rhs}, nil
}

func (p *markerParser) parseAtom() (markerAtom, error) {
	tok, ok := p.peek()
	if !ok {
		return markerAtom{}, errors.New("unexpected end of marker")
	}
	switch tok.kind {
	case tokenVariable:
		p.pos++
		return markerAtom{variable: true, value: tok.text}, nil
	case tokenString:
		p.pos++
		return markerAtom{value: tok.text}, nil
	}
	return markerAtom{}, fmt.Errorf("expected marker variable or quoted string, got %q", tok.text)
}
