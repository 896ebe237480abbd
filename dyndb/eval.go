// dyndb/eval.go
package dyndb

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Avaliador das expressões de condição do DynamoDB, no formato produzido por
// feature/dynamodb/expression. Usado pelo MemoryStore para aplicar
// KeyConditionExpression e FilterExpression sem tocar na AWS.
//
// Gramática suportada:
//
//	cond    := or
//	or      := and { OR and }
//	and     := not { AND not }
//	not     := NOT not | primary
//	primary := '(' cond ')'
//	         | fn '(' operand { ',' operand } ')'
//	         | operand cmp operand
//	         | operand BETWEEN operand AND operand
//	         | operand IN '(' operand { ',' operand } ')'
//	operand := path | :value | size '(' path ')'
//
// Atributo ausente torna qualquer comparação falsa.

// Condition é uma expressão já compilada.
type Condition interface {
	Eval(item map[string]types.AttributeValue) bool
}

// CompileCondition interpreta a expressão usando os mapas de nomes e valores
// devolvidos por expression.Expression.
func CompileCondition(expr string, names map[string]string, values map[string]types.AttributeValue) (Condition, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, names: names, values: values}
	c, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("dyndb: unexpected token %q in condition", p.peek().text)
	}
	return c, nil
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokValue
	tokLParen
	tokRParen
	tokComma
	tokCmp
)

type token struct {
	kind tokKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '=':
			toks = append(toks, token{tokCmp, "="})
			i++
		case c == '<' || c == '>':
			op := string(c)
			if i+1 < len(s) && (s[i+1] == '=' || (c == '<' && s[i+1] == '>')) {
				op += string(s[i+1])
			}
			toks = append(toks, token{tokCmp, op})
			i += len(op)
		default:
			j := i
			for j < len(s) && isPathChar(rune(s[j])) {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("dyndb: invalid character %q in condition", c)
			}
			word := s[i:j]
			kind := tokIdent
			if strings.HasPrefix(word, ":") {
				kind = tokValue
			}
			toks = append(toks, token{kind, word})
			i = j
		}
	}
	return toks, nil
}

func isPathChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("#:._-[]", r)
}

type parser struct {
	toks   []token
	pos    int
	names  map[string]string
	values map[string]types.AttributeValue
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token {
	if p.done() {
		return token{kind: -1}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) keyword(word string) bool {
	t := p.peek()
	if t.kind == tokIdent && strings.EqualFold(t.text, word) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(kind tokKind, what string) error {
	if p.peek().kind != kind {
		return fmt.Errorf("dyndb: expected %s in condition", what)
	}
	p.pos++
	return nil
}

func (p *parser) parseOr() (Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orCond{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Condition, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = andCond{left, right}
	}
	return left, nil
}

func (p *parser) parseNot() (Condition, error) {
	if p.keyword("NOT") {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notCond{inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Condition, error) {
	if p.peek().kind == tokLParen {
		p.pos++
		c, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return c, nil
	}

	t := p.peek()
	if t.kind == tokIdent && p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == tokLParen {
		switch strings.ToLower(t.text) {
		case "attribute_exists", "attribute_not_exists", "attribute_type", "begins_with", "contains":
			return p.parseFunc()
		}
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	switch {
	case p.peek().kind == tokCmp:
		op := p.next().text
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return cmpCond{op: op, left: left, right: right}, nil
	case p.keyword("BETWEEN"):
		lo, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if !p.keyword("AND") {
			return nil, fmt.Errorf("dyndb: expected AND in BETWEEN")
		}
		hi, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return betweenCond{v: left, lo: lo, hi: hi}, nil
	case p.keyword("IN"):
		if err := p.expect(tokLParen, "'(' after IN"); err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return inCond{v: left, set: args}, nil
	}
	return nil, fmt.Errorf("dyndb: expected comparator in condition")
}

func (p *parser) parseFunc() (Condition, error) {
	name := strings.ToLower(p.next().text)
	p.pos++ // '('
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	want := 2
	if name == "attribute_exists" || name == "attribute_not_exists" {
		want = 1
	}
	if len(args) != want {
		return nil, fmt.Errorf("dyndb: %s expects %d arguments", name, want)
	}
	return funcCond{name: name, args: args}, nil
}

// parseArgs lê operandos até o ')' de fechamento.
func (p *parser) parseArgs() ([]operand, error) {
	var args []operand
	for {
		o, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		args = append(args, o)
		if p.peek().kind == tokComma {
			p.pos++
			continue
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) parseOperand() (operand, error) {
	t := p.next()
	switch t.kind {
	case tokValue:
		v, ok := p.values[t.text]
		if !ok {
			return nil, fmt.Errorf("dyndb: undefined value placeholder %s", t.text)
		}
		return literal{v}, nil
	case tokIdent:
		if strings.EqualFold(t.text, "size") && p.peek().kind == tokLParen {
			p.pos++
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			if len(args) != 1 {
				return nil, fmt.Errorf("dyndb: size expects 1 argument")
			}
			return sizeOf{args[0]}, nil
		}
		return p.resolvePath(t.text)
	}
	return nil, fmt.Errorf("dyndb: expected operand in condition")
}

// resolvePath troca placeholders #n pelos nomes reais. Só caminhos de
// primeiro nível são suportados.
func (p *parser) resolvePath(raw string) (operand, error) {
	if strings.HasPrefix(raw, "#") {
		name, ok := p.names[raw]
		if !ok {
			return nil, fmt.Errorf("dyndb: undefined name placeholder %s", raw)
		}
		return path(name), nil
	}
	return path(raw), nil
}

// === operandos ===

type operand interface {
	resolve(item map[string]types.AttributeValue) (types.AttributeValue, bool)
}

type path string

func (p path) resolve(item map[string]types.AttributeValue) (types.AttributeValue, bool) {
	v, ok := item[string(p)]
	return v, ok
}

type literal struct{ v types.AttributeValue }

func (l literal) resolve(map[string]types.AttributeValue) (types.AttributeValue, bool) {
	return l.v, true
}

type sizeOf struct{ arg operand }

func (s sizeOf) resolve(item map[string]types.AttributeValue) (types.AttributeValue, bool) {
	v, ok := s.arg.resolve(item)
	if !ok {
		return nil, false
	}
	var n int
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		n = len(tv.Value)
	case *types.AttributeValueMemberB:
		n = len(tv.Value)
	case *types.AttributeValueMemberSS:
		n = len(tv.Value)
	case *types.AttributeValueMemberNS:
		n = len(tv.Value)
	case *types.AttributeValueMemberBS:
		n = len(tv.Value)
	case *types.AttributeValueMemberL:
		n = len(tv.Value)
	case *types.AttributeValueMemberM:
		n = len(tv.Value)
	default:
		return nil, false
	}
	return &types.AttributeValueMemberN{Value: fmt.Sprint(n)}, true
}

// === nós ===

type andCond struct{ l, r Condition }

func (c andCond) Eval(item map[string]types.AttributeValue) bool {
	return c.l.Eval(item) && c.r.Eval(item)
}

type orCond struct{ l, r Condition }

func (c orCond) Eval(item map[string]types.AttributeValue) bool {
	return c.l.Eval(item) || c.r.Eval(item)
}

type notCond struct{ inner Condition }

func (c notCond) Eval(item map[string]types.AttributeValue) bool {
	return !c.inner.Eval(item)
}

type cmpCond struct {
	op          string
	left, right operand
}

func (c cmpCond) Eval(item map[string]types.AttributeValue) bool {
	l, ok := c.left.resolve(item)
	if !ok {
		return false
	}
	r, ok := c.right.resolve(item)
	if !ok {
		return false
	}

	if c.op == "=" || c.op == "<>" {
		eq, comparable := equalValues(l, r)
		if !comparable {
			return false
		}
		return eq == (c.op == "=")
	}

	n, ok := compareValues(l, r)
	if !ok {
		return false
	}
	switch c.op {
	case "<":
		return n < 0
	case "<=":
		return n <= 0
	case ">":
		return n > 0
	case ">=":
		return n >= 0
	}
	return false
}

type betweenCond struct{ v, lo, hi operand }

func (c betweenCond) Eval(item map[string]types.AttributeValue) bool {
	v, ok := c.v.resolve(item)
	if !ok {
		return false
	}
	lo, _ := c.lo.resolve(item)
	hi, _ := c.hi.resolve(item)
	a, ok1 := compareValues(v, lo)
	b, ok2 := compareValues(v, hi)
	return ok1 && ok2 && a >= 0 && b <= 0
}

type inCond struct {
	v   operand
	set []operand
}

func (c inCond) Eval(item map[string]types.AttributeValue) bool {
	v, ok := c.v.resolve(item)
	if !ok {
		return false
	}
	for _, o := range c.set {
		candidate, ok := o.resolve(item)
		if !ok {
			continue
		}
		if eq, _ := equalValues(v, candidate); eq {
			return true
		}
	}
	return false
}

type funcCond struct {
	name string
	args []operand
}

func (c funcCond) Eval(item map[string]types.AttributeValue) bool {
	v, exists := c.args[0].resolve(item)
	switch c.name {
	case "attribute_exists":
		return exists
	case "attribute_not_exists":
		return !exists
	}
	if !exists {
		return false
	}
	arg, ok := c.args[1].resolve(item)
	if !ok {
		return false
	}

	switch c.name {
	case "begins_with":
		s, ok1 := v.(*types.AttributeValueMemberS)
		prefix, ok2 := arg.(*types.AttributeValueMemberS)
		return ok1 && ok2 && strings.HasPrefix(s.Value, prefix.Value)
	case "contains":
		return containsValue(v, arg)
	case "attribute_type":
		t, ok := arg.(*types.AttributeValueMemberS)
		return ok && typeName(v) == t.Value
	}
	return false
}

func containsValue(v, arg types.AttributeValue) bool {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		s, ok := arg.(*types.AttributeValueMemberS)
		return ok && strings.Contains(tv.Value, s.Value)
	case *types.AttributeValueMemberSS:
		s, ok := arg.(*types.AttributeValueMemberS)
		if !ok {
			return false
		}
		for _, e := range tv.Value {
			if e == s.Value {
				return true
			}
		}
	case *types.AttributeValueMemberNS:
		n, ok := arg.(*types.AttributeValueMemberN)
		if !ok {
			return false
		}
		for _, e := range tv.Value {
			if eq, _ := equalValues(&types.AttributeValueMemberN{Value: e}, n); eq {
				return true
			}
		}
	case *types.AttributeValueMemberL:
		for _, e := range tv.Value {
			if eq, _ := equalValues(e, arg); eq {
				return true
			}
		}
	}
	return false
}

func typeName(v types.AttributeValue) string {
	switch v.(type) {
	case *types.AttributeValueMemberS:
		return "S"
	case *types.AttributeValueMemberN:
		return "N"
	case *types.AttributeValueMemberB:
		return "B"
	case *types.AttributeValueMemberBOOL:
		return "BOOL"
	case *types.AttributeValueMemberNULL:
		return "NULL"
	case *types.AttributeValueMemberSS:
		return "SS"
	case *types.AttributeValueMemberNS:
		return "NS"
	case *types.AttributeValueMemberBS:
		return "BS"
	case *types.AttributeValueMemberL:
		return "L"
	case *types.AttributeValueMemberM:
		return "M"
	}
	return ""
}

// equalValues compara dois valores; o segundo retorno é falso quando os
// tipos são diferentes.
func equalValues(a, b types.AttributeValue) (bool, bool) {
	if typeName(a) != typeName(b) {
		return false, false
	}
	switch av := a.(type) {
	case *types.AttributeValueMemberBOOL:
		return av.Value == b.(*types.AttributeValueMemberBOOL).Value, true
	case *types.AttributeValueMemberNULL:
		return true, true
	case *types.AttributeValueMemberS, *types.AttributeValueMemberN, *types.AttributeValueMemberB:
		n, ok := compareValues(a, b)
		return ok && n == 0, ok
	case *types.AttributeValueMemberSS:
		return sameStrings(av.Value, b.(*types.AttributeValueMemberSS).Value), true
	case *types.AttributeValueMemberNS:
		return sameStrings(av.Value, b.(*types.AttributeValueMemberNS).Value), true
	}
	return false, true
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}

// compareValues ordena S, N e B do mesmo tipo.
func compareValues(a, b types.AttributeValue) (int, bool) {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.Value, bv.Value), true
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return 0, false
		}
		x, ok1 := new(big.Float).SetString(av.Value)
		y, ok2 := new(big.Float).SetString(bv.Value)
		if !ok1 || !ok2 {
			return 0, false
		}
		return x.Cmp(y), true
	case *types.AttributeValueMemberB:
		bv, ok := b.(*types.AttributeValueMemberB)
		if !ok {
			return 0, false
		}
		return bytes.Compare(av.Value, bv.Value), true
	}
	return 0, false
}
