// Package expr implements the arithmetic formula language used by bid
// templates and field mappings: numeric literals, variable references, the
// four basic operators, parentheses, and a closed set of functions.
package expr

import (
	"fmt"
	"sort"
	"strconv"
	"unicode"

	"github.com/rs/zerolog/log"
)

// VarTable is the evaluation context for expressions: a flat mapping from
// variable name to a numeric value. It is built once per resolution pass and
// treated as read-only afterwards.
type VarTable map[string]float64

// Lookup returns the value bound to name. Missing variables are not an
// error; they represent a measurement that has not been taken yet and
// resolve to zero.
func (t VarTable) Lookup(name string) float64 {
	return t[name]
}

// Evaluator parses and evaluates expressions against a variable table.
type Evaluator struct {
	functions *FunctionRegistry
}

// NewEvaluator creates an evaluator with the built-in function set.
func NewEvaluator() *Evaluator {
	return &Evaluator{functions: NewFunctionRegistry()}
}

// Evaluate evaluates input against vars. It never fails: a parse or call
// error is logged and the result defaults to zero, because one broken
// formula must not block the rest of a bid.
func (e *Evaluator) Evaluate(input string, vars VarTable) float64 {
	val, err := e.EvaluateStrict(input, vars)
	if err != nil {
		log.Warn().Str("expression", input).Err(err).Msg("formula failed to evaluate, defaulting to zero")
		return 0
	}
	return val
}

// EvaluateStrict evaluates input and surfaces parse and call errors to the
// caller instead of defaulting.
func (e *Evaluator) EvaluateStrict(input string, vars VarTable) (float64, error) {
	node, err := Parse(input, e.functions)
	if err != nil {
		return 0, err
	}
	return node.Eval(&EvalContext{Vars: vars, Functions: e.functions})
}

// Validate checks the syntax of input without a live variable table and
// returns the sorted set of variable names it references. Authoring tools
// use this to flag bad formulas before save, so unlike Evaluate it reports
// failure instead of defaulting.
func (e *Evaluator) Validate(input string) ([]string, error) {
	node, err := Parse(input, e.functions)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	collectVars(node, seen)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func collectVars(node Node, seen map[string]struct{}) {
	switch n := node.(type) {
	case *VariableNode:
		seen[n.Name] = struct{}{}
	case *BinaryNode:
		collectVars(n.Left, seen)
		collectVars(n.Right, seen)
	case *UnaryNode:
		collectVars(n.Expr, seen)
	case *CallNode:
		for _, arg := range n.Args {
			collectVars(arg, seen)
		}
	}
}

// EvalContext is the context a parsed expression is evaluated in.
type EvalContext struct {
	Vars      VarTable
	Functions *FunctionRegistry
}

// Node is a parsed expression tree node.
type Node interface {
	Eval(ctx *EvalContext) (float64, error)
}

// NumberNode is a numeric literal.
type NumberNode struct {
	Value float64
}

func (n *NumberNode) Eval(ctx *EvalContext) (float64, error) {
	return n.Value, nil
}

// VariableNode is a reference to a variable-table entry.
type VariableNode struct {
	Name string
}

func (n *VariableNode) Eval(ctx *EvalContext) (float64, error) {
	return ctx.Vars.Lookup(n.Name), nil
}

// BinaryNode applies one of the four arithmetic operators.
type BinaryNode struct {
	Left  Node
	Op    byte
	Right Node
}

func (n *BinaryNode) Eval(ctx *EvalContext) (float64, error) {
	left, err := n.Left.Eval(ctx)
	if err != nil {
		return 0, err
	}
	right, err := n.Right.Eval(ctx)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case '+':
		return left + right, nil
	case '-':
		return left - right, nil
	case '*':
		return left * right, nil
	case '/':
		// A zero quantity is more useful downstream than Inf or an
		// aborted bid, so division by zero saturates to zero.
		if right == 0 {
			return 0, nil
		}
		return left / right, nil
	default:
		return 0, fmt.Errorf("unknown operator: %c", n.Op)
	}
}

// UnaryNode is an arithmetic negation.
type UnaryNode struct {
	Expr Node
}

func (n *UnaryNode) Eval(ctx *EvalContext) (float64, error) {
	val, err := n.Expr.Eval(ctx)
	if err != nil {
		return 0, err
	}
	return -val, nil
}

// CallNode invokes a whitelisted function.
type CallNode struct {
	Name string
	Args []Node
}

func (n *CallNode) Eval(ctx *EvalContext) (float64, error) {
	args := make([]float64, len(n.Args))
	for i, arg := range n.Args {
		val, err := arg.Eval(ctx)
		if err != nil {
			return 0, err
		}
		args[i] = val
	}
	return ctx.Functions.Call(n.Name, args)
}

// Parser

// maxDepth bounds parser recursion so adversarial input (thousands of nested
// parentheses) cannot blow the stack.
const maxDepth = 200

type parser struct {
	tokens    []Token
	pos       int
	depth     int
	functions *FunctionRegistry
}

// Parse tokenizes and parses input into an expression tree.
func Parse(input string, functions *FunctionRegistry) (Node, error) {
	tokens := Tokenize(input)
	if len(tokens) == 1 { // EOF only
		return nil, fmt.Errorf("empty expression")
	}

	p := &parser{tokens: tokens, functions: functions}
	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.current().Type != TokenEOF {
		return nil, fmt.Errorf("unexpected token: %q", p.current().Value)
	}
	return node, nil
}

func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() {
	p.pos++
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return fmt.Errorf("expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) parseExpression() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.parseAdditive()
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenPlus || p.current().Type == TokenMinus {
		op := p.current().Value[0]
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Left: left, Op: op, Right: right}
	}

	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenMul || p.current().Type == TokenDiv {
		op := p.current().Value[0]
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Left: left, Op: op, Right: right}
	}

	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.current().Type == TokenMinus {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()

		p.advance()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Expr: expr}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.current().Type {
	case TokenNumber:
		val, err := strconv.ParseFloat(p.current().Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number: %q", p.current().Value)
		}
		p.advance()
		return &NumberNode{Value: val}, nil

	case TokenIdent:
		name := p.current().Value
		p.advance()

		if p.current().Type == TokenLParen {
			if !p.functions.Has(name) {
				return nil, fmt.Errorf("unknown function: %s", name)
			}
			return p.parseCall(name)
		}
		return &VariableNode{Name: name}, nil

	case TokenLParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.current().Type != TokenRParen {
			return nil, fmt.Errorf("expected )")
		}
		p.advance()
		return expr, nil

	case TokenEOF:
		return nil, fmt.Errorf("unexpected end of expression")

	default:
		return nil, fmt.Errorf("unexpected token: %q", p.current().Value)
	}
}

func (p *parser) parseCall(name string) (Node, error) {
	p.advance() // consume (

	var args []Node
	for p.current().Type != TokenRParen {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.current().Type == TokenComma {
			p.advance()
		} else if p.current().Type != TokenRParen {
			return nil, fmt.Errorf("expected , or ) in %s()", name)
		}
	}
	p.advance() // consume )

	return &CallNode{Name: name, Args: args}, nil
}

// Tokenizer

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenIdent
	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenLParen
	TokenRParen
	TokenComma
)

type Token struct {
	Type  TokenType
	Value string
}

// Tokenize scans input left to right. Unrecognized characters are skipped
// rather than rejected; authored formulas occasionally carry stray
// characters and leniency here beats failing the whole template.
func Tokenize(input string) []Token {
	var tokens []Token
	i := 0

	for i < len(input) {
		c := input[i]

		switch {
		case unicode.IsSpace(rune(c)):
			i++

		case c == '+':
			tokens = append(tokens, Token{Type: TokenPlus, Value: "+"})
			i++
		case c == '-':
			tokens = append(tokens, Token{Type: TokenMinus, Value: "-"})
			i++
		case c == '*':
			tokens = append(tokens, Token{Type: TokenMul, Value: "*"})
			i++
		case c == '/':
			tokens = append(tokens, Token{Type: TokenDiv, Value: "/"})
			i++
		case c == '(':
			tokens = append(tokens, Token{Type: TokenLParen, Value: "("})
			i++
		case c == ')':
			tokens = append(tokens, Token{Type: TokenRParen, Value: ")"})
			i++
		case c == ',':
			tokens = append(tokens, Token{Type: TokenComma, Value: ","})
			i++

		case unicode.IsDigit(rune(c)) || c == '.':
			start := i
			sawDot := false
			for i < len(input) {
				if input[i] == '.' && !sawDot {
					sawDot = true
					i++
				} else if unicode.IsDigit(rune(input[i])) {
					i++
				} else {
					break
				}
			}
			tokens = append(tokens, Token{Type: TokenNumber, Value: input[start:i]})

		case unicode.IsLetter(rune(c)) || c == '_':
			start := i
			for i < len(input) && (unicode.IsLetter(rune(input[i])) || unicode.IsDigit(rune(input[i])) || input[i] == '_') {
				i++
			}
			tokens = append(tokens, Token{Type: TokenIdent, Value: input[start:i]})

		default:
			log.Debug().Str("input", input).Int("offset", i).Msgf("skipping unrecognized character %q", c)
			i++
		}
	}

	tokens = append(tokens, Token{Type: TokenEOF})
	return tokens
}
