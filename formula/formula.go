// Package formula parses and evaluates small arithmetic formulas such as
// "base * pow(1.1, level) + bonus" against a table of named numbers.
package formula

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ---------------------------------------------------------
// Grammar
// ---------------------------------------------------------

type sum struct {
	Head *product `parser:"@@"`
	Tail []*sumOp `parser:"@@*"`
}

type sumOp struct {
	Op   string   `parser:"@('+' | '-')"`
	Term *product `parser:"@@"`
}

type product struct {
	Head *unary       `parser:"@@"`
	Tail []*productOp `parser:"@@*"`
}

type productOp struct {
	Op     string `parser:"@('*' | '/' | '%')"`
	Factor *unary `parser:"@@"`
}

type unary struct {
	Sign  string `parser:"@('-' | '+')?"`
	Power *power `parser:"@@"`
}

// power is right associative: 2^3^2 == 2^(3^2)
type power struct {
	Base     *primary `parser:"@@"`
	Exponent *unary   `parser:"('^' @@)?"`
}

type primary struct {
	Number *float64 `parser:"  @Number"`
	Call   *call    `parser:"| @@"`
	Var    *string  `parser:"| @Ident"`
	Group  *sum     `parser:"| '(' @@ ')'"`
}

type call struct {
	Name string `parser:"@Ident '('"`
	Args []*sum `parser:"(@@ (',' @@)*)? ')'"`
}

var formulaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[-+*/%^(),]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var formulaParser = participle.MustBuild[sum](
	participle.Lexer(formulaLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ---------------------------------------------------------
// Public API
// ---------------------------------------------------------

// ErrDivisionByZero is returned when a formula divides by zero
var ErrDivisionByZero = errors.New("division by zero")

// Formula is a parsed, reusable formula
type Formula struct {
	src  string
	root *sum
}

// CacheLimit bounds the number of parsed formulas kept
const CacheLimit = 1024

// cache of parsed formulas keyed by source text
var (
	cache     sync.Map
	cacheSize atomic.Int64
)

// Parse parses src. Parsed formulas are cached up to CacheLimit distinct
// texts, so repeated calls with the same text are cheap.
func Parse(src string) (*Formula, error) {
	if f, ok := cache.Load(src); ok {
		return f.(*Formula), nil
	}
	root, err := formulaParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("parse formula %q: %w", src, err)
	}
	f := &Formula{src: src, root: root}
	if cacheSize.Load() < CacheLimit {
		if _, loaded := cache.LoadOrStore(src, f); !loaded {
			cacheSize.Add(1)
		}
	}
	return f, nil
}

// cached reports how many formulas the cache holds
func cached() int { return int(cacheSize.Load()) }

// Eval parses and evaluates src in one step
func Eval(src string, vars map[string]float64) (float64, error) {
	f, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return f.Eval(vars)
}

// String returns the source text
func (f *Formula) String() string { return f.src }

// Eval computes the formula with the given variable table
func (f *Formula) Eval(vars map[string]float64) (float64, error) {
	return f.root.eval(vars)
}

// ---------------------------------------------------------
// Evaluation
// ---------------------------------------------------------

func (s *sum) eval(vars map[string]float64) (float64, error) {
	acc, err := s.Head.eval(vars)
	if err != nil {
		return 0, err
	}
	for _, op := range s.Tail {
		rhs, err := op.Term.eval(vars)
		if err != nil {
			return 0, err
		}
		if op.Op == "+" {
			acc += rhs
		} else {
			acc -= rhs
		}
	}
	return acc, nil
}

func (p *product) eval(vars map[string]float64) (float64, error) {
	acc, err := p.Head.eval(vars)
	if err != nil {
		return 0, err
	}
	for _, op := range p.Tail {
		rhs, err := op.Factor.eval(vars)
		if err != nil {
			return 0, err
		}
		switch op.Op {
		case "*":
			acc *= rhs
		case "/":
			if rhs == 0 {
				return 0, ErrDivisionByZero
			}
			acc /= rhs
		case "%":
			if rhs == 0 {
				return 0, ErrDivisionByZero
			}
			acc = math.Mod(acc, rhs)
		}
	}
	return acc, nil
}

func (u *unary) eval(vars map[string]float64) (float64, error) {
	v, err := u.Power.eval(vars)
	if err != nil {
		return 0, err
	}
	if u.Sign == "-" {
		return -v, nil
	}
	return v, nil
}

func (p *power) eval(vars map[string]float64) (float64, error) {
	base, err := p.Base.eval(vars)
	if err != nil {
		return 0, err
	}
	if p.Exponent == nil {
		return base, nil
	}
	exp, err := p.Exponent.eval(vars)
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

func (p *primary) eval(vars map[string]float64) (float64, error) {
	switch {
	case p.Number != nil:
		return *p.Number, nil
	case p.Call != nil:
		return p.Call.eval(vars)
	case p.Var != nil:
		v, ok := vars[*p.Var]
		if !ok {
			return 0, fmt.Errorf("unknown variable %q", *p.Var)
		}
		return v, nil
	case p.Group != nil:
		return p.Group.eval(vars)
	}
	return 0, errors.New("empty expression")
}

type function struct {
	minArgs, maxArgs int // maxArgs < 0 means variadic
	fn               func(args []float64) float64
}

var functions = map[string]function{
	"abs":   {1, 1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"floor": {1, 1, func(a []float64) float64 { return math.Floor(a[0]) }},
	"ceil":  {1, 1, func(a []float64) float64 { return math.Ceil(a[0]) }},
	"round": {1, 1, func(a []float64) float64 { return math.Round(a[0]) }},
	"sqrt":  {1, 1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"pow":   {2, 2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"clamp": {3, 3, func(a []float64) float64 { return math.Max(a[1], math.Min(a[2], a[0])) }},
	"min": {1, -1, func(a []float64) float64 {
		m := a[0]
		for _, x := range a[1:] {
			m = math.Min(m, x)
		}
		return m
	}},
	"max": {1, -1, func(a []float64) float64 {
		m := a[0]
		for _, x := range a[1:] {
			m = math.Max(m, x)
		}
		return m
	}},
}

func (c *call) eval(vars map[string]float64) (float64, error) {
	fn, ok := functions[c.Name]
	if !ok {
		return 0, fmt.Errorf("unknown function %q", c.Name)
	}
	if len(c.Args) < fn.minArgs || (fn.maxArgs >= 0 && len(c.Args) > fn.maxArgs) {
		return 0, fmt.Errorf("%s: wrong number of arguments (%d)", c.Name, len(c.Args))
	}
	args := make([]float64, len(c.Args))
	for i, arg := range c.Args {
		v, err := arg.eval(vars)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	return fn.fn(args), nil
}
