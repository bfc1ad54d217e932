// Package eval interprets script nodes: JSON-like trees that name a function
// and carry its parameters. A node is evaluated in one of three modes:
// condition (yields a bool), statement (performs effects) or expression
// (yields a value). Nodes are resolved against the built-in catalog first
// and the user catalog second.
package eval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LingHeChen/nodescript/catalog"
	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/value"
)

// DefaultMaxIterations bounds a single ForLoop
const DefaultMaxIterations = 10000

// Interpreter evaluates nodes against a host and a user catalog. It holds no
// per-call state, so one Interpreter may serve concurrent evaluations as long
// as each uses its own Env.
type Interpreter struct {
	host          *host.Host
	users         *catalog.Catalog
	logger        *slog.Logger
	strict        bool
	maxIterations int
}

// Option is a functional option for Interpreter
type Option func(*Interpreter)

// WithHost sets the host collaborators
func WithHost(h *host.Host) Option {
	return func(ip *Interpreter) {
		ip.host = h
	}
}

// WithCatalog sets the user function catalog
func WithCatalog(c *catalog.Catalog) Option {
	return func(ip *Interpreter) {
		ip.users = c
	}
}

// WithLogger sets the log sink
func WithLogger(l *slog.Logger) Option {
	return func(ip *Interpreter) {
		ip.logger = l
	}
}

// WithStrict makes statement and expression failures panic after logging.
// Intended for tests and authoring tools.
func WithStrict(strict bool) Option {
	return func(ip *Interpreter) {
		ip.strict = strict
	}
}

// WithMaxIterations caps the iterations of a single ForLoop
func WithMaxIterations(n int) Option {
	return func(ip *Interpreter) {
		ip.maxIterations = n
	}
}

// New creates an Interpreter
func New(opts ...Option) *Interpreter {
	ip := &Interpreter{
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(ip)
	}
	if ip.host == nil {
		ip.host = &host.Host{}
	}
	if ip.users == nil {
		ip.users = catalog.New()
	}
	if ip.logger == nil {
		ip.logger = slog.Default()
	}
	if ip.maxIterations <= 0 {
		ip.maxIterations = DefaultMaxIterations
	}
	return ip
}

// Host returns the host collaborators
func (ip *Interpreter) Host() *host.Host { return ip.host }

// Catalog returns the user function catalog
func (ip *Interpreter) Catalog() *catalog.Catalog { return ip.users }

// Logger returns the log sink
func (ip *Interpreter) Logger() *slog.Logger { return ip.logger }

// Owner is implemented by receivers that carry their own interpreter.
// A redirected call runs on the target's interpreter when it has one.
type Owner interface {
	Interpreter() *Interpreter
}

// ---------------------------------------------------------
// Entry points
// ---------------------------------------------------------

// Condition evaluates node as a condition. It never panics and never
// returns an error: failures evaluate to false.
func (ip *Interpreter) Condition(node value.Value, this host.Receiver, env *Env) bool {
	if env == nil {
		env = NewEnv()
	}
	return ip.condition(node, this, env, true)
}

// Statement executes node for its effects
func (ip *Interpreter) Statement(node value.Value, this host.Receiver, env *Env) {
	if env == nil {
		env = NewEnv()
	}
	ip.statement(node, this, env, true)
}

// Expression evaluates node to a value. Nodes that match nothing come back
// unchanged.
func (ip *Interpreter) Expression(node value.Value, this host.Receiver, env *Env) value.Value {
	if env == nil {
		env = NewEnv()
	}
	return ip.expression(node, this, env, true)
}

// Log is the script log sink
func (ip *Interpreter) Log(message string, severity host.Severity) {
	ip.logger.Log(context.Background(), severity.Level(), message)
}

// ---------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------

// nameAndParams splits a node into its function name and params. A bare
// string is a call with no params.
func nameAndParams(node value.Value) (string, value.Value) {
	if s, ok := node.AsString(); ok {
		return s, value.Null()
	}
	nameVal, _ := node.Field("name")
	name, _ := nameVal.AsString()
	params, _ := node.Field("params")
	return name, params
}

// runFunc evaluates the node's "func" field for its side effects
func (ip *Interpreter) runFunc(node value.Value, this host.Receiver, env *Env) {
	fn, ok := node.Field("func")
	if !ok || fn.IsNull() {
		return
	}
	if items, isArr := fn.AsArray(); isArr {
		for _, item := range items {
			ip.expression(item, this, env, true)
		}
		return
	}
	ip.expression(fn, this, env, true)
}

func (ip *Interpreter) fail(mode string, node value.Value, err error) {
	ip.logger.Warn("script "+mode+" failed",
		slog.String("node", node.String()),
		slog.Any("error", err))
}

// scriptPanic carries a failure out of a strict interpreter. It has been
// logged already, so enclosing boundaries pass it on untouched.
type scriptPanic struct{ err error }

func (p scriptPanic) Error() string { return p.err.Error() }
func (p scriptPanic) Unwrap() error { return p.err }

// fault handles a recovered panic. In strict mode it propagates.
func (ip *Interpreter) fault(mode string, node value.Value, r any, propagate bool) {
	if p, ok := r.(scriptPanic); ok {
		if propagate {
			panic(p)
		}
		return
	}
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	ip.logger.Error("script "+mode+" panicked",
		slog.String("node", node.String()),
		slog.Any("error", err))
	if propagate && ip.strict {
		panic(scriptPanic{err})
	}
}
