package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/LingHeChen/nodescript/config"
	"github.com/LingHeChen/nodescript/eval"
	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/value"
)

const version = "0.1.0"

const usage = `nodescript - run JSON node scripts

Usage:
  nodescript [flags] <script.json|script.yaml>   run a script file
  nodescript [flags] -                           read the script from stdin
  nodescript [flags] -e '<node>'                 run an inline node
  nodescript -p <script>                         decode only, print as JSON
  nodescript --repl                              interactive session

Examples:
  # expression mode
  nodescript -m expression -e '{"name":"Upper","params":["hello"]}'

  # condition mode, variables bound from the command line
  nodescript -m condition --var level=12 -e '{"name":"Greater","params":["level",10]}'

  # statements against a configured world and user functions
  nodescript -c game.toml -f functions/common.json --receiver Level.Player intro.yaml

Script nodes:
  "Name"                                   call with no params
  {"name":"Name","params":[...]}           call with positional params
  {"name":"Name","params":{"k":...}}       call with named params
  {"func_reference":"Level.Player", ...}   run against another receiver
  [node, node, ...]                        AND chain / statement sequence

Flags:
`

// options collects the command line
type options struct {
	inline     string
	mode       string
	configPath string
	receiver   string
	functions  []string
	vars       []string
	parseOnly  bool
	repl       bool
	version    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var o options
	fs := pflag.NewFlagSet("nodescript", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.inline, "eval", "e", "", "run an inline node (JSON, or a bare function name)")
	fs.StringVarP(&o.mode, "mode", "m", "statement", "evaluation mode: condition, statement or expression")
	fs.StringVarP(&o.configPath, "config", "c", "", "TOML configuration file")
	fs.StringVarP(&o.receiver, "receiver", "r", "", "dotted path of the receiver scripts run against")
	fs.StringArrayVarP(&o.functions, "functions", "f", nil, "user function file, JSON or YAML (repeatable)")
	fs.StringArrayVar(&o.vars, "var", nil, "bind name=value; the value is read as JSON when it parses (repeatable)")
	fs.BoolVarP(&o.parseOnly, "parse", "p", false, "decode the script and print it as JSON without running it")
	fs.BoolVar(&o.repl, "repl", false, "start an interactive session")
	fs.BoolVarP(&o.version, "version", "v", false, "print the version")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if o.version {
		fmt.Fprintf(stdout, "nodescript version %s\n", version)
		return 0
	}
	form, ok := parseForm(o.mode)
	if !ok {
		return fail(stderr, "unknown mode %q", o.mode)
	}

	if !o.repl && o.inline == "" && fs.NArg() == 0 {
		fs.Usage()
		return 0
	}

	script, err := readScript(o.inline, fs.Args(), stdin)
	if err != nil && !o.repl {
		return fail(stderr, "%v", err)
	}
	if o.parseOnly {
		fmt.Fprintln(stdout, script.Indent())
		return 0
	}

	sess, err := newSession(o, stderr)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	if o.repl {
		return sess.repl(form, stdout, stderr)
	}

	out, err := sess.evaluate(form, script)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	fmt.Fprintln(stdout, out.Indent())
	return 0
}

func fail(w io.Writer, format string, args ...any) int {
	fmt.Fprintf(w, "\033[31m"+format+"\033[0m\n", args...)
	return 1
}

func parseForm(mode string) (eval.Form, bool) {
	switch strings.ToLower(mode) {
	case "condition", "cond", "c":
		return eval.FormCondition, true
	case "statement", "stmt", "s":
		return eval.FormStatement, true
	case "expression", "expr", "e":
		return eval.FormExpression, true
	}
	return 0, false
}

// readScript decodes the inline node, stdin ("-") or the named file
func readScript(inline string, args []string, stdin io.Reader) (value.Value, error) {
	if inline != "" {
		return parseInline(inline), nil
	}
	if len(args) == 0 {
		return value.Null(), errors.New("no input")
	}
	if args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return value.Null(), fmt.Errorf("read stdin: %w", err)
		}
		return value.ParseJSON(data)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return value.Null(), fmt.Errorf("read script: %w", err)
	}
	v, err := value.Parse(args[0], data)
	if err != nil {
		return value.Null(), fmt.Errorf("decode %s: %w", args[0], err)
	}
	return v, nil
}

// parseInline reads src as JSON; anything else is a bare function name
func parseInline(src string) value.Value {
	v, err := value.ParseJSON([]byte(src))
	if err != nil {
		return value.String(strings.TrimSpace(src))
	}
	return v
}

// ---------------------------------------------------------
// Session
// ---------------------------------------------------------

// session is one configured interpreter with a persistent environment
type session struct {
	ip     *eval.Interpreter
	host   *host.Host
	reload func(context.Context) error
	this   host.Receiver
	env    *eval.Env
	logger *slog.Logger
}

func newSession(o options, stderr io.Writer) (*session, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	cfg.Assets.Functions = append(cfg.Assets.Functions, o.functions...)

	logger, err := cfg.Logger(stderr)
	if err != nil {
		return nil, err
	}
	h, err := cfg.Host(logger)
	if err != nil {
		return nil, err
	}

	vars, err := splitVars(o.vars)
	if err != nil {
		return nil, err
	}
	opts := append(cfg.Options(), eval.WithHost(h), eval.WithLogger(logger))
	ip := eval.New(opts...)

	s := &session{ip: ip, host: h, env: config.Vars(vars), logger: logger}

	assets := h.Assets
	if assets == nil {
		assets = host.DirAssets(".")
	}
	loader := cfg.Loader(assets, logger)
	s.reload = func(ctx context.Context) error {
		if len(loader.Paths) == 0 {
			return nil
		}
		t, err := loader.Reload(ctx, ip.Catalog())
		if err != nil {
			return err
		}
		logger.Info("user functions reloaded", slog.Int("names", t.Len()))
		return nil
	}
	if err := s.reload(context.Background()); err != nil {
		return nil, err
	}

	if o.receiver != "" {
		r, ok := ip.ResolvePath(o.receiver)
		if !ok {
			return nil, fmt.Errorf("receiver %s not found", o.receiver)
		}
		s.this = r
	}
	return s, nil
}

func splitVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--var %q: want name=value", p)
		}
		vars[name] = raw
	}
	return vars, nil
}

// evaluate runs script in the given mode. Statement mode reports the session
// variables once deferred bodies have run.
func (s *session) evaluate(form eval.Form, script value.Value) (out value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()

	switch form {
	case eval.FormCondition:
		return value.Bool(s.ip.Condition(script, s.this, s.env)), nil
	case eval.FormExpression:
		return s.ip.Expression(script, s.this, s.env), nil
	}
	s.ip.Statement(script, s.this, s.env)
	s.drain()
	return s.env.Value(), nil
}

// drain runs Wait bodies queued on a manual scheduler
func (s *session) drain() {
	if m, ok := s.host.Scheduler.(*host.ManualScheduler); ok {
		if n := m.Drain(); n > 0 {
			s.logger.Debug("deferred statements ran", slog.Int("count", n))
		}
		if left := m.Pending(); left > 0 {
			s.logger.Warn("deferred statements dropped", slog.Int("count", left))
		}
	}
}
