package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/LingHeChen/nodescript/eval"
	"github.com/LingHeChen/nodescript/value"
)

const (
	historyFile = ".nodescript_history"
	promptCont  = "... "
)

const replHelp = `
Commands:
  :mode <condition|statement|expression>   switch evaluation mode
  :env                                     show session variables
  :clear                                   drop session variables
  :funcs                                   list built-in and user functions
  :reload                                  reload user function files (also on SIGHUP)
  :quit                                    exit
`

func (s *session) repl(form eval.Form, stdout, stderr io.Writer) int {
	fmt.Fprintf(stdout, "nodescript %s\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.\n", version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		for range sigc {
			if err := s.reload(context.Background()); err != nil {
				s.logger.Error("reload failed", "error", err)
			}
		}
	}()

	for {
		src, ok := readNode(ln, promptFor(form))
		if !ok {
			fmt.Fprintln(stdout)
			return 0
		}
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(src, ":") {
			if quit := s.command(src, &form, stdout, stderr); quit {
				return 0
			}
			continue
		}

		out, err := s.evaluate(form, parseInline(src))
		if err != nil {
			fmt.Fprintf(stderr, "\033[31m%v\033[0m\n", err)
			continue
		}
		if form == eval.FormStatement {
			continue
		}
		fmt.Fprintln(stdout, out.Indent())
	}
}

// command runs a REPL command and reports whether to exit
func (s *session) command(line string, form *eval.Form, stdout, stderr io.Writer) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprint(stdout, replHelp)
	case ":mode":
		f, ok := parseForm(arg)
		if !ok {
			fmt.Fprintf(stderr, "unknown mode %q\n", arg)
			break
		}
		*form = f
	case ":env":
		fmt.Fprintln(stdout, s.env.Value().Indent())
	case ":clear":
		s.env = eval.NewEnv()
	case ":funcs":
		for _, f := range []eval.Form{eval.FormCondition, eval.FormStatement, eval.FormExpression} {
			fmt.Fprintf(stdout, "%s: %s\n", f, strings.Join(eval.BuiltinNames(f), " "))
		}
		fmt.Fprintf(stdout, "user: %s\n", strings.Join(s.ip.Catalog().Snapshot().Names(), " "))
	case ":reload":
		if err := s.reload(context.Background()); err != nil {
			fmt.Fprintf(stderr, "\033[31m%v\033[0m\n", err)
		}
	default:
		fmt.Fprintln(stderr, "unknown command. Type :help for commands.")
	}
	return false
}

func promptFor(form eval.Form) string {
	return form.String() + "> "
}

// readNode reads lines until the brackets of a JSON node balance
func readNode(ln *liner.State, prompt string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = promptCont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}

// incomplete reports whether src opens more brackets or strings than it
// closes. Commands are always complete.
func incomplete(src string) bool {
	if strings.HasPrefix(strings.TrimSpace(src), ":") {
		return false
	}
	depth := 0
	inStr := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inStr {
			switch c {
			case '\\':
				i++
			case '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
	}
	if depth > 0 || inStr {
		_, err := value.ParseJSON([]byte(src))
		return err != nil
	}
	return false
}
