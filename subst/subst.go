// Package subst expands inline macros in authored text:
//
//	{{Name}}      token lookup through a Resolver
//	{{$HOME}}     process environment variable
//	<tag=arg>     tagged macro, e.g. <setting=Volume>, <save=PlayerName>
//
// Anything that does not resolve is left exactly as written, so rich-text
// markup such as <color=red> passes through untouched.
package subst

import (
	"os"
	"regexp"
	"strings"
)

// Resolver supplies values for tokens and tagged macros
type Resolver interface {
	// Lookup resolves a {{Name}} token
	Lookup(name string) (string, bool)
	// Macro resolves a <tag=arg> macro
	Macro(tag, arg string) (string, bool)
}

// token reference: {{name}} or {{$ENV_VAR}}
var tokenRegex = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// tagged macro: <tag=argument>
var macroRegex = regexp.MustCompile(`<([a-zA-Z_][a-zA-Z0-9_]*)=([^<>]*)>`)

// localization shape: the whole string is loc:<key>
var locRegex = regexp.MustCompile(`^loc:([A-Za-z0-9_.\-/]+)$`)

// Expand substitutes tokens and macros in s. A nil resolver only expands
// environment variables.
func Expand(s string, r Resolver) string {
	if !strings.Contains(s, "{{") && !strings.Contains(s, "<") {
		return s
	}

	s = tokenRegex.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])

		if strings.HasPrefix(name, "$") {
			if val, ok := os.LookupEnv(name[1:]); ok {
				return val
			}
			return match
		}

		if r != nil {
			if val, ok := r.Lookup(name); ok {
				return val
			}
		}
		return match
	})

	if r == nil {
		return s
	}

	return macroRegex.ReplaceAllStringFunc(s, func(match string) string {
		parts := macroRegex.FindStringSubmatch(match)
		if val, ok := r.Macro(parts[1], strings.TrimSpace(parts[2])); ok {
			return val
		}
		return match
	})
}

// LocalizationKey reports whether s has the localization shape loc:<key>
// and returns the key.
func LocalizationKey(s string) (string, bool) {
	m := locRegex.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Map is a Resolver backed by plain maps, handy for tests and fixed tables
type Map struct {
	Tokens map[string]string
	Macros map[string]map[string]string
}

func (m Map) Lookup(name string) (string, bool) {
	v, ok := m.Tokens[name]
	return v, ok
}

func (m Map) Macro(tag, arg string) (string, bool) {
	v, ok := m.Macros[tag][arg]
	return v, ok
}
