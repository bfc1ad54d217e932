package eval

import (
	"strconv"

	"github.com/LingHeChen/nodescript/host"
)

// resolver feeds template substitution from the environment, the receiver
// and the host.
type resolver struct {
	ip   *Interpreter
	this host.Receiver
	env  *Env
}

// Lookup resolves {{Name}}: environment first, then receiver locals, then
// host tokens.
func (r *resolver) Lookup(name string) (string, bool) {
	if v, ok := r.env.Get(name); ok {
		return v.Text(), true
	}
	if holder, ok := r.this.(host.VarHolder); ok {
		if v, found := holder.Var(name); found {
			return v.Text(), true
		}
	}
	if tokens := r.ip.host.Tokens; tokens != nil {
		return tokens.Token(name)
	}
	return "", false
}

// Macro resolves <setting=Key>, <save=Key>, <var=Name>, <local=Name> and
// <loc=Key>.
func (r *resolver) Macro(tag, arg string) (string, bool) {
	h := r.ip.host
	switch tag {
	case "setting":
		if h.Settings == nil {
			return "", false
		}
		if b, ok := h.Settings.Bool(arg); ok {
			return strconv.FormatBool(b), true
		}
		if n, ok := h.Settings.Int(arg); ok {
			return strconv.Itoa(n), true
		}
	case "save":
		if h.Store == nil {
			return "", false
		}
		if v, ok := h.Store.Get(arg); ok {
			return v.Text(), true
		}
	case "var":
		if v, ok := r.env.Get(arg); ok {
			return v.Text(), true
		}
	case "local":
		if holder, ok := r.this.(host.VarHolder); ok {
			if v, found := holder.Var(arg); found {
				return v.Text(), true
			}
		}
	case "loc":
		if h.Localizer != nil {
			return h.Localizer.Localize(arg)
		}
	}
	return "", false
}
