package eval

import (
	"log/slog"
	"strings"

	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/value"
)

// redirect follows a node's func_reference. It reports false when the node
// has no reference or the path does not resolve, in which case the caller
// evaluates locally.
func (ip *Interpreter) redirect(node value.Value, this host.Receiver, env *Env) (*Interpreter, host.Receiver, bool) {
	ref, ok := node.Field("func_reference")
	if !ok || ref.IsNull() {
		return nil, nil, false
	}
	path, ok := ip.expression(ref, this, env, true).AsString()
	if !ok || path == "" {
		ip.logger.Debug("func_reference is not a path", slog.String("ref", ref.String()))
		return nil, nil, false
	}

	target, ok := ip.ResolvePath(path)
	if !ok {
		ip.logger.Debug("func_reference unresolved, evaluating locally", slog.String("path", path))
		return nil, nil, false
	}
	return ownerOf(target, ip), target, true
}

// ResolvePath walks a dotted reference path: the first segment names a
// domain in the host directory and each further segment a sub-receiver.
func (ip *Interpreter) ResolvePath(path string) (host.Receiver, bool) {
	dir := ip.host.Directory
	if dir == nil {
		return nil, false
	}
	segments := strings.Split(path, ".")
	r, ok := dir.Domain(segments[0])
	if !ok || r == nil {
		return nil, false
	}
	for _, seg := range segments[1:] {
		next := r.SubReceiver(seg)
		if next == nil {
			return nil, false
		}
		r = next
	}
	return r, true
}

func ownerOf(r host.Receiver, fallback *Interpreter) *Interpreter {
	if o, ok := r.(Owner); ok {
		if remote := o.Interpreter(); remote != nil {
			return remote
		}
	}
	return fallback
}
