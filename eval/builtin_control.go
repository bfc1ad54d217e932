package eval

import (
	"errors"
	"log/slog"
	"time"

	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/value"
)

var errZeroStep = errors.New("ForLoop step must not be zero")

func registerControl(t *builtinTable) {
	t.statement("Log", func(c *Call) error {
		msg, _ := c.Text(0, "message")
		sev, _ := c.Text(1, "severity")
		c.ip.Log(msg, host.ParseSeverity(sev))
		return nil
	})
	t.statement("Run", func(c *Call) error {
		if body, ok := c.Value(0, "func"); ok {
			c.Exec(body)
		}
		return nil
	})

	// variables
	t.condition("HasVariable", func(c *Call) (bool, error) {
		name, ok := c.Key(0, "name")
		return ok && c.Env.Has(name), nil
	})
	t.statement("CacheVariable", func(c *Call) error {
		cacheVariable(c)
		return nil
	})
	t.expression("CacheVariable", func(c *Call) (value.Value, error) {
		cacheVariable(c)
		return value.Null(), nil
	})
	t.expression("GetVariable", func(c *Call) (value.Value, error) {
		if name, ok := c.Key(0, "name"); ok {
			if v, found := c.Env.Get(name); found {
				return v, nil
			}
		}
		def, _ := c.Raw(1, "default")
		return c.Eval(def), nil
	})

	// receiver locals
	t.condition("ReceiverIs", func(c *Call) (bool, error) {
		name, ok := c.Key(0, "name")
		return ok && c.This != nil && c.This.ReceiverName() == name, nil
	})
	t.expression("ReceiverName", func(c *Call) (value.Value, error) {
		if c.This == nil {
			return value.Null(), nil
		}
		return value.String(c.This.ReceiverName()), nil
	})
	t.condition("LocalEquals", func(c *Call) (bool, error) {
		holder, ok := c.This.(host.VarHolder)
		if !ok {
			return false, nil
		}
		name, _ := c.Key(0, "name")
		want, _ := c.Value(1, "value")
		got, _ := holder.Var(name)
		return valuesEqual(got, want), nil
	})
	t.statement("SetLocal", func(c *Call) error {
		holder, ok := c.This.(host.VarHolder)
		if !ok {
			c.skip("receiver has no locals")
			return nil
		}
		name, ok := c.Key(0, "name")
		if !ok {
			return errors.New("SetLocal needs a name")
		}
		v, _ := c.Value(1, "value")
		holder.SetVar(name, v)
		return nil
	})
	t.expression("GetLocal", func(c *Call) (value.Value, error) {
		holder, ok := c.This.(host.VarHolder)
		if !ok {
			return value.Null(), nil
		}
		name, _ := c.Key(0, "name")
		v, _ := holder.Var(name)
		return v, nil
	})

	// loops and timers
	t.statement("ForLoop", func(c *Call) error {
		return forLoop(c, func(body value.Value, env *Env) {
			c.ip.statement(body, c.This, env, true)
		})
	})
	t.expression("ForLoop", func(c *Call) (value.Value, error) {
		var results []value.Value
		err := forLoop(c, func(body value.Value, env *Env) {
			results = append(results, c.ip.expression(body, c.This, env, true))
		})
		return value.Array(results...), err
	})
	t.statement("Wait", func(c *Call) error {
		sched := c.Host().Scheduler
		if sched == nil {
			c.skip("no scheduler")
			return nil
		}
		seconds, _ := c.Number(0, "seconds")
		body, ok := c.Raw(1, "func")
		if !ok {
			return nil
		}
		ip, this, snapshot := c.ip, c.This, c.Env.Clone()
		sched.After(time.Duration(seconds*float64(time.Second)), func() {
			ip.Statement(body, this, snapshot)
		})
		return nil
	})
}

func cacheVariable(c *Call) {
	name, ok := c.Key(0, "name")
	if !ok || name == "" {
		c.skip("no variable name")
		return
	}
	raw, _ := c.Raw(1, "value")
	c.Env.Set(name, c.Eval(raw))
}

// forLoop runs body once per counter value in [from, to) stepping by step.
// Each iteration gets a copy of the caller's environment with the counter
// bound, so bodies cannot leak variables into the caller.
func forLoop(c *Call, each func(body value.Value, env *Env)) error {
	from, ok := c.Number(0, "from")
	if !ok {
		from = 0
	}
	to, ok := c.Number(1, "to")
	if !ok {
		return errors.New("ForLoop needs a \"to\" bound")
	}
	body, _ := c.Raw(2, "func")
	counter, ok := c.Key(3, "var")
	if !ok || counter == "" {
		counter = "i"
	}
	step, ok := c.Number(4, "step")
	if !ok {
		step = 1
	}
	if step == 0 {
		return errZeroStep
	}

	n := 0
	for i := from; (step > 0 && i < to) || (step < 0 && i > to); i += step {
		if n >= c.ip.maxIterations {
			c.ip.logger.Warn("ForLoop stopped at the iteration cap",
				slog.Int("max", c.ip.maxIterations))
			break
		}
		env := c.Env.Clone()
		env.Set(counter, value.Number(i))
		each(body, env)
		n++
	}
	return nil
}
