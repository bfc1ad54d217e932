package eval

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/value"
)

var errNoKey = errors.New("missing key")

func registerHost(t *builtinTable) {
	registerSettings(t)
	registerSaves(t)
	registerProgress(t)
	registerAssets(t)

	t.statement("LoadScene", func(c *Call) error {
		nav := c.Host().Navigator
		if nav == nil {
			c.skip("no navigator")
			return nil
		}
		scene, ok := c.Text(0, "scene")
		if !ok {
			return errors.New("LoadScene needs a scene")
		}
		return nav.LoadScene(scene)
	})
	t.statement("OpenURL", func(c *Call) error {
		launcher := c.Host().Launcher
		if launcher == nil {
			c.skip("no launcher")
			return nil
		}
		url, ok := c.Text(0, "url")
		if !ok {
			return errors.New("OpenURL needs a url")
		}
		return launcher.OpenURL(url)
	})
	t.statement("Notify", func(c *Call) error {
		n := c.Host().Notifier
		if n == nil {
			c.skip("no notifier")
			return nil
		}
		msg, _ := c.Text(0, "message")
		sev, _ := c.Text(1, "severity")
		n.Notify(msg, host.ParseSeverity(sev))
		return nil
	})

	t.condition("Chance", func(c *Call) (bool, error) {
		rng := c.Host().Random
		p, ok := c.Number(0, "probability")
		if rng == nil || !ok {
			return false, nil
		}
		return rng.Float64() < p, nil
	})
	t.expression("Random", func(c *Call) (value.Value, error) {
		rng := c.Host().Random
		if rng == nil {
			return value.Null(), nil
		}
		lo, ok := c.Number(0, "min")
		if !ok {
			lo = 0
		}
		hi, ok := c.Number(1, "max")
		if !ok {
			hi = 1
		}
		return value.Number(lo + rng.Float64()*(hi-lo)), nil
	})
	// RandomInt draws from [min, max)
	t.expression("RandomInt", func(c *Call) (value.Value, error) {
		rng := c.Host().Random
		if rng == nil {
			return value.Null(), nil
		}
		lo, _ := c.Int(0, "min")
		hi, ok := c.Int(1, "max")
		if !ok || hi <= lo {
			return value.Int(lo), nil
		}
		return value.Int(lo + rng.IntN(hi-lo)), nil
	})

	t.expression("Version", func(c *Call) (value.Value, error) {
		return value.String(c.Host().Version), nil
	})
	t.condition("VersionAtLeast", versionGate(func(cmp int) bool { return cmp >= 0 }))
	t.condition("VersionBelow", versionGate(func(cmp int) bool { return cmp < 0 }))
}

// ---------------------------------------------------------
// Settings
// ---------------------------------------------------------

func registerSettings(t *builtinTable) {
	t.condition("Setting", func(c *Call) (bool, error) {
		s := c.Host().Settings
		key, ok := c.Key(0, "key")
		if s == nil || !ok {
			return false, nil
		}
		if b, found := s.Bool(key); found {
			return b, nil
		}
		n, _ := s.Int(key)
		return n != 0, nil
	})
	t.statement("SetBool", func(c *Call) error {
		s := c.Host().Settings
		if s == nil {
			c.skip("no settings")
			return nil
		}
		key, ok := c.Key(0, "key")
		if !ok {
			return errNoKey
		}
		s.SetBool(key, c.Truth(1, "value"))
		return nil
	})
	t.statement("SetInt", func(c *Call) error {
		s := c.Host().Settings
		if s == nil {
			c.skip("no settings")
			return nil
		}
		key, ok := c.Key(0, "key")
		if !ok {
			return errNoKey
		}
		n, ok := c.Int(1, "value")
		if !ok {
			return fmt.Errorf("SetInt %s: value is not a number", key)
		}
		s.SetInt(key, n)
		return nil
	})
	t.expression("GetBool", func(c *Call) (value.Value, error) {
		s := c.Host().Settings
		key, ok := c.Key(0, "key")
		if s != nil && ok {
			if b, found := s.Bool(key); found {
				return value.Bool(b), nil
			}
		}
		return fallback(c), nil
	})
	t.expression("GetInt", func(c *Call) (value.Value, error) {
		s := c.Host().Settings
		key, ok := c.Key(0, "key")
		if s != nil && ok {
			if n, found := s.Int(key); found {
				return value.Int(n), nil
			}
		}
		return fallback(c), nil
	})
}

// fallback evaluates the "default" parameter of a getter
func fallback(c *Call) value.Value {
	def, _ := c.Raw(1, "default")
	return c.Eval(def)
}

// ---------------------------------------------------------
// Saves
// ---------------------------------------------------------

func registerSaves(t *builtinTable) {
	save := func(convert func(c *Call) (value.Value, error)) StatementFunc {
		return func(c *Call) error {
			store := c.Host().Store
			if store == nil {
				c.skip("no store")
				return nil
			}
			key, ok := c.Key(0, "key")
			if !ok {
				return errNoKey
			}
			v, err := convert(c)
			if err != nil {
				return fmt.Errorf("%s %s: %w", c.Name, key, err)
			}
			return store.Set(key, v)
		}
	}
	t.statement("SaveBool", save(func(c *Call) (value.Value, error) {
		return value.Bool(c.Truth(1, "value")), nil
	}))
	t.statement("SaveInt", save(func(c *Call) (value.Value, error) {
		n, ok := c.Int(1, "value")
		if !ok {
			return value.Null(), errors.New("value is not a number")
		}
		return value.Int(n), nil
	}))
	t.statement("SaveFloat", save(func(c *Call) (value.Value, error) {
		n, ok := c.Number(1, "value")
		if !ok {
			return value.Null(), errors.New("value is not a number")
		}
		return value.Number(n), nil
	}))
	t.statement("SaveString", save(func(c *Call) (value.Value, error) {
		s, _ := c.Text(1, "value")
		return value.String(s), nil
	}))
	// SaveNode stores the node itself, unevaluated
	t.statement("SaveNode", save(func(c *Call) (value.Value, error) {
		v, _ := c.Raw(1, "value")
		return v, nil
	}))
	t.statement("DeleteSave", func(c *Call) error {
		store := c.Host().Store
		if store == nil {
			c.skip("no store")
			return nil
		}
		key, ok := c.Key(0, "key")
		if !ok {
			return errNoKey
		}
		return store.Delete(key)
	})

	t.condition("SaveExists", func(c *Call) (bool, error) {
		_, ok := loadSave(c)
		return ok, nil
	})
	t.condition("LoadBool", func(c *Call) (bool, error) {
		v, _ := loadSave(c)
		return v.Truthy(), nil
	})
	t.expression("LoadBool", func(c *Call) (value.Value, error) {
		if v, ok := loadSave(c); ok {
			return value.Bool(v.Truthy()), nil
		}
		return fallback(c), nil
	})
	t.expression("LoadInt", func(c *Call) (value.Value, error) {
		if v, ok := loadSave(c); ok {
			if n, isNum := v.ToNumber(); isNum {
				return value.Int(int(n)), nil
			}
		}
		return fallback(c), nil
	})
	t.expression("LoadFloat", func(c *Call) (value.Value, error) {
		if v, ok := loadSave(c); ok {
			if n, isNum := v.ToNumber(); isNum {
				return value.Number(n), nil
			}
		}
		return fallback(c), nil
	})
	t.expression("LoadString", func(c *Call) (value.Value, error) {
		if v, ok := loadSave(c); ok {
			return value.String(v.Text()), nil
		}
		return fallback(c), nil
	})
	t.expression("LoadNode", func(c *Call) (value.Value, error) {
		if v, ok := loadSave(c); ok {
			return v, nil
		}
		return fallback(c), nil
	})
}

func loadSave(c *Call) (value.Value, bool) {
	store := c.Host().Store
	key, ok := c.Key(0, "key")
	if store == nil || !ok {
		return value.Null(), false
	}
	return store.Get(key)
}

// ---------------------------------------------------------
// Progress
// ---------------------------------------------------------

func registerProgress(t *builtinTable) {
	t.condition("LevelCompleted", func(c *Call) (bool, error) {
		p := c.Host().Progress
		level, ok := c.Key(0, "level")
		return p != nil && ok && p.LevelCompleted(level), nil
	})
	t.condition("RankAtLeast", func(c *Call) (bool, error) {
		p := c.Host().Progress
		level, ok := c.Key(0, "level")
		if p == nil || !ok {
			return false, nil
		}
		want, ok := c.Int(1, "rank")
		if !ok {
			return false, nil
		}
		got, found := p.Rank(level)
		return found && got >= want, nil
	})
	t.expression("Rank", func(c *Call) (value.Value, error) {
		p := c.Host().Progress
		level, ok := c.Key(0, "level")
		if p == nil || !ok {
			return value.Null(), nil
		}
		if r, found := p.Rank(level); found {
			return value.Int(r), nil
		}
		return value.Null(), nil
	})
}

// ---------------------------------------------------------
// Assets
// ---------------------------------------------------------

func registerAssets(t *builtinTable) {
	t.condition("AssetExists", func(c *Call) (bool, error) {
		assets := c.Host().Assets
		path, ok := c.Text(0, "path")
		if assets == nil || !ok {
			return false, nil
		}
		_, err := assets.ReadAsset(path)
		return err == nil, nil
	})
	t.expression("Asset", func(c *Call) (value.Value, error) {
		data, ok, err := readAsset(c)
		if !ok || err != nil {
			return value.Null(), err
		}
		return value.String(string(data)), nil
	})
	t.expression("AssetNode", func(c *Call) (value.Value, error) {
		path, _ := c.Text(0, "path")
		data, ok, err := readAsset(c)
		if !ok || err != nil {
			return value.Null(), err
		}
		v, err := value.Parse(path, data)
		if err != nil {
			return value.Null(), fmt.Errorf("asset %s: %w", path, err)
		}
		return v, nil
	})
}

// readAsset reports false when there is no asset source to read from
func readAsset(c *Call) ([]byte, bool, error) {
	assets := c.Host().Assets
	if assets == nil {
		c.skip("no asset source")
		return nil, false, nil
	}
	path, ok := c.Text(0, "path")
	if !ok {
		return nil, false, errors.New("missing asset path")
	}
	data, err := assets.ReadAsset(path)
	return data, true, err
}

// ---------------------------------------------------------
// Version gates
// ---------------------------------------------------------

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func versionGate(accept func(cmp int) bool) ConditionFunc {
	return func(c *Call) (bool, error) {
		want, ok := c.Text(0, "version")
		if !ok {
			return false, nil
		}
		running, target := canonicalVersion(c.Host().Version), canonicalVersion(want)
		if !semver.IsValid(running) || !semver.IsValid(target) {
			return false, fmt.Errorf("invalid version comparison %q against %q", c.Host().Version, want)
		}
		return accept(semver.Compare(running, target)), nil
	}
}
