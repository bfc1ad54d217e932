// Package catalog holds the user-defined function tier: named nodes loaded
// from content files. Tables are immutable; a reload builds a new table and
// swaps it in atomically, so evaluations never observe a half-built table.
package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/LingHeChen/nodescript/value"
)

// Table is an immutable set of user functions keyed by name and alias
type Table struct {
	entries map[string]value.Value
	names   []string
}

var emptyTable = &Table{entries: map[string]value.Value{}}

// Build creates a table from function entries. Each entry is an object with
// a string "name" and an optional "aliases" array. Malformed entries are
// skipped and returned as problems; later entries replace earlier ones.
func Build(entries []value.Value) (*Table, []error) {
	t := &Table{entries: make(map[string]value.Value, len(entries))}
	var problems []error

	for i, entry := range entries {
		name, err := entryName(entry)
		if err != nil {
			problems = append(problems, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		if _, dup := t.entries[name]; dup {
			problems = append(problems, fmt.Errorf("entry %d: %q redefined", i, name))
		} else {
			t.names = append(t.names, name)
		}
		t.entries[name] = entry

		aliases, _ := entry.Field("aliases")
		list, _ := aliases.AsArray()
		for _, a := range list {
			alias, ok := a.AsString()
			if !ok || alias == "" {
				problems = append(problems, fmt.Errorf("entry %q: alias must be a non-empty string, got %v", name, a))
				continue
			}
			if _, dup := t.entries[alias]; !dup {
				t.names = append(t.names, alias)
			}
			t.entries[alias] = entry
		}
	}
	return t, problems
}

func entryName(entry value.Value) (string, error) {
	if !entry.IsObject() {
		return "", fmt.Errorf("expected object, got %s", entry.Kind())
	}
	nameVal, ok := entry.Field("name")
	if !ok {
		return "", fmt.Errorf("missing name")
	}
	name, ok := nameVal.AsString()
	if !ok || name == "" {
		return "", fmt.Errorf("name must be a non-empty string, got %v", nameVal)
	}
	return name, nil
}

// Lookup finds a function by name or alias
func (t *Table) Lookup(name string) (value.Value, bool) {
	if t == nil {
		return value.Null(), false
	}
	v, ok := t.entries[name]
	return v, ok
}

// Len is the number of names (including aliases)
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Names lists every name and alias, sorted
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	out := append([]string(nil), t.names...)
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------
// Catalog
// ---------------------------------------------------------

// Catalog publishes the current table to concurrent readers
type Catalog struct {
	current atomic.Pointer[Table]
}

// New creates a catalog holding an empty table
func New() *Catalog {
	c := &Catalog{}
	c.current.Store(emptyTable)
	return c
}

// Snapshot returns the table in effect right now. Callers that need several
// lookups to agree should hold on to one snapshot.
func (c *Catalog) Snapshot() *Table {
	if c == nil {
		return emptyTable
	}
	if t := c.current.Load(); t != nil {
		return t
	}
	return emptyTable
}

// Lookup finds name in the current table
func (c *Catalog) Lookup(name string) (value.Value, bool) {
	return c.Snapshot().Lookup(name)
}

// Swap installs t and returns the previous table
func (c *Catalog) Swap(t *Table) *Table {
	if t == nil {
		t = emptyTable
	}
	return c.current.Swap(t)
}

// Replace builds a table from entries and swaps it in, logging problems
func (c *Catalog) Replace(entries []value.Value, logger *slog.Logger) *Table {
	t, problems := Build(entries)
	logProblems(logger, problems)
	c.Swap(t)
	return t
}

func logProblems(logger *slog.Logger, problems []error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, p := range problems {
		logger.Warn("user catalog", slog.Any("problem", p))
	}
}
