package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/value"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuild(t *testing.T) {
	entries := value.MustParseJSON(`[
		{"name":"Greet","aliases":["Hello"],"sub_func":"Wave"},
		{"name":"IsAdult","condition":"True"},
		{"nope":true},
		"bare",
		{"name":"Greet","sub_func":"Bow"}
	]`)
	list, _ := entries.AsArray()

	table, problems := Build(list)
	if len(problems) != 3 {
		t.Errorf("expected 3 problems, got %d: %v", len(problems), problems)
	}
	if diff := cmp.Diff([]string{"Greet", "Hello", "IsAdult"}, table.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	greet, ok := table.Lookup("Greet")
	if !ok {
		t.Fatal("Greet missing")
	}
	if sub, _ := greet.Field("sub_func"); !sub.Equal(value.String("Bow")) {
		t.Errorf("later definition should win, got %v", sub)
	}
	hello, _ := table.Lookup("Hello")
	if sub, _ := hello.Field("sub_func"); !sub.Equal(value.String("Wave")) {
		t.Errorf("alias keeps the entry it was declared on, got %v", sub)
	}
}

func TestCatalogSwap(t *testing.T) {
	c := New()
	if _, ok := c.Lookup("A"); ok {
		t.Fatal("new catalog should be empty")
	}

	first := c.Replace([]value.Value{value.MustParseJSON(`{"name":"A"}`)}, quietLogger())
	held := c.Snapshot()
	c.Replace([]value.Value{value.MustParseJSON(`{"name":"B"}`)}, quietLogger())

	if _, ok := held.Lookup("A"); !ok || held != first {
		t.Error("held snapshot must keep the old table")
	}
	if _, ok := c.Lookup("A"); ok {
		t.Error("A should be gone after reload")
	}
	if _, ok := c.Lookup("B"); !ok {
		t.Error("B should be present after reload")
	}

	var nilCatalog *Catalog
	if _, ok := nilCatalog.Lookup("A"); ok {
		t.Error("nil catalog should be empty")
	}
}

func TestLoader(t *testing.T) {
	assets := host.FSAssets{FS: fstest.MapFS{
		"functions/common.json": {Data: []byte(`[{"name":"Greet","value":"hi"},{"name":"Shared","value":"json"}]`)},
		"functions/story.yaml": {Data: []byte(`
functions:
  - name: Shared
    value: yaml
  - name: Title
    aliases: [Heading]
    value: "Chapter {{n}}"
`)},
	}}

	l := &Loader{
		Assets: assets,
		Paths:  []string{"functions/common.json", "functions/missing.json", "functions/story.yaml"},
		Logger: quietLogger(),
	}
	table, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if diff := cmp.Diff([]string{"Greet", "Heading", "Shared", "Title"}, table.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	shared, _ := table.Lookup("Shared")
	if v, _ := shared.Field("value"); !v.Equal(value.String("yaml")) {
		t.Errorf("later file should win, got %v", v)
	}
}

func TestLoaderKeepsOldTableOnError(t *testing.T) {
	fsys := fstest.MapFS{
		"fns.json": {Data: []byte(`[{"name":"A"}]`)},
	}
	c := New()
	l := &Loader{Assets: host.FSAssets{FS: fsys}, Paths: []string{"fns.json"}, Logger: quietLogger()}

	if _, err := l.Reload(context.Background(), c); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	fsys["fns.json"] = &fstest.MapFile{Data: []byte(`[{"name":`)}
	if _, err := l.Reload(context.Background(), c); err == nil {
		t.Fatal("expected decode error")
	}
	if _, ok := c.Lookup("A"); !ok {
		t.Error("failed reload must keep the previous table")
	}
}

// Every table published pairs name fN with alias aliasN. Readers must never
// see one without the other while reloads run.
func TestConcurrentReloadIsAtomic(t *testing.T) {
	c := New()
	build := func(gen int) []value.Value {
		entries := make([]value.Value, 0, 20)
		for i := 0; i < 20; i++ {
			entries = append(entries, value.MustParseJSON(
				fmt.Sprintf(`{"name":"f%d_%d","aliases":["alias%d_%d"],"value":%d}`, gen, i, gen, i, gen)))
		}
		return entries
	}
	c.Replace(build(0), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		for gen := 1; gen <= 200; gen++ {
			c.Replace(build(gen), quietLogger())
		}
		return nil
	})

	for r := 0; r < 4; r++ {
		g.Go(func() error {
			for ctx.Err() == nil {
				snap := c.Snapshot()
				for _, name := range snap.Names() {
					var gen, i int
					if _, err := fmt.Sscanf(name, "f%d_%d", &gen, &i); err != nil {
						continue
					}
					if _, ok := snap.Lookup(fmt.Sprintf("alias%d_%d", gen, i)); !ok {
						return fmt.Errorf("table has %s without its alias", name)
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
