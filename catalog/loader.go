package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/value"
)

// Loader reads user function files through the host asset lookup
type Loader struct {
	Assets host.Assets
	Paths  []string
	Logger *slog.Logger
	// Concurrency bounds parallel reads; zero means 4
	Concurrency int
}

// Load reads and decodes every path and builds a table. Files that do not
// exist are skipped with a warning; a file that fails to decode fails the
// whole load so a broken content pack never replaces a working table.
func (l *Loader) Load(ctx context.Context) (*Table, error) {
	logger := l.logger()
	if l.Assets == nil {
		return nil, errors.New("catalog loader: no asset source")
	}

	docs := make([][]value.Value, len(l.Paths))

	g, ctx := errgroup.WithContext(ctx)
	limit := l.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)

	for i, p := range l.Paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := l.Assets.ReadAsset(p)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					logger.Warn("function file not found", slog.String("path", p))
					return nil
				}
				return fmt.Errorf("read %s: %w", p, err)
			}
			doc, err := value.Parse(p, data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", p, err)
			}
			entries, err := entriesOf(doc)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			docs[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// merge in path order so later files win deterministically
	var all []value.Value
	for _, entries := range docs {
		all = append(all, entries...)
	}
	t, problems := Build(all)
	logProblems(logger, problems)
	logger.Debug("user functions loaded",
		slog.Int("files", len(l.Paths)),
		slog.Int("names", t.Len()))
	return t, nil
}

// Reload loads a fresh table and swaps it into c. On error c is untouched.
func (l *Loader) Reload(ctx context.Context, c *Catalog) (*Table, error) {
	t, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.Swap(t)
	return t, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// entriesOf accepts an array of entries, a {"functions": [...]} wrapper or
// a single named entry.
func entriesOf(doc value.Value) ([]value.Value, error) {
	switch doc.Kind() {
	case value.KindArray:
		items, _ := doc.AsArray()
		return items, nil
	case value.KindObject:
		if fns, ok := doc.Field("functions"); ok {
			items, isArr := fns.AsArray()
			if !isArr {
				return nil, fmt.Errorf("functions must be an array, got %s", fns.Kind())
			}
			return items, nil
		}
		return []value.Value{doc}, nil
	case value.KindNull:
		return nil, nil
	}
	return nil, fmt.Errorf("expected an array of functions, got %s", doc.Kind())
}
