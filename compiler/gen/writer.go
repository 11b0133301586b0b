package gen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// write renders every entity of g into cfg.Target in parallel.
func write(ctx context.Context, cfg *Config, g *Graph) error {
	if err := os.MkdirAll(cfg.Target, 0o755); err != nil {
		return NewGenerationError(cfg.Target, "create target directory", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Workers)
	for _, e := range g.Entities {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return writeEntity(cfg, e)
			}
		})
	}
	return eg.Wait()
}

// writeEntity renders, formats and writes the file of one entity.
func writeEntity(cfg *Config, e *Entity) error {
	var buf bytes.Buffer
	if err := Render(cfg, e).Render(&buf); err != nil {
		return NewGenerationError(e.File, "render "+e.Name, err)
	}
	path := filepath.Join(cfg.Target, e.File)
	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		// Keep the unformatted output next to the target for debugging.
		debugPath := path + ".error"
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return NewGenerationError(e.File, "format (unformatted written to "+debugPath+")", err)
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return NewGenerationError(e.File, "write", err)
	}
	return nil
}
