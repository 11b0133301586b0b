package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/reposql/compiler/gen"
	"github.com/syssam/reposql/compiler/load"
)

type genFlags struct {
	target  string
	pkg     string
	header  string
	workers int
	watch   bool
}

func newGenCmd(g *globals) *cobra.Command {
	f := &genFlags{}
	cmd := &cobra.Command{
		Use:   "gen PATH",
		Short: "Generate entity structs and their registrations from entity descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []gen.Option{gen.WithTarget(f.target), gen.WithHeader(f.header)}
			if f.pkg != "" {
				opts = append(opts, gen.WithPackage(f.pkg))
			}
			if f.workers > 0 {
				opts = append(opts, gen.WithWorkers(f.workers))
			}
			run := func(ctx context.Context) error {
				specs, err := load.Path(args[0])
				if err != nil {
					return err
				}
				if err := gen.Generate(ctx, specs, opts...); err != nil {
					return err
				}
				g.log.Info("generated", "entities", len(specs), "target", f.target)
				return nil
			}
			if !f.watch {
				return run(cmd.Context())
			}
			if err := run(cmd.Context()); err != nil {
				g.log.Error("generate", "err", err)
			}
			return watch(cmd.Context(), g, args[0], run)
		},
	}
	cmd.Flags().StringVarP(&f.target, "target", "t", "entity", "output directory")
	cmd.Flags().StringVar(&f.pkg, "package", "", "package name (default: base name of the target)")
	cmd.Flags().StringVar(&f.header, "header", gen.DefaultHeader, "header comment of generated files")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "files rendered in parallel (default: GOMAXPROCS)")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "regenerate whenever a description changes")
	return cmd
}

// debounce coalesces the burst of events editors emit for one save.
const debounce = 200 * time.Millisecond

// watch reruns run after changes to the YAML files under path until ctx is
// done. Failed runs are logged and do not stop the watch.
func watch(ctx context.Context, g *globals, path string, run func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	g.log.Info("watching", "path", path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !load.IsSpecFile(filepath.Base(ev.Name)) || ev.Op == fsnotify.Chmod {
				continue
			}
			g.log.Debug("change", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			g.log.Warn("watch", "err", err)
		case <-timer.C:
			if err := run(ctx); err != nil {
				g.log.Error("generate", "err", err)
			}
		}
	}
}
