// Command reposql works with entity descriptions and live databases.
//
//	reposql parse schema/
//	reposql gen --target internal/entity schema/
//	reposql inspect --driver sqlite --dsn app.db --specs schema/
//	reposql query --driver postgres --dsn "$DSN" "SELECT * FROM users WHERE id = :id" -p id=1
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// globals holds the flags shared by every command.
type globals struct {
	verbose bool
	log     *slog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "reposql",
		Short:         "Entity descriptions, code generation and database inspection for reposql",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if g.verbose {
				level = slog.LevelDebug
			}
			g.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log every statement and debug detail")
	root.AddCommand(
		newParseCmd(g),
		newGenCmd(g),
		newInspectCmd(g),
		newQueryCmd(g),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "reposql:", err)
		stop()
		os.Exit(1)
	}
}
