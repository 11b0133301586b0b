package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/reposql/dialect/sql/sqlgraph"
	"github.com/syssam/reposql/sqltemplate"
)

type queryFlags struct {
	dbFlags
	params []string
	exec   bool
}

func newQueryCmd(g *globals) *cobra.Command {
	f := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run a statement with :name parameters and print the rows as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(f.params)
			if err != nil {
				return err
			}
			query, bound, err := sqltemplate.Of(args[0], params)
			if err != nil {
				return err
			}
			drv, err := f.open(g)
			if err != nil {
				return err
			}
			defer drv.Close()
			ctx := cmd.Context()

			if f.exec {
				res, err := sqlgraph.Exec(ctx, drv, "exec", query, bound)
				if err != nil {
					return err
				}
				n, err := sqlgraph.Affected("exec", query, res)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "affected: %d\n", n)
				return nil
			}
			rows, err := sqlgraph.Query(ctx, drv, "query", query, bound)
			if err != nil {
				return err
			}
			recs, err := sqlgraph.ScanRecords(rows)
			if err != nil {
				return err
			}
			g.log.Debug("query done", "rows", len(recs))
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(recs)
		},
	}
	f.register(cmd)
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "parameter as name=value, repeatable")
	cmd.Flags().BoolVar(&f.exec, "exec", false, "run a write statement and print the affected-row count")
	return cmd
}

// parseParams splits name=value pairs. Values are passed as text.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q is not name=value", p)
		}
		params[name] = value
	}
	return params, nil
}
