package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/reposql/compiler/load"
	"github.com/syssam/reposql/dialect/sql/schema"
	entity "github.com/syssam/reposql/schema"
)

type inspectFlags struct {
	dbFlags
	specs        string
	allowMissing bool
	skipTypes    bool
}

func newInspectCmd(g *globals) *cobra.Command {
	f := &inspectFlags{}
	cmd := &cobra.Command{
		Use:   "inspect [TABLE...]",
		Short: "Print live table columns, or check entity descriptions against the database",
		Long: "Without --specs, inspect prints the columns of the named tables as YAML.\n" +
			"With --specs, it validates every loaded description against its table and fails on errors.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.specs == "" && len(args) == 0 {
				return errors.New("name at least one table or pass --specs")
			}
			drv, err := f.open(g)
			if err != nil {
				return err
			}
			defer drv.Close()
			insp, err := schema.NewInspector(drv)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if f.specs == "" {
				tables := make(map[string][]*schema.ColumnInfo, len(args))
				for _, t := range args {
					cols, err := insp.Columns(ctx, t)
					if err != nil {
						return err
					}
					tables[t] = cols
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(tables)
			}

			specs, err := load.Path(f.specs)
			if err != nil {
				return err
			}
			descs, err := load.Register(entity.NewRegistry(), specs)
			if err != nil {
				return err
			}
			var opts []schema.ValidateOption
			if f.allowMissing {
				opts = append(opts, schema.AllowMissingColumns())
			}
			if f.skipTypes {
				opts = append(opts, schema.SkipTypes())
			}
			result := schema.ValidateAll(ctx, insp, descs, opts...)
			fmt.Fprintln(cmd.OutOrStdout(), result.String())
			if result.HasErrors() {
				return fmt.Errorf("%d validation errors", len(result.Errors))
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.specs, "specs", "", "entity description file or directory to validate")
	cmd.Flags().BoolVar(&f.allowMissing, "allow-missing", false, "report missing columns as warnings")
	cmd.Flags().BoolVar(&f.skipTypes, "skip-types", false, "do not compare column types")
	return cmd
}
