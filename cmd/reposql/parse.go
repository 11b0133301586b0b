package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/reposql/compiler/load"
	"github.com/syssam/reposql/schema"
)

func newParseCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "parse PATH",
		Short: "Load and check entity descriptions, then print them as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := loadSpecs(args[0])
			if err != nil {
				return err
			}
			g.log.Debug("loaded entity descriptions", "path", args[0], "entities", len(specs))
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(map[string]any{"entities": specs})
		},
	}
}

// loadSpecs loads path and checks the descriptions, associations
// included, in a scratch registry.
func loadSpecs(path string) ([]*load.Spec, error) {
	specs, err := load.Path(path)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no entity descriptions in %s", path)
	}
	if _, err := load.Register(schema.NewRegistry(), specs); err != nil {
		return nil, err
	}
	return specs, nil
}
