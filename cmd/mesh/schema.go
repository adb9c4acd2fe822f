package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/saihaj/graphql-mesh/internal/config"
	schema "github.com/saihaj/graphql-mesh/internal/schema"
)

func newPrintSchemaCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "print-schema",
		Short: "Print the served schema, including arguments derived from operation templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}
			sch, _, err := loadRegistry(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			sdl := schema.Render(sch)
			if out == "" {
				printf(cmd, "%s", sdl)
				return nil
			}
			return os.WriteFile(out, []byte(sdl), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the schema to a file instead of stdout")
	return cmd
}
