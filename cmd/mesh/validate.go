package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/saihaj/graphql-mesh/internal/config"
	opreg "github.com/saihaj/graphql-mesh/internal/opreg"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and list the bound operations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}
			_, reg, err := loadRegistry(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			for _, op := range reg.Operations() {
				switch o := op.(type) {
				case *opreg.HTTPOperation:
					printf(cmd, "%-28s %-6s %s\n", o.Name(), o.Method, o.Path)
				case *opreg.EventOperation:
					printf(cmd, "%-28s %-6s %s\n", o.Name(), "PUBSUB", o.Topic)
				}
			}
			printf(cmd, "%d operations bound\n", reg.Len())
			return nil
		},
	}
}
