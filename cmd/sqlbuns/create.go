package sqlbuns

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/sqlbuns/internal/logging"
	"github.com/ridoystarlord/sqlbuns/internal/migrate"
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Diff the declared models against the last snapshot and write a migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		models, order, err := loadModels()
		if err != nil {
			return fmt.Errorf("loading models: %w", err)
		}

		eng, err := setup(ctx)
		if err != nil {
			return err
		}

		result, err := migrate.Create(ctx, eng.migrateOptions(newOracle()), args[0], models, order)
		if err != nil {
			return err
		}

		if result.NoChanges {
			logging.OK("No changes detected (checksum %s).", result.NewChecksum)
			return nil
		}

		logging.OK("Wrote %s", result.ForwardFile)
		logging.Info("Reverse: %s", result.ReverseFile)
		logging.Warnings(result.Warnings)
		return nil
	},
}

func init() {
	createCmd.Flags().BoolVar(&flagYAML, "yaml", false, "load models from a YAML schema file instead of tagged Go structs")
	createCmd.Flags().StringVarP(&flagSchema, "file", "f", "schema.yaml", "YAML schema file to load, with --yaml")
	createCmd.Flags().StringVarP(&flagModels, "models", "m", "database/models", "models directory to load tagged structs from")
}
