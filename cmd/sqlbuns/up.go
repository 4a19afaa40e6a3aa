package sqlbuns

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/sqlbuns/internal/diff"
	"github.com/ridoystarlord/sqlbuns/internal/logging"
	"github.com/ridoystarlord/sqlbuns/internal/migrate"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		eng, err := setup(ctx)
		if err != nil {
			return err
		}

		result, err := migrate.Up(ctx, eng.migrateOptions(diff.NonInteractiveOracle{}))
		if err != nil {
			return err
		}

		if len(result.Applied) == 0 {
			logging.OK("Nothing to apply.")
			return nil
		}
		for _, name := range result.Applied {
			logging.OK("Applied %s", name)
		}
		return nil
	},
}
