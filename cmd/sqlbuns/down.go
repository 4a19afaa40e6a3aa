package sqlbuns

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/sqlbuns/internal/diff"
	"github.com/ridoystarlord/sqlbuns/internal/logging"
	"github.com/ridoystarlord/sqlbuns/internal/migrate"
)

var downCmd = &cobra.Command{
	Use:     "down",
	Aliases: []string{"rollback"},
	Short:   "Revert the most recently applied migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		eng, err := setup(ctx)
		if err != nil {
			return err
		}

		result, err := migrate.Down(ctx, eng.migrateOptions(diff.NonInteractiveOracle{}))
		if err != nil {
			return err
		}

		if result.NoOp {
			logging.OK("Nothing to roll back.")
			return nil
		}
		logging.OK("Rolled back %s", result.Reverted)
		return nil
	},
}
