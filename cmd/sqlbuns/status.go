package sqlbuns

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/sqlbuns/internal/diff"
	"github.com/ridoystarlord/sqlbuns/internal/migrate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		eng, err := setup(ctx)
		if err != nil {
			return err
		}

		result, err := migrate.Status(ctx, eng.migrateOptions(diff.NonInteractiveOracle{}))
		if err != nil {
			return err
		}

		fmt.Println("Applied migrations:")
		for _, name := range result.Applied {
			fmt.Println("   -", name)
		}

		fmt.Println("\nPending migrations:")
		for _, name := range result.Pending {
			fmt.Println("   -", name)
		}
		return nil
	},
}
