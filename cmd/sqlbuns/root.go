// Package sqlbuns is the CLI front-end wiring spec §6's subcommands
// onto the internal engine, grounded on the teacher's cmd/root.go
// (cobra.Command tree, one file per subcommand, red-header fatal
// errors on the way out).
package sqlbuns

import (
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/sqlbuns/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "sqlbuns",
	Short: "A schema migration engine for Postgres, MySQL and SQLite",
	Long: `sqlbuns diffs a declared model set against the last snapshot it
generated and writes a paired forward/reverse SQL migration.

Examples:

  sqlbuns create add_users_table
  sqlbuns up
  sqlbuns down
  sqlbuns status
`,
}

// Execute runs the CLI, printing a fatal header and exiting non-zero on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logging.Fatal(err)
	}
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(inspectdbCmd)
}
