package migrate

import (
	"context"

	"github.com/ridoystarlord/sqlbuns/internal/dbconn"
)

// applyStatements runs every statement of one artifact inside tx, in
// order, as the single script spec C7 describes.
func applyStatements(ctx context.Context, tx dbconn.Tx, statements []string) error {
	for _, stmt := range statements {
		if err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
