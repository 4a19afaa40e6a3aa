package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ridoystarlord/sqlbuns/internal/diff"
)

func TestFormatReconstructedDiff_ListsEachForwardStatement(t *testing.T) {
	res := &diff.Result{Forward: []string{`CREATE TABLE "users" (...);`, `ALTER TABLE "users" ADD COLUMN "age" INTEGER;`}}
	out := formatReconstructedDiff(res)
	assert.Contains(t, out, `CREATE TABLE "users" (...);`)
	assert.Contains(t, out, `ALTER TABLE "users" ADD COLUMN "age" INTEGER;`)
}

func TestFormatReconstructedDiff_EmptyForwardSaysSo(t *testing.T) {
	out := formatReconstructedDiff(&diff.Result{})
	assert.Contains(t, out, "no forward statements")
}
