// Package logging renders the CLI's fatal-error and warning output,
// grounded on the teacher's emoji-prefixed cmd/ output but using
// fatih/color for the red-header/"Warnings:" convention spec §7 wants.
package logging

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
)

var (
	errorHeader = color.New(color.FgRed, color.Bold)
	warnPrefix  = color.New(color.FgYellow, color.Bold)
	okPrefix    = color.New(color.FgGreen)
)

// Fatal prints a red header naming err's kind plus its message, then
// exits non-zero, per spec §7's "red header with the error name and a
// single-sentence cause". A SchemaDriftError additionally gets its
// reconstructed diff printed below the header, for triage.
func Fatal(err error) {
	errorHeader.Fprintf(os.Stderr, "✖ %s\n", err.Error())
	var drift *sqlbunserr.SchemaDriftError
	if errors.As(err, &drift) && drift.Diagnostic != "" {
		fmt.Fprintln(os.Stderr, drift.Diagnostic)
	}
	os.Exit(1)
}

// Warnings prints the differ's warnings list, if any, under a
// "Warnings:" prefix; a nil or empty list prints nothing.
func Warnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	warnPrefix.Println("Warnings:")
	for _, w := range warnings {
		fmt.Printf("  - %s\n", w)
	}
}

// Info prints a plain informational line.
func Info(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// OK prints a green success line.
func OK(format string, args ...any) {
	okPrefix.Printf(format+"\n", args...)
}
