package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tir/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printSuggestedFixes(err)
		os.Exit(errors.ExitCode(err))
	}
}

// printSuggestedFixes lists the fix actions attached to a TirError
func printSuggestedFixes(err error) {
	var te *errors.TirError
	if !stderrors.As(err, &te) || len(te.SuggestedFixes) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "\nSuggested fixes:")
	for _, fix := range te.SuggestedFixes {
		fmt.Fprintf(os.Stderr, "  %s\n      %s\n", fix.Command, fix.Description)
	}
}
