package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/benvon/smart-blog/cmd/blog/commands"
	"github.com/benvon/smart-blog/internal/pages"
)

func main() {
	rootCmd := commands.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		// pages have already shown their own failures
		if !errors.Is(err, pages.ErrReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
