package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the blog command tree
func NewRootCmd() *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "blog",
		Short:         "Command line client for the blog",
		Long:          "Read, write and manage blog posts through the blog REST API. Configuration comes from BLOG_* environment variables.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	opts := &rootOptions{debug: &debug}

	rootCmd.AddCommand(NewNavCmd(opts))
	rootCmd.AddCommand(NewLoginCmd(opts))
	rootCmd.AddCommand(NewRegisterCmd(opts))
	rootCmd.AddCommand(NewLogoutCmd(opts))
	rootCmd.AddCommand(NewWhoamiCmd(opts))
	rootCmd.AddCommand(NewHomeCmd(opts))
	rootCmd.AddCommand(NewPostCmd(opts))
	rootCmd.AddCommand(NewDashboardCmd(opts))
	rootCmd.AddCommand(NewCreateCmd(opts))
	rootCmd.AddCommand(NewEditCmd(opts))
	rootCmd.AddCommand(NewDeleteCmd(opts))
	rootCmd.AddCommand(NewCategoriesCmd(opts))
	rootCmd.AddCommand(NewArchiveCmd(opts))
	rootCmd.AddCommand(NewSearchCmd(opts))

	return rootCmd
}

type rootOptions struct {
	debug *bool
}
