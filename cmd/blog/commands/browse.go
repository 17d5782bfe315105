package commands

import (
	"context"
	"strings"

	"github.com/benvon/smart-blog/internal/pages"
	"github.com/spf13/cobra"
)

// NewCategoriesCmd creates the categories command
func NewCategoriesCmd(opts *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories, or the posts of one category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, pages.PageCategories, func(ctx context.Context, a *app) error {
				return a.handler.Categories(ctx, category)
			})
		},
	}

	cmd.Flags().StringVar(&category, "cat", "", "Show the posts of this category")

	return cmd
}

// NewArchiveCmd creates the archive command
func NewArchiveCmd(opts *rootOptions) *cobra.Command {
	var year, month string

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List archive months, or the posts of one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, pages.PageArchive, func(ctx context.Context, a *app) error {
				return a.handler.Archive(ctx, year, month)
			})
		},
	}

	cmd.Flags().StringVar(&year, "year", "", "Archive year")
	cmd.Flags().StringVar(&month, "month", "", "Archive month (1-12)")

	return cmd
}

// NewSearchCmd creates the search command
func NewSearchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Search posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, pages.PageSearch, func(ctx context.Context, a *app) error {
				return a.handler.Search(ctx, strings.Join(args, " "))
			})
		},
	}
}
