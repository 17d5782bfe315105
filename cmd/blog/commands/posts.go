package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/benvon/smart-blog/internal/models"
	"github.com/benvon/smart-blog/internal/pages"
	"github.com/spf13/cobra"
)

// NewHomeCmd creates the home command
func NewHomeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "List all posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, pages.PageHome, func(ctx context.Context, a *app) error {
				return a.handler.Home(ctx)
			})
		},
	}
}

// NewPostCmd creates the post command
func NewPostCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "post <id>",
		Short: "Show a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, pages.PagePost, func(ctx context.Context, a *app) error {
				return a.handler.Post(ctx, args[0])
			})
		},
	}
}

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "List your own posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, pages.PageDashboard, func(ctx context.Context, a *app) error {
				return a.handler.Dashboard(ctx)
			})
		},
	}
}

// postFlags binds the editable post fields; content "-" reads stdin
type postFlags struct {
	title, content, category, excerpt string
}

func (f *postFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Post title")
	cmd.Flags().StringVar(&f.content, "content", "", "Post content, or - to read it from stdin")
	cmd.Flags().StringVar(&f.category, "category", "", "Post category")
	cmd.Flags().StringVar(&f.excerpt, "excerpt", "", "Short excerpt shown in listings")
}

func (f *postFlags) input(stdin io.Reader) (models.PostInput, error) {
	content := f.content
	if content == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return models.PostInput{}, fmt.Errorf("failed to read content: %w", err)
		}
		content = strings.TrimRight(string(data), "\n")
	}
	return models.PostInput{
		Title:    f.title,
		Content:  content,
		Category: f.category,
		Excerpt:  f.excerpt,
	}, nil
}

// NewCreateCmd creates the create command
func NewCreateCmd(opts *rootOptions) *cobra.Command {
	var flags postFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.input(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return run(cmd, opts, pages.PageCreate, func(ctx context.Context, a *app) error {
				return a.handler.Create(ctx, in)
			})
		},
	}
	flags.bind(cmd)

	return cmd
}

// NewEditCmd creates the edit command
func NewEditCmd(opts *rootOptions) *cobra.Command {
	var flags postFlags
	var clearFields pages.EditClear

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a post",
		Long:  "Edit a post you own. Fields without a flag keep their current value; use --clear-category or --clear-excerpt to empty those fields.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.input(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return run(cmd, opts, pages.PageEdit, func(ctx context.Context, a *app) error {
				return a.handler.Edit(ctx, args[0], in, clearFields)
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&clearFields.Category, "clear-category", false, "Remove the post category")
	cmd.Flags().BoolVar(&clearFields.Excerpt, "clear-excerpt", false, "Remove the post excerpt")
	cmd.MarkFlagsMutuallyExclusive("category", "clear-category")
	cmd.MarkFlagsMutuallyExclusive("excerpt", "clear-excerpt")

	return cmd
}

// NewDeleteCmd creates the delete command
func NewDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd, "Delete this post? This cannot be undone.") {
				fmt.Fprintln(cmd.ErrOrStderr(), "Aborted")
				return nil
			}
			return run(cmd, opts, pages.PagePost, func(ctx context.Context, a *app) error {
				return a.handler.Delete(ctx, args[0])
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// confirm asks a yes/no question on stdin
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	answer, err := readSecret(cmd.InOrStdin())
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
