package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benvon/smart-blog/internal/pages"
	"github.com/benvon/smart-blog/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewNavCmd creates the nav command
func NewNavCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "Show whether you are signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, pages.PageHome, func(ctx context.Context, a *app) error {
				return a.handler.Nav(ctx)
			})
		},
	}
}

// NewLoginCmd creates the login command
func NewLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long:  "Sign in with email and password. The password is read from stdin when --password is not given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			secret := password
			if secret == "" {
				p, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				secret = p
			}
			return run(cmd, opts, pages.PageLogin, func(ctx context.Context, a *app) error {
				return a.handler.Login(ctx, email, secret)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (read from stdin when empty)")

	return cmd
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(opts *rootOptions) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" {
				return fmt.Errorf("required flags: --name, --email")
			}
			secret := password
			if secret == "" {
				p, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				secret = p
			}
			return run(cmd, opts, pages.PageRegister, func(ctx context.Context, a *app) error {
				return a.handler.Register(ctx, name, email, secret)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (read from stdin when empty)")

	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, pages.PageDashboard, func(ctx context.Context, a *app) error {
				return a.handler.Logout(ctx)
			})
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the claims of the stored token",
		Long:  "Decode the stored token without verifying it. The backend decides whether the token is still valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, pages.PageHome, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()

				sess := a.store.Session(ctx)
				if !sess.Authenticated {
					fmt.Fprintln(out, "Not signed in")
					return nil
				}
				if sess.Identity != "" {
					fmt.Fprintf(out, "Identity: %s\n", sess.Identity)
				} else {
					fmt.Fprintln(out, "Identity: unknown")
				}

				claims, err := a.store.Inspect(ctx)
				if errors.Is(err, session.ErrNoToken) {
					return nil
				}
				if err != nil {
					// opaque tokens are allowed; only the identity line applies
					a.logger.Debug("token_not_inspectable", zap.Error(err))
					return nil
				}

				if claims.Name != "" {
					fmt.Fprintf(out, "Name: %s\n", claims.Name)
				}
				if claims.Sub != "" {
					fmt.Fprintf(out, "Subject: %s\n", claims.Sub)
				}
				if claims.Iss != "" {
					fmt.Fprintf(out, "Issuer: %s\n", claims.Iss)
				}
				if claims.Exp != 0 {
					state := "valid"
					if claims.Expired(time.Now()) {
						state = "expired"
					}
					fmt.Fprintf(out, "Expires: %s (%s)\n", time.Unix(claims.Exp, 0).Format(time.RFC3339), state)
				}
				return nil
			})
		},
	}
}

// readSecret reads one line from r
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password is required")
	}
	return line, nil
}
