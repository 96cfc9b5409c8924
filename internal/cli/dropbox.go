package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mindmorass/clipstack/internal/app"
	"github.com/mindmorass/clipstack/internal/backend"
)

// newDropbox is replaced in tests
var newDropbox = func(cfg *app.Config) *backend.Dropbox {
	return backend.NewDropbox(cfg.DropboxAppKey, cfg.DropboxAppSecret)
}

// DropboxStatus is the output of the dropbox commands
type DropboxStatus struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	Location      string `json:"location" yaml:"location"`
}

func (s DropboxStatus) String() string {
	if s.Authenticated {
		return "Dropbox: authenticated (" + s.Location + ")"
	}
	return "Dropbox: not authenticated"
}

// NewDropboxCommand creates the dropbox command group
func NewDropboxCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dropbox",
		Short: "Manage Dropbox register access",
		Long: `Authorize clipstack to keep the shared register in your Dropbox
(backend_type: dropbox). Tokens are stored in the system keychain.`,
	}

	cmd.AddCommand(newDropboxLoginCommand(opts))
	cmd.AddCommand(newDropboxLogoutCommand(opts))
	cmd.AddCommand(newDropboxStatusCommand(opts))

	return cmd
}

func (o *RootOptions) dropbox() (*backend.Dropbox, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DropboxAppKey == "" {
		return nil, NewExitError(ExitCommandError, "dropbox_app_key is not configured")
	}
	return newDropbox(cfg), nil
}

func newDropboxLoginCommand(opts *RootOptions) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize Dropbox access",
		Long: `Print the Dropbox authorization URL, read the code Dropbox shows after
you approve access, and store the resulting tokens.

Example:
  clipstack dropbox login
  clipstack dropbox login --code <code>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.dropbox()
			if err != nil {
				return err
			}

			if code == "" {
				prompt := cmd.ErrOrStderr()
				fmt.Fprintf(prompt, "Open this URL and approve access:\n\n  %s\n\n", db.AuthURL(uuid.NewString()))
				fmt.Fprint(prompt, "Authorization code: ")

				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					code = strings.TrimSpace(scanner.Text())
				}
				if err := scanner.Err(); err != nil {
					return WrapExitError(ExitFailure, "failed to read code", err)
				}
			}
			if code == "" {
				return NewExitError(ExitCommandError, "no authorization code given")
			}

			if err := db.Exchange(cmd.Context(), code); err != nil {
				return WrapExitError(ExitFailure, "dropbox login failed", err)
			}
			return opts.formatter(cmd).Success(DropboxStatus{Authenticated: true, Location: db.Location()})
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "authorization code (prompted for when empty)")

	return cmd
}

func newDropboxLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored Dropbox tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.dropbox()
			if err != nil {
				return err
			}
			if err := db.Logout(); err != nil {
				return WrapExitError(ExitFailure, "dropbox logout failed", err)
			}
			return opts.formatter(cmd).Success(DropboxStatus{Location: db.Location()})
		},
	}
}

func newDropboxStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether Dropbox tokens are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.dropbox()
			if err != nil {
				return err
			}

			err = db.Init(cmd.Context())
			if err != nil && !errors.Is(err, backend.ErrNotAuthenticated) {
				return WrapExitError(ExitFailure, "dropbox status failed", err)
			}
			return opts.formatter(cmd).Success(DropboxStatus{
				Authenticated: db.IsAuthenticated(),
				Location:      db.Location(),
			})
		},
	}
}
