package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mindmorass/clipstack/internal/update"
)

// newUpdateChecker is replaced in tests
var newUpdateChecker = update.NewChecker

// VersionInfo is the output of the version command
type VersionInfo struct {
	Version string       `json:"version" yaml:"version"`
	Go      string       `json:"go" yaml:"go"`
	OS      string       `json:"os" yaml:"os"`
	Arch    string       `json:"arch" yaml:"arch"`
	Update  *update.Info `json:"update,omitempty" yaml:"update,omitempty"`
}

func (v VersionInfo) String() string {
	s := fmt.Sprintf("clipstack %s (%s, %s/%s)", v.Version, v.Go, v.OS, v.Arch)
	if v.Update != nil {
		s += "\n" + v.Update.String()
	}
	return s
}

// NewVersionCommand creates the version command
func NewVersionCommand(opts *RootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Long: `Print the version, optionally checking GitHub for a newer release.

Example:
  clipstack version
  clipstack version --check --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{
				Version: opts.Version,
				Go:      runtime.Version(),
				OS:      runtime.GOOS,
				Arch:    runtime.GOARCH,
			}

			if check {
				result, err := newUpdateChecker(opts.Version).Check(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, "update check failed", err)
				}
				info.Update = result
			}

			return opts.formatter(cmd).Success(info)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "check for a newer release")

	return cmd
}
