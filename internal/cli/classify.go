package cli

import (
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mindmorass/clipstack/internal/clipboard"
	"github.com/mindmorass/clipstack/internal/history"
)

// ClassifyOptions holds flags for the classify command
type ClassifyOptions struct {
	*RootOptions
	HTML bool
}

// NewClassifyCommand creates the classify command
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClassifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Show how text would be recorded",
		Long: `Classify the arguments, or standard input when there are none, and
print the content type and preview a history entry would get.

Example:
  clipstack classify https://example.com
  pbpaste | clipstack classify --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.HTML, "html", false, "treat the input as HTML markup")

	return cmd
}

func runClassify(cmd *cobra.Command, opts *ClassifyOptions, args []string) error {
	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read input", err)
		}
		text = string(data)
	}

	if text == "" {
		return NewExitError(ExitCommandError, "nothing to classify")
	}

	snap := clipboard.TextSnapshot(text)
	if opts.HTML {
		snap = clipboard.Snapshot{HasHTML: true, HTML: text}
	}

	item := history.NewClassifier().Classify(snap, time.Now())
	return opts.formatter(cmd).Success(NewItemView(item))
}
