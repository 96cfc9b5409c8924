package cli

import (
	"context"
	"log"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mindmorass/clipstack/internal/app"
	"github.com/mindmorass/clipstack/internal/history"
)

// WatchOptions holds flags for the watch command
type WatchOptions struct {
	*RootOptions
	Source string
	Count  int
	Query  string
	Types  []string
}

// NewWatchCommand creates the watch command
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print captured items without the menubar",
		Long: `Capture the clipboard headlessly and print each new history item
until interrupted.

Example:
  clipstack watch
  clipstack watch --source register --format json
  clipstack watch --count 1
  clipstack watch --query github --type url`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", "", "override the configured source (pasteboard|register)")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "exit after this many captures (0 = run until interrupted)")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "only print items whose text, preview or type contains this")
	cmd.Flags().StringSliceVarP(&opts.Types, "type", "t", nil, "only print items of these types (text|image|html|url|file|code)")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	types, err := parseTypes(opts.Types)
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Source != "" {
		cfg.Source = opts.Source
		if err := cfg.Validate(); err != nil {
			return WrapExitError(ExitCommandError, "invalid source", err)
		}
	}

	eng, err := app.NewEngine(cfg, opts.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create engine", err)
	}
	defer eng.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := opts.formatter(cmd)
	var (
		mu       sync.Mutex
		captured int
		writeErr error
	)
	unsubscribe := eng.OnItemAdded(func(item history.Item) {
		mu.Lock()
		defer mu.Unlock()
		if writeErr != nil {
			return
		}
		if len(history.Search([]history.Item{item}, opts.Query, types...)) == 0 {
			return
		}
		if writeErr = out.Success(NewItemView(item)); writeErr != nil {
			cancel()
			return
		}
		captured++
		if opts.Count > 0 && captured >= opts.Count {
			cancel()
		}
	})
	defer unsubscribe()

	if err := eng.Start(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to start capture", err)
	}
	if opts.Verbose {
		log.Printf("Watching %s (history size %d)", cfg.Source, eng.MaxHistorySize())
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		return WrapExitError(ExitFailure, "failed to write output", writeErr)
	}
	return nil
}

func parseTypes(labels []string) ([]history.ContentType, error) {
	types := make([]history.ContentType, 0, len(labels))
	for _, label := range labels {
		t, err := history.ParseContentType(label)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --type", err)
		}
		types = append(types, t)
	}
	return types, nil
}
