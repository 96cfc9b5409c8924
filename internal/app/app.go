package app

import (
	"context"
	"fmt"
	"log"

	"github.com/mindmorass/clipstack/internal/backend"
	"github.com/mindmorass/clipstack/internal/clipboard"
	"github.com/mindmorass/clipstack/internal/engine"
	"github.com/mindmorass/clipstack/internal/register"
	"github.com/mindmorass/clipstack/internal/ui"
	"github.com/mindmorass/clipstack/internal/update"
)

// App is the menubar application
type App struct {
	config  *Config
	engine  *engine.Engine
	menubar *ui.Menubar
	updates *update.Checker
	version string
}

// NewSource builds the content source the config selects
func NewSource(config *Config) (clipboard.Source, error) {
	switch config.Source {
	case SourceRegister:
		b, err := backend.New(config.BackendConfig())
		if err != nil {
			return nil, fmt.Errorf("create register backend: %w", err)
		}
		return register.New(b, config.RegisterPollInterval()), nil
	case SourcePasteboard, "":
		return clipboard.NewPasteboard(config.PollInterval), nil
	default:
		return nil, fmt.Errorf("unknown source %q", config.Source)
	}
}

// NewEngine builds the source and an engine reading from it
func NewEngine(config *Config, verbose bool) (*engine.Engine, error) {
	source, err := NewSource(config)
	if err != nil {
		return nil, err
	}
	opts := config.EngineOptions()
	opts.Verbose = verbose
	return engine.New(source, opts), nil
}

// New creates a new application instance
func New(config *Config, version string, verbose bool) (*App, error) {
	eng, err := NewEngine(config, verbose)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:  config,
		engine:  eng,
		updates: update.NewChecker(version),
		version: version,
	}
	app.menubar = ui.NewMenubar(app)
	return app, nil
}

// Run starts capturing and blocks in the menubar until Quit
func (a *App) Run(ctx context.Context) error {
	if err := a.engine.Start(ctx); err != nil {
		log.Printf("Warning: failed to start clipboard capture: %v", err)
	}

	stop := context.AfterFunc(ctx, a.Quit)
	defer stop()

	a.menubar.Run()
	return nil
}

// Engine returns the capture engine
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// SetMaxHistorySize resizes the history and persists the new size
func (a *App) SetMaxHistorySize(n int) {
	a.engine.SetMaxHistorySize(n)
	a.config.MaxHistorySize = a.engine.MaxHistorySize()
	if err := SaveConfig(a.config); err != nil {
		log.Printf("Warning: failed to save config: %v", err)
	}
}

// RegisterLocation returns the configured register location
func (a *App) RegisterLocation() string {
	return a.config.RegisterLocation
}

// SetRegisterLocation stores a new register folder. It switches the source
// to a local register and takes effect on the next start.
func (a *App) SetRegisterLocation(path string) error {
	if _, err := backend.NewLocal(path); err != nil {
		return err
	}
	a.config.RegisterLocation = path
	a.config.BackendType = string(backend.TypeLocal)
	a.config.Source = SourceRegister
	if err := SaveConfig(a.config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	log.Printf("Register location set to %s; restart to apply", path)
	return nil
}

// Version returns the application version
func (a *App) Version() string {
	return a.version
}

// UpdateChecker returns the release checker used by the menubar
func (a *App) UpdateChecker() *update.Checker {
	return a.updates
}

// Quit stops capturing and exits the menubar
func (a *App) Quit() {
	a.engine.Close()
	a.menubar.Quit()
}
