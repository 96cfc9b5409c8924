package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mindmorass/clipstack/internal/history"
)

// Exit codes for CLI commands
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Runtime failure (source unavailable, engine error)
	ExitCommandError = 2 // Command error (bad flags, bad config, nothing to classify)
)

// ExitError carries the process exit code for an error
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without a cause
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the envelope for json and yaml output
type CLIResponse struct {
	Status string    `json:"status" yaml:"status"`
	Data   any       `json:"data,omitempty" yaml:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty" yaml:"error,omitempty"`
}

// CLIError is the error structure for CLI responses
type CLIError struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// OutputFormatter renders command results as text, json or yaml
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Success outputs a successful result
func (f *OutputFormatter) Success(data any) error {
	switch f.Format {
	case "json":
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	case "yaml":
		return f.encodeYAML(CLIResponse{Status: "ok", Data: data})
	default:
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
}

// Error outputs an error result
func (f *OutputFormatter) Error(code, message string) error {
	resp := CLIResponse{Status: "error", Error: &CLIError{Code: code, Message: message}}
	switch f.Format {
	case "json":
		return json.NewEncoder(f.Writer).Encode(resp)
	case "yaml":
		return f.encodeYAML(resp)
	default:
		_, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
		return err
	}
}

// yaml documents are separated so a stream of results stays parseable
func (f *OutputFormatter) encodeYAML(v any) error {
	enc := yaml.NewEncoder(f.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// ItemView is the printable form of a history item
type ItemView struct {
	ID        string    `json:"id" yaml:"id"`
	Type      string    `json:"type" yaml:"type"`
	Preview   string    `json:"preview" yaml:"preview"`
	Size      int       `json:"size" yaml:"size"`
	Width     int       `json:"width,omitempty" yaml:"width,omitempty"`
	Height    int       `json:"height,omitempty" yaml:"height,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewItemView converts an item for output
func NewItemView(item history.Item) ItemView {
	return ItemView{
		ID:        item.ID,
		Type:      item.Type.String(),
		Preview:   item.Preview,
		Size:      item.Size(),
		Width:     item.Width,
		Height:    item.Height,
		CreatedAt: item.CreatedAt,
	}
}

func (v ItemView) String() string {
	return fmt.Sprintf("%-4s  %s", v.Type, v.Preview)
}
