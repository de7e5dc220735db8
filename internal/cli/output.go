package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitRejected     = 1 // the identity number was rejected
	ExitCommandError = 2 // bad flags, configuration or backend failure
)

// ExitError carries the process exit code for a failed command.
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

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err; plain errors map to
// ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter writes either JSON documents or aligned text lines.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Field is one labelled text line.
type Field struct {
	Label string
	Value any
}

// Emit writes v as JSON, or fields as "label: value" lines.
func (f *OutputFormatter) Emit(v any, fields []Field) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	width := 0
	for _, field := range fields {
		width = max(width, len(field.Label))
	}
	for _, field := range fields {
		if _, err := fmt.Fprintf(f.Writer, "%-*s  %v\n", width+1, field.Label+":", field.Value); err != nil {
			return err
		}
	}
	return nil
}

// errorDocument is the JSON shape of a failed command.
type errorDocument struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// EmitError reports a failure in the selected format and returns err so the
// caller can propagate the exit code.
func (f *OutputFormatter) EmitError(code, message string, err error) error {
	if f.Format == "json" {
		_ = f.Emit(errorDocument{Error: code, Message: message}, nil)
	}
	return err
}
