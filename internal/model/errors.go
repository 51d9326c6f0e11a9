package model

import (
	"errors"
	"fmt"
)

// ExitCode defines the process exit codes of plugctl. Scripts and CI
// systems use them to tell failure classes apart.
type ExitCode int

const (
	// ExitSuccess indicates the run completed, changed or not.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitValidation indicates the desired parameters were rejected
	// before any engine call was made.
	ExitValidation ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitEngineError indicates an Engine API call failed mid-run.
	ExitEngineError ExitCode = 4

	// ExitMalformedOption indicates the live plugin settings could not be
	// decoded.
	ExitMalformedOption ExitCode = 5

	// ExitPluginNotFound indicates the requested plugin alias does not exist.
	ExitPluginNotFound ExitCode = 6
)

// ErrPluginNotFound reports a lookup miss. The reconciler treats a miss as
// a normal "absent" outcome; only commands that require an existing plugin
// (such as inspect) surface it as an error.
var ErrPluginNotFound = errors.New("plugin not found")

// Op names the engine operation that was in flight when an error occurred.
type Op string

const (
	OpLookup    Op = "lookup"
	OpInstall   Op = "install"
	OpRemove    Op = "remove"
	OpEnable    Op = "enable"
	OpDisable   Op = "disable"
	OpConfigure Op = "configure"
)

// EngineError wraps a transport or API failure of a plugin operation.
// It is always fatal for the run and never retried.
type EngineError struct {
	// Op is the failed operation.
	Op Op

	// Alias is the plugin alias the operation targeted.
	Alias string

	// Message is the human-readable prefix naming the operation and alias.
	Message string

	// Err is the underlying transport error.
	Err error
}

// NewEngineError builds an EngineError with the given prefix message.
func NewEngineError(op Op, alias, message string, err error) *EngineError {
	return &EngineError{Op: op, Alias: alias, Message: message, Err: err}
}

// Error joins the prefix and the transport error text with ". ".
func (e *EngineError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s. %v", e.Message, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// ValidationError reports desired parameters that cannot be reconciled.
type ValidationError struct {
	// Alias names the plugin the parameters were declared for, when known.
	Alias string

	// Field is the offending parameter name (e.g. "name").
	Field string

	// Message explains the constraint that was violated.
	Message string
}

// Error satisfies the error interface.
func (e *ValidationError) Error() string {
	return aliasPrefix(e.Alias) + e.detail()
}

func (e *ValidationError) detail() string {
	if e.Field == "" {
		return "invalid parameters: " + e.Message
	}
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Message)
}

// ValidationErrors groups every violation found in one validation pass.
type ValidationErrors []*ValidationError

// Error lists all violations separated by "; ", naming the alias once.
func (es ValidationErrors) Error() string {
	if len(es) == 0 {
		return "invalid parameters"
	}
	msg := aliasPrefix(es[0].Alias) + es[0].detail()
	for _, e := range es[1:] {
		msg += "; " + e.detail()
	}
	return msg
}

// WithAlias sets alias on every violation that does not name one yet.
func (es ValidationErrors) WithAlias(alias string) ValidationErrors {
	for _, e := range es {
		if e.Alias == "" {
			e.Alias = alias
		}
	}
	return es
}

func aliasPrefix(alias string) string {
	if alias == "" {
		return ""
	}
	return fmt.Sprintf("local docker logging plugin %s: ", alias)
}

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
