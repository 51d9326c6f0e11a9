// Package model defines the domain types and value objects for plugctl.
//
// This package contains the desired parameters of a run (DesiredParams,
// TargetState, RunMode), the live plugin Snapshot read from the Docker
// engine, and the Result reported back to the caller.
//
// Snapshots are transient: they are reconstructed from Engine API
// inspections at runtime and never persisted.
//
// The package also defines the error taxonomy (EngineError,
// ValidationError, ErrPluginNotFound), exit codes (ExitCode) and a custom
// error type (CLIError) that carries exit codes for proper OS process exit
// handling.
package model
