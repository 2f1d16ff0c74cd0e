// Package benchmarkerrors contains the error kinds shared by the stores, the workload driver and the orchestrator.
// Stores return these types (usually wrapped with github.com/pkg/errors); the driver classifies failures with
// KindFromError and the orchestrator uses them to decide whether to abort a run.
//
// If multiple errors occur in some function (e.g., tearing down both stores), that function should return an
// error of type multierror.Error from package github.com/hashicorp/go-multierror.
package benchmarkerrors

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the coarse classification of a failure, used as a label in reports and metrics.
type Kind string

const (
	KindNone         Kind = ""
	KindSetup        Kind = "setup"
	KindTeardown     Kind = "teardown"
	KindNotFound     Kind = "not_found"
	KindDuplicateKey Kind = "duplicate_key"
	KindTransient    Kind = "transient"
	KindPhaseTimeout Kind = "phase_timeout"
	KindCancelled    Kind = "cancelled"
	KindFatalConfig  Kind = "fatal_config"
	KindUnknown      Kind = "unknown"
)

// ErrSetup is returned when a store could not be initialised (schema creation, index creation, truncation).
type ErrSetup struct {
	Store string
	Err   error
}

func (err *ErrSetup) Error() string {
	return fmt.Sprintf("setup of %s failed: %s", err.Store, err.Err)
}

func (err *ErrSetup) Unwrap() error {
	return err.Err
}

// ErrTeardown is returned when a store could not be cleaned up.
type ErrTeardown struct {
	Store string
	Err   error
}

func (err *ErrTeardown) Error() string {
	return fmt.Sprintf("teardown of %s failed: %s", err.Store, err.Err)
}

func (err *ErrTeardown) Unwrap() error {
	return err.Err
}

// ErrNotFound is a generic error to be returned whenever an order or item isn't found.
// Type and Message are optional and are omitted from the error message if not provided.
type ErrNotFound struct {
	Type    string // Resource type, e.g., "order" or "item"
	Value   string // Resource id
	Message string // An optional message to include in the error message
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q does not exist", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	}
	return s
}

// ErrDuplicateKey is returned when a write hits an existing primary key.
// Insert paths treat it as success.
type ErrDuplicateKey struct {
	Type  string
	Value string
}

func (err *ErrDuplicateKey) Error() string {
	if err.Type != "" {
		return fmt.Sprintf("resource %q of type %q already exists", err.Value, err.Type)
	}
	return fmt.Sprintf("resource %q already exists", err.Value)
}

// ErrTransient marks a failure that may succeed on retry: network errors, timeouts,
// serialization failures, deadlocks and transient transaction errors.
type ErrTransient struct {
	Err error
}

func (err *ErrTransient) Error() string {
	return fmt.Sprintf("transient error: %s", err.Err)
}

func (err *ErrTransient) Unwrap() error {
	return err.Err
}

// ErrPhaseTimeout is recorded for every task that had not finished when a phase ran out of time.
type ErrPhaseTimeout struct {
	Operation string
	Timeout   string
}

func (err *ErrPhaseTimeout) Error() string {
	return fmt.Sprintf("phase %s exceeded its time budget of %s", err.Operation, err.Timeout)
}

// ErrFatalConfig is returned when the configuration is missing or invalid. It aborts the whole run.
type ErrFatalConfig struct {
	Message string
	Err     error
}

func (err *ErrFatalConfig) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("invalid configuration: %s: %s", err.Message, err.Err)
	}
	return fmt.Sprintf("invalid configuration: %s", err.Message)
}

func (err *ErrFatalConfig) Unwrap() error {
	return err.Err
}

// NewTransient wraps err as transient, keeping the stack of the call site.
func NewTransient(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&ErrTransient{Err: err})
}

// KindFromError maps an error to its Kind.
// Uses errors.As to look through the chain of errors, as opposed to just considering the topmost error in the chain.
func KindFromError(err error) Kind {
	if err == nil {
		return KindNone
	}

	// Using {} scopes just to re-use the "e" variable name for each case.
	{
		var e *ErrPhaseTimeout
		if errors.As(err, &e) {
			return KindPhaseTimeout
		}
	}
	{
		var e *ErrNotFound
		if errors.As(err, &e) {
			return KindNotFound
		}
	}
	{
		var e *ErrDuplicateKey
		if errors.As(err, &e) {
			return KindDuplicateKey
		}
	}
	{
		var e *ErrTransient
		if errors.As(err, &e) {
			return KindTransient
		}
	}
	{
		var e *ErrSetup
		if errors.As(err, &e) {
			return KindSetup
		}
	}
	{
		var e *ErrTeardown
		if errors.As(err, &e) {
			return KindTeardown
		}
	}
	{
		var e *ErrFatalConfig
		if errors.As(err, &e) {
			return KindFatalConfig
		}
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindPhaseTimeout
	}
	return KindUnknown
}

// IsTransient returns true if the error is worth retrying.
func IsTransient(err error) bool {
	return KindFromError(err) == KindTransient
}

// IsNotFound returns true if any error in the chain is an ErrNotFound.
func IsNotFound(err error) bool {
	var e *ErrNotFound
	return errors.As(err, &e)
}

// IsDuplicateKey returns true if any error in the chain is an ErrDuplicateKey.
func IsDuplicateKey(err error) bool {
	var e *ErrDuplicateKey
	return errors.As(err, &e)
}
