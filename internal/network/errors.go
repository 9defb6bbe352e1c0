package network

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error below matches one of these with errors.Is.
var (
	ErrCommandFailed        = errors.New("external command failed")
	ErrNotChanged           = errors.New("attribute not changed")
	ErrUnsupportedFlag      = errors.New("unsupported device flag")
	ErrInvalidValue         = errors.New("invalid value")
	ErrAlreadyInState       = errors.New("interface already in requested state")
	ErrManagerNotConfigured = errors.New("no manager backend configured")
	ErrNotImplemented       = errors.New("not implemented")
	ErrStale                = errors.New("interface handle is stale")
)

// CommandError is returned when an external command exits non-zero or cannot be started.
type CommandError struct {
	Argv     []string
	ExitCode int // -1 if the process never ran or was killed
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed", strings.Join(e.Argv, " "))
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ", output: " + s
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) Is(target error) bool { return target == ErrCommandFailed }

// noSuchDevice reports whether the failure was ip/iw complaining about a missing device.
func (e *CommandError) noSuchDevice() bool {
	s := strings.ToLower(e.Stderr)
	return strings.Contains(s, "does not exist") ||
		strings.Contains(s, "no such device") ||
		strings.Contains(s, "cannot find device")
}

// IsNoSuchDevice reports whether err carries a *CommandError in which ip or
// iw complained that the device does not exist.
func IsNoSuchDevice(err error) bool {
	var cerr *CommandError
	return errors.As(err, &cerr) && cerr.noSuchDevice()
}

// NotChangedError reports a command that succeeded but left the attribute as it was.
type NotChangedError struct {
	Interface string
	Attribute string
	Old       string
	Requested string
}

func (e *NotChangedError) Error() string {
	return fmt.Sprintf("tried to change %s of %s from %q to %q but it was not changed",
		e.Attribute, e.Interface, e.Old, e.Requested)
}

func (e *NotChangedError) Is(target error) bool { return target == ErrNotChanged }

// MismatchError reports a change that took effect but landed on a different value.
type MismatchError struct {
	Interface string
	Attribute string
	Requested string
	Observed  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("tried to set %s of %s to %q but observed %q",
		e.Attribute, e.Interface, e.Requested, e.Observed)
}

func (e *MismatchError) Is(target error) bool { return target == ErrNotChanged }

// UnsupportedFlagError names a device flag this package cannot toggle.
type UnsupportedFlagError struct {
	Flag string
}

func (e *UnsupportedFlagError) Error() string {
	return fmt.Sprintf("unsupported device flag %q", e.Flag)
}

func (e *UnsupportedFlagError) Is(target error) bool { return target == ErrUnsupportedFlag }

// InvalidValueError rejects a requested value before any command runs.
type InvalidValueError struct {
	Attribute string
	Value     string
	Reason    string
}

func (e *InvalidValueError) Error() string {
	msg := fmt.Sprintf("invalid %s %q", e.Attribute, e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidValueError) Is(target error) bool { return target == ErrInvalidValue }

// AlreadyInStateError is reported by Up/Down when no transition is needed.
type AlreadyInStateError struct {
	Interface string
	State     AdminState
}

func (e *AlreadyInStateError) Error() string {
	return fmt.Sprintf("interface %s is already %s", e.Interface, e.State)
}

func (e *AlreadyInStateError) Is(target error) bool { return target == ErrAlreadyInState }

// StaleError means the bound device disappeared or its name now belongs to another device.
type StaleError struct {
	Name   string
	Index  int
	Reason string
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("interface %s (index %d) is stale: %s", e.Name, e.Index, e.Reason)
}

func (e *StaleError) Is(target error) bool { return target == ErrStale }

// alwaysSurfaced reports errors that bypass the permissive policy.
func alwaysSurfaced(err error) bool {
	return errors.Is(err, ErrCommandFailed) ||
		errors.Is(err, ErrStale) ||
		errors.Is(err, ErrManagerNotConfigured) ||
		errors.Is(err, ErrNotImplemented)
}
