// Package errx defines the error model shared by the simulation packages.
//
// Every expected outcome of normal play (not enough resources, full worker
// slots, ...) is an *Error carrying a stable Code. errors.Is compares codes
// only, so callers can match against the sentinels below regardless of the
// attached data.
package errx

import (
	"fmt"
	"sort"
)

// Code is the stable identifier of an error kind
type Code string

const (
	CodeInsufficientResources Code = "INSUFFICIENT_RESOURCES"
	CodeInvalidConversion     Code = "INVALID_CONVERSION"
	CodeCapacityExceeded      Code = "CAPACITY_EXCEEDED"
	CodeSlotFull              Code = "SLOT_FULL"
	CodeNotCapturable         Code = "NOT_CAPTURABLE"
	CodeInvalidAmount         Code = "INVALID_AMOUNT"
	CodeUnknownPlayer         Code = "UNKNOWN_PLAYER"
	CodeUnknownSource         Code = "UNKNOWN_SOURCE"
	CodeEliminated            Code = "PLAYER_ELIMINATED"
	CodeFriendlyFire          Code = "FRIENDLY_FIRE"
	CodeOverchargeCooldown    Code = "OVERCHARGE_COOLDOWN"
	CodeInvalidConfig         Code = "INVALID_CONFIG"
	CodeWorkerNotOwned        Code = "WORKER_NOT_OWNED"
)

// Sentinels. Derive new values with WithData / WithCause, never mutate.
var (
	ErrInsufficientResources = New(CodeInsufficientResources, "not enough resources")
	ErrInvalidConversion     = New(CodeInvalidConversion, "conversion must go exactly one tier up")
	ErrCapacityExceeded      = New(CodeCapacityExceeded, "target storage is full")
	ErrSlotFull              = New(CodeSlotFull, "all worker slots are taken")
	ErrNotCapturable         = New(CodeNotCapturable, "source cannot be captured")
	ErrInvalidAmount         = New(CodeInvalidAmount, "amount out of range")
	ErrUnknownPlayer         = New(CodeUnknownPlayer, "player not registered")
	ErrUnknownSource         = New(CodeUnknownSource, "source not registered")
	ErrEliminated            = New(CodeEliminated, "player is eliminated")
	ErrFriendlyFire          = New(CodeFriendlyFire, "friendly fire suppressed")
	ErrOverchargeCooldown    = New(CodeOverchargeCooldown, "overcharge not ready")
	ErrInvalidConfig         = New(CodeInvalidConfig, "invalid configuration")
	ErrWorkerNotOwned        = New(CodeWorkerNotOwned, "worker belongs to another player")
)

// Error is a coded error with optional context data and cause
type Error struct {
	code  Code
	msg   string
	data  map[string]any
	cause error
}

// New creates an error with a code and message
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	s := string(e.code)
	if e.msg != "" {
		s += ": " + e.msg
	}
	for _, k := range sortedKeys(e.data) {
		s += fmt.Sprintf(" %s=%v", k, e.data[k])
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// Unwrap exposes the cause to errors.Is / errors.As
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches on code only, ignoring message, data and cause
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.code == t.code
}

// Code returns the error code
func (e *Error) Code() Code {
	if e == nil {
		return ""
	}
	return e.code
}

// Data returns a copy of the attached context
func (e *Error) Data() map[string]any {
	if e == nil || e.data == nil {
		return nil
	}
	return cloneMap(e.data)
}

// WithData returns a copy of e with one more context entry
func (e *Error) WithData(key string, value any) *Error {
	next := &Error{code: e.code, msg: e.msg, data: cloneMap(e.data), cause: e.cause}
	if next.data == nil {
		next.data = make(map[string]any, 1)
	}
	next.data[key] = value
	return next
}

// WithCause returns a copy of e wrapping cause
func (e *Error) WithCause(cause error) *Error {
	return &Error{code: e.code, msg: e.msg, data: cloneMap(e.data), cause: cause}
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
