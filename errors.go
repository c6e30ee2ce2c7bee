package mjson

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped in a *ParseError) by Parse and
// ParseString. Callers branch on error kind with errors.Is, never by
// inspecting an error code, per the Go idiom the rest of this dependency
// family uses (see mcvoid/json's ErrType/ErrParse).
var (
	ErrBadFormat       = errors.New("bad format")
	ErrIncomplete      = errors.New("incomplete")
	ErrNoEntities      = errors.New("no entities")
	ErrStrayInput      = errors.New("stray input")
	ErrNotEnoughTokens = errors.New("not enough tokens")
	ErrBadArgument     = errors.New("bad argument")
	ErrTooDeep         = errors.New("too deep")
	ErrNoMultibyte     = errors.New("multibyte utf-8 not supported")
	ErrInternal        = errors.New("internal error")
)

var sentinelNames = []struct {
	err  error
	name string
}{
	{ErrBadFormat, "ERR_BAD_FORMAT"},
	{ErrIncomplete, "ERR_INCOMPLETE"},
	{ErrNoEntities, "ERR_NO_ENTITIES"},
	{ErrStrayInput, "ERR_STRAY_INPUT"},
	{ErrNotEnoughTokens, "ERR_NOT_ENOUGH_TOKENS"},
	{ErrBadArgument, "ERR_BAD_ARGUMENT"},
	{ErrTooDeep, "ERR_TOO_DEEP"},
	{ErrNoMultibyte, "ERR_NO_MULTIBYTE"},
	{ErrInternal, "ERR_INTERNAL"},
}

// ParseError wraps a sentinel error with the byte offset at which it was
// detected, so a caller that wants ABI-style diagnostics ("bad format at
// byte 17") can get them without parsing error strings.
type ParseError struct {
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at byte %d", e.Err, e.Offset)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(offset int, sentinel error) *ParseError {
	return &ParseError{Offset: offset, Err: sentinel}
}

// ErrorName maps err back to its symbolic name, the Go analogue of the
// original ABI's mu_json_error_name. Errors that don't wrap one of the
// sentinels above (including nil) map to "ERR_UNKNOWN".
func ErrorName(err error) string {
	for _, s := range sentinelNames {
		if errors.Is(err, s.err) {
			return s.name
		}
	}
	return "ERR_UNKNOWN"
}
