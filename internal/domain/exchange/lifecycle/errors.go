// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"
	"fmt"
)

// Error classes. Every *Error matches exactly one of these via errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrAuthorization = errors.New("authorization error")
	ErrStateConflict = errors.New("state conflict")
	ErrNotFound      = errors.New("not found")
)

// Kind classifies a workflow error.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthorization
	KindStateConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindStateConflict:
		return "state_conflict"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

func (k Kind) class() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindAuthorization:
		return ErrAuthorization
	case KindStateConflict:
		return ErrStateConflict
	case KindNotFound:
		return ErrNotFound
	}
	return nil
}

// Error is a workflow failure surfaced to the caller with enough detail to
// show a corrective message.
type Error struct {
	Kind   Kind
	Code   string // stable machine code, e.g. "completion_already_requested"
	Field  string // conflicting or invalid field, if any
	Detail string // human-readable explanation
	Err    error  // optional cause
}

func (e *Error) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Code
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Field)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	class := e.Kind.class()
	return class != nil && target == class
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or missing input.
func Validation(field, code, detail string) *Error {
	return &Error{Kind: KindValidation, Field: field, Code: code, Detail: detail}
}

// Unauthorized reports an actor who may not perform the action.
func Unauthorized(code, detail string) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Detail: detail}
}

// Conflict reports an action that is not legal in the current state.
func Conflict(field, code, detail string) *Error {
	return &Error{Kind: KindStateConflict, Field: field, Code: code, Detail: detail}
}

// NotFound reports a missing session or cancel request.
func NotFound(code, detail string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Detail: detail}
}

// As extracts a workflow error from err.
func As(err error) (*Error, bool) {
	var werr *Error
	if errors.As(err, &werr) {
		return werr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or 0 when err is not a workflow error.
func KindOf(err error) Kind {
	if werr, ok := As(err); ok {
		return werr.Kind
	}
	return 0
}
