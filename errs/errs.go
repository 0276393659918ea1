/*
NAME
  errs.go

DESCRIPTION
  errs provides the three-kind error taxonomy used throughout this module:
  InvalidInput for malformed caller data, Unsupported for well-formed data
  outside what this module implements, and Other for everything else
  (typically a wrapped I/O error).

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package errs defines the error kinds and wrapping helpers shared by the
// isobmff, fmp4, codec and mpegts packages.
package errs

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Other wraps an unclassified failure, typically an I/O error from a
	// caller-supplied reader or writer.
	Other Kind = iota
	// InvalidInput indicates the data given to this module is malformed,
	// i.e. it cannot be valid input under any supported configuration.
	InvalidInput
	// Unsupported indicates the data is well-formed but describes a
	// feature or configuration this module does not implement.
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case Unsupported:
		return "unsupported"
	default:
		return "other"
	}
}

// Error is the error type returned by this module's packages. It carries a
// Kind plus a wrapped cause so that errors.Unwrap, errors.Is and errors.As
// reach the original failure. Error has no Cause method, so
// github.com/pkg/errors.Cause stops at the *Error itself.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// New creates an Error of kind k with message msg.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, msg: msg}
}

// Newf creates an Error of kind k with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with msg and classifies it as kind. If err is nil,
// Wrap returns nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, msg: msg, err: pkgerrors.Wrap(err, msg)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, msg: msg, err: pkgerrors.Wrap(err, msg)}
}

// KindOf returns the Kind of err if it (or something it wraps) is an
// *Error, and Other otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
