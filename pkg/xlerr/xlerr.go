// Package xlerr defines the error taxonomy shared by every tool handler.
// Failures carry a Kind so handlers can map them onto the structured
// response envelope without string matching at each call site.
package xlerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the domain object it concerns.
type Kind string

const (
	// Validation & Input
	KindValidation Kind = "VALIDATION"

	// Domain objects
	KindWorkbook Kind = "WORKBOOK"
	KindSheet    Kind = "SHEET"
	KindRange    Kind = "RANGE"
	KindData     Kind = "DATA"

	// Everything else
	KindInternal Kind = "INTERNAL"
)

// Error is the canonical failure type returned by the domain packages.
// Msg is user-facing and lands verbatim in the tool response envelope;
// Err (optional) preserves the underlying cause for logs and unwrapping.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error renders "KIND: message" for logs. The envelope uses Message
// instead, which omits the kind prefix.
func (e *Error) Error() string {
	if e.Msg == "" && e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the wrapped cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// Newf builds an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrapf attaches a kind and message to an underlying cause.
func Wrapf(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Constructors for the common kinds keep call sites terse.

func Validationf(format string, args ...any) *Error { return Newf(KindValidation, format, args...) }
func Workbookf(format string, args ...any) *Error   { return Newf(KindWorkbook, format, args...) }
func Sheetf(format string, args ...any) *Error      { return Newf(KindSheet, format, args...) }
func Rangef(format string, args ...any) *Error      { return Newf(KindRange, format, args...) }
func Dataf(format string, args ...any) *Error       { return Newf(KindData, format, args...) }

// KindOf extracts the Kind from an error chain. Unclassified errors
// report KindInternal so handlers never leak raw causes as a kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-facing message for the response envelope:
// the Error's Msg when classified, otherwise the plain error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		if e.Err != nil {
			return e.Err.Error()
		}
		return string(e.Kind)
	}
	return err.Error()
}
