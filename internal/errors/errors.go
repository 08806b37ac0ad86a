// Package errors provides structured error kinds for choromap.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind is the category of an error or warning.
type Kind string

const (
	// KindValidation is an invalid argument or merge spec.
	KindValidation Kind = "validation"
	// KindMissingColumn is a dataset column named by the merge spec that does not exist.
	KindMissingColumn Kind = "missing_column"
	// KindJoinMiss is a record whose join key has no dataset row.
	KindJoinMiss Kind = "join_miss"
	// KindDuplicateIndex is two merged entries sharing one index tuple.
	KindDuplicateIndex Kind = "duplicate_index"
	// KindDuplicateKey is a dataset join key seen on more than one row.
	KindDuplicateKey Kind = "duplicate_key"
	// KindFile is a file operation failure.
	KindFile Kind = "file"
	// KindParse is malformed geometry or tabular input.
	KindParse Kind = "parse"
	// KindConfig is an invalid configuration.
	KindConfig Kind = "config"
)

// Error is an error with a kind and key/value details.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Details map[string]any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a kind and message. It returns nil when err is nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

// Is reports whether any error in err's chain is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
