package export

import (
	"context"
	"errors"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind classifies export failures.
type ErrorKind string

const (
	// KindLookup means a referenced node could not be resolved.
	KindLookup ErrorKind = "lookup"
	// KindExport means every export attempt for a frame failed.
	KindExport ErrorKind = "export"
	// KindValidation means a request was malformed.
	KindValidation ErrorKind = "validation"
	// KindPipeline means a whole pass produced nothing.
	KindPipeline ErrorKind = "pipeline"
	// KindCanceled means the context was canceled mid-pass.
	KindCanceled ErrorKind = "canceled"
	// KindInternal means an error carried no kind of its own.
	KindInternal ErrorKind = "internal"
)

// Error wraps an error with a kind.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new export error.
func NewError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindFromError maps an error to its kind.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}

	var exportErr *Error
	if errors.As(err, &exportErr) {
		return exportErr.Kind
	}

	return KindInternal
}

// AsGoError maps an error into a go-errors error carrying a stable text code.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	msg := err.Error()
	var exportErr *Error
	if errors.As(err, &exportErr) && exportErr.Msg != "" {
		msg = exportErr.Msg
	}

	switch KindFromError(err) {
	case KindLookup:
		return errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode("lookup")
	case KindExport:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("export")
	case KindValidation:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("validation")
	case KindPipeline:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("pipeline")
	case KindCanceled:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("canceled")
	default:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("internal")
	}
}
