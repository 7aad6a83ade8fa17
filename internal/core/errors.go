package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the pipeline wraps exactly one of these.
var (
	// ErrInput means the source file is missing or unreadable. Raised before
	// any store interaction, so there is nothing to roll back.
	ErrInput = errors.New("input error")

	// ErrStructural means the input shape does not match the header.
	ErrStructural = errors.New("structural error")

	// ErrCoercion means a field could not be converted to its required type.
	ErrCoercion = errors.New("coercion error")

	// ErrStore means a store read, write or commit failed.
	ErrStore = errors.New("store error")

	// ErrRollbackFailed means the run failed and the rollback attempt failed
	// too. The store state is unknown.
	ErrRollbackFailed = errors.New("rollback failed")
)

// ImportError attaches source location to a failure.
type ImportError struct {
	Kind   error  // one of the Err* kinds
	Line   int    // 1-based source line, 0 if unknown
	Column string // offending column, if any
	Err    error  // underlying cause
}

func (e *ImportError) Error() string {
	msg := e.Kind.Error()
	if e.Line > 0 {
		msg = fmt.Sprintf("%s on line %d", msg, e.Line)
	}
	if e.Column != "" {
		msg = fmt.Sprintf("%s (column %q)", msg, e.Column)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *ImportError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func inputError(err error) error {
	return &ImportError{Kind: ErrInput, Err: err}
}

func structuralError(line int, column string, err error) error {
	return &ImportError{Kind: ErrStructural, Line: line, Column: column, Err: err}
}

func coercionError(column, value string, err error) error {
	return &ImportError{Kind: ErrCoercion, Column: column, Err: fmt.Errorf("cannot convert %q: %w", value, err)}
}

func storeError(op string, err error) error {
	return &ImportError{Kind: ErrStore, Err: fmt.Errorf("%s: %w", op, err)}
}

// withLine sets the source line on an ImportError that does not carry one yet.
func withLine(err error, line int) error {
	var ie *ImportError
	if errors.As(err, &ie) && ie.Line == 0 {
		cp := *ie
		cp.Line = line
		return &cp
	}
	return err
}
