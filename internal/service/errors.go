package service

import "errors"

// Op identifies which remote operation failed.
type Op string

const (
	OpFetch  Op = "fetch"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Sentinels for errors.Is. They carry no cause of their own.
var (
	ErrFetch  = &Error{Op: OpFetch}
	ErrCreate = &Error{Op: OpCreate}
	ErrUpdate = &Error{Op: OpUpdate}
	ErrDelete = &Error{Op: OpDelete}
)

// Error reports that a remote call did not complete successfully.
// Network failures and non-2xx responses are not distinguished.
type Error struct {
	Op  Op
	Err error
}

// NewError wraps err as a failure of op.
func NewError(op Op, err error) *Error {
	return &Error{Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := "failed to " + string(e.Op) + " tasks"
	if e.Op != OpFetch {
		msg = "failed to " + string(e.Op) + " task"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error for the same operation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == e.Op
}

// OpOf returns the operation of the first *Error in err's chain.
func OpOf(err error) (Op, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Op, true
	}
	return "", false
}
