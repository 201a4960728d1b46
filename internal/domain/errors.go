package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindRemoteFetch     ErrorKind = "remote_fetch"
	KindRemoteMutation  ErrorKind = "remote_mutation"
	KindNotFound        ErrorKind = "not_found"
	KindForbidden       ErrorKind = "forbidden"
	KindInvalid         ErrorKind = "invalid"
	KindConflict        ErrorKind = "conflict"
)

// Error carries a kind so callers can branch with errors.Is against the sentinels below.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare sentinel (no Op, no Err) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrRemoteFetch     = &Error{Kind: KindRemoteFetch}
	ErrRemoteMutation  = &Error{Kind: KindRemoteMutation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrInvalid         = &Error{Kind: KindInvalid}
	ErrConflict        = &Error{Kind: KindConflict}

	// The store reports these under KindConflict so a stale client cache can settle.
	ErrDuplicateMembership = errors.New("membership already exists")
	ErrMissingMembership   = errors.New("membership does not exist")
)

func E(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
