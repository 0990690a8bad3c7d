package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	ErrDuplicateWrite = errors.New("duplicate write")
	ErrConnection     = errors.New("connection error")
	ErrQuery          = errors.New("query error")
)

// Server error codes that mean the client never got a usable session.
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
)

// OpError is returned by store operations. It matches both its class
// sentinel and the underlying driver error with errors.Is.
type OpError struct {
	Op    string
	Class error
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Class, e.Err)
}

func (e *OpError) Unwrap() []error {
	return []error{e.Class, e.Err}
}

func classify(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateWrite
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		mongo.IsTimeout(err) ||
		mongo.IsNetworkError(err) {
		return ErrConnection
	}

	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorCode(codeAuthenticationFailed) || se.HasErrorCode(codeUnauthorized)) {
		return ErrConnection
	}
	return ErrQuery
}

func className(class error) string {
	switch class {
	case ErrDuplicateWrite:
		return "duplicate"
	case ErrConnection:
		return "connection"
	default:
		return "query"
	}
}
