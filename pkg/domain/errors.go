package domain

import (
	"errors"
	"fmt"
)

// Kind classifies every error the service reports to its callers.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindIncompleteHeaders
	KindInvalidContentSize
	KindBadChunkID
	KindServiceStopped
	KindOperationFailed
	KindResourceNotAvailable
	KindResourceDoesNotExist
	KindResourceAlreadyExists

	kindCount
)

var kindNames = [kindCount]string{
	KindInternal:              "INTERNAL",
	KindInvalidArgument:       "INVALID_ARGUMENT",
	KindIncompleteHeaders:     "INCOMPLETE_HEADERS",
	KindInvalidContentSize:    "INVALID_CONTENT_SIZE",
	KindBadChunkID:            "BAD_CHUNK_ID",
	KindServiceStopped:        "SERVICE_STOPPED",
	KindOperationFailed:       "OPERATION_FAILED",
	KindResourceNotAvailable:  "RESOURCE_NOT_AVAILABLE",
	KindResourceDoesNotExist:  "RESOURCE_DOES_NOT_EXIST",
	KindResourceAlreadyExists: "RESOURCE_ALREADY_EXISTS",
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// String returns the wire code of the kind.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("KIND(%d)", int(k))
	}
	return kindNames[k]
}

// Error is the service error type. Err, when set, is the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TypeName keys exception meters by kind instead of by Go type.
func (e *Error) TypeName() string {
	return e.Kind.String()
}

// ErrServiceStopped is returned when a request arrives after shutdown began.
var ErrServiceStopped = &Error{Kind: KindServiceStopped, Message: "Service try to stop gracefully."}

// KindOf classifies err. Errors that are not *Error are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func NewInvalidArgument(message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message}
}

func NewIncompleteHeaders(header string) *Error {
	return &Error{Kind: KindIncompleteHeaders, Message: fmt.Sprintf("Header: %s is mandatory", header)}
}

func NewInvalidContentSize() *Error {
	return &Error{Kind: KindInvalidContentSize, Message: "Content-Length = 0"}
}

func NewOperationFailed(message string, cause error) *Error {
	return &Error{Kind: KindOperationFailed, Message: message, Err: cause}
}

func NewResourceNotAvailable(message string) *Error {
	return &Error{Kind: KindResourceNotAvailable, Message: message}
}

func NewResourceDoesNotExist(resource string) *Error {
	return &Error{Kind: KindResourceDoesNotExist, Message: fmt.Sprintf("resource does not exist: %s", resource)}
}

func NewResourceAlreadyExists(resource string) *Error {
	return &Error{Kind: KindResourceAlreadyExists, Message: fmt.Sprintf("resource already exists: %s", resource)}
}
