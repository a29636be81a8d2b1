package contracts

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a handler failure for the acknowledgment policy.
// Permanent kinds are acknowledged and never redelivered; transient kinds
// are requeued. The kind is an explicit tag carried by the error value,
// never derived from message text.
type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindConflict
)

// Permanent reports whether retrying cannot fix the failure.
func (k ErrorKind) Permanent() bool {
	return k != KindTransient
}

// Status maps the kind to its HTTP-equivalent status code.
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Name returns the stable error name surfaced to external callers.
func (k ErrorKind) Name() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindAuth:
		return "AuthorizationError"
	case KindConflict:
		return "ConflictError"
	default:
		return "InternalError"
	}
}

// DomainError is a business failure produced by a service handler.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.Name(), e.Message)
}

// Permanent reports whether the delivery should be acknowledged anyway.
func (e *DomainError) Permanent() bool { return e.Kind.Permanent() }

// NewValidationError reports malformed or missing caller input.
func NewValidationError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports an absent referenced entity.
func NewNotFoundError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewAuthError reports that the actor lacks rights for the operation.
func NewAuthError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindAuth, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError reports a duplicate unique key.
func NewConflictError(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification tag from an error chain. Anything
// that is not a DomainError is transient by definition.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindTransient
}

// IsPermanent reports whether the error must be acknowledged without retry.
func IsPermanent(err error) bool {
	return KindOf(err).Permanent()
}

// ErrorBodyOf converts an error into the structured body that crosses the
// broker boundary.
func ErrorBodyOf(err error) *ErrorBody {
	kind := KindOf(err)
	message := "internal error"
	if kind.Permanent() {
		var de *DomainError
		errors.As(err, &de)
		message = de.Message
	}
	return &ErrorBody{
		Status:  kind.Status(),
		Name:    kind.Name(),
		Message: message,
	}
}

// RemoteError is how a worker's structured error body surfaces on the
// calling side of a command.
type RemoteError struct {
	Status  int
	Name    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d %s: %s", e.Status, e.Name, e.Message)
}

// NewRemoteError builds a RemoteError from a reply's error body.
func NewRemoteError(body *ErrorBody) *RemoteError {
	return &RemoteError{Status: body.Status, Name: body.Name, Message: body.Message}
}
