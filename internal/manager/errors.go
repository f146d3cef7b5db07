package manager

import (
	"errors"
	"net/http"
)

type validationKind int

const (
	kindInvalid validationKind = iota
	kindNotFound
	kindNotLoaded
	kindExists
	kindInProgress
)

// validationError rejects a request that conflicts with current state or
// carries bad input. Maps to 400.
type validationError struct {
	kind validationKind
	msg  string
}

func (e validationError) Error() string   { return e.msg }
func (e validationError) StatusCode() int { return http.StatusBadRequest }

// ErrModelNotFound returns an error when a name is not in the registry.
func ErrModelNotFound(name string) error {
	return validationError{kind: kindNotFound, msg: "model not found: " + name}
}

// ErrModelNotLoaded returns an error when generation targets an unloaded model.
func ErrModelNotLoaded(name string) error {
	return validationError{kind: kindNotLoaded, msg: "model " + name + " is not loaded"}
}

func errInvalid(msg string) error { return validationError{kind: kindInvalid, msg: msg} }

func asValidation(err error) (validationError, bool) {
	var v validationError
	ok := errors.As(err, &v)
	return v, ok
}

// IsValidation reports whether err rejects the request itself (return 400).
func IsValidation(err error) bool {
	_, ok := asValidation(err)
	return ok
}

// IsModelNotFound reports whether the error indicates an unregistered name.
func IsModelNotFound(err error) bool {
	v, ok := asValidation(err)
	return ok && v.kind == kindNotFound
}

// IsModelNotLoaded reports whether the error indicates the model has no handle.
func IsModelNotLoaded(err error) bool {
	v, ok := asValidation(err)
	return ok && v.kind == kindNotLoaded
}

// IsAlreadyExists reports whether a download targeted a registered name.
func IsAlreadyExists(err error) bool {
	v, ok := asValidation(err)
	return ok && v.kind == kindExists
}

// IsDownloadInProgress reports whether a download for the name is running.
func IsDownloadInProgress(err error) bool {
	v, ok := asValidation(err)
	return ok && v.kind == kindInProgress
}

// orchestrationError is a lifecycle failure. The message is generic; the
// cause is logged, not returned.
type orchestrationError struct {
	op  string
	msg string
}

func (e orchestrationError) Error() string   { return e.msg }
func (e orchestrationError) StatusCode() int { return http.StatusInternalServerError }

// IsOrchestration reports whether err is a lifecycle failure.
func IsOrchestration(err error) bool {
	var o orchestrationError
	return errors.As(err, &o)
}

// dependencyUnavailableError signals a missing external dependency (e.g., llama.cpp)
// so the HTTP layer can return 503 Service Unavailable instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string   { return e.msg }
func (e dependencyUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var d dependencyUnavailableError
	return errors.As(err, &d)
}
