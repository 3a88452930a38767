// Package resolver implements the install-method resolution and recovery
// engine: selecting and ordering install methods per host profile, filling
// command templates with host-specific values, classifying failed attempts
// against the layered handler catalog, and deciding remediation until a
// method succeeds or the run aborts.
package resolver

import (
	"errors"
	"fmt"

	"github.com/toolgrab/toolgrab/pkg/catalog"
)

// ErrorClass is the classification of a resolution error.
type ErrorClass string

const (
	// ErrorClassNoApplicableMethod means no eligible install method
	// remained after filtering against the host profile.
	ErrorClassNoApplicableMethod ErrorClass = "no_applicable_method"

	// ErrorClassUnresolvedPlaceholder means a placeholder token had no
	// mapping and the recipe declared no pass-through policy.
	ErrorClassUnresolvedPlaceholder ErrorClass = "unresolved_placeholder"

	// ErrorClassTransport covers network, rate-limit, TLS and DNS failures.
	ErrorClassTransport ErrorClass = "transport"

	// ErrorClassPackageManager covers package-manager failures: target not
	// found, locked database, stale index.
	ErrorClassPackageManager ErrorClass = "package_manager"

	// ErrorClassConfiguration covers tool-specific setup failures.
	ErrorClassConfiguration ErrorClass = "configuration"

	// ErrorClassResource covers resource exhaustion on the host.
	ErrorClassResource ErrorClass = "resource"

	// ErrorClassUnclassified is the backstop when no pattern matched.
	ErrorClassUnclassified ErrorClass = "unclassified"
)

// classForCategory maps a handler's failure category to an error class.
func classForCategory(c catalog.FailureCategory) ErrorClass {
	switch c {
	case catalog.CategoryTransport:
		return ErrorClassTransport
	case catalog.CategoryPackageManager:
		return ErrorClassPackageManager
	case catalog.CategoryConfiguration:
		return ErrorClassConfiguration
	case catalog.CategoryResource:
		return ErrorClassResource
	default:
		return ErrorClassUnclassified
	}
}

// ResolveError is a classified error with recipe and method context.
type ResolveError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Recipe is the recipe id the error belongs to, if known.
	Recipe string `json:"recipe,omitempty"`

	// Method is the install method being attempted, if any.
	Method string `json:"method,omitempty"`

	// Err is the underlying cause.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Recipe != "" {
		msg += fmt.Sprintf(" (recipe=%s", e.Recipe)
		if e.Method != "" {
			msg += fmt.Sprintf(", method=%s", e.Method)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is: two ResolveErrors are equal
// when their classes match.
func (e *ResolveError) Is(target error) bool {
	t, ok := target.(*ResolveError)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// WithRecipe adds recipe context to the error.
func (e *ResolveError) WithRecipe(recipe string) *ResolveError {
	e.Recipe = recipe
	return e
}

// WithMethod adds method context to the error.
func (e *ResolveError) WithMethod(method string) *ResolveError {
	e.Method = method
	return e
}

// NewNoApplicableMethodError reports that filtering left no eligible method.
func NewNoApplicableMethodError(message string) *ResolveError {
	return &ResolveError{Class: ErrorClassNoApplicableMethod, Message: message}
}

// NewUnresolvedPlaceholderError reports a placeholder that failed closed.
func NewUnresolvedPlaceholderError(message string) *ResolveError {
	return &ResolveError{Class: ErrorClassUnresolvedPlaceholder, Message: message}
}

// NewTransportError reports a network-shaped failure.
func NewTransportError(message string, err error) *ResolveError {
	return &ResolveError{Class: ErrorClassTransport, Message: message, Err: err}
}

// IsNoApplicableMethod reports whether err is a NoApplicableMethod error.
func IsNoApplicableMethod(err error) bool {
	return hasClass(err, ErrorClassNoApplicableMethod)
}

// IsUnresolvedPlaceholder reports whether err is an UnresolvedPlaceholder
// error.
func IsUnresolvedPlaceholder(err error) bool {
	return hasClass(err, ErrorClassUnresolvedPlaceholder)
}

// IsTransport reports whether err is a transport error.
func IsTransport(err error) bool {
	return hasClass(err, ErrorClassTransport)
}

func hasClass(err error, class ErrorClass) bool {
	var e *ResolveError
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}
