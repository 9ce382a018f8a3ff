package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes audit failures. The split matters for propagation: local,
// recoverable issues are logged as warnings and never become an AuditError;
// everything represented here aborts the run.
type Kind string

const (
	// KindExtraction means the extraction collaborator could not deliver a
	// complete entity collection. The run must not persist a snapshot.
	KindExtraction Kind = "Extraction"
	// KindCorruptSnapshot means a stored snapshot exists but does not parse
	// into the expected shape. Deliberately not folded into "not found":
	// silently forgetting history would suppress real drift detection.
	KindCorruptSnapshot Kind = "CorruptSnapshot"
	// KindStorage covers filesystem failures around the snapshot store.
	KindStorage Kind = "Storage"
	// KindConfiguration covers invalid or missing configuration.
	KindConfiguration Kind = "Configuration"
	// KindNotification covers failures delivering a report or alert.
	KindNotification Kind = "Notification"
)

// AuditError is a run-aborting failure with a category and a wrapped cause.
type AuditError struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AuditError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *AuditError) Unwrap() error {
	return e.Cause
}

// New creates an AuditError without a cause.
func New(kind Kind, message string) *AuditError {
	return &AuditError{Kind: kind, Message: message}
}

// Wrap creates an AuditError around an underlying cause.
func Wrap(kind Kind, message string, cause error) *AuditError {
	return &AuditError{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of an error if it is (or wraps) an AuditError.
func KindOf(err error) (Kind, bool) {
	var ae *AuditError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

// ExitCode maps an error to a sysexits-style process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	kind, ok := KindOf(err)
	if !ok {
		return 1
	}

	switch kind {
	case KindConfiguration:
		return 78 // EX_CONFIG
	case KindStorage, KindCorruptSnapshot:
		return 66 // EX_NOINPUT
	case KindExtraction:
		return 69 // EX_UNAVAILABLE
	case KindNotification:
		return 75 // EX_TEMPFAIL
	default:
		return 1
	}
}
