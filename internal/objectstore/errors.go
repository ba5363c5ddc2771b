package objectstore

import (
	"errors"
	"fmt"
)

const (
	CodeEndpointUnreachable = "E_ENDPOINT_UNREACHABLE"
	CodeAuthInvalid         = "E_AUTH_INVALID"
	CodeBucketNotFound      = "E_BUCKET_NOT_FOUND"
	CodeObjectNotFound      = "E_OBJECT_NOT_FOUND"
	CodePermissionDenied    = "E_PERMISSION_DENIED"
	CodeTimeout             = "E_TIMEOUT"
	CodeUploadFailed        = "E_UPLOAD_FAILED"
)

// Error wraps object-store failures with retryability hints.
type Error struct {
	Code      string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func wrapError(code string, retryable bool, err error) *Error {
	if err == nil {
		return &Error{Code: code, Retryable: retryable}
	}
	return &Error{Code: code, Retryable: retryable, Err: err}
}

// IsAuthError reports whether err classifies as a credential failure.
// Credential failures on upload are the one non-fatal export failure path.
func IsAuthError(err error) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == CodeAuthInvalid
	}
	return false
}
