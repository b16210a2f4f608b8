package provider

import (
	"errors"
	"fmt"
)

// Kind classifies a provider error so the Executor and Rate Limiter can make
// retry/skip/fatal decisions without knowing the concrete backend, mirroring
// the teacher's classifyError switch over sentinel errors.
type Kind int

// Error kinds, ordered from fatal to most benign.
const (
	KindUnknown Kind = iota
	KindAuthFailed
	KindPermissionDenied
	KindNotFound
	KindRateLimited
	KindTimeout
	KindConnectionFailed
	KindQuotaExceeded
	KindAPIError
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindAuthFailed:
		return "auth_failed"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindConnectionFailed:
		return "connection_failed"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindAPIError:
		return "api_error"
	case KindNotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Error is the classified error type every StorageProvider method returns.
type Error struct {
	Kind    Kind
	Backend string
	Op      string // e.g. "list", "upload"
	Path    string
	Err     error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("provider[%s]: %s %s: %s: %v", e.Backend, e.Op, e.Path, e.Kind, e.Err)
	}

	return fmt.Sprintf("provider[%s]: %s: %s: %v", e.Backend, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns a stable error code for the Report Aggregator's flattened
// error list (spec §7), one per Kind.
func (e *Error) Code() string {
	return "provider_" + e.Kind.String()
}

// NewError builds a classified provider error.
func NewError(backend, op, path string, kind Kind, err error) *Error {
	return &Error{Kind: kind, Backend: backend, Op: op, Path: path, Err: err}
}

// ErrNotImplemented is returned by optional operations a backend does not
// support (e.g. server-side Move), signaling callers to fall back.
var ErrNotImplemented = errors.New("provider: operation not implemented by this backend")

// IsNotFound reports whether err is (or wraps) a not-found provider error.
func IsNotFound(err error) bool {
	return kindOf(err) == KindNotFound
}

// IsRetryable reports whether the Executor should retry the operation with
// backoff rather than skip or abort. Mirrors the teacher's classifyError:
// throttling and transient connection/server failures are retryable, auth
// and permission failures are fatal, everything else is skip-tier.
func IsRetryable(err error) bool {
	switch kindOf(err) {
	case KindRateLimited, KindTimeout, KindConnectionFailed, KindAPIError:
		return true
	default:
		return false
	}
}

// IsFatal reports whether err should abort the entire sync run.
func IsFatal(err error) bool {
	switch kindOf(err) {
	case KindAuthFailed, KindPermissionDenied:
		return true
	default:
		return false
	}
}

// IsNotImplemented reports whether err signals that the backend does not
// support the attempted operation, so the caller should fall back.
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented) || kindOf(err) == KindNotImplemented
}

func kindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}

	return KindUnknown
}
