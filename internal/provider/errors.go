package provider

import "fmt"

// ErrorKind is the closed set of provider failure classes.
type ErrorKind string

const (
	// KindNotInstalled means the required CLI is absent from PATH.
	KindNotInstalled ErrorKind = "not_installed"
	// KindNotAuthenticated means CLI or API credentials are missing or expired.
	KindNotAuthenticated ErrorKind = "not_authenticated"
	// KindNotSupported means the operation is unavailable on this backend.
	KindNotSupported ErrorKind = "not_supported"
	// KindAPIError is a non-2xx HTTP response.
	KindAPIError ErrorKind = "api_error"
	// KindParseError is a malformed or unexpected response body.
	KindParseError ErrorKind = "parse_error"
	// KindCommandFailed is a non-zero subprocess exit with no auth signal.
	KindCommandFailed ErrorKind = "command_failed"
	// KindGitError means local repository inspection failed.
	KindGitError ErrorKind = "git_error"
	// KindUnknownProvider means the remote URL matched no known provider.
	KindUnknownProvider ErrorKind = "unknown_provider"
)

// Error is the error type returned by every provider operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int   // HTTP status, set for KindAPIError
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotInstalled:
		return fmt.Sprintf("provider CLI not installed: %s", e.Message)
	case KindNotAuthenticated:
		return fmt.Sprintf("provider authentication failed: %s", e.Message)
	case KindNotSupported:
		return fmt.Sprintf("feature not supported: %s", e.Message)
	case KindAPIError:
		return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
	case KindParseError:
		return fmt.Sprintf("failed to parse: %s", e.Message)
	case KindCommandFailed:
		return fmt.Sprintf("command failed: %s", e.Message)
	case KindGitError:
		return fmt.Sprintf("git error: %s", e.Message)
	case KindUnknownProvider:
		return fmt.Sprintf("unknown provider for URL: %s", e.Message)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure class is transient. The
// classification is a pure function of the kind: install, auth,
// capability and detection failures never resolve by retrying.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNotInstalled, KindNotAuthenticated, KindNotSupported, KindGitError, KindUnknownProvider:
		return false
	default:
		return true
	}
}

// NotInstalled reports that the named CLI could not be resolved.
func NotInstalled(cli string) *Error {
	return &Error{Kind: KindNotInstalled, Message: cli}
}

// NotAuthenticated reports missing or rejected credentials.
func NotAuthenticated(msg string) *Error {
	return &Error{Kind: KindNotAuthenticated, Message: msg}
}

// NotSupported reports an operation the backend cannot perform.
func NotSupported(feature string) *Error {
	return &Error{Kind: KindNotSupported, Message: feature}
}

// APIError reports a non-success HTTP response.
func APIError(status int, msg string) *Error {
	return &Error{Kind: KindAPIError, Status: status, Message: msg}
}

// ParseError reports unparseable backend output.
func ParseError(msg string) *Error {
	return &Error{Kind: KindParseError, Message: msg}
}

// CommandFailed reports a failed subprocess with no auth signal.
func CommandFailed(msg string) *Error {
	return &Error{Kind: KindCommandFailed, Message: msg}
}

// GitError reports a local repository inspection failure.
func GitError(msg string, err error) *Error {
	return &Error{Kind: KindGitError, Message: msg, Err: err}
}

// UnknownProvider reports a remote URL no provider pattern matched.
func UnknownProvider(url string) *Error {
	return &Error{Kind: KindUnknownProvider, Message: url}
}
