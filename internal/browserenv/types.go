// Package browserenv implements env.Environment against a live browser
// page over the Chrome DevTools Protocol. It speaks a minimal flat-session
// dialect directly over the browser WebSocket endpoint; the heavyweight
// auto-attach handshake is avoided because mobile-profile browser builds
// exit when service workers get attached.
package browserenv

import "fmt"

const (
	CodeValidation       = "VALIDATION"
	CodeAppNotFound      = "APP_NOT_FOUND"
	CodePageNotFound     = "PAGE_NOT_FOUND"
	CodeEvidenceNotFound = "EVIDENCE_NOT_FOUND"
	CodeEvalFailure      = "EVAL_FAILURE"
	CodeEvalTimeout      = "EVAL_TIMEOUT"
	CodeCDPUnavailable   = "CDP_UNAVAILABLE"
)

// CodedError is a typed error used for stable API mapping.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *CodedError) Unwrap() error { return e.Cause }

func newError(code, msg string, cause error) error {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}

// PageInfo describes the browser page the environment is bound to.
type PageInfo struct {
	TargetID string `json:"target_id"`
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
}
