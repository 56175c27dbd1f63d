package errors

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RejectCode classifies why the advice service refused a call.
// Values follow the Internet Computer reject codes used by the advice canister.
type RejectCode int

const (
	RejectUnknown RejectCode = iota
	RejectSysFatal
	RejectSysTransient
	RejectDestinationInvalid
	RejectCanisterReject
	RejectCanisterError
)

var rejectNames = map[RejectCode]string{
	RejectUnknown:            "Unknown",
	RejectSysFatal:           "SysFatal",
	RejectSysTransient:       "SysTransient",
	RejectDestinationInvalid: "DestinationInvalid",
	RejectCanisterReject:     "CanisterReject",
	RejectCanisterError:      "CanisterError",
}

// String returns the reject code name
func (c RejectCode) String() string {
	if name, ok := rejectNames[c]; ok {
		return name
	}
	return fmt.Sprintf("RejectCode(%d)", int(c))
}

// Alertable reports whether rejects of this kind are surfaced to the user
func (c RejectCode) Alertable() bool {
	return c == RejectSysTransient || c == RejectCanisterReject
}

// ParseRejectCode accepts either a reject code name or its numeric value
func ParseRejectCode(s string) RejectCode {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		code := RejectCode(n)
		if _, ok := rejectNames[code]; ok {
			return code
		}
		return RejectUnknown
	}
	for code, name := range rejectNames {
		if strings.EqualFold(name, s) {
			return code
		}
	}
	return RejectUnknown
}

// RejectCodeFromHTTPStatus maps hosted-LLM HTTP failures onto reject codes.
// Throttling and server faults are transient; other client errors are rejects.
func RejectCodeFromHTTPStatus(status int) RejectCode {
	switch {
	case status == 429 || status >= 500:
		return RejectSysTransient
	case status >= 400:
		return RejectCanisterReject
	default:
		return RejectUnknown
	}
}

// RejectError is the structured failure of an advice request
type RejectError struct {
	Code    RejectCode
	Message string
	Cause   error
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("advice rejected: %s, %q", e.Code, e.Message)
}

// Unwrap returns the backend error the reject was built from
func (e *RejectError) Unwrap() error {
	return e.Cause
}

// Recognized reports whether the reject should raise a user alert
func (e *RejectError) Recognized() bool {
	return e.Code.Alertable() && e.Message != ""
}

// NewRejectError creates a new RejectError
func NewRejectError(code RejectCode, message string) *RejectError {
	return &RejectError{Code: code, Message: message}
}

// AsReject extracts a RejectError from err's chain
func AsReject(err error) (*RejectError, bool) {
	var rejectErr *RejectError
	if errors.As(err, &rejectErr) {
		return rejectErr, true
	}
	return nil, false
}

// rejectTextPattern finds `SysTransient, "msg"` or the escaped `CanisterReject, \"msg\"`
var rejectTextPattern = regexp.MustCompile(`(SysTransient|CanisterReject), \\*"([^\\"]+)`)

// ParseRejectText looks for an alertable reject inside free-form error text.
// It is used for collaborators that only report failures as strings.
func ParseRejectText(text string) (*RejectError, bool) {
	m := rejectTextPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return NewRejectError(ParseRejectCode(m[1]), m[2]), true
}

// AlertMessage returns the text to show the user for a failed advice request.
// Structured rejects win; otherwise the error text and any response body are scanned.
func AlertMessage(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if rejectErr, ok := AsReject(err); ok {
		if rejectErr.Recognized() {
			return rejectErr.Message, true
		}
		return "", false
	}
	for _, text := range []string{err.Error(), GetResponseBody(err)} {
		if rejectErr, ok := ParseRejectText(text); ok {
			return rejectErr.Message, true
		}
	}
	return "", false
}
