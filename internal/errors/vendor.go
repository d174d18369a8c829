package errors

import (
	"fmt"
	"strings"
)

// maxVendorMessageLen bounds the vendor error text we carry around (and
// ultimately forward to callers). Vendor payloads can be arbitrarily large.
const maxVendorMessageLen = 200

// VendorError is a classified non-2xx response from the Salesforce REST,
// Composite or Data Cloud Metadata APIs.
type VendorError struct {
	StatusCode int    // HTTP status of the vendor response
	Code       string // vendor error code, e.g. "NOT_FOUND", when present
	Message    string // vendor message, truncated to maxVendorMessageLen
}

func (e *VendorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("salesforce api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("salesforce api error %d: %s", e.StatusCode, e.Message)
}

func (e *VendorError) Is(target error) bool {
	return target == ErrVendorAPI
}

// NewVendorError builds a VendorError, truncating the message.
func NewVendorError(statusCode int, code, message string) *VendorError {
	return &VendorError{StatusCode: statusCode, Code: code, Message: TruncateMessage(message)}
}

// NotFound reports whether the error means "no such object / invalid type".
// The vendor error code is authoritative; the message-substring check is a
// last resort for responses that omit a structured code.
func (e *VendorError) NotFound() bool {
	switch e.Code {
	case "NOT_FOUND", "INVALID_TYPE":
		return true
	}
	if e.Code != "" {
		return false
	}
	return e.StatusCode == 404 ||
		strings.Contains(e.Message, "NOT_FOUND") ||
		strings.Contains(e.Message, "INVALID_TYPE")
}

// AuthFailure reports whether the error means the access token was rejected.
func (e *VendorError) AuthFailure() bool {
	return e.StatusCode == 401 || e.Code == "INVALID_SESSION_ID"
}

// TruncateMessage bounds a vendor-supplied message so it can never balloon
// an error payload.
func TruncateMessage(msg string) string {
	if len(msg) > maxVendorMessageLen {
		return msg[:maxVendorMessageLen]
	}
	return msg
}
