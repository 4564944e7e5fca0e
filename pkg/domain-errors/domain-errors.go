package domainerrors

import "errors"

// Code numbers a stable domain error category independent of the transport
// layer. The numeric ranges mirror the original ledger contract and are part
// of the public API:
//
//	100-199 authorization failures
//	200-299 validation failures
//	300-399 business logic failures
type Code int

const (
	// Authorization (100-199)
	CodeUnauthorized        Code = 100
	CodeNotVerifiedProvider Code = 101
	CodeNotRecordOwner      Code = 102
	CodeAccessDenied        Code = 103

	// Validation (200-299)
	CodeInvalidInput        Code = 200
	CodeInvalidCheckType    Code = 201
	CodeInvalidStatus       Code = 202
	CodeInvalidExpiryWindow Code = 203
	CodeNotFound            Code = 204
	CodeDuplicateGrant      Code = 205
	CodeInvalidItemType     Code = 206
	CodeDuplicateItem       Code = 207

	// Business logic (300-399)
	CodeSubjectNotRegistered Code = 300
	CodeInvalidReference     Code = 301
	CodeAlreadyExpired       Code = 302
	CodeGrantNotActive       Code = 303
	CodeNotYetExpired        Code = 304

	// Internal (not part of the numeric contract; infrastructure failures)
	CodeInternal Code = 500
)

// Name returns the stable snake_case label clients can match on.
func (c Code) Name() string {
	switch c {
	case CodeUnauthorized:
		return "unauthorized"
	case CodeNotVerifiedProvider:
		return "not_verified_provider"
	case CodeNotRecordOwner:
		return "not_record_owner"
	case CodeAccessDenied:
		return "access_denied"
	case CodeInvalidInput:
		return "invalid_input"
	case CodeInvalidCheckType:
		return "invalid_check_type"
	case CodeInvalidStatus:
		return "invalid_status"
	case CodeInvalidExpiryWindow:
		return "invalid_expiry_window"
	case CodeNotFound:
		return "not_found"
	case CodeDuplicateGrant:
		return "duplicate_grant"
	case CodeInvalidItemType:
		return "invalid_item_type"
	case CodeDuplicateItem:
		return "duplicate_item"
	case CodeSubjectNotRegistered:
		return "subject_not_registered"
	case CodeInvalidReference:
		return "invalid_reference"
	case CodeAlreadyExpired:
		return "already_expired"
	case CodeGrantNotActive:
		return "grant_not_active"
	case CodeNotYetExpired:
		return "not_yet_expired"
	default:
		return "internal_error"
	}
}

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Name()
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the code from a domain error, or CodeInternal for anything else.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
