package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "vouch/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// ErrorResponse is the JSON envelope every failed call returns. The numeric
// code follows the ledger's 100/200/300 range contract so clients can present
// precise remediation.
type ErrorResponse struct {
	Error       string `json:"error"`
	Code        int    `json:"code"`
	Description string `json:"error_description,omitempty"`
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, CodeToHTTPStatus(domainErr.Code), ErrorResponse{
			Error:       domainErr.Code.Name(),
			Code:        int(domainErr.Code),
			Description: domainErr.Message,
		})
		return
	}

	// Fallback for unexpected errors; never leak internals.
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: dErrors.CodeInternal.Name(),
		Code:  int(dErrors.CodeInternal),
	})
}

// CodeToHTTPStatus translates domain error codes to HTTP status codes.
func CodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotVerifiedProvider, dErrors.CodeNotRecordOwner, dErrors.CodeAccessDenied:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeDuplicateGrant, dErrors.CodeDuplicateItem:
		return http.StatusConflict
	case dErrors.CodeInvalidInput, dErrors.CodeInvalidCheckType, dErrors.CodeInvalidStatus,
		dErrors.CodeInvalidExpiryWindow, dErrors.CodeInvalidItemType:
		return http.StatusBadRequest
	case dErrors.CodeSubjectNotRegistered, dErrors.CodeInvalidReference,
		dErrors.CodeAlreadyExpired, dErrors.CodeGrantNotActive, dErrors.CodeNotYetExpired:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
