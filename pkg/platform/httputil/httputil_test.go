package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vouch/pkg/domain-errors"
)

func TestWriteErrorDomainEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.New(dErrors.CodeDuplicateGrant, "grant already active for pair"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "duplicate_grant", body.Error)
	assert.Equal(t, 205, body.Code)
	assert.Equal(t, "grant already active for pair", body.Description)
}

func TestWriteErrorUnknownErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal_error", body.Error)
	assert.Empty(t, body.Description, "internal errors must not leak driver messages")
}

func TestCodeToHTTPStatusRanges(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, CodeToHTTPStatus(dErrors.CodeUnauthorized))
	assert.Equal(t, http.StatusForbidden, CodeToHTTPStatus(dErrors.CodeAccessDenied))
	assert.Equal(t, http.StatusBadRequest, CodeToHTTPStatus(dErrors.CodeInvalidCheckType))
	assert.Equal(t, http.StatusNotFound, CodeToHTTPStatus(dErrors.CodeNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, CodeToHTTPStatus(dErrors.CodeGrantNotActive))
	assert.Equal(t, http.StatusInternalServerError, CodeToHTTPStatus(dErrors.CodeInternal))
}
