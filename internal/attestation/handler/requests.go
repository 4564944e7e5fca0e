package handler

import (
	"vouch/internal/attestation"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// IssueRequest carries one issue call. The issuer comes from the bearer
// token, never from the body.
type IssueRequest struct {
	SubjectID  uint64 `json:"subject_id"`
	CheckType  string `json:"check_type"`
	Status     string `json:"status"`
	ValidUntil uint64 `json:"valid_until"`
}

// Validate checks that the request is well-formed. Enum membership and
// window checks belong to the domain layer; this only rejects what cannot
// even be expressed.
func (r *IssueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if r.SubjectID == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "subject_id is required")
	}
	if r.CheckType == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "check_type is required")
	}
	if r.Status == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "status is required")
	}
	if r.ValidUntil == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "valid_until is required")
	}
	return nil
}

// RecordResponse is the public projection of one attestation record.
type RecordResponse struct {
	ID             uint64 `json:"id"`
	SubjectID      uint64 `json:"subject_id"`
	IssuerID       uint64 `json:"issuer_id"`
	CheckType      string `json:"check_type"`
	Status         string `json:"status"`
	IssuedAt       uint64 `json:"issued_at"`
	ValidUntil     uint64 `json:"valid_until"`
	State          string `json:"state"`
}

func ToRecordResponse(r *attestation.Record, now domain.Time) RecordResponse {
	return RecordResponse{
		ID:         uint64(r.ID),
		SubjectID:  uint64(r.SubjectID),
		IssuerID:   uint64(r.IssuerID),
		CheckType:  string(r.CheckType),
		Status:     string(r.Status),
		IssuedAt:   uint64(r.IssuedAt),
		ValidUntil: uint64(r.ValidUntil),
		State:      string(r.StateAt(now)),
	}
}

func ToRecordResponses(records []*attestation.Record, now domain.Time) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ToRecordResponse(r, now))
	}
	return out
}
