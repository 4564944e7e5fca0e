package handler

import (
	"vouch/internal/grant"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// GrantRequest carries one grant call. The granter comes from the bearer
// token, never from the body.
type GrantRequest struct {
	Grantee       string `json:"grantee"`
	AttestationID uint64 `json:"attestation_id"`
	Expiry        uint64 `json:"expiry"`
}

// Validate checks that the request is well-formed. Window and ownership
// checks belong to the domain layer.
func (r *GrantRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if r.Grantee == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "grantee is required")
	}
	if r.AttestationID == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "attestation_id is required")
	}
	if r.Expiry == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "expiry is required")
	}
	return nil
}

// GrantResponse is the public projection of one grant record.
type GrantResponse struct {
	ID            uint64 `json:"id"`
	SubjectID     uint64 `json:"subject_id"`
	Grantee       string `json:"grantee"`
	AttestationID uint64 `json:"attestation_id"`
	GrantedAt     uint64 `json:"granted_at"`
	Expiry        uint64 `json:"expiry"`
	State         string `json:"state"`
}

func toGrantResponse(r *grant.Record, now domain.Time) GrantResponse {
	return GrantResponse{
		ID:            uint64(r.ID),
		SubjectID:     uint64(r.SubjectID),
		Grantee:       string(r.Grantee),
		AttestationID: uint64(r.AttestationID),
		GrantedAt:     uint64(r.GrantedAt),
		Expiry:        uint64(r.Expiry),
		State:         string(r.StateAt(now)),
	}
}

func toGrantResponses(records []*grant.Record, now domain.Time) []GrantResponse {
	out := make([]GrantResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toGrantResponse(r, now))
	}
	return out
}
