package handler

import (
	"vouch/internal/expiry"
	dErrors "vouch/pkg/domain-errors"
)

// RegisterRequest carries one register call. The registering identity comes
// from the bearer token.
type RegisterRequest struct {
	ItemType string `json:"item_type"`
	ItemID   uint64 `json:"item_id"`
	Expiry   uint64 `json:"expiry"`
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if r.ItemType == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "item_type is required")
	}
	if r.ItemID == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "item_id is required")
	}
	if r.Expiry == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "expiry is required")
	}
	return nil
}

// UpdateRequest carries one expiry update.
type UpdateRequest struct {
	Expiry uint64 `json:"expiry"`
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if r.Expiry == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "expiry is required")
	}
	return nil
}

// BatchCheckRequest carries many item refs for one consistent check.
type BatchCheckRequest struct {
	Items []BatchItem `json:"items"`
}

// BatchItem is one item ref in a batch check.
type BatchItem struct {
	ItemType string `json:"item_type"`
	ItemID   uint64 `json:"item_id"`
}

func (r *BatchCheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	for _, item := range r.Items {
		if item.ItemType == "" || item.ItemID == 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "each item needs item_type and item_id")
		}
	}
	return nil
}

// RecordResponse is the public projection of one tracked item.
type RecordResponse struct {
	ItemType     string `json:"item_type"`
	ItemID       uint64 `json:"item_id"`
	Expiry       uint64 `json:"expiry"`
	Expired      bool   `json:"expired"`
	RegisteredAt uint64 `json:"registered_at"`
}

func toRecordResponse(r *expiry.Record) RecordResponse {
	return RecordResponse{
		ItemType:     string(r.Key.Type),
		ItemID:       r.Key.ID,
		Expiry:       uint64(r.Expiry),
		Expired:      r.Expired,
		RegisteredAt: uint64(r.RegisteredAt),
	}
}

func toRecordResponses(records []*expiry.Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordResponse(r))
	}
	return out
}

// BatchResultResponse is one item's verdict in a batch check response.
type BatchResultResponse struct {
	ItemType string `json:"item_type"`
	ItemID   uint64 `json:"item_id"`
	Expired  bool   `json:"expired"`
	Error    string `json:"error,omitempty"`
	Code     int    `json:"code,omitempty"`
}
