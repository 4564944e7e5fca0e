package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vouch/internal/attestation"
	"vouch/internal/clock"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

// Service defines the interface for attestation ledger operations.
type Service interface {
	Issue(ctx context.Context, caller domain.Identity, subjectID domain.SubjectID,
		checkType attestation.CheckType, status attestation.Status, validUntil domain.Time) (*attestation.Record, error)
	Revoke(ctx context.Context, caller domain.Identity, id domain.AttestationID) error
	IsValid(ctx context.Context, id domain.AttestationID) (bool, error)
	Get(ctx context.Context, id domain.AttestationID) (*attestation.Record, error)
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*attestation.Record, error)
	ListByIssuer(ctx context.Context, issuerID domain.ProviderID) ([]*attestation.Record, error)
	ListValidBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*attestation.Record, error)
}

// Handler handles attestation endpoints. It delegates to the service without
// embedding business logic so transport concerns remain isolated.
type Handler struct {
	logger  *slog.Logger
	service Service
	clock   clock.Clock
}

// New creates a new attestation Handler.
func New(service Service, clk clock.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		clock:   clk,
	}
}

// Register registers the attestation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/attestations", h.handleIssue)
	r.Post("/attestations/{id}/revoke", h.handleRevoke)
	r.Get("/attestations/{id}", h.handleGet)
	r.Get("/attestations/{id}/valid", h.handleIsValid)
	r.Get("/subjects/{subjectID}/attestations", h.handleListBySubject)
	r.Get("/issuers/{issuerID}/attestations", h.handleListByIssuer)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Identity(ctx)

	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode issue request", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Issue(ctx, caller, domain.SubjectID(req.SubjectID),
		attestation.CheckType(req.CheckType), attestation.Status(req.Status), domain.Time(req.ValidUntil))
	if err != nil {
		h.logger.WarnContext(ctx, "issue rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, ToRecordResponse(record, h.clock.Now()))
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseAttestationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Revoke(ctx, requestcontext.Identity(ctx), id); err != nil {
		h.logger.WarnContext(ctx, "revoke rejected", "attestation_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseAttestationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ToRecordResponse(record, h.clock.Now()))
}

func (h *Handler) handleIsValid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseAttestationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	valid, err := h.service.IsValid(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *Handler) handleListBySubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, err := domain.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var records []*attestation.Record
	if r.URL.Query().Get("valid") == "true" {
		records, err = h.service.ListValidBySubject(ctx, subjectID)
	} else {
		records, err = h.service.ListBySubject(ctx, subjectID)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"attestations": ToRecordResponses(records, h.clock.Now()),
	})
}

func (h *Handler) handleListByIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issuerID, err := domain.ParseProviderID(chi.URLParam(r, "issuerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.ListByIssuer(ctx, issuerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"attestations": ToRecordResponses(records, h.clock.Now()),
	})
}
