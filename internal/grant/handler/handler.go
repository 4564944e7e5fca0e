package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vouch/internal/attestation"
	atthandler "vouch/internal/attestation/handler"
	"vouch/internal/clock"
	"vouch/internal/grant"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

// Service defines the interface for consent ledger operations.
type Service interface {
	Grant(ctx context.Context, caller domain.Identity, grantee domain.Identity,
		attestationID domain.AttestationID, expiry domain.Time) (*grant.Record, error)
	Revoke(ctx context.Context, caller domain.Identity, id domain.GrantID) error
	CheckAccess(ctx context.Context, grantee domain.Identity, attestationID domain.AttestationID) (bool, error)
	Fetch(ctx context.Context, grantee domain.Identity, attestationID domain.AttestationID) (*attestation.Record, error)
	Get(ctx context.Context, id domain.GrantID) (*grant.Record, error)
	ListAccessible(ctx context.Context, grantee domain.Identity) ([]*attestation.Record, error)
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*grant.Record, error)
}

// Handler handles grant endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	clock   clock.Clock
}

// New creates a new grant Handler.
func New(service Service, clk clock.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		clock:   clk,
	}
}

// Register registers the grant routes with the chi router. Access checks and
// fetches act on behalf of the authenticated caller, so the grantee never
// appears in those paths.
func (h *Handler) Register(r chi.Router) {
	r.Post("/grants", h.handleGrant)
	r.Post("/grants/{id}/revoke", h.handleRevoke)
	r.Get("/grants/{id}", h.handleGet)
	r.Get("/access/{attestationID}", h.handleCheckAccess)
	r.Get("/access/{attestationID}/record", h.handleFetch)
	r.Get("/access", h.handleListAccessible)
	r.Get("/subjects/{subjectID}/grants", h.handleListBySubject)
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Identity(ctx)

	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode grant request", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Grant(ctx, caller, domain.Identity(req.Grantee),
		domain.AttestationID(req.AttestationID), domain.Time(req.Expiry))
	if err != nil {
		h.logger.WarnContext(ctx, "grant rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toGrantResponse(rec, h.clock.Now()))
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseGrantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Revoke(ctx, requestcontext.Identity(ctx), id); err != nil {
		h.logger.WarnContext(ctx, "grant revoke rejected", "grant_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseGrantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toGrantResponse(rec, h.clock.Now()))
}

func (h *Handler) handleCheckAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseAttestationID(chi.URLParam(r, "attestationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	allowed, err := h.service.CheckAccess(ctx, requestcontext.Identity(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseAttestationID(chi.URLParam(r, "attestationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Fetch(ctx, requestcontext.Identity(ctx), id)
	if err != nil {
		h.logger.WarnContext(ctx, "fetch denied",
			"attestation_id", id,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, atthandler.ToRecordResponse(record, h.clock.Now()))
}

func (h *Handler) handleListAccessible(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.service.ListAccessible(ctx, requestcontext.Identity(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"attestations": atthandler.ToRecordResponses(records, h.clock.Now()),
	})
}

func (h *Handler) handleListBySubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, err := domain.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	grants, err := h.service.ListBySubject(ctx, subjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"grants": toGrantResponses(grants, h.clock.Now()),
	})
}
