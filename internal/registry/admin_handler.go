package registry

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/platform/sentinel"
)

// AdminHandler exposes seeding endpoints for the in-memory registries. It is
// mounted only in standalone mode; in production the registries are external
// services and these routes do not exist.
type AdminHandler struct {
	volunteers *InMemoryVolunteers
	providers  *InMemoryProviders
}

func NewAdminHandler(volunteers *InMemoryVolunteers, providers *InMemoryProviders) *AdminHandler {
	return &AdminHandler{volunteers: volunteers, providers: providers}
}

// Register mounts the admin routes on the given router.
func (h *AdminHandler) Register(r chi.Router) {
	r.Post("/registry/volunteers", h.RegisterVolunteer)
	r.Post("/registry/providers", h.AddProvider)
	r.Post("/registry/providers/{providerID}/verify", h.VerifyProvider)
}

type registerRequest struct {
	Identity domain.Identity `json:"identity"`
}

func (h *AdminHandler) RegisterVolunteer(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Identity.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "identity is required"))
		return
	}

	subjectID, err := h.volunteers.Register(r.Context(), req.Identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uint64{"subject_id": uint64(subjectID)})
}

func (h *AdminHandler) AddProvider(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Identity.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "identity is required"))
		return
	}

	providerID, err := h.providers.Add(r.Context(), req.Identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uint64{"provider_id": uint64(providerID)})
}

func (h *AdminHandler) VerifyProvider(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "providerID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid provider id"))
		return
	}

	if err := h.providers.Verify(r.Context(), domain.ProviderID(id)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			err = dErrors.New(dErrors.CodeNotFound, "provider not found")
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}
