package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vouch/internal/expiry"
	"vouch/internal/expiry/service"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

// Service defines the interface for expiry tracker operations.
type Service interface {
	Register(ctx context.Context, caller domain.Identity, key expiry.Key, at domain.Time) (*expiry.Record, error)
	MarkExpired(ctx context.Context, caller domain.Identity, key expiry.Key) error
	UpdateExpiry(ctx context.Context, caller domain.Identity, key expiry.Key, at domain.Time) error
	IsExpired(ctx context.Context, key expiry.Key) (bool, error)
	TimeUntilExpiry(ctx context.Context, key expiry.Key) (domain.Time, error)
	WillExpireWithin(ctx context.Context, key expiry.Key, window uint64) (bool, error)
	ItemsExpiringAt(ctx context.Context, at domain.Time) ([]*expiry.Record, error)
	CheckBatch(ctx context.Context, keys []expiry.Key) ([]service.BatchResult, error)
}

// Handler handles expiry tracker endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new expiry Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: svc,
	}
}

// Register registers the expiry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/expiry/items", h.handleRegister)
	r.Post("/expiry/items/{type}/{id}/mark", h.handleMarkExpired)
	r.Put("/expiry/items/{type}/{id}", h.handleUpdate)
	r.Get("/expiry/items/{type}/{id}/expired", h.handleIsExpired)
	r.Get("/expiry/items/{type}/{id}/remaining", h.handleTimeUntilExpiry)
	r.Get("/expiry/schedule/{at}", h.handleItemsExpiringAt)
	r.Post("/expiry/checks", h.handleCheckBatch)
}

func itemKey(r *http.Request) (expiry.Key, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return expiry.Key{}, dErrors.New(dErrors.CodeInvalidInput, "item id must be a positive integer")
	}
	return expiry.Key{Type: expiry.ItemType(chi.URLParam(r, "type")), ID: id}, nil
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Identity(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Register(ctx, caller,
		expiry.Key{Type: expiry.ItemType(req.ItemType), ID: req.ItemID}, domain.Time(req.Expiry))
	if err != nil {
		h.logger.WarnContext(ctx, "expiry registration rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toRecordResponse(rec))
}

func (h *Handler) handleMarkExpired(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, err := itemKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.MarkExpired(ctx, requestcontext.Identity(ctx), key); err != nil {
		h.logger.WarnContext(ctx, "mark expired rejected", "item_type", key.Type, "item_id", key.ID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"expired": true})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, err := itemKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.UpdateExpiry(ctx, requestcontext.Identity(ctx), key, domain.Time(req.Expiry)); err != nil {
		h.logger.WarnContext(ctx, "expiry update rejected", "item_type", key.Type, "item_id", key.ID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"expiry": req.Expiry})
}

func (h *Handler) handleIsExpired(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, err := itemKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// An optional window turns the point check into will-expire-within.
	if windowParam := r.URL.Query().Get("within"); windowParam != "" {
		window, err := strconv.ParseUint(windowParam, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "within must be a non-negative integer"))
			return
		}
		within, err := h.service.WillExpireWithin(ctx, key, window)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"expires_within": within})
		return
	}

	expired, err := h.service.IsExpired(ctx, key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"expired": expired})
}

func (h *Handler) handleTimeUntilExpiry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, err := itemKey(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	remaining, err := h.service.TimeUntilExpiry(ctx, key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"remaining": uint64(remaining)})
}

func (h *Handler) handleItemsExpiringAt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	at, err := domain.ParseTime(chi.URLParam(r, "at"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.ItemsExpiringAt(ctx, at)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"items": toRecordResponses(records),
	})
}

func (h *Handler) handleCheckBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BatchCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	keys := make([]expiry.Key, 0, len(req.Items))
	for _, item := range req.Items {
		keys = append(keys, expiry.Key{Type: expiry.ItemType(item.ItemType), ID: item.ItemID})
	}

	results, err := h.service.CheckBatch(ctx, keys)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]BatchResultResponse, 0, len(results))
	for _, res := range results {
		item := BatchResultResponse{
			ItemType: string(res.Key.Type),
			ItemID:   res.Key.ID,
			Expired:  res.Expired,
		}
		if res.Err != nil {
			item.Error = dErrors.CodeOf(res.Err).Name()
			item.Code = int(dErrors.CodeOf(res.Err))
		}
		out = append(out, item)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": out})
}
