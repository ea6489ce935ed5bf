// Package handlers exposes the registry and collection workflow as a JSON
// API. Field-level validation lives here: the core services trust their
// inputs, so malformed requests must be rejected before any operation runs.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reclaim-app/reclaim/internal/auth"
	"github.com/reclaim-app/reclaim/internal/collection"
	"github.com/reclaim-app/reclaim/internal/receipt"
	"github.com/reclaim-app/reclaim/internal/registry"
	"github.com/reclaim-app/reclaim/internal/store"
	"github.com/reclaim-app/reclaim/pkg/models"
)

// serviceTokenTTL is the lifetime of tokens minted by the exchange endpoint.
const serviceTokenTTL = 24 * time.Hour

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	registry   *registry.Service
	collection *collection.Service
	tokens     *auth.TokenService
	identity   auth.Verifier // identity provider used by the token exchange
}

// New creates a new Handler. identity may be nil when no external identity
// provider is configured; the exchange endpoint then rejects all requests.
func New(reg *registry.Service, col *collection.Service, tokens *auth.TokenService, identity auth.Verifier) *Handler {
	return &Handler{registry: reg, collection: col, tokens: tokens, identity: identity}
}

// --- Token exchange ---

type exchangeReq struct {
	IDToken string `json:"id_token"`
}

type exchangeResp struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}

// ExchangeToken swaps a verified identity-provider token for a service token.
// POST /api/token
func (h *Handler) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	if h.identity == nil {
		jsonError(w, "token exchange is not configured", http.StatusServiceUnavailable)
		return
	}

	var req exchangeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		jsonError(w, "id_token is required", http.StatusBadRequest)
		return
	}

	actor, err := h.identity.Verify(r.Context(), req.IDToken)
	if err != nil || !actor.Authenticated() {
		jsonError(w, "invalid identity token", http.StatusUnauthorized)
		return
	}

	token, err := h.tokens.Generate(actor, serviceTokenTTL)
	if err != nil {
		log.Printf("error generating service token for %s: %v", actor.ID, err)
		jsonError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	jsonOK(w, http.StatusOK, exchangeResp{Token: token, ExpiresIn: int64(serviceTokenTTL.Seconds())})
}

// --- Item registry ---

type createItemReq struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Location     string `json:"location"`
	Status       string `json:"status"`
	ImageURL     string `json:"image_url"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email"`
}

// CreateItem registers a new report for the authenticated actor.
// POST /api/items
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ContactPhone == "" && req.ContactEmail == "" {
		jsonError(w, "at least one of contact_phone or contact_email is required", http.StatusBadRequest)
		return
	}
	if req.Category != "" && !models.ValidCategory(models.Category(req.Category)) {
		jsonError(w, "unknown category", http.StatusBadRequest)
		return
	}
	if req.Status != "" && !models.ValidStatus(models.Status(req.Status)) {
		jsonError(w, "status must be lost or found", http.StatusBadRequest)
		return
	}

	item, err := h.registry.Create(r.Context(), registry.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     models.Category(req.Category),
		Location:     req.Location,
		Status:       models.Status(req.Status),
		ImageURL:     req.ImageURL,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
	}, actor)
	if err != nil {
		h.writeError(w, "create item", err)
		return
	}

	jsonOK(w, http.StatusCreated, item)
}

// ListItems returns active items matching the query filters.
// GET /api/items?status=&category=&search=
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := models.Status(q.Get("status"))
	if status != "" && !models.ValidStatus(status) {
		jsonError(w, "status must be lost or found", http.StatusBadRequest)
		return
	}
	category := models.Category(q.Get("category"))
	if category != "" && !models.ValidCategory(category) {
		jsonError(w, "unknown category", http.StatusBadRequest)
		return
	}

	items, err := h.registry.List(r.Context(), registry.Filter{
		Status:   status,
		Category: category,
		Search:   q.Get("search"),
	})
	if err != nil {
		h.writeError(w, "list items", err)
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	jsonOK(w, http.StatusOK, items)
}

// ListOwnedItems returns the caller's full report history.
// GET /api/items/mine
func (h *Handler) ListOwnedItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	items, err := h.registry.ListOwned(r.Context(), actor)
	if err != nil {
		h.writeError(w, "list owned items", err)
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	jsonOK(w, http.StatusOK, items)
}

// GetItem returns a single item.
// GET /api/items/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get item", err)
		return
	}
	jsonOK(w, http.StatusOK, item)
}

type setActiveReq struct {
	IsActive *bool `json:"is_active"`
}

// SetActive flips an owned item's visibility flag.
// POST /api/items/{id}/active
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req setActiveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		jsonError(w, "is_active is required", http.StatusBadRequest)
		return
	}

	if err := h.registry.SetActive(r.Context(), chi.URLParam(r, "id"), *req.IsActive, actor); err != nil {
		h.writeError(w, "set active", err)
		return
	}
	jsonOK(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Collection workflow ---

type collectReq struct {
	Details *collectDetails `json:"details"`
}

type collectDetails struct {
	CollectorName  string `json:"collector_name"`
	RollNumber     string `json:"roll_number"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	IDCardPhoto    bool   `json:"id_card_photo"`
	CollectorPhoto bool   `json:"collector_photo"`
	ItemPhoto      bool   `json:"item_photo"`
}

// CollectItem marks an item as collected by the authenticated actor. When
// details are supplied, every collector field and all three photo
// attestations are required before the workflow runs; the photos themselves
// are never uploaded here, only the fact that they were presented.
// POST /api/items/{id}/collect
func (h *Handler) CollectItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req collectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var details *models.CollectionDetails
	if req.Details != nil {
		d := req.Details
		if d.CollectorName == "" || d.RollNumber == "" || d.Phone == "" || d.Email == "" {
			jsonError(w, "collector_name, roll_number, phone, and email are required", http.StatusBadRequest)
			return
		}
		if !d.IDCardPhoto || !d.CollectorPhoto || !d.ItemPhoto {
			jsonError(w, "id card, collector, and item photos are required", http.StatusBadRequest)
			return
		}
		details = &models.CollectionDetails{
			CollectorName: d.CollectorName,
			RollNumber:    d.RollNumber,
			Phone:         d.Phone,
			Email:         d.Email,
			HasPhotos:     true,
		}
	}

	if err := h.collection.Collect(r.Context(), chi.URLParam(r, "id"), details, actor); err != nil {
		h.writeError(w, "collect item", err)
		return
	}
	jsonOK(w, http.StatusOK, map[string]bool{"success": true})
}

// Receipt serves the plain-text collection receipt for a collected item.
// GET /api/items/{id}/receipt
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	item, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get item for receipt", err)
		return
	}
	if !item.Collected() {
		jsonError(w, "item has not been collected", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+receipt.Filename(item)+`"`)
	w.Write([]byte(receipt.Generate(item)))
}

// --- helpers ---

// writeError maps domain sentinels to HTTP statuses. Anything else is an
// infrastructure failure and surfaces as an opaque 500.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		jsonError(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, "item not found", http.StatusNotFound)
	case errors.Is(err, registry.ErrPermissionDenied):
		jsonError(w, "not authorized", http.StatusForbidden)
	case errors.Is(err, store.ErrAlreadyCollected):
		jsonError(w, "item already collected", http.StatusConflict)
	default:
		log.Printf("error in %s: %v", op, err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
