package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reclaim-app/reclaim/internal/auth"
	"github.com/reclaim-app/reclaim/internal/collection"
	"github.com/reclaim-app/reclaim/internal/registry"
	"github.com/reclaim-app/reclaim/internal/store"
	"github.com/reclaim-app/reclaim/pkg/models"
)

var (
	alice = auth.Actor{ID: "u1", Email: "a@x.com"}
	bob   = auth.Actor{ID: "u2", Email: "b@x.com"}
)

type testEnv struct {
	router   *chi.Mux
	tokens   *auth.TokenService
	identity *auth.TokenService
	store    *store.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	m := store.NewMemory()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	m.SetClock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	})

	tokens := auth.NewTokenService("test-signing-key", "reclaim-test")
	// Stand-in identity provider: a second token service whose tokens play
	// the role of Firebase ID tokens in the exchange flow.
	identity := auth.NewTokenService("identity-provider-key", "identity-test")

	reg := registry.New(m)
	col := collection.New(m)
	h := New(reg, col, tokens, identity)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/token", h.ExchangeToken)
		r.Get("/items", h.ListItems)
		r.Get("/items/{id}", h.GetItem)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/items", h.CreateItem)
			r.Get("/items/mine", h.ListOwnedItems)
			r.Post("/items/{id}/active", h.SetActive)
			r.Post("/items/{id}/collect", h.CollectItem)
			r.Get("/items/{id}/receipt", h.Receipt)
		})
	})

	return &testEnv{router: r, tokens: tokens, identity: identity, store: m}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, actor *auth.Actor) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, err := e.tokens.Generate(*actor, time.Hour)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createItem(t *testing.T, actor auth.Actor, body map[string]interface{}) models.Item {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/items", body, &actor)
	if w.Code != http.StatusCreated {
		t.Fatalf("create item: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var item models.Item
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("unmarshal item: %v", err)
	}
	return item
}

func validCollectBody() map[string]interface{} {
	return map[string]interface{}{
		"details": map[string]interface{}{
			"collector_name":  "Bob",
			"roll_number":     "123",
			"phone":           "555",
			"email":           "b@x.com",
			"id_card_photo":   true,
			"collector_photo": true,
			"item_photo":      true,
		},
	}
}

func TestCreateItemAuthAndValidation(t *testing.T) {
	e := newTestEnv(t)

	// No token.
	w := e.do(t, http.MethodPost, "/api/items", map[string]interface{}{"contact_email": "a@x.com"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated create: expected 401, got %d", w.Code)
	}

	// Both contacts missing.
	w = e.do(t, http.MethodPost, "/api/items", map[string]interface{}{"title": "Phone"}, &alice)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing contacts: expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// Unknown category.
	w = e.do(t, http.MethodPost, "/api/items", map[string]interface{}{
		"contact_email": "a@x.com", "category": "vehicles",
	}, &alice)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown category: expected 400, got %d", w.Code)
	}

	// Defaults applied on a minimal valid request.
	item := e.createItem(t, alice, map[string]interface{}{"contact_email": "a@x.com"})
	if item.Title != "Untitled Item" || item.Location != "Unknown" {
		t.Errorf("defaults not applied: %+v", item)
	}
	if item.Category != models.CategoryOther || item.Status != models.StatusLost {
		t.Errorf("enum defaults not applied: %+v", item)
	}
	if !item.IsActive || item.UserID != "u1" {
		t.Errorf("wrong lifecycle fields: %+v", item)
	}
}

func TestListItemsFiltersAndSearch(t *testing.T) {
	e := newTestEnv(t)

	e.createItem(t, alice, map[string]interface{}{
		"title": "Blue Water Bottle", "status": "lost", "category": "accessories",
		"contact_email": "a@x.com",
	})
	e.createItem(t, alice, map[string]interface{}{
		"title": "Calculus Textbook", "status": "found", "category": "books",
		"contact_email": "a@x.com",
	})

	w := e.do(t, http.MethodGet, "/api/items?status=lost", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var items []models.Item
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal items: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Blue Water Bottle" {
		t.Errorf("status filter returned %d items", len(items))
	}

	w = e.do(t, http.MethodGet, "/api/items?search=WATER", nil, nil)
	items = nil
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal items: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Blue Water Bottle" {
		t.Errorf("search returned %d items", len(items))
	}

	w = e.do(t, http.MethodGet, "/api/items?status=stolen", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid status: expected 400, got %d", w.Code)
	}
}

func TestSetActiveOwnership(t *testing.T) {
	e := newTestEnv(t)
	item := e.createItem(t, alice, map[string]interface{}{"title": "Phone", "contact_email": "a@x.com"})

	// Missing is_active field.
	w := e.do(t, http.MethodPost, "/api/items/"+item.ID+"/active", map[string]interface{}{}, &alice)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing is_active: expected 400, got %d", w.Code)
	}

	// Non-owner.
	w = e.do(t, http.MethodPost, "/api/items/"+item.ID+"/active", map[string]interface{}{"is_active": false}, &bob)
	if w.Code != http.StatusForbidden {
		t.Errorf("non-owner: expected 403, got %d: %s", w.Code, w.Body.String())
	}

	// Unknown item.
	w = e.do(t, http.MethodPost, "/api/items/no-such-id/active", map[string]interface{}{"is_active": false}, &alice)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown item: expected 404, got %d", w.Code)
	}

	// Owner.
	w = e.do(t, http.MethodPost, "/api/items/"+item.ID+"/active", map[string]interface{}{"is_active": false}, &alice)
	if w.Code != http.StatusOK {
		t.Fatalf("owner: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Deactivated items disappear from the public listing.
	w = e.do(t, http.MethodGet, "/api/items", nil, nil)
	var items []models.Item
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty listing, got %d items", len(items))
	}
}

func TestCollectScenario(t *testing.T) {
	e := newTestEnv(t)

	item := e.createItem(t, alice, map[string]interface{}{
		"title": "Phone", "status": "lost", "contact_email": "a@x.com",
	})
	if !item.IsActive || item.UserID != "u1" {
		t.Fatalf("unexpected created item: %+v", item)
	}

	// Incomplete collector details are rejected before the workflow runs.
	w := e.do(t, http.MethodPost, "/api/items/"+item.ID+"/collect", map[string]interface{}{
		"details": map[string]interface{}{"collector_name": "Bob"},
	}, &bob)
	if w.Code != http.StatusBadRequest {
		t.Errorf("incomplete details: expected 400, got %d", w.Code)
	}

	// Missing photo attestations are rejected.
	body := validCollectBody()
	body["details"].(map[string]interface{})["item_photo"] = false
	w = e.do(t, http.MethodPost, "/api/items/"+item.ID+"/collect", body, &bob)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing photo: expected 400, got %d", w.Code)
	}

	// Successful collection by a different user.
	w = e.do(t, http.MethodPost, "/api/items/"+item.ID+"/collect", validCollectBody(), &bob)
	if w.Code != http.StatusOK {
		t.Fatalf("collect: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/api/items/"+item.ID, nil, nil)
	var got models.Item
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal item: %v", err)
	}
	if got.IsActive {
		t.Error("expected isActive=false after collection")
	}
	if got.CollectedBy != "u2" || got.CollectedAt == nil || got.CollectionDetails == nil {
		t.Errorf("collection fields not all set: %+v", got)
	}

	// Retry fails with 409 and changes nothing.
	w = e.do(t, http.MethodPost, "/api/items/"+item.ID+"/collect", validCollectBody(), &bob)
	if w.Code != http.StatusConflict {
		t.Errorf("retry: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// Unknown item.
	w = e.do(t, http.MethodPost, "/api/items/no-such-id/collect", validCollectBody(), &bob)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown item: expected 404, got %d", w.Code)
	}
}

func TestReceiptDownload(t *testing.T) {
	e := newTestEnv(t)
	item := e.createItem(t, alice, map[string]interface{}{
		"title": "Blue Water Bottle", "contact_email": "a@x.com",
	})

	// Not collected yet.
	w := e.do(t, http.MethodGet, "/api/items/"+item.ID+"/receipt", nil, &bob)
	if w.Code != http.StatusConflict {
		t.Errorf("uncollected receipt: expected 409, got %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/api/items/"+item.ID+"/collect", validCollectBody(), &bob)
	if w.Code != http.StatusOK {
		t.Fatalf("collect: expected 200, got %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/items/"+item.ID+"/receipt", nil, &bob)
	if w.Code != http.StatusOK {
		t.Fatalf("receipt: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "receipt_Blue_Water_Bottle_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	for _, line := range []string{
		"LOST & FOUND COLLECTION RECEIPT",
		"- Title: Blue Water Bottle",
		"- Name: Bob",
		"- Reported By: a@x.com",
	} {
		if !strings.Contains(w.Body.String(), line) {
			t.Errorf("receipt missing %q", line)
		}
	}
}

func TestListOwnedItems(t *testing.T) {
	e := newTestEnv(t)

	first := e.createItem(t, alice, map[string]interface{}{"title": "First", "contact_email": "a@x.com"})
	second := e.createItem(t, alice, map[string]interface{}{"title": "Second", "contact_email": "a@x.com"})
	e.createItem(t, bob, map[string]interface{}{"title": "Other", "contact_email": "b@x.com"})

	// Deactivated items still show up in the owner's history.
	w := e.do(t, http.MethodPost, "/api/items/"+first.ID+"/active", map[string]interface{}{"is_active": false}, &alice)
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/items/mine", nil, &alice)
	if w.Code != http.StatusOK {
		t.Fatalf("list mine: expected 200, got %d", w.Code)
	}
	var items []models.Item
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 owned items, got %d", len(items))
	}
	// Newest first.
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Errorf("wrong order: %s, %s", items[0].Title, items[1].Title)
	}

	w = e.do(t, http.MethodGet, "/api/items/mine", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated: expected 401, got %d", w.Code)
	}
}

func TestExchangeToken(t *testing.T) {
	e := newTestEnv(t)

	idToken, err := e.identity.Generate(alice, time.Hour)
	if err != nil {
		t.Fatalf("generate id token: %v", err)
	}

	w := e.do(t, http.MethodPost, "/api/token", map[string]interface{}{"id_token": idToken}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("exchange: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp exchangeResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal exchange response: %v", err)
	}
	if resp.Token == "" || resp.ExpiresIn <= 0 {
		t.Fatalf("bad exchange response: %+v", resp)
	}

	// The minted service token works on authenticated routes.
	req := httptest.NewRequest(http.MethodGet, "/api/items/mine", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("minted token: expected 200, got %d", rec.Code)
	}

	// Invalid identity tokens are rejected.
	w = e.do(t, http.MethodPost, "/api/token", map[string]interface{}{"id_token": "garbage"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage id token: expected 401, got %d", w.Code)
	}
	w = e.do(t, http.MethodPost, "/api/token", map[string]interface{}{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing id token: expected 400, got %d", w.Code)
	}
}
