package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"apotekpos/backend/internal/cache"
	"apotekpos/backend/internal/domain"
	"apotekpos/backend/internal/kitchen"
	"apotekpos/backend/internal/loyalty"
	"apotekpos/backend/internal/service"
	"apotekpos/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	engine := loyalty.NewEngine(repo, cache.NoopTierCache{}, time.Minute)
	svc := service.New(repo, engine, kitchen.NoopClient{}, 0)
	auth := NewAuthManager("test-secret-key", time.Hour, "123456", repo)

	return New(svc, auth, "*")
}

// mustHashPassword generates a bcrypt hash of the given password or fails the test.
func mustHashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "admin123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["access_token"] == "" || body["access_token"] == nil {
		t.Fatalf("expected access_token in response, got %v", body)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleProducts_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleProducts_WithValidToken(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	token := loginAsAdmin(t, api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["products"] == nil {
		t.Fatalf("expected products key in response, got %v", body)
	}
}

// postJSON issues an authenticated, CSRF-carrying POST and returns the recorder.
func postJSON(t *testing.T, api *API, token, csrf, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleCheckout_EndToEnd(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	// Open a shift first: checkout requires an open shift when shift_id is set.
	rec := postJSON(t, api, token, csrf, "/api/v1/shifts", domain.ShiftOpenRequest{
		ShiftName:         "morning",
		InitialCashAmount: 500_000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open shift failed: %d (body: %s)", rec.Code, rec.Body.String())
	}
	var shiftResp domain.ShiftResponse
	if err := json.NewDecoder(rec.Body).Decode(&shiftResp); err != nil {
		t.Fatalf("decode shift response: %v", err)
	}

	rec = postJSON(t, api, token, csrf, "/api/v1/checkout", domain.CheckoutRequest{
		ShiftID:       shiftResp.Shift.ID,
		PaymentMethod: "cash",
		PaidAmount:    25_000,
		CartItems:     []domain.CartItem{{ProductID: "FNB-TEH-01", Qty: 2}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout failed: %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Receipt domain.Receipt `json:"receipt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode checkout response: %v", err)
	}
	if body.Receipt.Total != 20_000 {
		t.Fatalf("expected total 20000, got %d", body.Receipt.Total)
	}
	if body.Receipt.ChangeAmount != 5_000 {
		t.Fatalf("expected change 5000, got %d", body.Receipt.ChangeAmount)
	}
	if body.Receipt.TransactionNumber == "" {
		t.Fatalf("expected a transaction number on the receipt")
	}
}

func TestHandleCheckout_InsufficientStockReturns409(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	// VIT-D-01 is seeded with 30 units; 31 exceeds the available stock while
	// the payment comfortably covers the total.
	rec := postJSON(t, api, token, csrf, "/api/v1/checkout", domain.CheckoutRequest{
		PaymentMethod: "cash",
		PaidAmount:    2_000_000,
		CartItems:     []domain.CartItem{{ProductID: "VIT-D-01", Qty: 31}},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for insufficient stock, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleCheckout_InsufficientPaymentReturns402(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	rec := postJSON(t, api, token, csrf, "/api/v1/checkout", domain.CheckoutRequest{
		PaymentMethod: "cash",
		PaidAmount:    10_000,
		CartItems:     []domain.CartItem{{ProductID: "FNB-TEH-01", Qty: 5}},
	})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 for underpayment, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleShifts_DuplicateOpenReturns409(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	open := domain.ShiftOpenRequest{ShiftName: "evening", InitialCashAmount: 300_000}
	rec := postJSON(t, api, token, csrf, "/api/v1/shifts", open)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first open failed: %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, api, token, csrf, "/api/v1/shifts", open)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate open shift, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleVoid_RequiresManagerPIN(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	rec := postJSON(t, api, token, csrf, "/api/v1/transactions/tx-any/void", map[string]string{
		"reason":      "damaged goods",
		"manager_pin": "999999",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong manager pin, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleVoid_EndToEnd(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	rec := postJSON(t, api, token, csrf, "/api/v1/checkout", domain.CheckoutRequest{
		PaymentMethod: "cash",
		PaidAmount:    20_000,
		CartItems:     []domain.CartItem{{ProductID: "FNB-TEH-01", Qty: 2}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout failed: %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Receipt domain.Receipt `json:"receipt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode checkout response: %v", err)
	}

	voidPath := "/api/v1/transactions/" + body.Receipt.TransactionID + "/void"
	payload := map[string]string{"reason": "cashier error", "manager_pin": "123456"}

	rec = postJSON(t, api, token, csrf, voidPath, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("void failed: %d (body: %s)", rec.Code, rec.Body.String())
	}

	// Second void of the same transaction conflicts.
	rec = postJSON(t, api, token, csrf, voidPath, payload)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second void, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleDailyReport_RequiresAdminRole(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsCashier(t, api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/daily", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier on daily report, got %d", rec.Code)
	}
}

// TestMustHashPassword verifies that the test helper produces valid bcrypt hashes
// (used to confirm test infrastructure is sound).
func TestMustHashPassword(t *testing.T) {
	hash := mustHashPassword(t, "secret")
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")); err != nil {
		t.Fatalf("hash verification failed: %v", err)
	}
}
