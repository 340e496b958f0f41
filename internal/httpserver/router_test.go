package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tour-settlement-go/internal/booking"
	"tour-settlement-go/internal/domain"
	"tour-settlement-go/internal/httpserver/handlers"
	"tour-settlement-go/internal/httpserver/middleware"
	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/webhook"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

const (
	testJWTSecret     = "jwt-secret"
	testWebhookSecret = "whsec"
)

const capturedBody = `{"event":"payment.captured","payload":{"payment":{"entity":{
"id":"pay_001","amount":1000000,"currency":"INR","method":"upi","created_at":1893456000,
"notes":{"bookingID":"BK1","tourID":"tour1","tourName":"Spiti Valley","agentID":"TA5600012025001",
"tourGivenOccupancy":"2","tourActualOccupancy":20}}}}}`

type fakeSettler struct {
	result *models.SettlementResult
	err    error
	got    *models.PaymentEvent
}

func (f *fakeSettler) Settle(_ context.Context, event models.PaymentEvent) (*models.SettlementResult, error) {
	f.got = &event
	return f.result, f.err
}

type fakeCancellations struct {
	lastAction string
	deduction  decimal.Decimal
	ids        []string
	err        error
}

func (f *fakeCancellations) result(action string, ids []string) (*models.CancellationResult, error) {
	f.lastAction, f.ids = action, ids
	if f.err != nil {
		return nil, f.err
	}
	return &models.CancellationResult{Booking: &models.Booking{BookingId: "BK1"}, Updated: ids, Message: action + " ok"}, nil
}

func (f *fakeCancellations) Request(_ context.Context, _ models.Actor, _ string, ids []string, _ string) (*models.CancellationResult, error) {
	return f.result("request", ids)
}

func (f *fakeCancellations) Approve(_ context.Context, _ models.Actor, _ string, ids []string, d decimal.Decimal) (*models.CancellationResult, error) {
	f.deduction = d
	return f.result("approve", ids)
}

func (f *fakeCancellations) Reject(_ context.Context, _ models.Actor, _ string, ids []string, _ string) (*models.CancellationResult, error) {
	return f.result("reject", ids)
}

func (f *fakeCancellations) Withdraw(_ context.Context, _ models.Actor, _ string, ids []string) (*models.CancellationResult, error) {
	return f.result("withdraw", ids)
}

func (f *fakeCancellations) ListPending(context.Context, models.Actor) ([]models.Booking, error) {
	return nil, nil
}

type fakeBookings struct{}

func (fakeBookings) Checkout(_ context.Context, actor models.Actor, req booking.CheckoutRequest) (*models.Booking, bool, error) {
	if req.TourId == "" {
		return nil, false, domain.ValidationError{Field: "tourId", Msg: "is required"}
	}
	return &models.Booking{BookingId: "BK1"}, true, nil
}

func (fakeBookings) Get(_ context.Context, actor models.Actor, bookingId string) (*models.Booking, error) {
	if bookingId != "BK1" {
		return nil, domain.NotFoundError{Resource: "booking"}
	}
	return &models.Booking{BookingId: "BK1"}, nil
}

type fakeWallets struct{ healthErr error }

func (f fakeWallets) HealthCheck(context.Context) error { return f.healthErr }

func (fakeWallets) GetAgentWallet(_ context.Context, agentId string, _, _ int) (*models.WalletSummary, error) {
	return &models.WalletSummary{AgentId: agentId, Balance: decimal.NewFromInt(850)}, nil
}

type fakeReceipts struct{}

func (fakeReceipts) Generate(_ context.Context, paymentId string) ([]byte, string, error) {
	return []byte("%PDF-1.3"), "RECEIPT_" + paymentId + ".pdf", nil
}

type testServer struct {
	router        *gin.Engine
	settler       *fakeSettler
	cancellations *fakeCancellations
	verifier      *webhook.Verifier
}

func newTestServer(t *testing.T, wallets fakeWallets) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		settler: &fakeSettler{result: &models.SettlementResult{
			Transaction: &models.Transaction{PaymentId: "pay_001"},
		}},
		cancellations: &fakeCancellations{},
		verifier:      webhook.NewVerifier(testWebhookSecret),
	}
	h := handlers.New(handlers.Deps{
		Settler:       ts.settler,
		Cancellations: ts.cancellations,
		Bookings:      fakeBookings{},
		Wallets:       wallets,
		Receipts:      fakeReceipts{},
		Verifier:      ts.verifier,
	})
	ts.router = NewRouter(models.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}}, testJWTSecret, h)
	return ts
}

func token(t *testing.T, role, subject string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + signed
}

func (ts *testServer) do(method, path, auth, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestPaymentWebhook(t *testing.T) {
	ts := newTestServer(t, fakeWallets{})
	sig := map[string]string{"X-Razorpay-Signature": ts.verifier.Sign([]byte(capturedBody))}

	w := ts.do(http.MethodPost, "/api/webhooks/payments", "", capturedBody, sig)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ts.settler.got == nil || ts.settler.got.PaymentId != "pay_001" {
		t.Fatalf("settler not called with parsed event: %+v", ts.settler.got)
	}
	if !ts.settler.got.Amount.Equal(decimal.NewFromInt(10_000)) {
		t.Errorf("expected amount 10000, got %s", ts.settler.got.Amount)
	}
	if n := ts.settler.got.Notes; n.GivenOccupancy != 2 || n.ActualOccupancy != 20 {
		t.Errorf("expected occupancy 2/20, got %d/%d", n.GivenOccupancy, n.ActualOccupancy)
	}

	var result models.SettlementResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if result.Transaction == nil || result.Transaction.PaymentId != "pay_001" {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestPaymentWebhookRejections(t *testing.T) {
	ts := newTestServer(t, fakeWallets{})

	ignored := `{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_002"}}}}`
	missingNotes := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_003","amount":100,"notes":{}}}}}`

	tests := []struct {
		name string
		body string
		sig  string
		want int
	}{
		{"missing signature", capturedBody, "", http.StatusUnauthorized},
		{"wrong signature", capturedBody, ts.verifier.Sign([]byte("other")), http.StatusUnauthorized},
		{"other event ignored", ignored, ts.verifier.Sign([]byte(ignored)), http.StatusOK},
		{"missing notes", missingNotes, ts.verifier.Sign([]byte(missingNotes)), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.settler.got = nil
			w := ts.do(http.MethodPost, "/api/webhooks/payments", "", tt.body, map[string]string{"X-Razorpay-Signature": tt.sig})
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if ts.settler.got != nil {
				t.Error("settler should not be called")
			}
		})
	}
}

func TestPaymentWebhookSettlementErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"conflict", domain.ConflictError{Resource: "booking", Msg: "booking is cancelled"}, http.StatusConflict},
		{"not found", domain.NotFoundError{Resource: "booking"}, http.StatusNotFound},
		{"wallet credit failed", domain.InternalError{Msg: "wallet credit failed", Err: errors.New("locked")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, fakeWallets{})
			ts.settler.err = tt.err
			sig := map[string]string{"X-Razorpay-Signature": ts.verifier.Sign([]byte(capturedBody))}

			w := ts.do(http.MethodPost, "/api/webhooks/payments", "", capturedBody, sig)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if !strings.Contains(w.Body.String(), "request_id") {
				t.Errorf("expected request_id in error body: %s", w.Body.String())
			}
		})
	}
}

func TestCancellationRoutes(t *testing.T) {
	ts := newTestServer(t, fakeWallets{})
	admin := token(t, "superadmin", "root")
	agent := token(t, "agent", "TA5600012025001")
	customer := token(t, "customer", "cust1")

	w := ts.do(http.MethodPost, "/api/bookings/BK1/cancellation", customer, `{"travelerIds":["t1"],"reason":"ill"}`, nil)
	if w.Code != http.StatusOK || ts.cancellations.lastAction != "request" {
		t.Fatalf("request: status %d action %s", w.Code, ts.cancellations.lastAction)
	}

	w = ts.do(http.MethodPut, "/api/bookings/BK1/cancellation", admin, `{"travelerIds":["t1","t2"],"action":"approve","deductionPercentage":20}`, nil)
	if w.Code != http.StatusOK || ts.cancellations.lastAction != "approve" {
		t.Fatalf("approve: status %d action %s", w.Code, ts.cancellations.lastAction)
	}
	if !ts.cancellations.deduction.Equal(decimal.NewFromInt(20)) || len(ts.cancellations.ids) != 2 {
		t.Errorf("approve args: deduction %s ids %v", ts.cancellations.deduction, ts.cancellations.ids)
	}

	w = ts.do(http.MethodPut, "/api/bookings/BK1/cancellation", admin, `{"action":"REJECT","reason":"no"}`, nil)
	if w.Code != http.StatusOK || ts.cancellations.lastAction != "reject" {
		t.Fatalf("reject: status %d action %s", w.Code, ts.cancellations.lastAction)
	}

	w = ts.do(http.MethodPut, "/api/bookings/BK1/cancellation", admin, `{"action":"maybe"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid action: expected 400, got %d", w.Code)
	}

	w = ts.do(http.MethodPost, "/api/bookings/BK1/cancellation/withdraw", agent, "", nil)
	if w.Code != http.StatusOK || ts.cancellations.lastAction != "withdraw" {
		t.Fatalf("withdraw: status %d action %s", w.Code, ts.cancellations.lastAction)
	}

	w = ts.do(http.MethodGet, "/api/cancellations/pending", admin, "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":0`) {
		t.Errorf("pending: status %d body %s", w.Code, w.Body.String())
	}
}

func TestRoleGating(t *testing.T) {
	ts := newTestServer(t, fakeWallets{})
	customer := token(t, "customer", "cust1")
	agent := token(t, "agent", "TA5600012025001")

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		body   string
		want   int
	}{
		{"no token", http.MethodGet, "/api/bookings/BK1", "", "", http.StatusUnauthorized},
		{"customer cannot decide", http.MethodPut, "/api/bookings/BK1/cancellation", customer, `{"action":"approve"}`, http.StatusForbidden},
		{"customer cannot withdraw", http.MethodPost, "/api/bookings/BK1/cancellation/withdraw", customer, "", http.StatusForbidden},
		{"agent cannot list pending", http.MethodGet, "/api/cancellations/pending", agent, "", http.StatusForbidden},
		{"agent reads other wallet", http.MethodGet, "/api/agents/TA9999992025001/wallet", agent, "", http.StatusForbidden},
		{"customer reads receipt", http.MethodGet, "/api/transactions/pay_001/receipt", customer, "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(tt.method, tt.path, tt.auth, tt.body, nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestBookingWalletReceiptAndHealth(t *testing.T) {
	ts := newTestServer(t, fakeWallets{})
	customer := token(t, "customer", "cust1")
	agent := token(t, "agent", "TA5600012025001")

	if w := ts.do(http.MethodPost, "/api/bookings", customer, `{"tourId":"tour1","travelers":[{"name":"Asha","age":30}]}`, nil); w.Code != http.StatusCreated {
		t.Errorf("checkout: expected 201, got %d", w.Code)
	}
	if w := ts.do(http.MethodPost, "/api/bookings", customer, `{"travelers":[]}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("checkout validation: expected 400, got %d", w.Code)
	}
	if w := ts.do(http.MethodPost, "/api/bookings", customer, "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("checkout empty body: expected 400, got %d", w.Code)
	}
	if w := ts.do(http.MethodGet, "/api/bookings/BK404", customer, "", nil); w.Code != http.StatusNotFound {
		t.Errorf("get booking: expected 404, got %d", w.Code)
	}

	w := ts.do(http.MethodGet, "/api/agents/TA5600012025001/wallet?limit=5", agent, "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"balance":"850"`) {
		t.Errorf("wallet: status %d body %s", w.Code, w.Body.String())
	}
	if w := ts.do(http.MethodGet, "/api/agents/TA5600012025001/wallet?limit=abc", agent, "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("wallet bad limit: expected 400, got %d", w.Code)
	}

	w = ts.do(http.MethodGet, "/api/transactions/pay_001/receipt", agent, "", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("receipt: status %d content-type %s", w.Code, w.Header().Get("Content-Type"))
	}

	if w := ts.do(http.MethodGet, "/api/health", "", "", nil); w.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", w.Code)
	}
	if w := ts.do(http.MethodGet, "/api/nowhere", "", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("no route: expected 404, got %d", w.Code)
	}

	down := newTestServer(t, fakeWallets{healthErr: errors.New("db closed")})
	if w := down.do(http.MethodGet, "/api/health", "", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("health down: expected 503, got %d", w.Code)
	}
}
