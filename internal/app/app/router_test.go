package app

import (
	"aishop/internal/app/config"
	"aishop/internal/app/handler"
	"aishop/internal/app/logger"
	"aishop/internal/app/model"
	"aishop/internal/app/service/reconciler"
	"aishop/internal/app/session"
	"aishop/internal/app/storage/memory"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

const testAPIKey = "gw-secret"

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func newTestApp(t *testing.T, apiKey string) (*App, *memory.Store, http.Handler) {
	t.Helper()

	s := memory.New()
	cfg := config.New()
	cfg.Gateway.APIKey = apiKey
	cfg.Gateway.StorefrontURL = "https://shop.test/"

	a := &App{
		config:     cfg,
		logger:     logger.Nop(),
		ledger:     s,
		wallets:    s,
		session:    session.NewJWT("test-secret", session.WithIssuer("aishop")),
		reconciler: reconciler.New(s, nil, time.Second),
	}

	return a, s, a.Router()
}

func callbackBody(status, txID string, amount int64, customer string) string {
	return fmt.Sprintf(`{"status":%q,"transaction_id":%q,"amount":%d,"order_id":"ORD-1","customer_id":%q}`,
		status, txID, amount, customer)
}

func postCallback(h http.Handler, auth, body string) (int, envelope) {
	req := httptest.NewRequest(http.MethodPost, "/api/sepay/callback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out
}

func balance(t *testing.T, s *memory.Store, customerID string) int64 {
	t.Helper()
	w, err := s.Read(context.Background(), customerID)
	if err != nil {
		return 0
	}
	return w.Balance
}

func TestCallback_CreditsOnceThenAcknowledgesDuplicate(t *testing.T) {
	_, s, h := newTestApp(t, testAPIKey)
	body := callbackBody("success", "TXN-100", 200000, "U1")

	code, out := postCallback(h, "Apikey "+testAPIKey, body)
	if code != http.StatusOK || !out.Success || out.Message != handler.MsgProcessed {
		t.Fatalf("first delivery = %d %+v", code, out)
	}
	if got := balance(t, s, "U1"); got != 215 {
		t.Fatalf("balance = %d, want 215", got)
	}

	code, out = postCallback(h, "Apikey "+testAPIKey, body)
	if code != http.StatusOK || !out.Success || out.Message != handler.MsgAlreadyProcessed {
		t.Fatalf("second delivery = %d %+v", code, out)
	}
	if got := balance(t, s, "U1"); got != 215 {
		t.Errorf("balance after duplicate = %d, want 215", got)
	}
	if n := s.Count("TXN-100", model.TransactionStatusCompleted); n != 1 {
		t.Errorf("completed rows = %d, want 1", n)
	}
}

func TestCallback_ConcurrentDuplicates(t *testing.T) {
	_, s, h := newTestApp(t, testAPIKey)
	body := callbackBody("success", "TXN-DUP", 200000, "U1")

	const n = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
		failures  []string
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, out := postCallback(h, "Apikey "+testAPIKey, body)

			mu.Lock()
			defer mu.Unlock()
			if code != http.StatusOK || !out.Success {
				failures = append(failures, fmt.Sprintf("%d %+v", code, out))
				return
			}
			if out.Message == handler.MsgProcessed {
				processed++
			}
		}()
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("unexpected responses: %v", failures)
	}
	if processed != 1 {
		t.Errorf("processed responses = %d, want 1", processed)
	}
	if c := s.Count("TXN-DUP", model.TransactionStatusCompleted); c != 1 {
		t.Errorf("completed rows = %d, want 1", c)
	}
	if got := balance(t, s, "U1"); got != 215 {
		t.Errorf("balance = %d, want 215", got)
	}
}

func TestCallback_ConcurrentDistinctTransactions(t *testing.T) {
	_, s, h := newTestApp(t, testAPIKey)

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			postCallback(h, "Apikey "+testAPIKey, callbackBody("success", fmt.Sprintf("TXN-%d", i), 100000, "U2"))
		}(i)
	}
	wg.Wait()

	// 100 units earns a 5 unit bonus
	if got, want := balance(t, s, "U2"), int64(n*105); got != want {
		t.Errorf("balance = %d, want %d", got, want)
	}
}

func TestCallback_FaultLeavesNothingAndRetrySucceeds(t *testing.T) {
	_, s, h := newTestApp(t, testAPIKey)
	body := callbackBody("success", "TXN-FAULT", 200000, "U3")

	s.SetFault(func(m *model.Transaction) error {
		return errors.New("connection reset")
	})

	code, out := postCallback(h, "Apikey "+testAPIKey, body)
	if code != http.StatusInternalServerError || out.Success || out.Message != handler.MsgProcessingError {
		t.Fatalf("faulted delivery = %d %+v", code, out)
	}
	if s.Len() != 0 || balance(t, s, "U3") != 0 {
		t.Fatalf("faulted delivery left state behind: rows=%d balance=%d", s.Len(), balance(t, s, "U3"))
	}

	s.SetFault(nil)

	code, out = postCallback(h, "Apikey "+testAPIKey, body)
	if code != http.StatusOK || out.Message != handler.MsgProcessed {
		t.Fatalf("retry = %d %+v", code, out)
	}
	if got := balance(t, s, "U3"); got != 215 {
		t.Errorf("balance = %d, want 215", got)
	}
}

func TestCallback_Authentication(t *testing.T) {
	tests := []struct {
		name string
		auth string
	}{
		{name: "missing header", auth: ""},
		{name: "wrong scheme", auth: "Bearer " + testAPIKey},
		{name: "wrong key", auth: "Apikey nope"},
		{name: "key prefix", auth: "Apikey " + testAPIKey[:3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, s, h := newTestApp(t, testAPIKey)

			code, out := postCallback(h, tt.auth, callbackBody("success", "TXN-AUTH", 200000, "U4"))
			if code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", code)
			}
			if out.Success || out.Message != handler.MsgUnauthorized {
				t.Errorf("body = %+v", out)
			}
			if s.Len() != 0 || balance(t, s, "U4") != 0 {
				t.Error("rejected callback mutated state")
			}
		})
	}
}

func TestCallback_MissingServerKey(t *testing.T) {
	_, s, h := newTestApp(t, "")

	for _, auth := range []string{"", "Apikey ", "Apikey anything"} {
		code, out := postCallback(h, auth, callbackBody("success", "TXN-CFG", 200000, "U5"))
		if code != http.StatusInternalServerError || out.Message != handler.MsgServerConfiguration {
			t.Errorf("auth %q: %d %+v", auth, code, out)
		}
	}
	if s.Len() != 0 {
		t.Error("misconfigured server mutated state")
	}
}

func TestCallback_PaymentFailed(t *testing.T) {
	_, s, h := newTestApp(t, testAPIKey)

	code, out := postCallback(h, "Apikey "+testAPIKey, callbackBody("failed", "TXN-FAIL", 200000, "U6"))
	if code != http.StatusOK || out.Success || out.Message != handler.MsgPaymentFailed {
		t.Fatalf("failed payment = %d %+v", code, out)
	}
	if balance(t, s, "U6") != 0 {
		t.Error("failed payment credited the wallet")
	}
	if n := s.Count("TXN-FAIL", model.TransactionStatusCompleted); n != 0 {
		t.Errorf("completed rows = %d, want 0", n)
	}

	// the same id may still complete later
	code, out = postCallback(h, "Apikey "+testAPIKey, callbackBody("SUCCESS", "TXN-FAIL", 200000, "U6"))
	if code != http.StatusOK || out.Message != handler.MsgProcessed {
		t.Fatalf("later success = %d %+v", code, out)
	}
}

func TestCallback_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{name: "malformed json", body: `{"status":`, msg: handler.MsgInvalidBody},
		{name: "fractional amount", body: `{"status":"success","transaction_id":"T","amount":1.5,"customer_id":"U"}`, msg: handler.MsgInvalidBody},
		{name: "missing customer", body: `{"status":"success","transaction_id":"T","amount":1000}`, msg: handler.MsgMissingFields},
		{name: "missing transaction", body: `{"status":"success","amount":1000,"customer_id":"U"}`, msg: handler.MsgMissingFields},
		{name: "zero amount", body: `{"status":"success","transaction_id":"T","amount":0,"customer_id":"U"}`, msg: handler.MsgMissingFields},
		{name: "fraction in exponent form", body: `{"status":"success","transaction_id":"T","amount":15e-1,"customer_id":"U"}`, msg: handler.MsgInvalidBody},
		{name: "amount above ceiling", body: `{"status":"success","transaction_id":"T","amount":9223372036854775807,"customer_id":"U"}`, msg: handler.MsgMissingFields},
		{name: "oversized", body: `{"status":"` + strings.Repeat("x", 70<<10) + `"}`, msg: handler.MsgInvalidBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, s, h := newTestApp(t, testAPIKey)

			code, out := postCallback(h, "Apikey "+testAPIKey, tt.body)
			if code != http.StatusBadRequest || out.Success || out.Message != tt.msg {
				t.Errorf("got %d %+v, want 400 %q", code, out, tt.msg)
			}
			if s.Len() != 0 {
				t.Error("bad request mutated state")
			}
		})
	}
}

func TestCallback_AmountAsString(t *testing.T) {
	_, s, h := newTestApp(t, testAPIKey)

	body := `{"status":"200","transaction_id":"TXN-STR","amount":"200000","customer_id":"U7"}`
	code, out := postCallback(h, "Apikey "+testAPIKey, body)
	if code != http.StatusOK || out.Message != handler.MsgProcessed {
		t.Fatalf("got %d %+v", code, out)
	}
	if got := balance(t, s, "U7"); got != 215 {
		t.Errorf("balance = %d, want 215", got)
	}
}

func TestCallback_AmountInFloatNotation(t *testing.T) {
	for i, amount := range []string{"200000.0", "2e5", "2.00000E+5"} {
		t.Run(amount, func(t *testing.T) {
			_, s, h := newTestApp(t, testAPIKey)

			body := fmt.Sprintf(`{"status":"success","transaction_id":"TXN-F%d","amount":%s,"customer_id":"U9"}`, i, amount)
			code, out := postCallback(h, "Apikey "+testAPIKey, body)
			if code != http.StatusOK || out.Message != handler.MsgProcessed {
				t.Fatalf("got %d %+v", code, out)
			}
			if got := balance(t, s, "U9"); got != 215 {
				t.Errorf("balance = %d, want 215", got)
			}
		})
	}
}

func TestCallback_Redirect(t *testing.T) {
	_, s, h := newTestApp(t, testAPIKey)

	req := httptest.NewRequest(http.MethodGet, "/api/sepay/callback?status=success&transaction_id=TXN-9&amount=200000", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.Host != "shop.test" || loc.Path != "/wallet" {
		t.Errorf("location = %s", loc)
	}
	q := loc.Query()
	if q.Get("payment_status") != "success" || q.Get("transaction_id") != "TXN-9" || q.Get("amount") != "200000" {
		t.Errorf("query = %v", q)
	}
	if s.Len() != 0 {
		t.Error("redirect mutated state")
	}
}

func TestWalletAPI(t *testing.T) {
	a, _, h := newTestApp(t, testAPIKey)

	token, err := a.session.Create(context.Background(), "U8")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := get("/api/wallet", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous balance = %d, want 401", rec.Code)
	}
	if rec := get("/api/wallet", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token balance = %d, want 401", rec.Code)
	}

	rec := get("/api/wallet", token)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"balance":0`) {
		t.Errorf("empty balance = %d %s", rec.Code, rec.Body)
	}
	if rec := get("/api/wallet/transactions", token); rec.Code != http.StatusNoContent {
		t.Errorf("empty history = %d, want 204", rec.Code)
	}

	postCallback(h, "Apikey "+testAPIKey, callbackBody("success", "TXN-W1", 200000, "U8"))

	rec = get("/api/wallet", token)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"balance":215`) {
		t.Errorf("balance = %d %s", rec.Code, rec.Body)
	}

	rec = get("/api/wallet/transactions", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("history = %d", rec.Code)
	}
	var history []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("history decode: %v", err)
	}
	if len(history) != 1 || history[0]["transaction_id"] != "TXN-W1" {
		t.Errorf("history = %v", history)
	}

	for _, limit := range []string{"0", "201", "abc"} {
		if rec := get("/api/wallet/transactions?limit="+limit, token); rec.Code != http.StatusBadRequest {
			t.Errorf("limit %s = %d, want 400", limit, rec.Code)
		}
	}

	if rec := get("/api/wallet/bonus-tiers", ""); rec.Code != http.StatusOK {
		t.Errorf("bonus tiers = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	_, _, h := newTestApp(t, testAPIKey)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
}
