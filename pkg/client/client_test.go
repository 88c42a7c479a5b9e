package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/estoque-app/estoque/internal/apitest"
	"github.com/estoque-app/estoque/pkg/authevents"
	"github.com/estoque-app/estoque/pkg/domain"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) (*Client, *authevents.Bus) {
	t.Helper()
	bus := authevents.New()
	c, err := New(baseURL, append([]Option{WithBus(bus)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c, bus
}

func newFakeAPI(t *testing.T) *apitest.Server {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.AddUser("joao", "s3cret", map[string]any{"role": "OPERADOR", "fullName": "João"})
	return srv
}

func receiptFixture() domain.ReceiptRequest {
	return domain.ReceiptRequest{
		NFNumber:      "NF-123",
		InvoiceItemID: 1,
		MaterialID:    1,
		Qty:           10,
		WarehouseID:   1,
		LocationID:    10,
	}
}

func TestLoginThenMe(t *testing.T) {
	srv := newFakeAPI(t)
	c, bus := newTestClient(t, srv.BaseURL())

	if err := c.Login(context.Background(), "joao", "s3cret"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	me, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if me == nil || me.Username != "joao" {
		t.Fatalf("Me() = %+v, want joao", me)
	}
	if !me.RoleSet().Has("OPERADOR") {
		t.Errorf("roles = %v, want OPERADOR", me.RoleSet())
	}
	if bus.Pending() {
		t.Error("bus pending after a clean login")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := newFakeAPI(t)
	c, bus := newTestClient(t, srv.BaseURL())

	err := c.Login(context.Background(), "joao", "wrong")
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("Login() error = %v, want HTTP 401", err)
	}
	if got := ExtractMessage(err); got != "Usuário ou senha inválidos" {
		t.Errorf("ExtractMessage() = %q", got)
	}
	if bus.Pending() {
		t.Error("a credential failure must not start an unauthorized episode")
	}
}

func TestMe_Unauthorized(t *testing.T) {
	srv := newFakeAPI(t)
	c, bus := newTestClient(t, srv.BaseURL())

	_, err := c.Me(context.Background())
	if err == nil {
		t.Fatal("expected error for unauthorized request")
	}
	if got := err.Error(); !strings.Contains(got, "HTTP 401") {
		t.Errorf("error = %q, want it to contain 'HTTP 401'", got)
	}
	if bus.Pending() {
		t.Error("who-am-i probe must not start an unauthorized episode")
	}
}

func TestLogout_UnauthorizedDoesNotPublish(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)
	c, bus := newTestClient(t, ts.URL)

	if err := c.Logout(context.Background()); !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("Logout() error = %v, want 401", err)
	}
	if bus.Pending() {
		t.Error("logout must not start an unauthorized episode")
	}
}

func TestMe_EmptyBody(t *testing.T) {
	srv := newFakeAPI(t)
	c, _ := newTestClient(t, srv.BaseURL())
	if err := c.Login(context.Background(), "joao", "s3cret"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	srv.SetEmptyMe(true)

	me, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if me != nil {
		t.Errorf("Me() = %+v, want nil", me)
	}
}

func TestCSRFHeader(t *testing.T) {
	srv := newFakeAPI(t)
	c, _ := newTestClient(t, srv.BaseURL())
	ctx := context.Background()

	// Before login there is no cookie and so no header.
	c.Login(ctx, "nobody", "x") //nolint:errcheck
	if srv.HasHeader(http.MethodPost, "/auth/login", CSRFHeader) {
		t.Error("login without a CSRF cookie carried the header")
	}

	if err := c.Login(ctx, "joao", "s3cret"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	if _, err := c.ListMaterials(ctx); err != nil {
		t.Fatalf("ListMaterials() error: %v", err)
	}
	if srv.HasHeader(http.MethodGet, "/master-data/materials", CSRFHeader) {
		t.Error("GET carried the CSRF header")
	}

	if _, err := c.PostReceipt(ctx, receiptFixture()); err != nil {
		t.Fatalf("PostReceipt() error: %v", err)
	}
	if got := srv.LastHeader(http.MethodPost, "/receipts", CSRFHeader); got != srv.CSRFToken() {
		t.Errorf("POST %s = %q, want %q", CSRFHeader, got, srv.CSRFToken())
	}
}

func TestCSRFHeaderAllMutatingMethods(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.Method] = r.Header.Get(CSRFHeader)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	c.SetCookies([]*http.Cookie{{Name: CSRFCookie, Value: "tok-123"}})

	ctx := context.Background()
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		if err := c.doRequest(ctx, call{method: m, path: "/x"}); err != nil {
			t.Fatalf("%s error: %v", m, err)
		}
	}

	if seen[http.MethodGet] != "" {
		t.Errorf("GET header = %q, want empty", seen[http.MethodGet])
	}
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		if seen[m] != "tok-123" {
			t.Errorf("%s header = %q, want %q", m, seen[m], "tok-123")
		}
	}
}

func TestUnauthorizedBurstPublishesOnce(t *testing.T) {
	srv := newFakeAPI(t)
	c, bus := newTestClient(t, srv.BaseURL())
	ctx := context.Background()
	if err := c.Login(ctx, "joao", "s3cret"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	var events atomic.Int32
	bus.Subscribe(func() { events.Add(1) })
	srv.ExpireSessions()

	const n = 5
	errs := make(chan error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := c.ListMovements(ctx, nil, 10)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if !IsStatus(err, http.StatusUnauthorized) {
			t.Errorf("caller error = %v, want HTTP 401", err)
		}
	}
	if got := events.Load(); got != 1 {
		t.Errorf("unauthorized events = %d, want 1", got)
	}
}

func TestUnauthorizedPublishedBeforeCallerSeesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, bus := newTestClient(t, srv.URL)
	var fired bool
	bus.Subscribe(func() { fired = true })

	_, err := c.ListCustomers(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !fired {
		t.Error("subscriber had not run when the caller received the error")
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, bus := newTestClient(t, url)
	_, err := c.ListMaterials(context.Background())
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("errors.Is(err, ErrUnreachable) = false for %v", err)
	}
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("errors.Is(err, ErrRequestFailed) = false for %v", err)
	}
	if StatusOf(err) != 0 {
		t.Errorf("StatusOf() = %d, want 0", StatusOf(err))
	}
	if bus.Pending() {
		t.Error("transport failure started an unauthorized episode")
	}
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"}) //nolint:errcheck
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	_, err := c.ListWarehouses(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if got := err.Error(); !strings.Contains(got, "boom") {
		t.Errorf("error = %q, want it to contain 'boom'", got)
	}
	if !errors.Is(err, ErrRequestFailed) {
		t.Error("HTTP error does not match ErrRequestFailed")
	}
	if StatusOf(err) != http.StatusInternalServerError {
		t.Errorf("StatusOf() = %d, want 500", StatusOf(err))
	}
}

func TestMessageFromBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"estoque insuficiente"}`, "estoque insuficiente"},
		{"message field", `{"message":"material não encontrado"}`, "material não encontrado"},
		{"error preferred", `{"error":"a","message":"b"}`, "a"},
		{"json string", `"texto simples"`, "texto simples"},
		{"plain text", "Bad Gateway", "Bad Gateway"},
		{"empty", "", genericMessage},
		{"no fields", `{"status":500}`, genericMessage},
		{"non-string error", `{"error":{"code":1}}`, genericMessage},
		{"broken json", `{"error":`, genericMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := messageFromBody([]byte(tt.body)); got != tt.want {
				t.Errorf("messageFromBody(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "Erro desconhecido"},
		{"http", &HTTPError{StatusCode: 409, Message: "duplicado"}, "duplicado"},
		{"wrapped http", errors.Join(errors.New("ctx"), &HTTPError{StatusCode: 400, Message: "x"}), "x"},
		{"transport", &TransportError{Err: errors.New("dial")}, "Não foi possível conectar ao servidor"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractMessage(tt.err); got != tt.want {
				t.Errorf("ExtractMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestIDAndBasePath(t *testing.T) {
	var gotPath, gotQuery, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotID = r.Header.Get(RequestIDHeader)
		json.NewEncoder(w).Encode([]any{}) //nolint:errcheck
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL+"/api")
	if _, err := c.ListLocations(context.Background(), 7); err != nil {
		t.Fatalf("ListLocations() error: %v", err)
	}
	if gotPath != "/api/master-data/locations" {
		t.Errorf("path = %q, want /api/master-data/locations", gotPath)
	}
	if gotQuery != "warehouseId=7" {
		t.Errorf("query = %q, want warehouseId=7", gotQuery)
	}
	if len(gotID) != 36 {
		t.Errorf("%s = %q, want a UUID", RequestIDHeader, gotID)
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct{ base, p, want string }{
		{"", "/auth/me", "/auth/me"},
		{"/", "/auth/me", "/auth/me"},
		{"/api", "/auth/me", "/api/auth/me"},
		{"/api/", "/auth/me", "/api/auth/me"},
		{"/api", "auth/me", "/api/auth/me"},
		{"/api", "", "/api"},
	}
	for _, tt := range tests {
		if got := joinPath(tt.base, tt.p); got != tt.want {
			t.Errorf("joinPath(%q, %q) = %q, want %q", tt.base, tt.p, got, tt.want)
		}
	}
}

func TestCookiesCarryOverToNewClient(t *testing.T) {
	srv := newFakeAPI(t)
	first, _ := newTestClient(t, srv.BaseURL())
	if err := first.Login(context.Background(), "joao", "s3cret"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	second, _ := newTestClient(t, srv.BaseURL())
	second.SetCookies(first.Cookies())
	me, err := second.Me(context.Background())
	if err != nil || me == nil {
		t.Fatalf("Me() on restored client = %v, %v", me, err)
	}

	second.ClearCookies()
	if len(second.Cookies()) != 0 {
		t.Errorf("Cookies() after clear = %v, want none", second.Cookies())
	}
}

func TestRateLimitCancelledWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, WithRateLimit(0.001, 1))
	ctx := context.Background()
	if err := c.doRequest(ctx, call{method: http.MethodGet, path: "/"}); err != nil {
		t.Fatalf("first call error: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := c.doRequest(ctx, call{method: http.MethodGet, path: "/"})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("error = %v, want ErrUnreachable while waiting on the limiter", err)
	}
}

type countingRecorder struct {
	mu           sync.Mutex
	statuses     []int
	failures     []string
	unauthorized int
}

func (r *countingRecorder) RecordRequest(_ string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *countingRecorder) RecordFailure(_, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, reason)
}

func (r *countingRecorder) RecordUnauthorized() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unauthorized++
}

func TestMetricsRecorded(t *testing.T) {
	srv := newFakeAPI(t)
	rec := &countingRecorder{}
	c, _ := newTestClient(t, srv.BaseURL(), WithMetrics(rec))

	c.ListMaterials(context.Background()) //nolint:errcheck
	c.ListMaterials(context.Background()) //nolint:errcheck

	if len(rec.statuses) != 2 || rec.statuses[0] != http.StatusUnauthorized {
		t.Errorf("statuses = %v, want two 401s", rec.statuses)
	}
	if len(rec.failures) != 2 || rec.failures[0] != "http" {
		t.Errorf("failures = %v, want two http failures", rec.failures)
	}
	if rec.unauthorized != 1 {
		t.Errorf("unauthorized = %d, want 1", rec.unauthorized)
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second) // slow server
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.Me(ctx)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
}
