// Package apitest runs an in-process stand-in for the remote inventory API:
// cookie sessions, a readable XSRF-TOKEN cookie checked on mutating calls,
// and a handful of fixture endpoints.
package apitest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/estoque-app/estoque/pkg/domain"
)

const (
	sessionCookie = "SESSION"
	csrfCookie    = "XSRF-TOKEN"
	csrfHeader    = "X-XSRF-TOKEN"
)

type account struct {
	password string
	identity map[string]any
}

// Server is the fake API. BaseURL() is what the client should point at.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	accounts    map[string]account
	sessions    map[string]string // session token -> username
	csrfToken   string
	emptyMe     bool
	hits        map[string]int
	lastHeaders map[string]http.Header
}

// New starts a fake API server. Close it with t.Cleanup(srv.Close).
func New() *Server {
	s := &Server{
		accounts:    make(map[string]account),
		sessions:    make(map[string]string),
		csrfToken:   randomToken(),
		hits:        make(map[string]int),
		lastHeaders: make(map[string]http.Header),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api", func(r chi.Router) {
		r.Use(s.csrf)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/me", s.handleMe)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/master-data/materials", s.fixture(materials))
			r.Get("/master-data/warehouses", s.fixture(warehouses))
			r.Get("/master-data/locations", s.fixture(locations))
			r.Get("/movements", s.fixture(movements))
			r.Get("/movements/material/{id}/stock", s.fixture(stock))
			r.Get("/customers", s.fixture(customers))
			r.Get("/customers/by-document", s.handleCustomerByDocument)
			r.Post("/customers", s.echo(&domain.Customer{}, func(v any) { v.(*domain.Customer).ID = 2 }))
			r.Post("/materials", s.echo(&domain.Material{}, func(v any) { v.(*domain.Material).ID = 3 }))
			r.Put("/materials/{id}", s.echo(&domain.Material{}, nil))
			r.Delete("/materials/{id}", s.noContent)
			r.Get("/users", s.fixture(users))
			r.Get("/company/me", s.fixture(company))
			r.Post("/receipts", s.fixture(result))
			r.Post("/sales", s.fixture(result))
			r.Post("/operations/returns", s.fixture(result))
			r.Post("/operations/transfers/by-code", s.fixture(result))
		})
	})

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the API root, e.g. http://127.0.0.1:port/api.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// AddUser registers credentials and the identity /auth/me returns for them.
func (s *Server) AddUser(username, password string, identity map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity == nil {
		identity = map[string]any{}
	}
	identity["username"] = username
	s.accounts[username] = account{password: password, identity: identity}
}

// ExpireSessions invalidates every session, as if they timed out server-side.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

// SetEmptyMe makes /auth/me answer 200 with a null body.
func (s *Server) SetEmptyMe(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emptyMe = v
}

// CSRFToken is the value of the XSRF-TOKEN cookie the server hands out.
func (s *Server) CSRFToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.csrfToken
}

// Hits returns how many times method+path (under /api) was requested.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" /api"+path]
}

// LastHeader returns a header of the last request to method+path.
func (s *Server) LastHeader(method, path, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.lastHeaders[method+" /api"+path]
	if !ok {
		return ""
	}
	return h.Get(key)
}

// HasHeader reports whether the last request to method+path carried key.
func (s *Server) HasHeader(method, path, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.lastHeaders[method+" /api"+path]
	if !ok {
		return false
	}
	_, present := h[http.CanonicalHeaderKey(key)]
	return present
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.hits[key]++
		s.lastHeaders[key] = r.Header.Clone()
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		// Login is the call that hands the token out.
		if r.URL.Path == "/api/auth/login" {
			next.ServeHTTP(w, r)
			return
		}
		ck, err := r.Cookie(csrfCookie)
		if err != nil || ck.Value == "" || r.Header.Get(csrfHeader) != ck.Value {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "CSRF token inválido"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.sessionUser(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Sessão expirada"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) sessionUser(r *http.Request) (string, bool) {
	ck, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.sessions[ck.Value]
	return u, ok
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "payload inválido"})
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[creds.Username]
	if !ok || acc.password != creds.Password {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Usuário ou senha inválidos"})
		return
	}
	token := randomToken()
	s.sessions[token] = creds.Username
	csrf := s.csrfToken
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: csrfCookie, Value: csrf, Path: "/"})
	// The body echoes a role on purpose; clients must not trust it.
	writeJSON(w, http.StatusOK, map[string]string{"username": creds.Username, "role": "MASTER_ADMIN"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, ck.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	username, ok := s.sessionUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "não autenticado"})
		return
	}
	s.mu.Lock()
	empty := s.emptyMe
	identity := s.accounts[username].identity
	s.mu.Unlock()

	if empty {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null")) //nolint:errcheck
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (s *Server) fixture(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) handleCustomerByDocument(w http.ResponseWriter, r *http.Request) {
	doc := r.URL.Query().Get("document")
	for _, c := range customers {
		if c.Document == doc {
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Cliente não encontrado"})
}

// echo decodes the request into a fresh copy of proto, lets fill adjust it
// and writes it back.
func (s *Server) echo(proto any, fill func(any)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := reflect.New(reflect.TypeOf(proto).Elem()).Interface()
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "payload inválido"})
			return
		}
		if fill != nil {
			fill(v)
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func randomToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

var (
	materials = []domain.Material{
		{ID: 1, Code: "MAT-001", Name: "Cimento CP-II 50kg", Unit: "SC", Price: 38.9, Active: true},
		{ID: 2, Code: "MAT-002", Name: "Areia média", Unit: "M3", Price: 120, Active: true},
	}
	warehouses = []domain.Warehouse{{ID: 1, Code: "CD1", Name: "Centro de distribuição"}}
	locations  = []domain.Location{
		{ID: 10, WarehouseID: 1, Code: "A-01"},
		{ID: 11, WarehouseID: 1, Code: "A-02"},
	}
	movements = []domain.Movement{
		{ID: 100, Type: domain.MovementReceipt, MaterialID: 1, MaterialCode: "MAT-001", WarehouseID: 1, LocationID: 10, Qty: 40},
		{ID: 101, Type: domain.MovementSale, MaterialID: 1, MaterialCode: "MAT-001", WarehouseID: 1, LocationID: 10, Qty: 5},
	}
	stock = domain.StockSummary{MaterialID: 1, Total: 35, ByLocation: []domain.LocationStock{
		{WarehouseID: 1, LocationID: 10, LocationCode: "A-01", Qty: 35},
	}}
	customers = []domain.Customer{{ID: 1, Name: "Construtora Alfa", Document: "12345678000199"}}
	users     = []domain.User{{ID: 1, Username: "joao", Roles: []string{"ROLE_OPERADOR"}, Active: true}}
	company   = domain.Company{ID: 1, Name: "Depósito Central", Plan: "PRO"}
	result    = domain.MovementResult{MovementID: 200, Balance: 30}
)
