// Package todoapi is an in-process stand-in for the remote task API: JWT
// login, validation and per-user task CRUD, served from httptest.
package todoapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// LocalDateTime mirrors the zone-less timestamps the real backend emits.
const LocalDateTime = "2006-01-02T15:04:05.000"

type Todo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	owner       string
}

type user struct {
	password string
	email    string
}

type Server struct {
	*httptest.Server

	secret []byte

	mu             sync.Mutex
	users          map[string]user
	todos          map[string]*Todo
	order          []string
	revoked        map[string]bool
	validateStatus int
	todoStatus     int
	validateCalls  int
	authHeaders    []string
	requestIDs     []string
}

// New starts a server that is closed when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret:  []byte("todoapi-test-secret"),
		users:   map[string]user{},
		todos:   map[string]*Todo{},
		revoked: map[string]bool{},
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/api/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/validate", s.validate).Methods(http.MethodGet)

	todos := r.PathPrefix("/api/todos").Subrouter()
	todos.Use(s.authenticate)
	todos.HandleFunc("", s.listTodos).Methods(http.MethodGet)
	todos.HandleFunc("", s.createTodo).Methods(http.MethodPost)
	todos.HandleFunc("/{id}", s.getTodo).Methods(http.MethodGet)
	todos.HandleFunc("/{id}", s.updateTodo).Methods(http.MethodPut)
	todos.HandleFunc("/{id}/toggle", s.toggleTodo).Methods(http.MethodPut)
	todos.HandleFunc("/{id}", s.deleteTodo).Methods(http.MethodDelete)
	return r
}

// AddUser registers an account directly.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = user{password: password, email: username + "@example.com"}
}

// Issue signs a token for username that expires after ttl.
func (s *Server) Issue(username string, ttl time.Duration) string {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return token
}

// Revoke makes the server reject token from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// FailValidate forces validate to answer status; zero restores normal checks.
func (s *Server) FailValidate(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validateStatus = status
}

// FailTodos forces every /api/todos call to answer status.
func (s *Server) FailTodos(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todoStatus = status
}

func (s *Server) ValidateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateCalls
}

// AuthHeaders returns the Authorization header of every request, in order.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
		s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-ID"))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		forced := s.todoStatus
		s.mu.Unlock()
		if forced != 0 {
			writeError(w, forced, "forced failure")
			return
		}
		username, status := s.principal(r)
		if status != http.StatusOK {
			writeError(w, status, "access denied")
			return
		}
		r.Header.Set("X-Principal", username)
		next.ServeHTTP(w, r)
	})
}

// principal returns 401 for a missing header and 403 for a bad token, like
// the real backend's security filter.
func (s *Server) principal(r *http.Request) (string, int) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", http.StatusUnauthorized
	}
	s.mu.Lock()
	revoked := s.revoked[token]
	s.mu.Unlock()
	if revoked {
		return "", http.StatusForbidden
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", http.StatusForbidden
	}
	s.mu.Lock()
	_, known := s.users[claims.Subject]
	s.mu.Unlock()
	if !known {
		return "", http.StatusForbidden
	}
	return claims.Subject, http.StatusOK
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	u, ok := s.users[req.Username]
	s.mu.Unlock()
	if !ok || u.password != req.Password {
		writeError(w, http.StatusUnauthorized, "bad credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": s.Issue(req.Username, time.Hour)})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	s.mu.Lock()
	if _, exists := s.users[req.Username]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "username already taken")
		return
	}
	s.users[req.Username] = user{password: req.Password, email: req.Email}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"token": s.Issue(req.Username, time.Hour)})
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.validateCalls++
	forced := s.validateStatus
	s.mu.Unlock()
	if forced != 0 {
		writeError(w, forced, "forced failure")
		return
	}
	if _, status := s.principal(r); status != http.StatusOK {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) listTodos(w http.ResponseWriter, r *http.Request) {
	owner := r.Header.Get("X-Principal")
	s.mu.Lock()
	out := make([]Todo, 0, len(s.order))
	for _, id := range s.order {
		if t := s.todos[id]; t.owner == owner {
			out = append(out, *t)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

type todoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request) {
	var req todoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	now := time.Now().UTC().Format(LocalDateTime)
	t := &Todo{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
		owner:       r.Header.Get("X-Principal"),
	}
	s.mu.Lock()
	s.todos[t.ID] = t
	s.order = append(s.order, t.ID)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) getTodo(w http.ResponseWriter, r *http.Request) {
	s.withTodo(w, r, func(t *Todo) {})
}

func (s *Server) updateTodo(w http.ResponseWriter, r *http.Request) {
	var req todoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.withTodo(w, r, func(t *Todo) {
		t.Title = req.Title
		t.Description = req.Description
		t.UpdatedAt = time.Now().UTC().Format(LocalDateTime)
	})
}

func (s *Server) toggleTodo(w http.ResponseWriter, r *http.Request) {
	s.withTodo(w, r, func(t *Todo) {
		t.Completed = !t.Completed
		t.UpdatedAt = time.Now().UTC().Format(LocalDateTime)
	})
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok || t.owner != r.Header.Get("X-Principal") {
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}
	delete(s.todos, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) withTodo(w http.ResponseWriter, r *http.Request, apply func(*Todo)) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	t, ok := s.todos[id]
	if !ok || t.owner != r.Header.Get("X-Principal") {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "todo not found")
		return
	}
	apply(t)
	snapshot := *t
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snapshot)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
