// Package fakecrm is an in-memory stand-in for the CRM REST service, used by
// tests through httptest. It covers the endpoints the client consumes and
// keeps everything in maps guarded by one mutex.
package fakecrm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kingrea/fieldcrm/internal/models"
)

// Seeded accounts.
const (
	AdminUser      = "admin"
	AdminPassword  = "admin-pass"
	WorkerUser     = "worker"
	WorkerPassword = "worker-pass"
)

var signingKey = []byte("fakecrm-signing-key")

// Request records one call the server received.
type Request struct {
	Method    string
	Path      string
	Query     string
	Auth      string
	RequestID string
	Body      string
}

type account struct {
	user     models.User
	password string
}

type order struct {
	models.Order
	takenBy string
}

// Server implements http.Handler.
type Server struct {
	router *mux.Router
	now    func() time.Time

	mu           sync.Mutex
	accounts     map[string]*account
	tokens       map[string]string
	invites      map[string]string
	customers    map[int]*models.Customer
	orders       map[int]*order
	nextCustomer int
	nextOrder    int
	requests     []Request
	failures     map[string][]int
}

// New returns a server seeded with an admin and a worker account.
func New() *Server {
	s := &Server{
		now:          time.Now,
		accounts:     map[string]*account{},
		tokens:       map[string]string{},
		invites:      map[string]string{},
		customers:    map[int]*models.Customer{},
		orders:       map[int]*order{},
		nextCustomer: 1,
		nextOrder:    1,
		failures:     map[string][]int{},
	}
	s.addAccount(AdminUser, "admin@example.com", AdminPassword, models.RoleAdmin)
	s.addAccount(WorkerUser, "worker@example.com", WorkerPassword, models.RoleWorker)
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SeedAccount adds an account with the given roles and returns its id.
func (s *Server) SeedAccount(name, email, password string, roles ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAccount(name, email, password, roles...).user.ID
}

func (s *Server) addAccount(name, email, password string, roles ...string) *account {
	a := &account{
		user:     models.User{ID: uuid.NewString(), UserName: name, Email: email, Roles: roles},
		password: password,
	}
	s.accounts[a.user.ID] = a
	return a
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.record, s.injectFailures)

	r.HandleFunc("/api/account/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/account/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/account/profile", s.authed(s.handleProfile)).Methods(http.MethodGet)
	r.HandleFunc("/api/account/users", s.admin(s.handleUsers)).Methods(http.MethodGet)
	r.HandleFunc("/api/account/users/{id}", s.admin(s.handleUser)).Methods(http.MethodGet)
	r.HandleFunc("/api/account/users/{id}", s.admin(s.handleUpdateUser)).Methods(http.MethodPut)
	r.HandleFunc("/api/account/users/{id}", s.admin(s.handleDeleteUser)).Methods(http.MethodDelete)
	r.HandleFunc("/api/account/invite", s.admin(s.handleInvite)).Methods(http.MethodPost)

	r.HandleFunc("/api/customer", s.authed(s.handleCustomers)).Methods(http.MethodGet)
	r.HandleFunc("/api/customer", s.admin(s.handleCreateCustomer)).Methods(http.MethodPost)
	r.HandleFunc("/api/customer/delete-multiple", s.admin(s.handleDeleteCustomers)).Methods(http.MethodPost)
	r.HandleFunc("/api/customer/generate-customers", s.admin(s.handleGenerateCustomers)).Methods(http.MethodPost)
	r.HandleFunc("/api/customer/{id:[0-9]+}", s.authed(s.handleCustomer)).Methods(http.MethodGet)
	r.HandleFunc("/api/customer/{id:[0-9]+}", s.admin(s.handleUpdateCustomer)).Methods(http.MethodPut)
	r.HandleFunc("/api/customer/{id:[0-9]+}", s.admin(s.handleDeleteCustomer)).Methods(http.MethodDelete)

	r.HandleFunc("/api/order", s.authed(s.handleOrders)).Methods(http.MethodGet)
	r.HandleFunc("/api/order/my-orders", s.authed(s.handleMyOrders)).Methods(http.MethodGet)
	r.HandleFunc("/api/order/delete-multiple", s.admin(s.handleDeleteOrders)).Methods(http.MethodPost)
	r.HandleFunc("/api/order/by-customer/{number:[0-9]+}", s.authed(s.handleOrdersByCustomer)).Methods(http.MethodGet)
	r.HandleFunc("/api/order/by-number/{number:[0-9]+}", s.admin(s.handleCreateOrder)).Methods(http.MethodPost)
	r.HandleFunc("/api/order/{action:take|release|complete|cancel}/{id:[0-9]+}", s.worker(s.handleTransition)).Methods(http.MethodPut)
	r.HandleFunc("/api/order/{id:[0-9]+}/update-status", s.admin(s.handleUpdateStatus)).Methods(http.MethodPatch)
	r.HandleFunc("/api/order/{id:[0-9]+}", s.authed(s.handleOrder)).Methods(http.MethodGet)
	r.HandleFunc("/api/order/{id:[0-9]+}", s.admin(s.handleUpdateOrder)).Methods(http.MethodPut)
	r.HandleFunc("/api/order/{id:[0-9]+}", s.admin(s.handleDeleteOrder)).Methods(http.MethodDelete)
	return r
}

// IssueToken signs a token for userName that expires after ttl. A negative
// ttl yields an already expired token. The token is registered so the
// server accepts it until it expires.
func (s *Server) IssueToken(userName string, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountByName(userName)
	if a == nil {
		return ""
	}
	return s.issueLocked(a, ttl)
}

func (s *Server) issueLocked(a *account, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub":  a.user.ID,
		"name": a.user.UserName,
		"exp":  s.now().Add(ttl).Unix(),
		"iat":  s.now().Unix(),
		"http://schemas.microsoft.com/ws/2008/06/identity/claims/role": a.user.Roles,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("fakecrm: sign token: %v", err))
	}
	s.tokens[signed] = a.user.ID
	return signed
}

// Revoke makes the server reject token from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// FailNext makes the next len(statuses) requests matching method and path
// answer with the given statuses, in order.
func (s *Server) FailNext(method, path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], statuses...)
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Invitation returns the token issued for email, if any.
func (s *Server) Invitation(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, e := range s.invites {
		if strings.EqualFold(e, email) {
			return token, true
		}
	}
	return "", false
}

// UserID returns the id of the seeded or registered account userName.
func (s *Server) UserID(userName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.accountByName(userName); a != nil {
		return a.user.ID
	}
	return ""
}

func (s *Server) accountByName(name string) *account {
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.UserName, name) {
			return a
		}
	}
	return nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body = readAll(r)
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Auth:      r.Header.Get("Authorization"),
			RequestID: r.Header.Get("X-Request-ID"),
			Body:      string(body),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		queue := s.failures[key]
		status := 0
		if len(queue) > 0 {
			status, s.failures[key] = queue[0], queue[1:]
		}
		s.mu.Unlock()
		if status != 0 {
			writeProblem(w, status, http.StatusText(status), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxHandler func(w http.ResponseWriter, r *http.Request, caller *account)

func (s *Server) authed(h ctxHandler) http.HandlerFunc {
	return s.guard("", h)
}

func (s *Server) admin(h ctxHandler) http.HandlerFunc {
	return s.guard(models.RoleAdmin, h)
}

func (s *Server) worker(h ctxHandler) http.HandlerFunc {
	return s.guard(models.RoleWorker, h)
}

func (s *Server) guard(role string, h ctxHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		caller := s.callerLocked(token)
		s.mu.Unlock()
		if caller == nil {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		if role != "" && !caller.user.HasRole(role) {
			writeProblem(w, http.StatusForbidden, "Forbidden", nil)
			return
		}
		h(w, r, caller)
	}
}

func (s *Server) callerLocked(token string) *account {
	id, ok := s.tokens[token]
	if !ok {
		return nil
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil
	}
	return s.accounts[id]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title string, errs map[string][]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Errors: errs,
	})
}
