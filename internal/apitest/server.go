// Package apitest provides an in-process stand-in for the storefront REST
// API. The real backend is an external collaborator; this fixture exists so
// the client packages can be exercised hermetically in tests and so cmd/mockapi
// can serve a local development target. It implements the same wire contract:
// JSON bodies, {"error": "..."} failures, bearer-token auth.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vitrine-app/vitrine/internal/auth"
	"github.com/vitrine-app/vitrine/internal/model"
)

// Server holds the fixture's in-memory state. Create one with NewServer,
// seed it, and mount Handler() on an httptest.Server or a real listener.
type Server struct {
	mu        sync.Mutex
	jwtSecret string

	users    map[string]*account // by email
	nextUser int64
	products []model.Product
	nextProd int64
	images   map[int64][]byte
	hits     map[string]int
}

type account struct {
	user         model.User
	passwordHash string
}

// NewServer creates an empty fixture with a fixed signing secret.
func NewServer() *Server {
	return &Server{
		jwtSecret: "apitest-secret",
		users:     make(map[string]*account),
		nextUser:  1,
		nextProd:  1,
		images:    make(map[int64][]byte),
		hits:      make(map[string]int),
	}
}

// SeedUser registers an account directly, bypassing the HTTP surface.
func (s *Server) SeedUser(name, email, password, role string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := model.User{ID: s.nextUser, Name: name, Email: email, Role: role}
	s.nextUser++
	s.users[email] = &account{user: u, passwordHash: string(hash)}
	return u
}

// SeedProduct inserts a product directly and returns it with its assigned ID.
func (s *Server) SeedProduct(draft model.ProductDraft) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertProduct(draft)
}

// Token mints a valid token for a seeded user, as if they had logged in.
func (s *Server) Token(u model.User) string {
	token, _ := auth.GenerateToken(s.jwtSecret, u.ID, u.Name, u.Email, u.Role)
	return token
}

// ExpiredToken mints a token whose expiry has already passed.
func (s *Server) ExpiredToken(u model.User) string {
	token, _ := auth.GenerateTokenWithExpiry(s.jwtSecret, u.ID, u.Name, u.Email, u.Role, -time.Hour)
	return token
}

// Hits returns how many requests have been served for "METHOD /path".
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// Handler returns the fixture's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("GET /auth/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("GET /products", s.handleListProducts)
	mux.HandleFunc("POST /products", s.requireAdmin(s.handleCreateProduct))
	mux.HandleFunc("PUT /products/{id}", s.requireAdmin(s.handleUpdateProduct))
	mux.HandleFunc("DELETE /products/{id}", s.requireAdmin(s.handleDeleteProduct))
	mux.HandleFunc("PUT /products/{id}/image", s.requireAdmin(s.handleUploadImage))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	acct := s.users[req.Email]
	s.mu.Unlock()

	if acct == nil || bcrypt.CompareHashAndPassword([]byte(acct.passwordHash), []byte(req.Password)) != nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(s.jwtSecret, acct.user.ID, acct.user.Name, acct.user.Email, acct.user.Role)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"token": token, "user": acct.user})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "name, email and password required")
		return
	}

	s.mu.Lock()
	if s.users[req.Email] != nil {
		s.mu.Unlock()
		jsonError(w, http.StatusConflict, "email already registered")
		return
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	u := model.User{ID: s.nextUser, Name: req.Name, Email: req.Email, Role: model.RoleCustomer}
	s.nextUser++
	s.users[req.Email] = &account{user: u, passwordHash: string(hash)}
	s.mu.Unlock()

	token, err := auth.GenerateToken(s.jwtSecret, u.ID, u.Name, u.Email, u.Role)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]any{"token": token, "user": u})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	s.mu.Lock()
	acct := s.users[claims.Email]
	s.mu.Unlock()
	if acct == nil {
		jsonError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"user": acct.user})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	products := make([]model.Product, len(s.products))
	copy(products, s.products)
	s.mu.Unlock()
	jsonResponse(w, http.StatusOK, map[string]any{"data": products})
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	var draft model.ProductDraft
	if err := decodeJSON(r, &draft); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if draft.Name == "" {
		jsonError(w, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	p := s.insertProduct(draft)
	s.mu.Unlock()
	jsonResponse(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var draft model.ProductDraft
	if err := decodeJSON(r, &draft); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i].Name = draft.Name
			s.products[i].Description = draft.Description
			s.products[i].Price = draft.Price
			s.products[i].Category = draft.Category
			s.products[i].Stock = draft.Stock
			s.products[i].ImageURL = draft.ImageURL
			s.products[i].UpdatedAt = time.Now().UTC()
			jsonResponse(w, http.StatusOK, s.products[i])
			return
		}
	}
	jsonError(w, http.StatusNotFound, "product not found")
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			delete(s.images, id)
			jsonResponse(w, http.StatusOK, map[string]string{"message": "product deleted"})
			return
		}
	}
	jsonError(w, http.StatusNotFound, "product not found")
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "reading image body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.images[id] = data
			s.products[i].ImageURL = fmt.Sprintf("/products/%d/image", id)
			jsonResponse(w, http.StatusOK, map[string]string{"message": "image updated"})
			return
		}
	}
	jsonError(w, http.StatusNotFound, "product not found")
}

// Image returns the stored raw image for a product, for test assertions.
func (s *Server) Image(id int64) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images[id]
}

// insertProduct appends a product with the next ID. Caller must hold the lock.
func (s *Server) insertProduct(draft model.ProductDraft) model.Product {
	now := time.Now().UTC()
	p := model.Product{
		ID:          s.nextProd,
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		Category:    draft.Category,
		Stock:       draft.Stock,
		ImageURL:    draft.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextProd++
	s.products = append(s.products, p)
	return p
}

type authedHandler func(http.ResponseWriter, *http.Request, *auth.Claims)

// requireAuth validates the bearer token and passes its claims through.
func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}
		claims, err := auth.ValidateToken(s.jwtSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r, claims)
	}
}

// requireAdmin additionally checks the admin role.
func (s *Server) requireAdmin(next authedHandler) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
		if claims.Role != model.RoleAdmin {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next(w, r, claims)
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
