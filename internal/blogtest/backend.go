// Package blogtest provides an in-memory blog backend for tests.
package blogtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benvon/smart-blog/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

// Request is a request seen by the backend
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
}

type account struct {
	name     string
	email    string
	password string
}

// Backend implements the blog REST API in memory. Tokens are HS256 JWTs
// carrying the user email.
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	secret   []byte
	accounts map[string]account
	posts    []models.Post
	nextID   int
	requests []Request
}

// NewBackend starts a backend that is closed when the test ends
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		secret:   []byte("blogtest-secret"),
		accounts: make(map[string]account),
		nextID:   1,
	}

	r := mux.NewRouter()
	r.Use(b.record)
	r.HandleFunc("/register", b.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", b.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/posts", b.handleListPosts).Methods(http.MethodGet)
	r.HandleFunc("/posts", b.handleCreatePost).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}", b.handleGetPost).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}", b.handleUpdatePost).Methods(http.MethodPut)
	r.HandleFunc("/posts/{id}", b.handleDeletePost).Methods(http.MethodDelete)
	r.HandleFunc("/categories", b.handleCategories).Methods(http.MethodGet)
	r.HandleFunc("/archive", b.handleArchive).Methods(http.MethodGet)

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the base URL of the backend
func (b *Backend) URL() string { return b.Server.URL }

// AddAccount registers a user directly
func (b *Backend) AddAccount(name, email, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = account{name: name, email: email, password: password}
}

// AddPost stores p owned by owner and returns it with its assigned ID
func (b *Backend) AddPost(owner string, p models.Post) models.Post {
	b.mu.Lock()
	defer b.mu.Unlock()
	p.ID = models.PostID(strconv.Itoa(b.nextID))
	b.nextID++
	p.Owner = owner
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	b.posts = append(b.posts, p)
	return p
}

// Posts returns a copy of the stored posts
func (b *Backend) Posts() []models.Post {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Post(nil), b.posts...)
}

// Requests returns the requests seen so far
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// LastRequest returns the most recent request
func (b *Backend) LastRequest() Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return Request{}
	}
	return b.requests[len(b.requests)-1]
}

// Token issues a valid token for email
func (b *Backend) Token(email string) string {
	claims := jwt.MapClaims{
		"sub":   email,
		"email": email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		panic(err)
	}
	return token
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// caller returns the email of a valid bearer token, or an error
func (b *Backend) caller(r *http.Request) (string, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return "", errors.New("missing bearer token")
	}
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return b.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims")
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", errors.New("token has no email")
	}
	return email, nil
}

// optionalCaller allows anonymous access but rejects a bad token with 401
func (b *Backend) optionalCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Header.Get("Authorization") == "" {
		return "", true
	}
	caller, err := b.caller(r)
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return "", false
	}
	return caller, true
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	b.mu.Lock()
	_, exists := b.accounts[req.Email]
	if !exists {
		b.accounts[req.Email] = account{name: req.Name, email: req.Email, password: req.Password}
	}
	b.mu.Unlock()

	if exists {
		respondJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "registered"})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	b.mu.Lock()
	acct, ok := b.accounts[req.Email]
	b.mu.Unlock()

	if !ok || acct.password != req.Password {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	respondJSON(w, http.StatusOK, models.LoginResponse{Token: b.Token(req.Email)})
}

func (b *Backend) handleListPosts(w http.ResponseWriter, r *http.Request) {
	owner, ok := b.optionalCaller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	category := q.Get("category")
	search := strings.ToLower(q.Get("search"))
	year, _ := strconv.Atoi(q.Get("year"))
	month, _ := strconv.Atoi(q.Get("month"))

	b.mu.Lock()
	out := make([]models.Post, 0, len(b.posts))
	for _, p := range b.posts {
		if owner != "" && p.Owner != owner {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title+" "+p.Content), search) {
			continue
		}
		if year > 0 && (p.CreatedAt.Year() != year || int(p.CreatedAt.Month()) != month) {
			continue
		}
		out = append(out, p)
	}
	b.mu.Unlock()

	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) handleGetPost(w http.ResponseWriter, r *http.Request) {
	caller, ok := b.optionalCaller(w, r)
	if !ok {
		return
	}
	p, ok := b.find(mux.Vars(r)["id"])
	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	p.IsOwner = caller != "" && caller == p.Owner
	respondJSON(w, http.StatusOK, p)
}

func (b *Backend) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	caller, err := b.caller(r)
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	var in models.PostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	p := b.AddPost(caller, models.Post{
		Title:    in.Title,
		Content:  in.Content,
		Category: in.Category,
		Excerpt:  in.Excerpt,
	})
	respondJSON(w, http.StatusCreated, p)
}

func (b *Backend) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	idx, ok := b.authorize(w, r)
	if !ok {
		return
	}
	var in models.PostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	b.mu.Lock()
	p := &b.posts[idx]
	p.Title, p.Content, p.Category, p.Excerpt = in.Title, in.Content, in.Category, in.Excerpt
	updated := *p
	b.mu.Unlock()

	respondJSON(w, http.StatusOK, updated)
}

func (b *Backend) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	idx, ok := b.authorize(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	b.posts = append(b.posts[:idx], b.posts[idx+1:]...)
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// authorize resolves the post in the URL and checks the caller owns it
func (b *Backend) authorize(w http.ResponseWriter, r *http.Request) (int, bool) {
	caller, err := b.caller(r)
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return 0, false
	}

	id := mux.Vars(r)["id"]
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range b.posts {
		if string(p.ID) != id {
			continue
		}
		if p.Owner != caller {
			respondJSON(w, http.StatusForbidden, map[string]string{"error": "not the owner"})
			return 0, false
		}
		return i, true
	}
	respondJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
	return 0, false
}

func (b *Backend) find(id string) (models.Post, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.posts {
		if string(p.ID) == id {
			return p, true
		}
	}
	return models.Post{}, false
}

func (b *Backend) handleCategories(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	seen := make(map[string]bool)
	categories := []string{}
	for _, p := range b.posts {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	b.mu.Unlock()

	sort.Strings(categories)
	respondJSON(w, http.StatusOK, categories)
}

func (b *Backend) handleArchive(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	months := make(map[int]map[int]bool)
	for _, p := range b.posts {
		y, m := p.CreatedAt.Year(), int(p.CreatedAt.Month())
		if months[y] == nil {
			months[y] = make(map[int]bool)
		}
		months[y][m] = true
	}
	b.mu.Unlock()

	entries := []models.ArchiveEntry{}
	for y, ms := range months {
		entry := models.ArchiveEntry{Year: y}
		for m := range ms {
			entry.Months = append(entry.Months, m)
		}
		sort.Ints(entry.Months)
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Year > entries[j].Year })
	respondJSON(w, http.StatusOK, entries)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
