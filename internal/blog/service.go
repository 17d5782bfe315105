package blog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/benvon/smart-blog/internal/client"
	logpkg "github.com/benvon/smart-blog/internal/logger"
	"github.com/benvon/smart-blog/internal/models"
	"github.com/benvon/smart-blog/internal/session"
	"github.com/benvon/smart-blog/internal/validation"
	"go.uber.org/zap"
)

// ErrNoToken is returned when a login response carries no token
var ErrNoToken = errors.New("response did not contain a token")

// StatusError is a non-2xx response other than 401/403, returned as data by the
// dispatcher and surfaced as an error by the typed API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Body)
}

// Doer sends requests; *client.Guard satisfies it
type Doer interface {
	Do(ctx context.Context, path string, opts client.Options) (client.Result, error)
}

// PostFilter selects posts on GET /posts
type PostFilter struct {
	Category string
	Search   string
	Year     int
	Month    int
	// Auth sends the token; the backend then scopes the list to the owner
	Auth bool
}

// Service exposes the blog backend as typed operations
type Service struct {
	doer    Doer
	session *session.Store
	logger  *zap.Logger
}

// NewService creates a blog service
func NewService(doer Doer, store *session.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{doer: doer, session: store, logger: logger}
}

// Register creates an account
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	res, err := s.doer.Do(ctx, "/register", client.Options{Method: http.MethodPost, Body: req, NoAuth: true})
	if err != nil {
		return err
	}
	return checkStatus(res)
}

// Login exchanges credentials for a token and stores it
func (s *Service) Login(ctx context.Context, req models.LoginRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	res, err := s.doer.Do(ctx, "/login", client.Options{Method: http.MethodPost, Body: req, NoAuth: true})
	if err != nil {
		return err
	}
	if err := checkStatus(res); err != nil {
		return err
	}

	var body models.LoginResponse
	if err := res.Decode(&body); err != nil || body.Token == "" {
		return ErrNoToken
	}
	if err := s.session.Save(ctx, body.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	identity, _ := session.IdentityFromToken(body.Token)
	s.logger.Info("logged_in", zap.String("identity", logpkg.SanitizeIdentity(identity)))
	return nil
}

// Logout forgets the stored token
func (s *Service) Logout(ctx context.Context) error {
	return s.session.Clear(ctx)
}

// ListPosts returns posts matching filter, in backend order
func (s *Service) ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	var posts []models.Post
	if err := s.getJSON(ctx, postsPath(filter), !filter.Auth, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns a single post
func (s *Service) GetPost(ctx context.Context, id string, auth bool) (*models.Post, error) {
	if id == "" {
		return nil, errors.New("post id is required")
	}
	var post models.Post
	if err := s.getJSON(ctx, postPath(id), !auth, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost creates a post as the logged in user
func (s *Service) CreatePost(ctx context.Context, in models.PostInput) error {
	in = validation.SanitizePostInput(in)
	if err := validation.Struct(in); err != nil {
		return err
	}
	res, err := s.doer.Do(ctx, "/posts", client.Options{Method: http.MethodPost, Body: in})
	if err != nil {
		return err
	}
	return checkStatus(res)
}

// UpdatePost replaces the editable fields of a post
func (s *Service) UpdatePost(ctx context.Context, id string, in models.PostInput) error {
	if id == "" {
		return errors.New("post id is required")
	}
	in = validation.SanitizePostInput(in)
	if err := validation.Struct(in); err != nil {
		return err
	}
	res, err := s.doer.Do(ctx, postPath(id), client.Options{Method: http.MethodPut, Body: in})
	if err != nil {
		return err
	}
	return checkStatus(res)
}

// DeletePost removes a post
func (s *Service) DeletePost(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("post id is required")
	}
	res, err := s.doer.Do(ctx, postPath(id), client.Options{Method: http.MethodDelete})
	if err != nil {
		return err
	}
	return checkStatus(res)
}

// Categories returns the category names
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := s.getJSON(ctx, "/categories", true, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Archive returns the years and months that have posts
func (s *Service) Archive(ctx context.Context) ([]models.ArchiveEntry, error) {
	var entries []models.ArchiveEntry
	if err := s.getJSON(ctx, "/archive", true, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) getJSON(ctx context.Context, path string, noAuth bool, v any) error {
	res, err := s.doer.Do(ctx, path, client.Options{Method: http.MethodGet, NoAuth: noAuth})
	if err != nil {
		return err
	}
	if err := checkStatus(res); err != nil {
		return err
	}
	if err := res.Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func checkStatus(res client.Result) error {
	if res.Status >= http.StatusBadRequest {
		return &StatusError{Status: res.Status, Body: truncate(res.Text(), 200)}
	}
	return nil
}

func postPath(id string) string {
	return "/posts/" + url.PathEscape(id)
}

func postsPath(filter PostFilter) string {
	q := url.Values{}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Year > 0 && filter.Month > 0 {
		q.Set("year", strconv.Itoa(filter.Year))
		q.Set("month", strconv.Itoa(filter.Month))
	}
	if len(q) == 0 {
		return "/posts"
	}
	return "/posts?" + q.Encode()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
