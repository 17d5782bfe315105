package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	logpkg "github.com/benvon/smart-blog/internal/logger"
	"github.com/benvon/smart-blog/internal/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// TokenKey is the storage key holding the bearer token
const TokenKey = "jwt_token"

// ErrNoToken is returned when an operation needs a token and none is stored
var ErrNoToken = errors.New("no token stored")

// identityClaims lists the payload fields tried, in order, for the user identity
var identityClaims = []string{"email", "sub"}

// Session is the view of the current token, derived on demand
type Session struct {
	Authenticated bool
	Identity      string
}

// Store holds the bearer token in an injected Storage.
// It never verifies the token; the backend is the source of truth.
type Store struct {
	storage Storage
	logger  *zap.Logger
}

// NewStore creates a store over storage. A nil logger disables logging.
func NewStore(storage Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{storage: storage, logger: logger}
}

// Save persists token, replacing any previous one
func (s *Store) Save(ctx context.Context, token string) error {
	if err := s.storage.Set(ctx, TokenKey, token); err != nil {
		return err
	}
	s.logger.Debug("token_saved", zap.String("token", logpkg.SanitizeToken(token)))
	return nil
}

// Get returns the stored token. Storage failures are logged and reported as no token.
func (s *Store) Get(ctx context.Context) (string, bool) {
	token, ok, err := s.storage.Get(ctx, TokenKey)
	if err != nil {
		s.logger.Warn("token_read_failed", zap.String("error", logpkg.SanitizeError(err)))
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Clear removes the stored token. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, TokenKey); err != nil {
		return err
	}
	s.logger.Debug("token_cleared")
	return nil
}

// AuthHeader returns an Authorization header for the stored token, or an empty header
func (s *Store) AuthHeader(ctx context.Context) http.Header {
	req := &http.Request{Header: make(http.Header)}
	token, ok := s.Get(ctx)
	if !ok {
		return req.Header
	}
	bearer(token).SetAuthHeader(req)
	return req.Header
}

// Token implements oauth2.TokenSource over the stored token
func (s *Store) Token() (*oauth2.Token, error) {
	token, ok := s.Get(context.Background())
	if !ok {
		return nil, ErrNoToken
	}
	return bearer(token), nil
}

// IdentityClaim returns the user identity carried by the stored token, if any
func (s *Store) IdentityClaim(ctx context.Context) (string, bool) {
	token, ok := s.Get(ctx)
	if !ok {
		return "", false
	}
	return IdentityFromToken(token)
}

// Session derives the current session from the stored token
func (s *Store) Session(ctx context.Context) Session {
	if _, ok := s.Get(ctx); !ok {
		return Session{}
	}
	identity, _ := s.IdentityClaim(ctx)
	return Session{Authenticated: true, Identity: identity}
}

func bearer(token string) *oauth2.Token {
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
}

// IdentityFromToken decodes the payload segment of a header.payload.signature token
// and returns the first present identity claim; numeric ids are rendered as
// decimal strings. Malformed input yields false.
func IdentityFromToken(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", false
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return "", false
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var claims map[string]any
	if err := dec.Decode(&claims); err != nil {
		return "", false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", false
	}

	for _, name := range identityClaims {
		if v, ok := models.ClaimString(claims[name]); ok {
			return v, true
		}
	}
	return "", false
}

// decodeSegment accepts base64url with or without padding, and plain base64
func decodeSegment(seg string) ([]byte, error) {
	seg = strings.TrimRight(seg, "=")
	if b, err := base64.RawURLEncoding.DecodeString(seg); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(seg)
}
