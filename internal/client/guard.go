package client

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Navigator moves the user between pages
type Navigator interface {
	// Location returns the current page
	Location() string
	// Navigate moves to location
	Navigate(location string)
}

// Landings names the pages involved in authorization redirects
type Landings struct {
	Login        string
	Unauthorized string
	Forbidden    string
}

// DefaultLandings returns the standard landing pages
func DefaultLandings() Landings {
	return Landings{
		Login:        "login.html",
		Unauthorized: "401.html",
		Forbidden:    "403.html",
	}
}

// Requester performs requests without side effects
type Requester interface {
	Perform(ctx context.Context, path string, opts Options) (Result, error)
}

// Guard performs requests and turns authorization failures into navigation.
// Redirect handling lives here so page handlers never repeat it.
type Guard struct {
	requester Requester
	nav       Navigator
	landings  Landings
	logger    *zap.Logger
}

// NewGuard composes requester with navigation on authorization failures
func NewGuard(requester Requester, nav Navigator, landings Landings, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{requester: requester, nav: nav, landings: landings, logger: logger}
}

// Do performs the request; an *AuthError triggers navigation before it is returned
func (g *Guard) Do(ctx context.Context, path string, opts Options) (Result, error) {
	res, err := g.requester.Perform(ctx, path, opts)
	if err != nil {
		g.HandleAuthError(err)
		return Result{}, err
	}
	return res, nil
}

// HandleAuthError navigates to the landing for an authorization failure.
// It reports whether err was an authorization failure.
func (g *Guard) HandleAuthError(err error) bool {
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		return false
	}

	current := g.nav.Location()
	switch authErr.Kind {
	case Unauthorized:
		if !samePage(current, g.landings.Login) {
			g.redirect(authErr, g.landings.Unauthorized)
		}
	case Forbidden:
		if !samePage(current, g.landings.Forbidden) {
			g.redirect(authErr, g.landings.Forbidden)
		}
	}
	return true
}

func (g *Guard) redirect(authErr *AuthError, location string) {
	g.logger.Info("auth_redirect",
		zap.String("kind", authErr.Kind.String()),
		zap.String("from", g.nav.Location()),
		zap.String("to", location),
	)
	g.nav.Navigate(location)
}

// samePage compares locations ignoring a leading slash
func samePage(a, b string) bool {
	return strings.TrimPrefix(a, "/") == strings.TrimPrefix(b, "/")
}
