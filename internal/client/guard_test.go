package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type fakeNavigator struct {
	location string
	visited  []string
}

func (f *fakeNavigator) Location() string { return f.location }

func (f *fakeNavigator) Navigate(location string) {
	f.visited = append(f.visited, location)
	f.location = location
}

type fakeRequester struct {
	res Result
	err error
}

func (f fakeRequester) Perform(context.Context, string, Options) (Result, error) {
	return f.res, f.err
}

func TestGuard_Do(t *testing.T) {
	t.Parallel()

	unauthorized := &AuthError{Kind: Unauthorized, Method: http.MethodGet, Path: "/posts"}
	forbidden := &AuthError{Kind: Forbidden, Method: http.MethodDelete, Path: "/posts/1"}

	tests := []struct {
		name        string
		location    string
		err         error
		wantErr     error
		wantVisited []string
	}{
		{"401 from dashboard", "dashboard.html", unauthorized, ErrUnauthorized, []string{"401.html"}},
		{"401 on login page", "login.html", unauthorized, ErrUnauthorized, nil},
		{"401 on login page with slash", "/login.html", unauthorized, ErrUnauthorized, nil},
		{"403 from post", "post.html", forbidden, ErrForbidden, []string{"403.html"}},
		{"403 already on forbidden landing", "403.html", forbidden, ErrForbidden, nil},
		{"403 from login page still redirects", "login.html", forbidden, ErrForbidden, []string{"403.html"}},
		{"network error does not navigate", "index.html", &NetworkError{Err: errors.New("down")}, nil, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			nav := &fakeNavigator{location: tt.location}
			g := NewGuard(fakeRequester{err: tt.err}, nav, DefaultLandings(), nil)

			_, err := g.Do(context.Background(), "/posts", Options{})
			if err == nil {
				t.Fatal("Do() expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Do() error = %v, want %v", err, tt.wantErr)
			}
			if len(nav.visited) != len(tt.wantVisited) {
				t.Fatalf("visited = %v, want %v", nav.visited, tt.wantVisited)
			}
			for i := range nav.visited {
				if nav.visited[i] != tt.wantVisited[i] {
					t.Errorf("visited[%d] = %q, want %q", i, nav.visited[i], tt.wantVisited[i])
				}
			}
		})
	}
}

func TestGuard_DoSuccess(t *testing.T) {
	t.Parallel()
	nav := &fakeNavigator{location: "index.html"}
	want := NewResult(http.StatusOK, []byte(`[]`))
	g := NewGuard(fakeRequester{res: want}, nav, DefaultLandings(), nil)

	got, err := g.Do(context.Background(), "/posts", Options{})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !got.IsJSON() || got.Text() != "[]" {
		t.Errorf("Do() = %+v, want passthrough result", got)
	}
	if len(nav.visited) != 0 {
		t.Errorf("visited = %v, want none", nav.visited)
	}
}

func TestGuard_HandleAuthError(t *testing.T) {
	t.Parallel()
	nav := &fakeNavigator{location: "index.html"}
	g := NewGuard(fakeRequester{}, nav, DefaultLandings(), nil)

	if g.HandleAuthError(errors.New("plain")) {
		t.Error("HandleAuthError() = true for a non-auth error")
	}
	if !g.HandleAuthError(&AuthError{Kind: Unauthorized}) {
		t.Error("HandleAuthError() = false for an auth error")
	}
	if nav.location != "401.html" {
		t.Errorf("location = %q, want 401.html", nav.location)
	}
}
