package commands

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benvon/smart-blog/internal/blogtest"
	"github.com/benvon/smart-blog/internal/models"
	"github.com/benvon/smart-blog/internal/pages"
	"github.com/benvon/smart-blog/internal/session"
)

// setupEnv points the CLI at backend with a throwaway state file
func setupEnv(t *testing.T, backend *blogtest.Backend) string {
	t.Helper()
	stateFile := filepath.Join(t.TempDir(), "state.yaml")
	t.Setenv("BLOG_API_BASE", backend.URL())
	t.Setenv("BLOG_STORAGE", "file")
	t.Setenv("BLOG_STATE_FILE", stateFile)
	t.Setenv("BLOG_HTTP_TIMEOUT", "")
	t.Setenv("BLOG_DEBUG", "")
	t.Setenv("BLOG_LOG_DEV", "")
	t.Setenv("OTEL_ENABLED", "")
	return stateFile
}

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func TestLoginWhoamiDashboardLogout(t *testing.T) {
	backend := blogtest.NewBackend(t)
	backend.AddAccount("Ann", "a@b.com", "x")
	backend.AddPost("a@b.com", models.Post{Title: "Mine", Content: "body"})
	backend.AddPost("other@b.com", models.Post{Title: "Theirs", Content: "body"})
	setupEnv(t, backend)

	res := execute(t, "", "login", "--email", "a@b.com", "--password", "x")
	if res.err != nil {
		t.Fatalf("login error = %v (stderr %q)", res.err, res.stderr)
	}
	for _, want := range []string{"! Login successful", "-> dashboard.html"} {
		if !strings.Contains(res.stderr, want) {
			t.Errorf("login stderr missing %q:\n%s", want, res.stderr)
		}
	}

	res = execute(t, "", "whoami")
	if res.err != nil {
		t.Fatalf("whoami error = %v", res.err)
	}
	for _, want := range []string{"Identity: a@b.com", "Subject: a@b.com", "Expires:", "(valid)"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("whoami output missing %q:\n%s", want, res.stdout)
		}
	}

	res = execute(t, "", "dashboard")
	if res.err != nil {
		t.Fatalf("dashboard error = %v", res.err)
	}
	if !strings.Contains(res.stdout, "[1] Mine") {
		t.Errorf("dashboard output missing own post:\n%s", res.stdout)
	}
	if strings.Contains(res.stdout, "Theirs") {
		t.Errorf("dashboard output shows a foreign post:\n%s", res.stdout)
	}
	if got := backend.LastRequest().Authorization; !strings.HasPrefix(got, "Bearer ") {
		t.Errorf("dashboard request Authorization = %q, want bearer token", got)
	}

	res = execute(t, "", "logout")
	if res.err != nil {
		t.Fatalf("logout error = %v", res.err)
	}
	if !strings.Contains(res.stderr, "-> /") {
		t.Errorf("logout stderr = %q, want navigation home", res.stderr)
	}

	res = execute(t, "", "whoami")
	if res.err != nil {
		t.Fatalf("whoami error = %v", res.err)
	}
	if !strings.Contains(res.stdout, "Not signed in") {
		t.Errorf("whoami after logout = %q, want Not signed in", res.stdout)
	}
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	backend := blogtest.NewBackend(t)
	backend.AddAccount("Ann", "a@b.com", "secret")
	setupEnv(t, backend)

	res := execute(t, "secret\n", "login", "--email", "a@b.com")
	if res.err != nil {
		t.Fatalf("login error = %v (stderr %q)", res.err, res.stderr)
	}

	res = execute(t, "", "nav")
	if !strings.Contains(res.stdout, "Signed in as a@b.com") {
		t.Errorf("nav output = %q, want signed in", res.stdout)
	}
}

func TestLogin_Errors(t *testing.T) {
	backend := blogtest.NewBackend(t)
	backend.AddAccount("Ann", "a@b.com", "x")
	setupEnv(t, backend)

	res := execute(t, "", "login", "--password", "x")
	if res.err == nil || !strings.Contains(res.err.Error(), "--email") {
		t.Errorf("login without email error = %v, want --email required", res.err)
	}

	res = execute(t, "", "login", "--email", "a@b.com")
	if res.err == nil || !strings.Contains(res.err.Error(), "password is required") {
		t.Errorf("login with empty stdin error = %v, want password required", res.err)
	}

	res = execute(t, "", "login", "--email", "a@b.com", "--password", "wrong")
	if !errors.Is(res.err, pages.ErrReported) {
		t.Fatalf("bad credentials error = %v, want ErrReported", res.err)
	}
	if !strings.Contains(res.stderr, "Login failed") {
		t.Errorf("bad credentials stderr = %q, want Login failed notice", res.stderr)
	}
	if strings.Contains(res.stderr, "401.html") {
		t.Errorf("bad credentials navigated away from the login page:\n%s", res.stderr)
	}

	res = execute(t, "", "nav")
	if !strings.Contains(res.stdout, "Not signed in") {
		t.Errorf("nav after failed login = %q, want Not signed in", res.stdout)
	}
}

func TestCreate_ContentFromStdin(t *testing.T) {
	backend := blogtest.NewBackend(t)
	backend.AddAccount("Ann", "a@b.com", "x")
	setupEnv(t, backend)

	if res := execute(t, "", "login", "--email", "a@b.com", "--password", "x"); res.err != nil {
		t.Fatalf("login error = %v", res.err)
	}

	res := execute(t, "Written on stdin\n", "create", "--title", "From stdin", "--content", "-", "--category", "Go")
	if res.err != nil {
		t.Fatalf("create error = %v (stderr %q)", res.err, res.stderr)
	}
	if !strings.Contains(res.stderr, "-> dashboard.html") {
		t.Errorf("create stderr = %q, want navigation to dashboard", res.stderr)
	}

	posts := backend.Posts()
	if len(posts) != 1 {
		t.Fatalf("backend has %d posts, want 1", len(posts))
	}
	if posts[0].Content != "Written on stdin" || posts[0].Category != "Go" {
		t.Errorf("created post = %+v", posts[0])
	}
}

func TestDelete_Confirmation(t *testing.T) {
	backend := blogtest.NewBackend(t)
	backend.AddAccount("Ann", "a@b.com", "x")
	post := backend.AddPost("a@b.com", models.Post{Title: "Doomed", Content: "body"})
	setupEnv(t, backend)

	if res := execute(t, "", "login", "--email", "a@b.com", "--password", "x"); res.err != nil {
		t.Fatalf("login error = %v", res.err)
	}
	before := len(backend.Requests())

	res := execute(t, "n\n", "delete", string(post.ID))
	if res.err != nil {
		t.Fatalf("delete error = %v", res.err)
	}
	if !strings.Contains(res.stderr, "Aborted") {
		t.Errorf("delete stderr = %q, want Aborted", res.stderr)
	}
	if got := len(backend.Requests()); got != before {
		t.Errorf("aborted delete sent %d requests", got-before)
	}

	res = execute(t, "", "delete", "--yes", string(post.ID))
	if res.err != nil {
		t.Fatalf("delete --yes error = %v (stderr %q)", res.err, res.stderr)
	}
	if len(backend.Posts()) != 0 {
		t.Error("post still present after delete")
	}
}

func TestSearch_JoinsArguments(t *testing.T) {
	backend := blogtest.NewBackend(t)
	backend.AddPost("a@b.com", models.Post{Title: "hello world", Content: "body"})
	setupEnv(t, backend)

	res := execute(t, "", "search", "hello", "world")
	if res.err != nil {
		t.Fatalf("search error = %v", res.err)
	}

	query, err := url.ParseQuery(backend.LastRequest().RawQuery)
	if err != nil {
		t.Fatalf("ParseQuery() error = %v", err)
	}
	if got := query.Get("search"); got != "hello world" {
		t.Errorf("search query = %q, want %q", got, "hello world")
	}
}

func TestConfigError(t *testing.T) {
	backend := blogtest.NewBackend(t)
	setupEnv(t, backend)
	t.Setenv("BLOG_STORAGE", "localstorage")

	res := execute(t, "", "home")
	if res.err == nil || !strings.Contains(res.err.Error(), "failed to load config") {
		t.Errorf("home error = %v, want config error", res.err)
	}
	if len(backend.Requests()) != 0 {
		t.Error("request sent despite invalid config")
	}
}

func TestLogin_StdinPasswordNotReused(t *testing.T) {
	backend := blogtest.NewBackend(t)
	backend.AddAccount("Ann", "a@b.com", "x")
	setupEnv(t, backend)

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	cmd.SetIn(strings.NewReader("x\n"))
	cmd.SetArgs([]string{"login", "--email", "a@b.com"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("first login error = %v (stderr %q)", err, errOut.String())
	}

	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"login", "--email", "a@b.com"})
	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "password is required") {
		t.Errorf("second login error = %v, want password required", err)
	}
}

func TestEdit_ClearFlags(t *testing.T) {
	backend := blogtest.NewBackend(t)
	backend.AddAccount("Ann", "a@b.com", "x")
	post := backend.AddPost("a@b.com", models.Post{Title: "T", Content: "C", Category: "Go", Excerpt: "Intro"})
	setupEnv(t, backend)

	if res := execute(t, "", "login", "--email", "a@b.com", "--password", "x"); res.err != nil {
		t.Fatalf("login error = %v", res.err)
	}

	res := execute(t, "", "edit", string(post.ID), "--clear-excerpt")
	if res.err != nil {
		t.Fatalf("edit error = %v (stderr %q)", res.err, res.stderr)
	}
	got := backend.Posts()[0]
	if got.Excerpt != "" || got.Category != "Go" {
		t.Errorf("edited post = %+v, want excerpt cleared and category kept", got)
	}

	res = execute(t, "", "edit", string(post.ID), "--category", "Rust", "--clear-category")
	if res.err == nil {
		t.Error("edit with --category and --clear-category succeeded, want flag conflict")
	}
}

func TestNewApp_FileStorageUsesStateFile(t *testing.T) {
	backend := blogtest.NewBackend(t)
	stateFile := setupEnv(t, backend)

	cmd := NewRootCmd()
	cmd.SetContext(context.Background())
	cmd.SetErr(&bytes.Buffer{})
	debug := false

	a, err := newApp(cmd, &rootOptions{debug: &debug}, pages.PageHome)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.close()

	fs, ok := a.storage.(*session.FileStorage)
	if !ok {
		t.Fatalf("storage = %T, want *session.FileStorage", a.storage)
	}
	if fs.Path() != stateFile {
		t.Errorf("Path() = %q, want %q", fs.Path(), stateFile)
	}
}
