package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benvon/smart-blog/internal/blog"
	"github.com/benvon/smart-blog/internal/client"
	logpkg "github.com/benvon/smart-blog/internal/logger"
	"github.com/benvon/smart-blog/internal/models"
	"github.com/benvon/smart-blog/internal/session"
	"github.com/benvon/smart-blog/internal/validation"
	"go.uber.org/zap"
)

// Page locations
const (
	PageHome       = "/"
	PagePost       = "post.html"
	PageLogin      = "login.html"
	PageRegister   = "register.html"
	PageDashboard  = "dashboard.html"
	PageCreate     = "create.html"
	PageEdit       = "edit.html"
	PageCategories = "categories.html"
	PageArchive    = "archive.html"
	PageSearch     = "search.html"
)

const (
	homeExcerptLength = 200
	listExcerptLength = 150
	timestampLayout   = "2006-01-02 15:04"
	dateLayout        = "2006-01-02"
)

// ErrReported marks a failure that was already shown to the user
var ErrReported = errors.New("reported")

// EditClear selects optional fields an edit empties instead of keeping
type EditClear struct {
	Category bool
	Excerpt  bool
}

// Handler renders the blog pages. Each page is a single fetch-then-render pass;
// failures are shown inline or as a notice and returned wrapped in ErrReported.
type Handler struct {
	api     *blog.Service
	session *session.Store
	nav     client.Navigator
	notice  Notifier
	out     io.Writer
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a page handler writing pages to out
func New(api *blog.Service, store *session.Store, nav client.Navigator, notice Notifier, out io.Writer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		api:     api,
		session: store,
		nav:     nav,
		notice:  notice,
		out:     out,
		logger:  logger,
		now:     time.Now,
	}
}

type postView struct {
	ID       string
	Title    string
	Date     string
	Category string
	Excerpt  string
	Content  string
	CanEdit  bool
}

type archiveView struct {
	Year  int
	Links []string
}

// Nav shows whether the user is signed in
func (h *Handler) Nav(ctx context.Context) error {
	return h.render("nav", h.session.Session(ctx))
}

// Home lists every post
func (h *Handler) Home(ctx context.Context) error {
	posts, err := h.api.ListPosts(ctx, blog.PostFilter{})
	if err != nil {
		return h.inline("Failed to load posts", err)
	}
	return h.render("posts", h.postViews(posts, homeExcerptLength, timestampLayout))
}

// Post shows a single post with edit controls for its owner
func (h *Handler) Post(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		h.message("Post id not found.")
		return fmt.Errorf("%w: post id not found", ErrReported)
	}

	post, err := h.api.GetPost(ctx, id, false)
	if err != nil {
		return h.inline("Failed to load post", err)
	}

	identity, _ := h.session.IdentityClaim(ctx)
	view := h.postView(*post, 0, timestampLayout)
	view.Content = post.Content
	view.CanEdit = post.OwnedBy(identity)
	return h.render("post", view)
}

// Login signs in and moves to the dashboard
func (h *Handler) Login(ctx context.Context, email, password string) error {
	err := h.api.Login(ctx, models.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if errors.Is(err, blog.ErrNoToken) {
		h.notice.Notify("Response did not contain a token")
		return fmt.Errorf("%w: %w", ErrReported, err)
	}
	if err != nil {
		return h.notify("Login failed", err)
	}

	h.notice.Notify("Login successful")
	h.nav.Navigate(PageDashboard)
	return nil
}

// Register creates an account and moves to the login page
func (h *Handler) Register(ctx context.Context, name, email, password string) error {
	req := models.RegisterRequest{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: password}
	if err := h.api.Register(ctx, req); err != nil {
		return h.notify("Registration failed", err)
	}

	h.notice.Notify("Registration successful. Please log in.")
	h.nav.Navigate(PageLogin)
	return nil
}

// Logout forgets the token and returns home
func (h *Handler) Logout(ctx context.Context) error {
	if err := h.api.Logout(ctx); err != nil {
		return h.notify("Logout failed", err)
	}
	h.nav.Navigate(PageHome)
	return nil
}

// Dashboard lists the signed in user's posts
func (h *Handler) Dashboard(ctx context.Context) error {
	if !h.requireToken(ctx) {
		return nil
	}

	posts, err := h.api.ListPosts(ctx, blog.PostFilter{Auth: true})
	if err != nil {
		return h.inline("Failed to load dashboard", err)
	}
	return h.render("dashboard", h.postViews(posts, 0, timestampLayout))
}

// Create publishes a new post
func (h *Handler) Create(ctx context.Context, in models.PostInput) error {
	if !h.requireToken(ctx) {
		return nil
	}

	if err := h.api.CreatePost(ctx, in); err != nil {
		return h.notify("Failed to create post", err)
	}
	h.notice.Notify("Post created")
	h.nav.Navigate(PageDashboard)
	return nil
}

// Edit loads a post, applies edit to it and saves the result. Fields left
// empty by edit keep their loaded value unless clearFields selects them.
func (h *Handler) Edit(ctx context.Context, id string, edit models.PostInput, clearFields EditClear) error {
	if strings.TrimSpace(id) == "" {
		h.notice.Notify("Post id not found")
		return fmt.Errorf("%w: post id not found", ErrReported)
	}
	if !h.requireToken(ctx) {
		return nil
	}

	current, err := h.api.GetPost(ctx, id, true)
	if err != nil {
		return h.notify("Failed to load post", err)
	}

	in := models.PostInput{
		Title:    firstNonEmpty(edit.Title, current.Title),
		Content:  firstNonEmpty(edit.Content, current.Content),
		Category: firstNonEmpty(edit.Category, current.Category),
		Excerpt:  firstNonEmpty(edit.Excerpt, current.Excerpt),
	}
	if clearFields.Category {
		in.Category = ""
	}
	if clearFields.Excerpt {
		in.Excerpt = ""
	}
	if err := h.api.UpdatePost(ctx, id, in); err != nil {
		return h.notify("Update failed", err)
	}
	h.notice.Notify("Post updated")
	h.nav.Navigate(PageDashboard)
	return nil
}

// Delete removes a post and returns home
func (h *Handler) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		h.notice.Notify("Post id not found")
		return fmt.Errorf("%w: post id not found", ErrReported)
	}

	if err := h.api.DeletePost(ctx, id); err != nil {
		return h.notify("Delete failed", err)
	}
	h.notice.Notify("Post deleted")
	h.nav.Navigate(PageHome)
	return nil
}

// Categories lists categories and, when selected is set, the posts in it
func (h *Handler) Categories(ctx context.Context, selected string) error {
	categories, err := h.api.Categories(ctx)
	if err != nil {
		return h.inline("Failed to load categories", err)
	}
	if err := h.render("categories", categories); err != nil {
		return err
	}

	if selected == "" {
		return nil
	}

	h.message(fmt.Sprintf("Posts in category %s:", selected))
	posts, err := h.api.ListPosts(ctx, blog.PostFilter{Category: selected})
	if err != nil {
		return h.inline("Failed to load categories", err)
	}
	if len(posts) == 0 {
		h.message("No posts in this category.")
		return nil
	}
	return h.render("posts", h.postViews(posts, listExcerptLength, dateLayout))
}

// Archive lists archive months and, when year and month are set, their posts
func (h *Handler) Archive(ctx context.Context, year, month string) error {
	entries, err := h.api.Archive(ctx)
	if err != nil {
		return h.inline("Failed to load archive", err)
	}

	views := make([]archiveView, 0, len(entries))
	for _, e := range entries {
		v := archiveView{Year: e.Year}
		for _, m := range e.Months {
			v.Links = append(v.Links, fmt.Sprintf("%d/%d", e.Year, m))
		}
		views = append(views, v)
	}
	if err := h.render("archive", views); err != nil {
		return err
	}

	if year == "" || month == "" {
		return nil
	}

	y, m, err := validation.ParseArchiveSelection(year, month)
	if err != nil {
		return h.inline("Failed to load archive", err)
	}

	h.message(fmt.Sprintf("Posts from %d/%d:", y, m))
	posts, err := h.api.ListPosts(ctx, blog.PostFilter{Year: y, Month: m})
	if err != nil {
		return h.inline("Failed to load archive", err)
	}
	if len(posts) == 0 {
		h.message("No posts this month.")
		return nil
	}
	return h.render("posts", h.postViews(posts, listExcerptLength, dateLayout))
}

// Search lists posts matching keyword
func (h *Handler) Search(ctx context.Context, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		h.message("Enter a search keyword.")
		return nil
	}

	h.message(fmt.Sprintf("Searching %q...", keyword))
	posts, err := h.api.ListPosts(ctx, blog.PostFilter{Search: keyword})
	if err != nil {
		return h.inline("Search failed", err)
	}
	if len(posts) == 0 {
		h.message(fmt.Sprintf("No results for %q.", keyword))
		return nil
	}
	return h.render("posts", h.postViews(posts, listExcerptLength, dateLayout))
}

// requireToken sends anonymous users to the login page
func (h *Handler) requireToken(ctx context.Context) bool {
	if _, ok := h.session.Get(ctx); ok {
		return true
	}
	h.nav.Navigate(PageLogin)
	return false
}

func (h *Handler) postViews(posts []models.Post, excerptLength int, layout string) []postView {
	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		views = append(views, h.postView(p, excerptLength, layout))
	}
	return views
}

func (h *Handler) postView(p models.Post, excerptLength int, layout string) postView {
	created := p.CreatedAt
	if created.IsZero() {
		created = h.now()
	}
	v := postView{
		ID:       p.ID.String(),
		Title:    p.Title,
		Date:     created.Local().Format(layout),
		Category: p.DisplayCategory(),
	}
	if excerptLength > 0 {
		v.Excerpt = p.Summary(excerptLength)
	}
	return v
}

func (h *Handler) render(name string, data any) error {
	if err := templates.ExecuteTemplate(h.out, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

func (h *Handler) message(msg string) {
	_ = templates.ExecuteTemplate(h.out, "message", msg)
}

// inline renders the failure in place of the page content
func (h *Handler) inline(prefix string, err error) error {
	h.logger.Debug("page_failed", zap.String("error", logpkg.SanitizeError(err)))
	h.message(fmt.Sprintf("%s: %v", prefix, err))
	return fmt.Errorf("%w: %w", ErrReported, err)
}

// notify reports the failure as a blocking notice
func (h *Handler) notify(prefix string, err error) error {
	h.logger.Debug("action_failed", zap.String("error", logpkg.SanitizeError(err)))
	h.notice.Notify(fmt.Sprintf("%s: %v", prefix, err))
	return fmt.Errorf("%w: %w", ErrReported, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
