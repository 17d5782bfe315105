package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DefaultCategory is shown for posts without a category
const DefaultCategory = "Uncategorized"

// PostID is a post identifier. Backends send it either as a string or a number.
type PostID string

// UnmarshalJSON accepts both JSON strings and JSON numbers
func (id *PostID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PostID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = PostID(n.String())
	return nil
}

func (id PostID) String() string { return string(id) }

// Post represents a blog post as returned by the backend
type Post struct {
	ID        PostID    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsOwner   bool      `json:"is_owner,omitempty"`
	Owner     string    `json:"owner,omitempty"`
}

// wirePost mirrors the accepted spellings of the backend payload
type wirePost struct {
	ID           PostID          `json:"id"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	Excerpt      string          `json:"excerpt"`
	Category     string          `json:"category"`
	CreatedAt    json.RawMessage `json:"created_at"`
	CreatedAtAlt json.RawMessage `json:"createdAt"`
	IsOwner      json.RawMessage `json:"is_owner"`
	Owner        json.RawMessage `json:"owner"`
}

// UnmarshalJSON accepts created_at or createdAt and is_owner or owner
func (p *Post) UnmarshalJSON(data []byte) error {
	var w wirePost
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*p = Post{
		ID:       w.ID,
		Title:    w.Title,
		Content:  w.Content,
		Excerpt:  w.Excerpt,
		Category: w.Category,
	}

	if ts, ok := parseTimestamp(w.CreatedAt); ok {
		p.CreatedAt = ts
	} else if ts, ok := parseTimestamp(w.CreatedAtAlt); ok {
		p.CreatedAt = ts
	}

	p.IsOwner = truthy(w.IsOwner)
	p.Owner = ownerString(w.Owner)
	if !p.IsOwner && p.Owner == "" && truthy(w.Owner) {
		// "owner": true is used by some backends as the ownership flag
		p.IsOwner = true
	}

	return nil
}

// DisplayCategory returns the category or DefaultCategory
func (p *Post) DisplayCategory() string {
	if strings.TrimSpace(p.Category) == "" {
		return DefaultCategory
	}
	return p.Category
}

// Summary returns the explicit excerpt or the first limit runes of the content followed by "...".
func (p *Post) Summary(limit int) string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	runes := []rune(p.Content)
	if limit >= 0 && len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + "..."
}

// OwnedBy reports whether the post may be edited by identity.
// An explicit ownership flag wins; otherwise the owner field is compared with identity.
func (p *Post) OwnedBy(identity string) bool {
	if p.IsOwner {
		return true
	}
	return identity != "" && p.Owner == identity
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// epoch milliseconds, as produced by Date.now()
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func truthy(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	return false
}

// ownerString accepts a string or numeric owner id
func ownerString(raw json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	s, _ := ClaimString(v)
	return s
}

// PostInput is the body of POST /posts and PUT /posts/:id
type PostInput struct {
	Title    string `json:"title" validate:"notblank,max=300"`
	Content  string `json:"content" validate:"notblank"`
	Category string `json:"category" validate:"max=100"`
	Excerpt  string `json:"excerpt" validate:"max=1000"`
}

// ArchiveEntry lists the months of a year that have posts
type ArchiveEntry struct {
	Year   int   `json:"year"`
	Months []int `json:"months"`
}
