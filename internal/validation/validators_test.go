package validation

import (
	"strings"
	"testing"

	"github.com/benvon/smart-blog/internal/models"
)

func TestStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   any
		wantErr string
	}{
		{"valid login", models.LoginRequest{Email: "a@b.com", Password: "x"}, ""},
		{"login bad email", models.LoginRequest{Email: "nope", Password: "x"}, "email failed email"},
		{"login missing password", models.LoginRequest{Email: "a@b.com"}, "password failed required"},
		{"register blank name", models.RegisterRequest{Name: "  ", Email: "a@b.com", Password: "x"}, "name failed notblank"},
		{"valid post", models.PostInput{Title: "T", Content: "C"}, ""},
		{"post blank title", models.PostInput{Title: "\t", Content: "C"}, "title failed notblank"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Struct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Struct() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Struct() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	got := SanitizeText("  hello\x00 world\n\tend\x07  ")
	want := "hello world\n\tend"
	if got != want {
		t.Errorf("SanitizeText() = %q, want %q", got, want)
	}
}

func TestParseArchiveSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		year      string
		month     string
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{"valid", "2024", "3", 2024, 3, false},
		{"padded", " 2024 ", "12", 2024, 12, false},
		{"month zero", "2024", "0", 0, 0, true},
		{"month thirteen", "2024", "13", 0, 0, true},
		{"year text", "last", "1", 0, 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			y, m, err := ParseArchiveSelection(tt.year, tt.month)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseArchiveSelection() error = %v, wantErr %v", err, tt.wantErr)
			}
			if y != tt.wantYear || m != tt.wantMonth {
				t.Errorf("ParseArchiveSelection() = (%d, %d), want (%d, %d)", y, m, tt.wantYear, tt.wantMonth)
			}
		})
	}
}
