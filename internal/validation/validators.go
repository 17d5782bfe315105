package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/benvon/smart-blog/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("notblank", validateNotBlank); err != nil {
		panic(fmt.Sprintf("failed to register notblank validator: %v", err))
	}
}

// validateNotBlank rejects empty and whitespace-only strings
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Struct validates v and flattens validator errors into a single readable error
func Struct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("invalid input: %s", strings.Join(msgs, ", "))
}

// SanitizeText trims whitespace and removes control characters except newline and tab
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// SanitizePostInput applies SanitizeText to every field
func SanitizePostInput(in models.PostInput) models.PostInput {
	return models.PostInput{
		Title:    SanitizeText(in.Title),
		Content:  SanitizeText(in.Content),
		Category: SanitizeText(in.Category),
		Excerpt:  SanitizeText(in.Excerpt),
	}
}

// ParseArchiveSelection validates a year/month pair taken from user input
func ParseArchiveSelection(year, month string) (int, int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1 {
		return 0, 0, fmt.Errorf("invalid year: %q", year)
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("invalid month: %q (must be 1-12)", month)
	}
	return y, m, nil
}
