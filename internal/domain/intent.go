package domain

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// dialablePattern allows digits and plus signs only.
var dialablePattern = regexp.MustCompile(`^[0-9+]+$`)

// numberValidator checks normalized number pairs; validator.Validate is safe for concurrent use.
var numberValidator = newNumberValidator()

// CallIntent is a validated call request waiting for confirmation.
type CallIntent struct {
	Destination   string `json:"destination"`
	SourceDisplay string `json:"source_display"`
	SourceNumber  string `json:"source_number"`
}

// numberPair carries the normalized values checked before an intent is created.
type numberPair struct {
	Destination string `validate:"required,dialable"`
	Source      string `validate:"required,dialable"`
}

// newNumberValidator builds the validator with the dialable tag registered.
func newNumberValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("dialable", func(fl validator.FieldLevel) bool {
		return dialablePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// NormalizeNumber trims raw and strips hyphens.
func NormalizeNumber(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
}

// IsDialable reports whether raw normalizes to a non-empty digits-and-plus string.
func IsDialable(raw string) bool {
	return dialablePattern.MatchString(NormalizeNumber(raw))
}

// BuildCallIntent validates the destination and resolved source and returns the intent to confirm.
// Either field failing yields ErrInvalidNumberFormat; the caller reports one combined message.
func BuildCallIntent(destinationRaw string, resolved ResolvedIdentity) (CallIntent, error) {
	pair := numberPair{
		Destination: NormalizeNumber(destinationRaw),
		Source:      NormalizeNumber(resolved.CanonicalNumber),
	}
	if err := numberValidator.Struct(pair); err != nil {
		return CallIntent{}, ErrInvalidNumberFormat
	}

	sourceNumber := strings.TrimSpace(resolved.CanonicalNumber)
	sourceDisplay := strings.TrimSpace(resolved.DisplayText)
	if sourceDisplay == "" {
		sourceDisplay = sourceNumber
	}
	return CallIntent{
		Destination:   strings.TrimSpace(destinationRaw),
		SourceDisplay: sourceDisplay,
		SourceNumber:  sourceNumber,
	}, nil
}
