package domain

import (
	"net/url"
	"strings"
)

// Dialing defaults.
const (
	DefaultCountryCode = "+81"
	DefaultURLScheme   = "zoomphonecall"
)

// DialingPlan holds the country code used for national numbers and the dispatch URL scheme.
type DialingPlan struct {
	CountryCode string
	URLScheme   string
}

// DialRequest is the dispatch-ready form of a confirmed CallIntent.
type DialRequest struct {
	Destination string `json:"destination"`
	CallerID    string `json:"caller_id"`
	URL         string `json:"url"`
}

// DefaultDialingPlan returns the +81 / zoomphonecall plan.
func DefaultDialingPlan() DialingPlan {
	return DialingPlan{CountryCode: DefaultCountryCode, URLScheme: DefaultURLScheme}
}

// Normalize fills blank fields with defaults and forces a leading plus on the country code.
func (p DialingPlan) Normalize() DialingPlan {
	p.CountryCode = NormalizeCountryCode(p.CountryCode)
	if p.CountryCode == "" {
		p.CountryCode = DefaultCountryCode
	}
	p.URLScheme = strings.TrimSuffix(strings.TrimSpace(p.URLScheme), "://")
	if p.URLScheme == "" {
		p.URLScheme = DefaultURLScheme
	}
	return p
}

// NormalizeCountryCode returns code with exactly one leading plus, or "" for blank input.
func NormalizeCountryCode(code string) string {
	code = strings.TrimLeft(strings.TrimSpace(code), "+")
	if code == "" {
		return ""
	}
	return "+" + code
}

// ConvertToE164 rewrites a leading-zero national number with countryCode.
// Numbers starting with + and anything else pass through after trimming and hyphen removal.
func ConvertToE164(number, countryCode string) string {
	cleaned := NormalizeNumber(number)
	switch {
	case cleaned == "":
		return ""
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, "0"):
		return countryCode + cleaned[1:]
	default:
		return cleaned
	}
}

// DialRequestFor converts a confirmed intent into the dispatch URL and E.164 numbers.
func (p DialingPlan) DialRequestFor(intent CallIntent) DialRequest {
	p = p.Normalize()
	dest := ConvertToE164(intent.Destination, p.CountryCode)
	callerID := ConvertToE164(intent.SourceNumber, p.CountryCode)
	return DialRequest{
		Destination: dest,
		CallerID:    callerID,
		URL:         p.URLScheme + "://" + url.QueryEscape(dest) + "?callerid=" + url.QueryEscape(callerID),
	}
}
