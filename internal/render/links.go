package render

import (
	"strings"

	"github.com/sakif/business-cards/internal/model"
)

// Canonical profile URL bases for handles that are not already URLs.
const (
	InstagramBase = "https://instagram.com/"
	FacebookBase  = "https://facebook.com/"
)

// LinkSet holds dereferenceable links derived from a profile's raw contact
// fields. An empty string means the field is absent.
type LinkSet struct {
	Email     string `json:"email"`
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
	Website   string `json:"website"`
}

// DeriveLinks computes the LinkSet for p. It is a pure function of the raw
// fields: the same profile always yields the same links, and a value that is
// already an http(s) URL is never prefixed a second time.
func DeriveLinks(p model.ProfileRecord) LinkSet {
	return LinkSet{
		Email:     emailLink(p.Email),
		Instagram: prefixed(p.Instagram, InstagramBase),
		Facebook:  prefixed(p.Facebook, FacebookBase),
		Website:   prefixed(p.Website, "https://"),
	}
}

func emailLink(email string) string {
	if !strings.Contains(email, "@") {
		return ""
	}
	return "mailto:" + email
}

func prefixed(raw, base string) string {
	if raw == "" {
		return ""
	}
	if HasHTTPScheme(raw) {
		return raw
	}
	return base + raw
}

// HasHTTPScheme reports whether s starts with http:// or https://, ignoring case.
func HasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
