package handler

import (
	"net/http"
	"strings"
)

// ShareLinks builds the public locator of a saved card.
type ShareLinks struct {
	// BaseURL, e.g. https://cards.example.com. Empty derives it from the
	// request, which is right behind a single trusted proxy.
	BaseURL string
}

// CardURL returns <base>/card/<id>.
func (l ShareLinks) CardURL(r *http.Request, id string) string {
	return l.base(r) + "/card/" + id
}

func (l ShareLinks) base(r *http.Request) string {
	if l.BaseURL != "" {
		return strings.TrimRight(l.BaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
