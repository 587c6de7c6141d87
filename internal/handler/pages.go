// Package handler contains the HTTP handlers of the card builder.
//
// Handlers are the glue between HTTP and the services: they parse the
// request, call a service with plain Go values and turn the result (or the
// apperror) into a response. No business rule lives here.
//
// Two kinds of responses exist side by side. HTML pages for the browser
// wizard are rendered through Pages; the JSON API answers through writeJSON
// and writeError (response.go).
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sakif/business-cards/internal/model"
	"github.com/sakif/business-cards/internal/wizard"
)

// Page names, one per file under web/templates.
const (
	PageIntake    = "intake"
	PageCustomize = "customize"
	PageShare     = "share"
	PageCard      = "card"
	PageNotFound  = "notfound"
	PageError     = "error"
)

var pageNames = []string{PageIntake, PageCustomize, PageShare, PageCard, PageNotFound, PageError}

// pageData is the single data type every page template receives. A struct
// rather than a map, so a field a page does not use is simply its zero
// value instead of a template error.
type pageData struct {
	Title string
	Step  wizard.Step
	Flash string
	Error string

	// intake
	Fields     []model.ProfileField
	Values     map[string]string
	ErrorField string

	// customize, share and card
	Style         model.StyleConfig
	Orientations  []model.Orientation
	LogoPositions []model.LogoPosition
	BorderStyles  []model.BorderStyle
	Repeats       []model.BackgroundRepeat
	Fits          []model.BackgroundFit
	MinFontSize   int
	MaxFontSize   int
	MinLogoSize   int
	MaxLogoSize   int
	Preview       template.HTML

	ShareURL string
	QR       template.URL
	ImageURL string

	// error
	Heading string
}

// Pages holds one parsed template set per page.
//
// TEMPLATE COMPOSITION:
// Each set is base.html plus the page file. base.html calls
// {{template "content" .}} and every page defines "content", so the sets
// cannot share one *template.Template: the last "content" parsed would win.
type Pages struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewPages parses every page from fsys, which must contain templates/*.html.
// Parsing happens once at startup; a broken template fails the server start
// instead of the first request.
func NewPages(fsys fs.FS, logger *slog.Logger) (*Pages, error) {
	p := &Pages{
		templates: make(map[string]*template.Template, len(pageNames)),
		logger:    logger,
	}
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(fsys, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing page %s: %w", name, err)
		}
		p.templates[name] = tmpl
	}
	return p, nil
}

// Render executes a page into a buffer first, so a template error turns into
// a clean 500 instead of half a page behind an already-sent status.
func (p *Pages) Render(w http.ResponseWriter, status int, name string, data pageData) {
	tmpl, ok := p.templates[name]
	if !ok {
		p.logger.Error("unknown page", slog.String("page", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		p.logger.Error("failed to render template",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NotFound renders the "Card not found" page.
func (p *Pages) NotFound(w http.ResponseWriter) {
	p.Render(w, http.StatusNotFound, PageNotFound, pageData{Title: "Card not found"})
}

// Failure renders the generic error page with the given heading.
func (p *Pages) Failure(w http.ResponseWriter, status int, heading string) {
	p.Render(w, status, PageError, pageData{Title: heading, Heading: heading})
}
