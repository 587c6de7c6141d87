package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

// CardSelector addresses the card element inside a rendered document. The
// rasterizers capture exactly this element.
const CardSelector = "#card"

//go:embed templates/card.html
var templateFS embed.FS

var cardTemplates = template.Must(template.ParseFS(templateFS, "templates/card.html"))

// view is what the card template sees.
//
// html/template treats style attributes and data: URLs as unsafe and would
// replace them with "ZgotmplZ". Every value promoted to template.CSS or
// template.URL here has already been validated by StyleConfig.Normalize
// (colors, enums, data URL media types), and link hrefs are produced by
// DeriveLinks, so the promotion is safe. Text content is still escaped.
type view struct {
	Orientation  string
	ContainerCSS template.CSS
	Logo         *logoView
	Title        string
	Description  string
	Links        []linkView
}

type logoView struct {
	Src template.URL
	CSS template.CSS
}

type linkView struct {
	Kind  string
	Icon  string
	Href  template.URL
	Label string
}

func newView(t Tree) view {
	v := view{
		Orientation:  string(t.Orientation),
		ContainerCSS: template.CSS(t.Container.CSS()),
		Title:        t.Title,
		Description:  t.Description,
	}
	if t.Logo != nil {
		v.Logo = &logoView{
			Src: template.URL(t.Logo.Src),
			CSS: template.CSS(t.Logo.Style.CSS()),
		}
	}
	for _, l := range t.Links {
		v.Links = append(v.Links, linkView{
			Kind:  l.Kind,
			Icon:  l.Icon,
			Href:  safeHref(l.Href),
			Label: l.Label,
		})
	}
	return v
}

// safeHref only promotes the schemes DeriveLinks can produce.
func safeHref(h string) template.URL {
	lower := strings.ToLower(h)
	if strings.HasPrefix(lower, "mailto:") || HasHTTPScheme(lower) {
		return template.URL(h)
	}
	return template.URL("#" + template.URLQueryEscaper(h))
}

// Fragment renders the card element alone, for embedding in a page.
func Fragment(t Tree) (template.HTML, error) {
	var buf bytes.Buffer
	if err := cardTemplates.ExecuteTemplate(&buf, "card", newView(t)); err != nil {
		return "", fmt.Errorf("rendering card fragment: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Document renders a standalone HTML page containing only the card. It is
// the input handed to a Rasterizer.
func Document(t Tree) (string, error) {
	var buf bytes.Buffer
	if err := cardTemplates.ExecuteTemplate(&buf, "document", newView(t)); err != nil {
		return "", fmt.Errorf("rendering card document: %w", err)
	}
	return buf.String(), nil
}
