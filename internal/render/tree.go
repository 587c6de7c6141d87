// Package render turns a profile and a style into the card's visual structure.
//
// ComputePreview is the single source of truth for how a card looks. The live
// preview, the exported image and the public viewer all render the Tree it
// returns, so the three can never drift apart.
package render

import (
	"fmt"
	"strings"

	"github.com/sakif/business-cards/internal/model"
)

// Direction is the flex direction of the card body.
type Direction string

const (
	DirectionRow        Direction = "row"
	DirectionRowReverse Direction = "row-reverse"
	DirectionColumn     Direction = "column"
)

// Declaration is one CSS property/value pair.
type Declaration struct {
	Property string
	Value    string
}

// Style is an ordered list of CSS declarations.
type Style []Declaration

// Get returns the value of property, or "" when it is not set.
func (s Style) Get(property string) string {
	for _, d := range s {
		if d.Property == property {
			return d.Value
		}
	}
	return ""
}

// CSS renders the declarations as an inline style attribute value.
func (s Style) CSS() string {
	var b strings.Builder
	for i, d := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)
		b.WriteByte(';')
	}
	return b.String()
}

// Logo is the optional image block of a card.
type Logo struct {
	Src   string
	Style Style
}

// LinkItem is one rendered contact line.
type LinkItem struct {
	Kind  string // email, instagram, facebook, website
	Icon  string
	Href  string
	Label string // raw value as typed by the user
}

// Tree is the in-memory visual structure of a card.
type Tree struct {
	Orientation model.Orientation
	Direction   Direction
	Container   Style
	Logo        *Logo
	Title       string
	Description string
	Links       []LinkItem
}

// Card dimensions per orientation.
const (
	horizontalMaxWidth  = 500
	horizontalMinHeight = 200
	verticalMaxWidth    = 300
	verticalMinHeight   = 400

	borderWidth  = 3
	shadowRadius = 15
)

// LayoutDirection maps orientation and logo position to a flex direction.
// Horizontal cards put the logo first only when it is positioned left;
// vertical cards always stack.
func LayoutDirection(o model.Orientation, p model.LogoPosition) Direction {
	if o == model.OrientationVertical {
		return DirectionColumn
	}
	if p == model.LogoLeft {
		return DirectionRow
	}
	return DirectionRowReverse
}

// BorderDeclarations returns the border and box-shadow declarations for a
// style. A shadow border draws no line; every other style draws a line and
// no shadow.
func BorderDeclarations(s model.StyleConfig) Style {
	if s.BorderStyle == model.BorderShadow {
		return Style{
			{"border", "none"},
			{"box-shadow", fmt.Sprintf("0 0 %dpx %s", shadowRadius, s.ShadowColor)},
		}
	}
	return Style{
		{"border", fmt.Sprintf("%dpx %s %s", borderWidth, s.BorderStyle, s.BorderColor)},
		{"box-shadow", "none"},
	}
}

// ComputePreview builds the Tree for a profile and a style. The style is
// normalized first, so values read back from storage are safe to render.
func ComputePreview(profile model.ProfileRecord, style model.StyleConfig) Tree {
	s := style.Normalize()

	maxWidth, minHeight := horizontalMaxWidth, horizontalMinHeight
	if s.Orientation == model.OrientationVertical {
		maxWidth, minHeight = verticalMaxWidth, verticalMinHeight
	}

	dir := LayoutDirection(s.Orientation, s.LogoPosition)

	container := Style{
		{"display", "flex"},
		{"flex-direction", string(dir)},
		{"align-items", "center"},
		{"justify-content", "center"},
		{"flex-wrap", "wrap"},
		{"background-color", s.CardColor},
	}
	// the image sits beneath the content; the color fills transparent areas
	if s.BackgroundImage != "" {
		container = append(container,
			Declaration{"background-image", `url("` + s.BackgroundImage + `")`},
			Declaration{"background-repeat", string(s.BackgroundRepeat)},
			Declaration{"background-size", string(s.BackgroundFit)},
			Declaration{"background-position", "center"},
		)
	}
	container = append(container, BorderDeclarations(s)...)
	container = append(container,
		Declaration{"color", s.FontColor},
		Declaration{"font-size", fmt.Sprintf("%dpx", s.FontSize)},
		Declaration{"width", "100%"},
		Declaration{"max-width", fmt.Sprintf("%dpx", maxWidth)},
		Declaration{"min-height", fmt.Sprintf("%dpx", minHeight)},
		Declaration{"border-radius", "10px"},
		Declaration{"padding", "1rem"},
		Declaration{"gap", "1rem"},
		Declaration{"margin", "2rem auto"},
		Declaration{"box-sizing", "border-box"},
	)

	tree := Tree{
		Orientation: s.Orientation,
		Direction:   dir,
		Container:   container,
		Title:       profile.BusinessName,
		Description: profile.Description,
		Links:       linkItems(profile),
	}

	if s.Logo != "" {
		tree.Logo = &Logo{
			Src: s.Logo,
			Style: Style{
				{"height", fmt.Sprintf("%dpx", s.LogoSize)},
				{"object-fit", "contain"},
			},
		}
	}

	return tree
}

func linkItems(p model.ProfileRecord) []LinkItem {
	links := DeriveLinks(p)

	candidates := []LinkItem{
		{Kind: model.FieldEmail, Icon: "✉️", Href: links.Email, Label: p.Email},
		{Kind: model.FieldInstagram, Icon: "📸", Href: links.Instagram, Label: p.Instagram},
		{Kind: model.FieldFacebook, Icon: "📘", Href: links.Facebook, Label: p.Facebook},
		{Kind: model.FieldWebsite, Icon: "🌐", Href: links.Website, Label: p.Website},
	}

	items := make([]LinkItem, 0, len(candidates))
	for _, c := range candidates {
		if c.Href != "" {
			items = append(items, c)
		}
	}
	return items
}
