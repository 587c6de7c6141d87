package model

import (
	"encoding/base64"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/sakif/business-cards/internal/apperror"
)

// Orientation of the card.
type Orientation string

const (
	OrientationHorizontal Orientation = "horizontal"
	OrientationVertical   Orientation = "vertical"
)

// BorderStyle of the card. BorderShadow is special: it replaces the border
// line with a soft shadow instead of drawing one.
type BorderStyle string

const (
	BorderSolid  BorderStyle = "solid"
	BorderDashed BorderStyle = "dashed"
	BorderDouble BorderStyle = "double"
	BorderDotted BorderStyle = "dotted"
	BorderShadow BorderStyle = "shadow"
)

// LogoPosition of the logo relative to the text block.
type LogoPosition string

const (
	LogoTop    LogoPosition = "top"
	LogoLeft   LogoPosition = "left"
	LogoRight  LogoPosition = "right"
	LogoBottom LogoPosition = "bottom"
)

type BackgroundRepeat string

const (
	BackgroundRepeatOn  BackgroundRepeat = "repeat"
	BackgroundRepeatOff BackgroundRepeat = "no-repeat"
)

type BackgroundFit string

const (
	BackgroundCover   BackgroundFit = "cover"
	BackgroundContain BackgroundFit = "contain"
)

// Style field keys, shared by the configurator form, the JSON API and the
// persisted document.
const (
	StyleOrientation      = "orientation"
	StyleCardColor        = "cardColor"
	StyleBorderColor      = "borderColor"
	StyleBorderStyle      = "borderStyle"
	StyleShadowColor      = "shadowColor"
	StyleFontColor        = "fontColor"
	StyleFontSize         = "fontSize"
	StyleLogo             = "logo"
	StyleLogoSize         = "logoSize"
	StyleLogoPosition     = "logoPosition"
	StyleBackgroundImage  = "bgImage"
	StyleBackgroundRepeat = "bgImgRepeat"
	StyleBackgroundFit    = "bgImgCover"
)

// StyleFields lists every style key in the order updates are applied.
var StyleFields = []string{
	StyleOrientation,
	StyleCardColor,
	StyleBorderColor,
	StyleBorderStyle,
	StyleShadowColor,
	StyleFontColor,
	StyleFontSize,
	StyleLogo,
	StyleLogoSize,
	StyleLogoPosition,
	StyleBackgroundImage,
	StyleBackgroundRepeat,
	StyleBackgroundFit,
}

// Slider bounds. The configurator's range inputs use the same numbers.
const (
	MinFontSize = 12
	MaxFontSize = 25
	MinLogoSize = 60
	MaxLogoSize = 350

	// MaxImageBytes caps a decoded logo or background image.
	MaxImageBytes = 2 << 20
)

// StyleConfig holds every visual parameter of a card. No field is required:
// DefaultStyle supplies a value for each one.
type StyleConfig struct {
	Orientation      Orientation      `json:"orientation"`
	CardColor        string           `json:"cardColor"`
	BorderColor      string           `json:"borderColor"`
	BorderStyle      BorderStyle      `json:"borderStyle"`
	ShadowColor      string           `json:"shadowColor"`
	FontColor        string           `json:"fontColor"`
	FontSize         int              `json:"fontSize"`
	Logo             string           `json:"logo,omitempty"`
	LogoSize         int              `json:"logoSize"`
	LogoPosition     LogoPosition     `json:"logoPosition"`
	BackgroundImage  string           `json:"bgImage,omitempty"`
	BackgroundRepeat BackgroundRepeat `json:"bgImgRepeat"`
	BackgroundFit    BackgroundFit    `json:"bgImgCover"`
}

// DefaultStyle returns the style a fresh configurator starts from.
func DefaultStyle() StyleConfig {
	return StyleConfig{
		Orientation:      OrientationHorizontal,
		CardColor:        "#ffffff",
		BorderColor:      "#000000",
		BorderStyle:      BorderSolid,
		ShadowColor:      "rgba(0,0,0,0.3)",
		FontColor:        "#000000",
		FontSize:         16,
		LogoSize:         60,
		LogoPosition:     LogoTop,
		BackgroundRepeat: BackgroundRepeatOn,
		BackgroundFit:    BackgroundCover,
	}
}

// Update sets a single style field from its string form.
//
// Numeric fields are clamped to their slider bounds rather than rejected.
// Anything else that is not an allowed value returns a validation error and
// leaves the style unchanged.
func (s *StyleConfig) Update(field, value string) error {
	value = strings.TrimSpace(value)

	switch field {
	case StyleOrientation:
		o := Orientation(value)
		if !o.valid() {
			return invalidChoice(field, value)
		}
		s.Orientation = o
	case StyleBorderStyle:
		b := BorderStyle(value)
		if !b.valid() {
			return invalidChoice(field, value)
		}
		s.BorderStyle = b
	case StyleLogoPosition:
		p := LogoPosition(value)
		if !p.valid() {
			return invalidChoice(field, value)
		}
		s.LogoPosition = p
	case StyleBackgroundRepeat:
		r := BackgroundRepeat(value)
		if !r.valid() {
			return invalidChoice(field, value)
		}
		s.BackgroundRepeat = r
	case StyleBackgroundFit:
		f := BackgroundFit(value)
		if !f.valid() {
			return invalidChoice(field, value)
		}
		s.BackgroundFit = f

	case StyleCardColor, StyleBorderColor, StyleShadowColor, StyleFontColor:
		if !ValidColor(value) {
			return apperror.ValidationFailed(field, fmt.Sprintf("%s must be a hex or rgb() color", field))
		}
		*s.colorField(field) = value

	case StyleFontSize, StyleLogoSize:
		n, err := parseSize(value)
		if err != nil {
			return apperror.ValidationFailed(field, fmt.Sprintf("%s must be a number", field))
		}
		if field == StyleFontSize {
			s.FontSize = clamp(n, MinFontSize, MaxFontSize)
		} else {
			s.LogoSize = clamp(n, MinLogoSize, MaxLogoSize)
		}

	case StyleLogo, StyleBackgroundImage:
		if value != "" {
			if err := ValidateImageDataURL(value); err != nil {
				return apperror.ValidationFailed(field, fmt.Sprintf("%s: %s", field, err.Error()))
			}
		}
		if field == StyleLogo {
			s.Logo = value
		} else {
			s.BackgroundImage = value
		}

	default:
		return apperror.ValidationFailed(field, fmt.Sprintf("unknown style field %q", field))
	}

	return nil
}

// UpdateFields applies every known key present in fields, in StyleFields
// order. Valid fields are applied even when another one fails; the first
// failure is returned.
func (s *StyleConfig) UpdateFields(fields map[string]string) error {
	var first error
	for _, key := range StyleFields {
		value, ok := fields[key]
		if !ok {
			continue
		}
		if err := s.Update(key, value); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Normalize returns a copy where every invalid value is replaced by its
// default and numeric values are clamped. Documents read back from storage
// go through this before rendering.
func (s StyleConfig) Normalize() StyleConfig {
	d := DefaultStyle()
	out := s

	if !out.Orientation.valid() {
		out.Orientation = d.Orientation
	}
	if !out.BorderStyle.valid() {
		out.BorderStyle = d.BorderStyle
	}
	if !out.LogoPosition.valid() {
		out.LogoPosition = d.LogoPosition
	}
	if !out.BackgroundRepeat.valid() {
		out.BackgroundRepeat = d.BackgroundRepeat
	}
	if !out.BackgroundFit.valid() {
		out.BackgroundFit = d.BackgroundFit
	}
	for _, field := range []string{StyleCardColor, StyleBorderColor, StyleShadowColor, StyleFontColor} {
		if c := out.colorField(field); !ValidColor(*c) {
			*c = *d.colorField(field)
		}
	}
	// a zero size means the field was never set
	if out.FontSize == 0 {
		out.FontSize = d.FontSize
	}
	if out.LogoSize == 0 {
		out.LogoSize = d.LogoSize
	}
	out.FontSize = clamp(out.FontSize, MinFontSize, MaxFontSize)
	out.LogoSize = clamp(out.LogoSize, MinLogoSize, MaxLogoSize)
	if out.Logo != "" && ValidateImageDataURL(out.Logo) != nil {
		out.Logo = ""
	}
	if out.BackgroundImage != "" && ValidateImageDataURL(out.BackgroundImage) != nil {
		out.BackgroundImage = ""
	}

	return out
}

func (s *StyleConfig) colorField(field string) *string {
	switch field {
	case StyleCardColor:
		return &s.CardColor
	case StyleBorderColor:
		return &s.BorderColor
	case StyleShadowColor:
		return &s.ShadowColor
	default:
		return &s.FontColor
	}
}

func (o Orientation) valid() bool {
	return o == OrientationHorizontal || o == OrientationVertical
}

func (b BorderStyle) valid() bool {
	switch b {
	case BorderSolid, BorderDashed, BorderDouble, BorderDotted, BorderShadow:
		return true
	}
	return false
}

func (p LogoPosition) valid() bool {
	switch p {
	case LogoTop, LogoLeft, LogoRight, LogoBottom:
		return true
	}
	return false
}

func (r BackgroundRepeat) valid() bool {
	return r == BackgroundRepeatOn || r == BackgroundRepeatOff
}

func (f BackgroundFit) valid() bool {
	return f == BackgroundCover || f == BackgroundContain
}

var (
	hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	rgbColor = regexp.MustCompile(`^rgba?\(\s*\d{1,3}%?\s*,\s*\d{1,3}%?\s*,\s*\d{1,3}%?\s*(?:,\s*(?:0|1|0?\.\d+|\d{1,3}%)\s*)?\)$`)
)

// ValidColor reports whether c is a #hex or rgb()/rgba() color. Nothing else
// is ever written into a style attribute.
func ValidColor(c string) bool {
	return hexColor.MatchString(c) || rgbColor.MatchString(c)
}

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateImageDataURL checks a base64 image data URL: the declared media
// type must be an allowed raster format, the payload must decode, stay under
// MaxImageBytes and sniff as the declared type.
func ValidateImageDataURL(u string) error {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return fmt.Errorf("image must be a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return fmt.Errorf("malformed data URL")
	}
	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return fmt.Errorf("image data URL must be base64 encoded")
	}
	if !imageTypes[mediaType] {
		return fmt.Errorf("unsupported image type %q", mediaType)
	}
	// the decoder skips CR and LF, but the URL ends up verbatim in CSS
	if strings.ContainsAny(payload, " \t\r\n") {
		return fmt.Errorf("image payload must not contain whitespace")
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return fmt.Errorf("image is larger than %d bytes", MaxImageBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("image payload is not valid base64")
	}
	if len(data) > MaxImageBytes {
		return fmt.Errorf("image is larger than %d bytes", MaxImageBytes)
	}
	if sniffed := http.DetectContentType(data); sniffed != mediaType {
		return fmt.Errorf("image content is %s, not %s", sniffed, mediaType)
	}
	return nil
}

func invalidChoice(field, value string) error {
	return apperror.ValidationFailed(field, fmt.Sprintf("%q is not a valid %s", value, field))
}

// parseSize accepts integers and, since range inputs sometimes send them,
// decimal numbers, which are rounded.
func parseSize(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, nil
	}
	if f < math.MinInt32 {
		return math.MinInt32, nil
	}
	return int(math.Round(f)), nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
