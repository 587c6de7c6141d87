// Package sharecode renders share URLs as scannable QR codes.
package sharecode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length, in pixels, of a share code.
const DefaultSize = 180

// PNG encodes text as a square QR code of the given size. Medium error
// recovery tolerates a smudged or partly covered print.
func PNG(text string, size int) ([]byte, error) {
	if text == "" {
		return nil, errors.New("sharecode: empty text")
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("sharecode: encoding %q: %w", text, err)
	}
	return png, nil
}

// DataURI returns the code as a data URL for an <img src>. The value is
// generated here, never user supplied, so it is marked safe for templates.
func DataURI(text string, size int) (template.URL, error) {
	png, err := PNG(text, size)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
