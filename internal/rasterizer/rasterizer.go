// Package rasterizer turns a rendered card document into a PNG.
//
// Two backends exist: rasterizer/rod drives a headless Chrome and captures
// the card element, rasterizer/docker runs wkhtmltoimage inside a pool of
// sandboxed containers. Callers only see the Rasterizer interface and treat
// every failure the same way: nothing is exported.
package rasterizer

import (
	"bytes"
	"context"
	"errors"
)

// DefaultWidth is the viewport width, in CSS pixels, used when a Request
// leaves Width at zero.
const DefaultWidth = 600

// Request describes one export.
type Request struct {
	// Document is a complete HTML page.
	Document string
	// Selector addresses the element to capture. Backends that cannot crop
	// to an element capture the whole page.
	Selector string
	// Width of the viewport in CSS pixels.
	Width int
}

// Rasterizer converts an HTML document into PNG bytes.
type Rasterizer interface {
	Rasterize(ctx context.Context, req Request) ([]byte, error)
}

// ErrUnavailable is returned by Disabled.
var ErrUnavailable = errors.New("rasterizer: no rasterizer configured")

// Disabled is the Rasterizer used when exports are turned off.
type Disabled struct{}

func (Disabled) Rasterize(context.Context, Request) ([]byte, error) {
	return nil, ErrUnavailable
}

// pngMagic is the 8-byte PNG file signature.
var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// IsPNG reports whether b starts with the PNG signature. Backends use it to
// reject garbage from a misbehaving renderer.
func IsPNG(b []byte) bool {
	return bytes.HasPrefix(b, pngMagic)
}

// WidthOrDefault returns req.Width, or DefaultWidth when it is not positive.
func (r Request) WidthOrDefault() int {
	if r.Width > 0 {
		return r.Width
	}
	return DefaultWidth
}
