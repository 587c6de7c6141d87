// Package web embeds the HTML templates and static assets into the binary,
// so the server runs from any working directory.
package web

import "embed"

// Templates holds base.html plus one file per page.
//
//go:embed templates/*.html
var Templates embed.FS

// Static is served under /static/.
//
//go:embed static
var Static embed.FS
