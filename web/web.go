// Package web holds the HTML templates compiled into the binary.
package web

import "embed"

// TemplatesGlob matches every page template inside Templates.
const TemplatesGlob = "templates/*.html"

//go:embed templates/*.html
var Templates embed.FS
