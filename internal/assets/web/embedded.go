// Package webassets provides the embedded landing page for standalone
// binary behavior.
//
// The page is embedded at compile time so the server works regardless of
// the working directory or installation location.
package webassets

import _ "embed"

// IndexPage is the embedded landing page template.
//
//go:embed index.html
var IndexPage []byte
