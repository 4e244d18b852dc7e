package web

import "embed"

// Templates holds the layout, partial and page templates rendered by the
// view engine.
//
//go:embed templates/layouts/*.html templates/partials/*.html templates/pages/*.html
var Templates embed.FS

// Static holds the assets served under /static.
//
//go:embed static
var Static embed.FS
