package clipfeed

import "embed"

// WebFS contains the single-page feed client served at "/".
//
//go:embed web
var WebFS embed.FS
