// Package web embeds the HTML templates and static assets.
package web

import "embed"

//go:embed templates static
var Assets embed.FS
