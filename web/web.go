// Package web embeds the attendee, moderator and display pages.
package web

import "embed"

// Pages holds ask.html, mod.html and spotlight.html.
//
//go:embed pages/*.html
var Pages embed.FS

// Static holds the shared script and stylesheet served under /static.
//
//go:embed static
var Static embed.FS
