// Package appfs embeds assets needed at runtime, database migrations
// in particular.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
