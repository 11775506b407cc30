// Package appfs embeds the non-Go assets the binaries need at runtime.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
