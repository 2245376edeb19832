// Package configs carries the default catalogs so binaries run without a
// config directory on disk.
package configs

import "embed"

//go:embed blocks.json structures/*.json schemas/*.json
var FS embed.FS
