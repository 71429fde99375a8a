// Package builtin ships the generic FEBRABAN layouts used when no bank
// schema is configured.
package builtin

import (
	"embed"

	"github.com/cnab-dev/cnab/internal/schema"
)

//go:embed cnab240 cnab400
var FS embed.FS

// Source returns a schema source over the embedded layouts.
func Source() schema.Source {
	return schema.FSSource{FS: FS}
}
