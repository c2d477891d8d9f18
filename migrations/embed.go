// Package migrations ships the tenancy schema. Files pair up as
// NNN_name.up.sql and NNN_name.down.sql and apply in lexical order.
package migrations

import "embed"

// FS holds every migration script.
//
//go:embed *.sql
var FS embed.FS
