// Package migrations bundles the SQL schema files applied by `vidtube migrate`.
package migrations

import "embed"

// FS holds every *.sql migration in lexical apply order.
//
//go:embed *.sql
var FS embed.FS
