package migrations

import "embed"

// JournalFS holds the match and command journal schema.
//
//go:embed journal/*.sql
var JournalFS embed.FS
