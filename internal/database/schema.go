package database

import _ "embed"

// Schema is the SQLite schema produced by the migrations, for tests that
// need a ready table without running them.
//
//go:embed schema.sql
var Schema string
