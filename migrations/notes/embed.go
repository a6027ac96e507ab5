// Package notes содержит SQL миграции таблицы заметок.
package notes

import "embed"

// FS миграции в формате golang-migrate.
//
//go:embed *.sql
var FS embed.FS
