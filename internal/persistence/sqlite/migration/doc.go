// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files are read from an fs.FS (normally an embedded directory) and must be
// named {version}_{description}.sql, e.g. "001_create_kv_entries.sql". Applied versions
// are tracked in a schema_migrations table together with the file checksum, so a file
// that changes after it was applied is reported instead of silently re-run.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(files, "migrations"), migration.NewExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
