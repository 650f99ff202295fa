package journal

import "database/sql"

// DB exposes the internal *sql.DB for test helpers in journal_test.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetOpenDB swaps the driver opener and returns a restore func.
func SetOpenDB(fn func(driver, dsn string) (*sql.DB, error)) func() {
	prev := openDB
	openDB = fn
	return func() { openDB = prev }
}
