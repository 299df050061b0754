package backend

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrCacheMiss reports a lookup that found no row.
var ErrCacheMiss = errors.New("backend: cache miss")

// sqlCache is the long-term tier of an endpoint's result cache: a SQLite
// database that survives process restarts, so a backend is never asked
// the same question twice across runs.
type sqlCache struct {
	db *sql.DB
}

// openSQLCache opens (creating if needed) the cache database for one
// endpoint under dir. The file is named after the endpoint so several
// endpoints never share state.
func openSQLCache(dir, endpointName string) (*sqlCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_cache.sqlite", strings.ToLower(endpointName)))
	// modernc.org/sqlite takes pragmas as _pragma=name(value) pairs; the
	// mattn-style _journal_mode form is silently ignored by this driver.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache db: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS cache(
	src_lang   TEXT NOT NULL,
	tgt_lang   TEXT NOT NULL,
	source     TEXT NOT NULL,
	translated TEXT NOT NULL,
	created_at INTEGER DEFAULT (strftime('%s', 'now')),
	PRIMARY KEY(src_lang, tgt_lang, source)
)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}
	return &sqlCache{db: db}, nil
}

func (c *sqlCache) get(srcLang, tgtLang, text string) (string, error) {
	var translated string
	err := c.db.QueryRow(
		`SELECT translated FROM cache WHERE src_lang=? AND tgt_lang=? AND source=?`,
		srcLang, tgtLang, text,
	).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache lookup: %w", err)
	}
	return translated, nil
}

func (c *sqlCache) set(srcLang, tgtLang, text, translated string) error {
	_, err := c.db.Exec(
		`INSERT INTO cache(src_lang, tgt_lang, source, translated) VALUES(?, ?, ?, ?)
		 ON CONFLICT(src_lang, tgt_lang, source) DO UPDATE SET translated=excluded.translated`,
		srcLang, tgtLang, text, translated,
	)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

func (c *sqlCache) count() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

func (c *sqlCache) clear() error {
	if _, err := c.db.Exec(`DELETE FROM cache`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

func (c *sqlCache) close() error {
	return c.db.Close()
}
