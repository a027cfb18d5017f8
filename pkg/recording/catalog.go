package recording

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// CatalogEntry is one finished session in the recordings catalog.
type CatalogEntry struct {
	UUID       string
	Name       string
	Path       string
	StartedAt  time.Time
	DurationS  float64
	FrameCount int
}

// Catalog is a SQLite index of finished sessions under one recordings root.
// All catalog operations are best-effort from the recorder's point of view:
// failures are logged by the caller and never block the stop path.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if needed) the catalog database at the
// recordings root.
func OpenCatalog(root string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", filepath.Join(root, "catalog.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS recordings (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_s REAL NOT NULL,
		frame_count INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Insert records a finished session.
func (c *Catalog) Insert(entry CatalogEntry) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO recordings (uuid, name, path, started_at, duration_s, frame_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.UUID, entry.Name, entry.Path, entry.StartedAt.Unix(), entry.DurationS, entry.FrameCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert catalog entry: %w", err)
	}
	return nil
}

// List returns all finished sessions, most recent first.
func (c *Catalog) List() ([]CatalogEntry, error) {
	rows, err := c.db.Query(
		`SELECT uuid, name, path, started_at, duration_s, frame_count
		 FROM recordings ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var entry CatalogEntry
		var startedAt int64
		if err := rows.Scan(&entry.UUID, &entry.Name, &entry.Path, &startedAt, &entry.DurationS, &entry.FrameCount); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entry.StartedAt = time.Unix(startedAt, 0)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close closes the catalog database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
