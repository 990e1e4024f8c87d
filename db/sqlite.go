package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"clip-triage/models"
	"clip-triage/utils"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteClient{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createAnalysesTable := `
    CREATE TABLE IF NOT EXISTS analyses (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        source TEXT,
        label TEXT NOT NULL,
        scores TEXT NOT NULL,
        explanation TEXT,
        frame_samples INTEGER NOT NULL DEFAULT 0,
        duration_seconds REAL NOT NULL DEFAULT 0,
        latency_ms REAL NOT NULL DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(timestamp);
    CREATE INDEX IF NOT EXISTS idx_analyses_label ON analyses(label);
    `

	if _, err := db.Exec(createAnalysesTable); err != nil {
		return fmt.Errorf("error creating analyses table: %s", err)
	}

	return nil
}

func (c *SQLiteClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// SaveAnalysis inserts one classification run.
func (c *SQLiteClient) SaveAnalysis(analysis *models.Analysis) error {
	result, err := c.db.Exec(`
        INSERT INTO analyses (timestamp, source, label, scores, explanation, frame_samples, duration_seconds, latency_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		analysis.Timestamp,
		analysis.Source,
		analysis.Label,
		string(analysis.Scores),
		analysis.Explanation,
		analysis.FrameSamples,
		analysis.DurationSeconds,
		analysis.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("error inserting analysis: %s", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		analysis.ID = id
	}
	return nil
}

// RecentAnalyses returns the newest runs first.
func (c *SQLiteClient) RecentAnalyses(limit int) ([]models.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := c.db.Query(`
        SELECT id, timestamp, source, label, scores, explanation, frame_samples, duration_seconds, latency_ms
        FROM analyses ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying analyses: %s", err)
	}
	defer rows.Close()

	var records []models.Analysis
	for rows.Next() {
		var record models.Analysis
		var source sql.NullString
		var scores string
		var explanation sql.NullString
		if err := rows.Scan(
			&record.ID,
			&record.Timestamp,
			&source,
			&record.Label,
			&scores,
			&explanation,
			&record.FrameSamples,
			&record.DurationSeconds,
			&record.LatencyMs,
		); err != nil {
			return nil, fmt.Errorf("error scanning analysis row: %s", err)
		}
		record.Source = source.String
		record.Scores = []byte(scores)
		record.Explanation = explanation.String
		records = append(records, record)
	}

	return records, rows.Err()
}

// LabelCounts reports how many stored runs ended in each label.
func (c *SQLiteClient) LabelCounts() (map[string]int, error) {
	rows, err := c.db.Query(`SELECT label, COUNT(*) FROM analyses GROUP BY label`)
	if err != nil {
		return nil, fmt.Errorf("error counting labels: %s", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("error scanning label count: %s", err)
		}
		counts[label] = count
	}

	return counts, rows.Err()
}
