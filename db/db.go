package db

import (
	"fmt"
	"path/filepath"
	"strings"

	"clip-triage/models"
	"clip-triage/utils"
)

// AnalysisDB persists classification runs. Two backends exist: a local
// SQLite file (default) and MongoDB for shared deployments.
type AnalysisDB interface {
	SaveAnalysis(analysis *models.Analysis) error
	RecentAnalyses(limit int) ([]models.Analysis, error)
	LabelCounts() (map[string]int, error)
	Close() error
}

// NewDBClient selects the backend from the DB_TYPE environment variable.
func NewDBClient() (AnalysisDB, error) {
	dbType := strings.ToLower(utils.GetEnv("DB_TYPE", "sqlite"))
	switch dbType {
	case "sqlite", "sqlite3":
		return NewSQLiteClient(utils.GetEnv("DB_PATH", filepath.Join("db", "triage.db")))
	case "mongo", "mongodb":
		return NewMongoClient(
			utils.GetEnv("DB_URI", "mongodb://localhost:27017"),
			utils.GetEnv("DB_NAME", "clip_triage"),
		)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE: %s", dbType)
	}
}
