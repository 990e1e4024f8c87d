package analyses

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"clip-triage/models"
	"clip-triage/utils"
)

var (
	analysesFile = "analyses.json"
	mu           sync.RWMutex
)

// loadAnalysesInternal loads all stored runs from the JSON file (without lock)
func loadAnalysesInternal() ([]models.Analysis, error) {
	if _, err := os.Stat(analysesFile); os.IsNotExist(err) {
		return []models.Analysis{}, nil
	}

	data, err := os.ReadFile(analysesFile)
	if err != nil {
		return nil, fmt.Errorf("error reading analyses file: %v", err)
	}

	if len(data) == 0 {
		return []models.Analysis{}, nil
	}

	var records []models.Analysis
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("error unmarshaling analyses: %v", err)
	}

	return records, nil
}

// LoadAnalyses loads all stored classification runs from the JSON file
func LoadAnalyses() ([]models.Analysis, error) {
	mu.RLock()
	defer mu.RUnlock()
	return loadAnalysesInternal()
}

// SaveAnalysis appends a new classification run to the JSON file
func SaveAnalysis(analysis *models.Analysis) error {
	mu.Lock()
	defer mu.Unlock()

	records, err := loadAnalysesInternal()
	if err != nil {
		return err
	}

	if analysis.ID == 0 {
		analysis.ID = time.Now().UnixNano()
	}
	if analysis.Timestamp.IsZero() {
		analysis.Timestamp = time.Now()
	}

	records = append(records, *analysis)

	dir := filepath.Dir(analysesFile)
	if dir != "." && dir != "" {
		if err := utils.CreateFolder(dir); err != nil {
			return fmt.Errorf("error creating directory: %v", err)
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling analyses: %v", err)
	}

	if err := os.WriteFile(analysesFile, data, 0644); err != nil {
		return fmt.Errorf("error writing analyses file: %v", err)
	}

	return nil
}

// GetAllAnalyses returns all stored classification runs
func GetAllAnalyses() ([]models.Analysis, error) {
	return LoadAnalyses()
}
