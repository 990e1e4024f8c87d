package utils

import (
	"fmt"
	"math/rand"
	"os"
)

// GetEnv reads an environment variable, falling back to a default when the
// variable is unset or empty.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// CreateFolder ensures a directory (and its parents) exists.
func CreateFolder(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}

// GenerateUniqueID returns a random identifier suitable for naming
// generated artifacts.
func GenerateUniqueID() uint32 {
	return rand.Uint32()
}
