package video

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions lists the clip container formats the discovery helpers accept.
var Extensions = []string{".mp4", ".mov", ".avi", ".mkv", ".m4v"}

// ListVideoFiles returns the clips found directly inside the given
// directories, grouped by extension and sorted within each group.
func ListVideoFiles(dirs []string) []string {
	var files []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, ext := range Extensions {
			var matches []string
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
					matches = append(matches, filepath.Join(dir, entry.Name()))
				}
			}
			sort.Strings(matches)
			files = append(files, matches...)
		}
	}
	return files
}

// FindVideoFile resolves the clip to analyze. An explicit candidate must
// exist; otherwise the first clip in videos/ or the working directory wins.
func FindVideoFile(candidate string) (string, error) {
	if candidate != "" {
		if _, err := os.Stat(candidate); err != nil {
			return "", fmt.Errorf("could not find video file at %s: %w", candidate, err)
		}
		return candidate, nil
	}

	files := ListVideoFiles([]string{"videos", "."})
	if len(files) == 0 {
		return "", fmt.Errorf("no video files found; place a clip in the working directory or videos/")
	}
	return files[0], nil
}
