package video

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte{}, 0644); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

func TestListVideoFilesGroupsByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.mov"))
	touch(t, filepath.Join(dir, "z.mp4"))
	touch(t, filepath.Join(dir, "a.mp4"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "UPPER.MP4"))
	if err := os.Mkdir(filepath.Join(dir, "clip.mp4.d"), 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	files := ListVideoFiles([]string{dir})

	want := []string{
		filepath.Join(dir, "UPPER.MP4"),
		filepath.Join(dir, "a.mp4"),
		filepath.Join(dir, "z.mp4"),
		filepath.Join(dir, "b.mov"),
	}
	if len(files) != len(want) {
		t.Fatalf("got %d files, want %d: %v", len(files), len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("file %d: got %s, want %s", i, files[i], want[i])
		}
	}
}

func TestListVideoFilesMissingDirectory(t *testing.T) {
	t.Parallel()

	files := ListVideoFiles([]string{filepath.Join(t.TempDir(), "absent")})
	if len(files) != 0 {
		t.Errorf("missing directory should yield no files, got %v", files)
	}
}

func TestFindVideoFileExplicitCandidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clip := filepath.Join(dir, "demo.mp4")
	touch(t, clip)

	found, err := FindVideoFile(clip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != clip {
		t.Errorf("got %s, want %s", found, clip)
	}

	if _, err := FindVideoFile(filepath.Join(dir, "missing.mp4")); err == nil {
		t.Fatal("explicit missing candidate should fail, not fall back")
	}
}
