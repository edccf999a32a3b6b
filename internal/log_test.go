package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPruneLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	files := map[string]time.Duration{
		"serialmon_old.log":    -5 * 24 * time.Hour,
		"serialmon_recent.log": -1 * time.Hour,
		"other_old.log":        -5 * 24 * time.Hour,
	}
	for name, age := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, now.Add(age), now.Add(age)); err != nil {
			t.Fatal(err)
		}
	}

	pruneLogs(dir, 3, now)

	for name, wantExists := range map[string]bool{
		"serialmon_old.log":    false,
		"serialmon_recent.log": true,
		"other_old.log":        true,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		if exists := err == nil; exists != wantExists {
			t.Errorf("%s exists = %v, want %v", name, exists, wantExists)
		}
	}
}
