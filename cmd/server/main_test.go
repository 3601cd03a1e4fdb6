package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDBDir(t *testing.T) {
	cases := map[string]string{
		":memory:":          "",
		"tracker.db":        "",
		"./tracker.db":      "",
		"/tracker.db":       "",
		"data/tracker.db":   "data",
		"./data/tracker.db": "data",
		"data//tracker.db":  "data",
	}
	for in, want := range cases {
		if got := dbDir(in); got != want {
			t.Errorf("dbDir(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenDBCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracker.db")

	conn, err := openDB(path)
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	defer conn.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
}
