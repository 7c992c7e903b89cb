package fsstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveText(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	loc, err := s.SaveText(context.Background(), "proj-1/script.txt", "FADE IN.")
	if err != nil {
		t.Fatalf("SaveText: %v", err)
	}

	data, err := os.ReadFile(loc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "FADE IN." {
		t.Errorf("unexpected content %q", data)
	}
}

func TestSaveJSON(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	loc, err := s.SaveJSON(context.Background(), "proj-1/manifest.json", map[string]int{"shots": 4})
	if err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	if filepath.Dir(loc) != filepath.Join(dir, "proj-1") {
		t.Errorf("unexpected location %s", loc)
	}

	raw, err := os.ReadFile(loc)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]int
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got["shots"] != 4 {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.SaveText(context.Background(), "../../etc/passwd", "x"); err == nil {
		t.Fatal("expected escape rejection")
	}
}
