package store

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func TestSaveSingleImage(t *testing.T) {
	g, err := NewGallery(t.TempDir())
	if err != nil {
		t.Fatalf("NewGallery() = %v", err)
	}

	name, err := g.SaveOne("mug", "studio", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("SaveOne() = %v", err)
	}

	pattern := regexp.MustCompile(`^mockup_mug_studio_\d{8}-\d{6}\.png$`)
	if !pattern.MatchString(name) {
		t.Errorf("filename %q does not match expected pattern", name)
	}

	data, err := g.Read(name)
	if err != nil {
		t.Fatalf("Read() = %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("read back %q, want png-bytes", data)
	}
}

func TestSaveMultipleImagesIndexed(t *testing.T) {
	g, err := NewGallery(t.TempDir())
	if err != nil {
		t.Fatalf("NewGallery() = %v", err)
	}

	names, err := g.Save("tshirt", "flatlay", [][]byte{[]byte("a"), []byte("b")})
	if err != nil {
		t.Fatalf("Save() = %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("Save() returned %d names, want 2", len(names))
	}

	pattern := regexp.MustCompile(`^mockup_tshirt_flatlay_\d{8}-\d{6}_(\d)\.png$`)
	for i, name := range names {
		m := pattern.FindStringSubmatch(name)
		if m == nil {
			t.Errorf("filename %q does not match indexed pattern", name)
			continue
		}
		if m[1] != string(rune('0'+i)) {
			t.Errorf("filename %q has index %s, want %d", name, m[1], i)
		}
	}
}

func TestSaveEmptyBatch(t *testing.T) {
	g, err := NewGallery(t.TempDir())
	if err != nil {
		t.Fatalf("NewGallery() = %v", err)
	}

	names, err := g.Save("mug", "studio", nil)
	if err != nil {
		t.Fatalf("Save(nil) = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Save(nil) returned %d names, want 0", len(names))
	}
}

func TestValidFilename(t *testing.T) {
	valid := []string{
		"mockup_mug_studio_20260829-120000.png",
		"mockup_tshirt_flatlay_20260829-120000_1.png",
	}
	for _, name := range valid {
		if !ValidFilename(name) {
			t.Errorf("ValidFilename(%q) = false, want true", name)
		}
	}

	invalid := []string{
		"",
		"..",
		"../etc/passwd",
		"sub/dir.png",
		"mockup.txt",
		"..\\windows.png",
	}
	for _, name := range invalid {
		if ValidFilename(name) {
			t.Errorf("ValidFilename(%q) = true, want false", name)
		}
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	g, err := NewGallery(t.TempDir())
	if err != nil {
		t.Fatalf("NewGallery() = %v", err)
	}

	if _, err := g.Path("../outside.png"); err == nil {
		t.Error("traversal filename accepted")
	}
	if _, err := g.Path("missing.png"); err == nil {
		t.Error("missing file resolved without error")
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGallery(dir)
	if err != nil {
		t.Fatalf("NewGallery() = %v", err)
	}

	names := []string{"old.png", "mid.png", "new.png"}
	now := time.Now()
	for i, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile(%s) = %v", name, err)
		}
		mod := now.Add(time.Duration(i-3) * time.Hour)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("Chtimes(%s) = %v", name, err)
		}
	}
	// Non-PNG files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile(notes.txt) = %v", err)
	}

	got, err := g.List(0)
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d files, want 3", len(got))
	}
	if got[0] != "new.png" || got[2] != "old.png" {
		t.Errorf("List() order = %v, want newest first", got)
	}

	limited, err := g.List(1)
	if err != nil {
		t.Fatalf("List(1) = %v", err)
	}
	if len(limited) != 1 || limited[0] != "new.png" {
		t.Errorf("List(1) = %v, want [new.png]", limited)
	}
}

func TestPruneRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGallery(dir)
	if err != nil {
		t.Fatalf("NewGallery() = %v", err)
	}

	oldPath := filepath.Join(dir, "old.png")
	if err := os.WriteFile(oldPath, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile(old) = %v", err)
	}
	oldTime := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldPath, oldTime, oldTime); err != nil {
		t.Fatalf("Chtimes() = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "fresh.png"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile(fresh) = %v", err)
	}

	removed, err := g.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune() = %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune() removed %d files, want 1", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("old file still exists after prune")
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh.png")); err != nil {
		t.Errorf("fresh file removed by prune: %v", err)
	}
}
