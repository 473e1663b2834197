package fs

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalker(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "physics/newton.txt", "F = ma")
	writeFile(t, root, "physics/notes/faraday.md", "induction")
	writeFile(t, root, "history/rome.md", "empire")
	writeFile(t, root, "slides.pdf", "%PDF")
	writeFile(t, root, ".git/HEAD", "ref")
	writeFile(t, root, ".studyrag/cache.txt", "skip me")

	w := NewWalker([]string{"**/*.txt", "**/*.md"}, []string{"**/.git/**", "**/.studyrag/**", "history/**"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	var got []string
	for _, f := range files {
		rel, _ := filepath.Rel(root, f.Path)
		got = append(got, filepath.ToSlash(rel))
		if f.Size == 0 {
			t.Errorf("expected size for %s", rel)
		}
	}
	sort.Strings(got)

	want := []string{"physics/newton.txt", "physics/notes/faraday.md"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %s, got %s", want[i], got[i])
		}
	}
}

func TestWalkerDefaultIncludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, "b/c.bin", "c")

	files, err := NewWalker(nil, nil).Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 files, got %d", len(files))
	}
}

func TestTextReader(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.txt", "Newton's laws")
	writeFile(t, root, "bad.txt", string([]byte{0xff, 0xfe, 0x00}))

	var r TextReader
	text, err := r.ReadFile(filepath.Join(root, "ok.txt"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if text != "Newton's laws" {
		t.Errorf("unexpected text %q", text)
	}

	if _, err := r.ReadFile(filepath.Join(root, "bad.txt")); err == nil {
		t.Error("expected error for non-UTF-8 file")
	}
	if _, err := r.ReadFile(filepath.Join(root, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
