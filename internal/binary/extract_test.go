package binary

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

type archiveEntry struct {
	name string
	body string
	mode int64
	dir  bool
}

// buildTarGz writes a tar.gz archive with the given entries to dir and
// returns its path.
func buildTarGz(t *testing.T, dir string, entries []archiveEntry) string {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		if e.dir {
			if err := tw.WriteHeader(&tar.Header{
				Name:     e.name,
				Typeflag: tar.TypeDir,
				Mode:     0755,
			}); err != nil {
				t.Fatalf("write dir header: %v", err)
			}
			continue
		}
		mode := e.mode
		if mode == 0 {
			mode = 0644
		}
		if err := tw.WriteHeader(&tar.Header{
			Name:     e.name,
			Typeflag: tar.TypeReg,
			Mode:     mode,
			Size:     int64(len(e.body)),
		}); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(e.body)); err != nil {
			t.Fatalf("write body: %v", err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "archive.tar.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// buildZip writes a zip archive with the given entries to dir and
// returns its path.
func buildZip(t *testing.T, dir string, entries []archiveEntry) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		if e.dir {
			if _, err := zw.Create(e.name + "/"); err != nil {
				t.Fatalf("create dir entry: %v", err)
			}
			continue
		}
		header := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		header.SetMode(os.FileMode(e.mode))
		if e.mode == 0 {
			header.SetMode(0644)
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("create entry: %v", err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "archive.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readExtracted(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestExtractTarGz(t *testing.T) {
	archive := buildTarGz(t, t.TempDir(), []archiveEntry{
		{name: "tool", body: "binary-content", mode: 0755},
		{name: "docs", dir: true},
		{name: "docs/readme.txt", body: "docs"},
	})
	dest := t.TempDir()

	if err := ExtractArchive(archive, dest, 0); err != nil {
		t.Fatalf("ExtractArchive: %v", err)
	}

	if got := readExtracted(t, filepath.Join(dest, "tool")); got != "binary-content" {
		t.Errorf("tool content = %q", got)
	}
	if got := readExtracted(t, filepath.Join(dest, "docs", "readme.txt")); got != "docs" {
		t.Errorf("readme content = %q", got)
	}

	info, err := os.Stat(filepath.Join(dest, "tool"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0111 == 0 {
		t.Error("archive mode was not preserved")
	}
}

func TestExtractTarGzStrip(t *testing.T) {
	archive := buildTarGz(t, t.TempDir(), []archiveEntry{
		{name: "tool-1.2/", dir: true},
		{name: "tool-1.2/tool", body: "binary-content", mode: 0755},
		{name: "tool-1.2/src/main.c", body: "int main;"},
	})
	dest := t.TempDir()

	if err := ExtractArchive(archive, dest, 1); err != nil {
		t.Fatalf("ExtractArchive: %v", err)
	}

	if got := readExtracted(t, filepath.Join(dest, "tool")); got != "binary-content" {
		t.Errorf("tool content = %q", got)
	}
	if got := readExtracted(t, filepath.Join(dest, "src", "main.c")); got != "int main;" {
		t.Errorf("main.c content = %q", got)
	}

	// The stripped top-level directory must not exist under dest.
	if _, err := os.Stat(filepath.Join(dest, "tool-1.2")); !os.IsNotExist(err) {
		t.Error("stripped directory was created anyway")
	}
}

func TestExtractZip(t *testing.T) {
	archive := buildZip(t, t.TempDir(), []archiveEntry{
		{name: "pkg", dir: true},
		{name: "pkg/tool", body: "zipped-binary", mode: 0755},
	})
	dest := t.TempDir()

	if err := ExtractArchive(archive, dest, 1); err != nil {
		t.Fatalf("ExtractArchive: %v", err)
	}
	if got := readExtracted(t, filepath.Join(dest, "tool")); got != "zipped-binary" {
		t.Errorf("tool content = %q", got)
	}
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	archive := buildTarGz(t, t.TempDir(), []archiveEntry{
		{name: "../escape", body: "bad"},
	})

	if err := ExtractArchive(archive, t.TempDir(), 0); err == nil {
		t.Fatal("expected path traversal to be rejected")
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.rar")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ExtractArchive(path, t.TempDir(), 0); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestStripComponents(t *testing.T) {
	tests := []struct {
		name   string
		entry  string
		strip  int
		want   string
		wantOK bool
	}{
		{"no strip", "a/b/c", 0, "a/b/c", true},
		{"strip one", "a/b/c", 1, "b/c", true},
		{"strip two", "a/b/c", 2, "c", true},
		{"strip all components", "a/b", 2, "", false},
		{"strip beyond depth", "a", 3, "", false},
		{"top-level dir dropped", "a/", 1, "", false},
		{"leading slash", "/a/b", 1, "b", true},
		{"empty name", "", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := stripComponents(tt.entry, tt.strip)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("stripComponents(%q, %d) = (%q, %v), want (%q, %v)",
					tt.entry, tt.strip, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
