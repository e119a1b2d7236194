package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeGolden(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// #nosec G306 - test file permissions are acceptable
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func readGolden(t *testing.T, dir, name string) string {
	t.Helper()
	// #nosec G304 - test path
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestSnapshot(t *testing.T) {
	golden := t.TempDir()
	snaps := t.TempDir()
	writeGolden(t, golden, "a.txt", "alpha")
	writeGolden(t, golden, "nested/b.bin", "\x00\x01")

	info, err := Snapshot(snaps, golden, []string{"nested/b.bin", "a.txt", "missing.txt", "a.txt"})
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if info.ID == "" {
		t.Error("expected snapshot ID")
	}
	if info.FileCount != 2 {
		t.Fatalf("FileCount = %d, want 2", info.FileCount)
	}
	if info.Files[0].Path != "a.txt" || info.Files[1].Path != "nested/b.bin" {
		t.Errorf("unexpected manifest order: %+v", info.Files)
	}
	if info.Files[0].Size != 5 {
		t.Errorf("size = %d, want 5", info.Files[0].Size)
	}
	if len(info.Files[0].SHA256) != 64 {
		t.Errorf("unexpected hash %q", info.Files[0].SHA256)
	}
	if filepath.Dir(info.Archive) != snaps || !strings.HasSuffix(info.Archive, ".tar.gz") {
		t.Errorf("unexpected archive path %s", info.Archive)
	}

	m, err := ReadManifest(info.Archive)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if m.ID != info.ID || m.FileCount != 2 {
		t.Errorf("manifest on disk = %+v", m)
	}
}

func TestSnapshot_RejectsEscapingPath(t *testing.T) {
	golden := t.TempDir()
	snaps := t.TempDir()

	if _, err := Snapshot(snaps, golden, []string{"../outside.txt"}); err == nil {
		t.Fatal("expected error for escaping path")
	}
	entries, _ := os.ReadDir(snaps)
	if len(entries) != 0 {
		t.Errorf("failed snapshot left %d files behind", len(entries))
	}
}

func TestRestore(t *testing.T) {
	golden := t.TempDir()
	snaps := t.TempDir()
	writeGolden(t, golden, "a.txt", "alpha")
	writeGolden(t, golden, "nested/b.txt", "beta")

	info, err := Snapshot(snaps, golden, []string{"a.txt", "nested/b.txt"})
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	writeGolden(t, golden, "a.txt", "changed")
	if err := os.RemoveAll(filepath.Join(golden, "nested")); err != nil {
		t.Fatal(err)
	}

	t.Run("dry run", func(t *testing.T) {
		_, restored, err := Restore(info.Archive, RestoreOptions{DryRun: true})
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if len(restored) != 2 {
			t.Errorf("restored = %v", restored)
		}
		if got := readGolden(t, golden, "a.txt"); got != "changed" {
			t.Errorf("dry run wrote files: a.txt = %q", got)
		}
	})

	t.Run("restore", func(t *testing.T) {
		if _, _, err := Restore(info.Archive, RestoreOptions{}); err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if got := readGolden(t, golden, "a.txt"); got != "alpha" {
			t.Errorf("a.txt = %q, want alpha", got)
		}
		if got := readGolden(t, golden, "nested/b.txt"); got != "beta" {
			t.Errorf("nested/b.txt = %q, want beta", got)
		}
	})

	t.Run("target override", func(t *testing.T) {
		target := t.TempDir()
		if _, _, err := Restore(info.Archive, RestoreOptions{TargetDir: target}); err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if got := readGolden(t, target, "a.txt"); got != "alpha" {
			t.Errorf("a.txt = %q, want alpha", got)
		}
	})
}

func TestRestore_DetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bad.tar.gz")

	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	writeEntry := func(name, body string) {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body))}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	writeEntry("files/a.txt", "tampered")
	writeEntry("manifest.json", `{"version":"1.0","id":"x","file_count":1,"files":[{"path":"a.txt","size":5,"sha256":"00"}]}`)
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	target := t.TempDir()
	_, _, err = Restore(archivePath, RestoreOptions{TargetDir: target})
	if err == nil || !strings.Contains(err.Error(), "hash mismatch") {
		t.Fatalf("expected hash mismatch error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, "a.txt")); !os.IsNotExist(err) {
		t.Error("corrupted snapshot should not write any file")
	}
}

func TestReadManifest_Missing(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "empty.tar.gz")
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if err := tar.NewWriter(gz).Close(); err != nil {
		t.Fatal(err)
	}
	_ = gz.Close()
	_ = f.Close()

	if _, err := ReadManifest(archivePath); err == nil {
		t.Error("expected error for archive without manifest")
	}
}

func TestListFindPrune(t *testing.T) {
	golden := t.TempDir()
	snaps := t.TempDir()
	writeGolden(t, golden, "a.txt", "alpha")

	var ids []string
	for range 3 {
		info, err := Snapshot(snaps, golden, []string{"a.txt"})
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		ids = append(ids, info.ID)
		time.Sleep(2 * time.Millisecond)
	}
	// A stray file is ignored
	writeGolden(t, snaps, "notes.txt", "ignore me")

	infos, err := List(snaps)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("List returned %d snapshots, want 3", len(infos))
	}
	if infos[0].ID != ids[2] || infos[2].ID != ids[0] {
		t.Errorf("List not sorted newest first: %s, %s, %s", infos[0].ID, infos[1].ID, infos[2].ID)
	}

	found, err := Find(snaps, ids[1][:8])
	if err != nil {
		t.Fatalf("Find by prefix failed: %v", err)
	}
	if found.ID != ids[1] {
		t.Errorf("Find returned %s, want %s", found.ID, ids[1])
	}
	if _, err := Find(snaps, "zzzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find unknown = %v, want ErrNotFound", err)
	}

	removed, err := Prune(snaps, 0)
	if err != nil || len(removed) != 0 {
		t.Errorf("Prune(0) = %v, %v; want nothing removed", removed, err)
	}

	removed, err = Prune(snaps, 1)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("Prune removed %d, want 2", len(removed))
	}
	infos, _ = List(snaps)
	if len(infos) != 1 || infos[0].ID != ids[2] {
		t.Errorf("Prune kept %+v, want newest only", infos)
	}
}

func TestList_MissingDir(t *testing.T) {
	infos, err := List(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected no snapshots, got %d", len(infos))
	}
}
