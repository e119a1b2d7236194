// Package archive snapshots golden files into tar.gz archives so an update
// can be rolled back.
package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/klauern/goldenfile/internal/logging"
)

const (
	// DirPerm is the permission for snapshot directories (rwxr-x---)
	DirPerm = 0o750
	// FilePerm is the permission for snapshot archives (rw-r-----)
	FilePerm = 0o640

	manifestName = "manifest.json"
	filesPrefix  = "files/"
	extension    = ".tar.gz"
)

// ErrNotFound is returned when no snapshot matches an ID.
var ErrNotFound = errors.New("snapshot not found")

// Manifest represents the metadata for a snapshot
type Manifest struct {
	Version   string         `json:"version"`
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	GoldenDir string         `json:"golden_dir"`
	FileCount int            `json:"file_count"`
	Files     []ManifestFile `json:"files"`
}

// ManifestFile represents a golden file entry in the manifest
type ManifestFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Info describes a snapshot on disk.
type Info struct {
	Manifest
	Archive string `json:"archive"`
}

// RestoreOptions configures snapshot restoration
type RestoreOptions struct {
	TargetDir string // Overrides the manifest's golden directory
	DryRun    bool   // Verify and report without writing
}

// Snapshot archives the named golden files (slash-separated, relative to
// goldenDir) into a new snapshot under dir. Names that do not exist in
// goldenDir are skipped. The snapshot is written even when no file exists so
// the update it precedes is still recorded.
func Snapshot(dir, goldenDir string, names []string) (*Info, error) {
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	absGolden, err := filepath.Abs(goldenDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve golden directory: %w", err)
	}

	manifest := Manifest{
		Version:   "1.0",
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		GoldenDir: absGolden,
		Files:     make([]ManifestFile, 0, len(names)),
	}

	archivePath := filepath.Join(dir, manifest.ID+extension)
	// #nosec G304 - archivePath is built from a generated ID
	f, err := os.OpenFile(archivePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, FilePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	if err := write(f, absGolden, names, &manifest); err != nil {
		_ = f.Close()
		_ = os.Remove(archivePath)
		return nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(archivePath)
		return nil, fmt.Errorf("failed to close snapshot: %w", err)
	}

	logging.Debug("snapshot created",
		logging.Path(archivePath),
		logging.Count(manifest.FileCount))
	return &Info{Manifest: manifest, Archive: archivePath}, nil
}

func write(w io.Writer, goldenDir string, names []string, manifest *Manifest) error {
	gzWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzWriter)

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	seen := make(map[string]bool, len(sorted))
	for _, name := range sorted {
		name = path.Clean(filepath.ToSlash(name))
		if seen[name] {
			continue
		}
		seen[name] = true
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return fmt.Errorf("refusing to snapshot %q: path escapes golden directory", name)
		}

		// #nosec G304 - name is validated as local to goldenDir
		data, err := os.ReadFile(filepath.Join(goldenDir, filepath.FromSlash(name)))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read golden file %s: %w", name, err)
		}

		hash := sha256.Sum256(data)
		manifest.Files = append(manifest.Files, ManifestFile{
			Path:   name,
			Size:   int64(len(data)),
			SHA256: hex.EncodeToString(hash[:]),
		})

		header := &tar.Header{
			Name:    filesPrefix + name,
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: manifest.CreatedAt,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header for %s: %w", name, err)
		}
		if _, err := tarWriter.Write(data); err != nil {
			return fmt.Errorf("failed to write data for %s: %w", name, err)
		}
	}
	manifest.FileCount = len(manifest.Files)

	// Manifest goes last so it reflects the skipped files
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	manifestHeader := &tar.Header{
		Name:    manifestName,
		Mode:    0o644,
		Size:    int64(len(manifestData)),
		ModTime: manifest.CreatedAt,
	}
	if err := tarWriter.WriteHeader(manifestHeader); err != nil {
		return fmt.Errorf("failed to write manifest header: %w", err)
	}
	if _, err := tarWriter.Write(manifestData); err != nil {
		return fmt.Errorf("failed to write manifest data: %w", err)
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

// read loads a snapshot's manifest and, when withFiles is set, its file
// contents keyed by slash-separated path.
func read(archivePath string, withFiles bool) (*Manifest, map[string][]byte, error) {
	// #nosec G304 - archivePath is provided by caller
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	gzReader, err := gzip.NewReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() { _ = gzReader.Close() }()

	tarReader := tar.NewReader(gzReader)

	var manifest *Manifest
	files := make(map[string][]byte)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read tar header: %w", err)
		}

		switch {
		case header.Name == manifestName:
			var buf bytes.Buffer
			if _, err := io.Copy(&buf, tarReader); err != nil {
				return nil, nil, fmt.Errorf("failed to read manifest: %w", err)
			}
			if err := json.Unmarshal(buf.Bytes(), &manifest); err != nil {
				return nil, nil, fmt.Errorf("failed to parse manifest: %w", err)
			}
		case withFiles && strings.HasPrefix(header.Name, filesPrefix):
			name := strings.TrimPrefix(header.Name, filesPrefix)
			if !filepath.IsLocal(filepath.FromSlash(name)) {
				return nil, nil, fmt.Errorf("snapshot entry %q escapes target directory", header.Name)
			}
			data, err := io.ReadAll(tarReader)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to read entry %s: %w", header.Name, err)
			}
			files[name] = data
		}
	}

	if manifest == nil {
		return nil, nil, fmt.Errorf("snapshot missing %s", manifestName)
	}
	return manifest, files, nil
}

// ReadManifest returns the manifest of the snapshot at archivePath.
func ReadManifest(archivePath string) (*Manifest, error) {
	m, _, err := read(archivePath, false)
	return m, err
}

// Restore writes the files of the snapshot at archivePath back into its
// golden directory (or opts.TargetDir). Every file is verified against its
// manifest hash before anything is written. It returns the restored paths.
func Restore(archivePath string, opts RestoreOptions) (*Manifest, []string, error) {
	manifest, files, err := read(archivePath, true)
	if err != nil {
		return nil, nil, err
	}

	for _, mf := range manifest.Files {
		data, ok := files[mf.Path]
		if !ok {
			return nil, nil, fmt.Errorf("snapshot %s is missing %s", manifest.ID, mf.Path)
		}
		hash := sha256.Sum256(data)
		if got := hex.EncodeToString(hash[:]); got != mf.SHA256 {
			return nil, nil, fmt.Errorf("snapshot file %s corrupted: hash mismatch (expected %s, got %s)", mf.Path, mf.SHA256, got)
		}
	}

	target := opts.TargetDir
	if target == "" {
		target = manifest.GoldenDir
	}

	restored := make([]string, 0, len(manifest.Files))
	for _, mf := range manifest.Files {
		restored = append(restored, mf.Path)
		if opts.DryRun {
			continue
		}
		dest := filepath.Join(target, filepath.FromSlash(mf.Path))
		if err := os.MkdirAll(filepath.Dir(dest), DirPerm); err != nil {
			return nil, nil, fmt.Errorf("failed to create directory for %s: %w", mf.Path, err)
		}
		// #nosec G306 - golden files are regular project files
		if err := os.WriteFile(dest, files[mf.Path], 0o644); err != nil {
			return nil, nil, fmt.Errorf("failed to write %s: %w", mf.Path, err)
		}
		logging.Info("restored golden file", logging.Path(dest))
	}
	return manifest, restored, nil
}

// List returns the snapshots in dir, newest first. A missing dir holds no
// snapshots.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), extension) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		m, err := ReadManifest(p)
		if err != nil {
			logging.Warn("skipping unreadable snapshot", logging.Path(p), logging.Err(err))
			continue
		}
		infos = append(infos, Info{Manifest: *m, Archive: p})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// Find returns the snapshot in dir whose ID equals or starts with id.
func Find(dir, id string) (*Info, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	infos, err := List(dir)
	if err != nil {
		return nil, err
	}
	var match *Info
	for i := range infos {
		if !strings.HasPrefix(infos[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("snapshot id %q is ambiguous", id)
		}
		match = &infos[i]
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Prune removes all but the keep newest snapshots in dir and returns the
// removed archive paths. keep <= 0 keeps everything.
func Prune(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	infos, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(infos) <= keep {
		return nil, nil
	}

	var removed []string
	for _, info := range infos[keep:] {
		if err := os.Remove(info.Archive); err != nil {
			return removed, fmt.Errorf("failed to remove snapshot %s: %w", info.ID, err)
		}
		removed = append(removed, info.Archive)
	}
	logging.Debug("pruned snapshots", logging.Count(len(removed)))
	return removed, nil
}
