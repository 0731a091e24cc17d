package template

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/specify-labs/specify/internal/platform"
)

// ExtractMode controls how an archive lands in the destination.
type ExtractMode int

const (
	// NewDirectory extracts directly into an empty or fresh destination,
	// flattening a single top-level wrapper directory.
	NewDirectory ExtractMode = iota
	// MergeIntoExisting stages the archive first, then copies entries
	// into the destination one by one without deleting pre-existing
	// content.
	MergeIntoExisting
)

// settingsFile is the one file that is deep-merged instead of replaced
// when merging into an existing project.
const settingsFile = ".vscode/settings.json"

// Extract unpacks the zip archive at archivePath into destination
// according to mode.
func Extract(archivePath, destination string, mode ExtractMode) error {
	switch mode {
	case MergeIntoExisting:
		return extractMerging(archivePath, destination)
	default:
		return extractDirect(archivePath, destination)
	}
}

// extractDirect unpacks straight into destination.
func extractDirect(archivePath, destination string) error {
	if err := os.MkdirAll(destination, 0755); err != nil {
		return fmt.Errorf("creating destination %s: %w", destination, err)
	}
	if err := unzip(archivePath, destination); err != nil {
		return err
	}
	return flattenWrapper(destination)
}

// extractMerging stages the archive in a temp directory and then merges
// staging into destination. The staging area is removed on every exit
// path.
func extractMerging(archivePath, destination string) error {
	staging, err := os.MkdirTemp("", "specify-staging-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := unzip(archivePath, staging); err != nil {
		return err
	}
	if err := flattenWrapper(staging); err != nil {
		return err
	}
	return mergeTree(staging, destination)
}

// unzip extracts every entry of the archive under dest, rejecting
// entries that would escape it.
func unzip(archivePath, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("creating %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("creating parent of %s: %w", target, err)
		}
		if err := writeZipEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return out.Close()
}

// safeJoin joins an archive entry name onto dest and rejects traversal
// outside it (zip-slip).
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) && target != filepath.Clean(dest) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

// flattenWrapper hoists the contents of a single top-level directory up
// one level. Template archives commonly wrap their payload in a
// versioned directory.
func flattenWrapper(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	wrapper := filepath.Join(dir, entries[0].Name())
	inner, err := os.ReadDir(wrapper)
	if err != nil {
		return err
	}
	for _, entry := range inner {
		if err := os.Rename(filepath.Join(wrapper, entry.Name()), filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("flattening %s: %w", entry.Name(), err)
		}
	}
	return os.Remove(wrapper)
}

// mergeTree copies staged entries into dest. Directories merge
// recursively (union of contents; nothing pre-existing is deleted).
// Ordinary files are overwritten unconditionally except the designated
// settings file, which is deep-merged.
func mergeTree(staging, dest string) error {
	return filepath.Walk(staging, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(staging, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dest, rel)

		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		if filepath.ToSlash(rel) == settingsFile {
			if _, statErr := os.Stat(target); statErr == nil {
				return mergeSettingsFile(target, path)
			}
		}

		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// EnsureExecutableScripts walks root and restores executable bits on
// files beginning with an interpreter marker line. Zip archives do not
// carry POSIX permission bits reliably; this runs after extraction.
// No-op on platforms without permission bits.
func EnsureExecutableScripts(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		ok, err := platform.HasInterpreterLine(path)
		if err != nil || !ok {
			return nil
		}
		return platform.EnsureExecutable(path)
	})
}
