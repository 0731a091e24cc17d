package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CreateLink creates a symbolic link at link pointing to target.
// Callers should check ProbeLinkSupport first; on platforms or
// filesystems where link creation is denied the raw OS error is
// wrapped so callers can surface remediation guidance.
func CreateLink(target, link string) error {
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("creating link %s -> %s: %w", link, target, err)
	}
	return nil
}

// ReadLinkTarget returns the target a link points to.
func ReadLinkTarget(link string) (string, error) {
	return os.Readlink(link)
}

// RemoveTarget removes a path regardless of what occupies it: a link is
// unlinked, a file removed, a directory removed recursively.
func RemoveTarget(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

var (
	probeOnce   sync.Once
	probeResult bool
)

// ProbeLinkSupport reports whether symlink creation is permitted, by
// attempting one in a scratch directory. The result is cached for the
// process lifetime. On Windows this fails unless Developer Mode or the
// symlink privilege is enabled; on Unix it fails only on restricted
// filesystems.
func ProbeLinkSupport() bool {
	probeOnce.Do(func() {
		probeResult = probeLinkSupport()
	})
	return probeResult
}

func probeLinkSupport() bool {
	dir, err := os.MkdirTemp("", "specify-link-probe-*")
	if err != nil {
		return false
	}
	defer os.RemoveAll(dir)

	target := filepath.Join(dir, "target")
	if err := os.WriteFile(target, []byte("probe"), 0644); err != nil {
		return false
	}
	return os.Symlink(target, filepath.Join(dir, "link")) == nil
}
