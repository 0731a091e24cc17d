package platform

import (
	"bytes"
	"os"
	"runtime"
)

// interpreterMarker identifies script files whose executable bit should
// be restored after archive extraction (zip archives do not reliably
// preserve POSIX permission bits).
var interpreterMarker = []byte("#!")

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// HasInterpreterLine reports whether the file begins with a "#!" line.
func HasInterpreterLine(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, len(interpreterMarker))
	n, err := f.Read(buf)
	if err != nil || n < len(interpreterMarker) {
		return false, nil
	}
	return bytes.Equal(buf, interpreterMarker), nil
}

// EnsureExecutable sets the executable bit on path to match its read
// bits: each of owner, group, and other that can read the file can also
// execute it. No-op on Windows.
func EnsureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	want := mode | (mode&0444)>>2
	if want == mode {
		return nil
	}
	return Chmod(path, want)
}
