// Package linker projects agent command content from the central
// repository into a project directory, as symlinks or full copies, and
// verifies and repairs those projections.
package linker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/specify-labs/specify/internal/agents"
	"github.com/specify-labs/specify/internal/branding"
	"github.com/specify-labs/specify/internal/platform"
)

// Mode selects how content is projected into a project.
type Mode int

const (
	// ModeAuto links when the platform permits it and silently falls
	// back to copying otherwise.
	ModeAuto Mode = iota
	// ModeLink demands a symlink; failure is an error with remediation.
	ModeLink
	// ModeCopy always copies content.
	ModeCopy
)

func (m Mode) String() string {
	switch m {
	case ModeLink:
		return "link"
	case ModeCopy:
		return "copy"
	default:
		return "auto"
	}
}

// ParseMode parses a --mode flag value.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "auto":
		return ModeAuto, nil
	case "link":
		return ModeLink, nil
	case "copy":
		return ModeCopy, nil
	default:
		return ModeAuto, fmt.Errorf("invalid mode %q: expected link, copy, or auto", s)
	}
}

// ErrLinkUnsupported is returned when ModeLink is demanded but the
// platform denies symlink creation.
var ErrLinkUnsupported = errors.New(
	"symlink creation is not permitted on this system; " +
		"on Windows enable Developer Mode (Settings > Privacy & Security > For developers) " +
		"or rerun with --mode copy")

// ErrSourceMissing is returned when the central repository has no
// content for an agent.
var ErrSourceMissing = errors.New("agent content missing from central repository")

// Outcome classifies the result of one agent's link creation.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeSkippedExists
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeSkippedExists:
		return "skipped-exists"
	default:
		return "failed"
	}
}

// Result reports one agent's outcome. The map returned by CreateLinks
// always has one Result per requested agent.
type Result struct {
	Outcome Outcome
	// Mode is the mode actually used (Copy when Auto fell back).
	Mode Mode
	Err  error
}

// Status classifies the state of an agent's link target, computed on
// demand by VerifyLinks and never persisted.
type Status int

const (
	// StatusMissing means nothing exists at the target path.
	StatusMissing Status = iota
	// StatusValid means a link exists and its resolution exists.
	StatusValid
	// StatusBroken means a link exists but its resolution does not.
	StatusBroken
	// StatusOccupied means a non-link file or directory holds the path.
	StatusOccupied
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusBroken:
		return "broken"
	case StatusOccupied:
		return "occupied"
	default:
		return "missing"
	}
}

// Linker distributes content for the agents in Table from the central
// repository root into project directories.
type Linker struct {
	// CentralAgentsRoot is the agents/ directory of the central store.
	CentralAgentsRoot string
	Table             agents.Table

	Log *slog.Logger

	// probe is swappable in tests.
	probe func() bool
}

// New returns a Linker over the given central agents root and table.
func New(centralAgentsRoot string, table agents.Table) *Linker {
	return &Linker{
		CentralAgentsRoot: centralAgentsRoot,
		Table:             table,
		Log:               slog.Default(),
		probe:             platform.ProbeLinkSupport,
	}
}

// resolveMode turns the requested mode into the effective one, probing
// platform link support for Auto and Link.
func (l *Linker) resolveMode(requested Mode) (Mode, error) {
	switch requested {
	case ModeCopy:
		return ModeCopy, nil
	case ModeLink:
		if !l.probe() {
			return ModeLink, ErrLinkUnsupported
		}
		return ModeLink, nil
	default:
		if l.probe() {
			return ModeLink, nil
		}
		l.Log.Warn("symlinks unavailable, falling back to copy mode")
		return ModeCopy, nil
	}
}

// CreateLinks projects content for each requested agent into project.
// One agent's failure never blocks the rest; the returned map has one
// entry per requested agent.
func (l *Linker) CreateLinks(project string, keys []string, mode Mode, force bool) map[string]Result {
	results := make(map[string]Result, len(keys))

	effective, err := l.resolveMode(mode)
	if err != nil {
		for _, key := range keys {
			results[key] = Result{Outcome: OutcomeFailed, Mode: mode, Err: err}
		}
		return results
	}

	for _, key := range keys {
		results[key] = l.createOne(project, key, effective, force)
	}
	return results
}

func (l *Linker) createOne(project, key string, mode Mode, force bool) Result {
	desc, ok := l.Table.Lookup(key)
	if !ok {
		return Result{Outcome: OutcomeFailed, Mode: mode, Err: fmt.Errorf("unknown agent %q", key)}
	}

	source := filepath.Join(l.CentralAgentsRoot, filepath.FromSlash(desc.SourceSubpath))
	if _, err := os.Stat(source); err != nil {
		return Result{Outcome: OutcomeFailed, Mode: mode,
			Err: fmt.Errorf("%w: %s (run '%s init' to refresh the central repository)", ErrSourceMissing, source, branding.CLIName())}
	}

	target := filepath.Join(project, filepath.FromSlash(desc.TargetPath))

	if desc.WholeDirectory() {
		return l.placeEntry(source, target, mode, force)
	}

	// File-list agents merge individual files into the target directory
	// without disturbing unrelated entries.
	if err := os.MkdirAll(target, 0755); err != nil {
		return Result{Outcome: OutcomeFailed, Mode: mode, Err: fmt.Errorf("creating %s: %w", target, err)}
	}
	outcome := OutcomeCreated
	for _, name := range desc.Files {
		srcFile := filepath.Join(source, name)
		if _, err := os.Stat(srcFile); err != nil {
			return Result{Outcome: OutcomeFailed, Mode: mode,
				Err: fmt.Errorf("%w: %s", ErrSourceMissing, srcFile)}
		}
		res := l.placeEntry(srcFile, filepath.Join(target, name), mode, force)
		if res.Outcome == OutcomeFailed {
			return res
		}
		if res.Outcome == OutcomeSkippedExists {
			outcome = OutcomeSkippedExists
		}
	}
	return Result{Outcome: outcome, Mode: mode}
}

// placeEntry links or copies source to target, honoring force semantics.
func (l *Linker) placeEntry(source, target string, mode Mode, force bool) Result {
	if _, err := os.Lstat(target); err == nil {
		if !force {
			return Result{Outcome: OutcomeSkippedExists, Mode: mode}
		}
		if err := platform.RemoveTarget(target); err != nil {
			return Result{Outcome: OutcomeFailed, Mode: mode, Err: fmt.Errorf("removing %s: %w", target, err)}
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return Result{Outcome: OutcomeFailed, Mode: mode, Err: fmt.Errorf("creating parent of %s: %w", target, err)}
	}

	var err error
	if mode == ModeCopy {
		err = copyRecursive(source, target)
	} else {
		err = platform.CreateLink(source, target)
	}
	if err != nil {
		return Result{Outcome: OutcomeFailed, Mode: mode, Err: err}
	}
	return Result{Outcome: OutcomeCreated, Mode: mode}
}

// VerifyLinks reports the status of each requested agent's target. The
// returned map has one entry per requested agent; unknown agents report
// StatusMissing.
func (l *Linker) VerifyLinks(project string, keys []string) map[string]Status {
	statuses := make(map[string]Status, len(keys))
	for _, key := range keys {
		statuses[key] = l.verifyOne(project, key)
	}
	return statuses
}

// TargetPath returns the project path inspected for an agent: the
// directory target, or the first listed file (the canary) for file-list
// agents. Empty for unknown keys.
func (l *Linker) TargetPath(project, key string) string {
	desc, ok := l.Table.Lookup(key)
	if !ok {
		return ""
	}
	target := filepath.Join(project, filepath.FromSlash(desc.TargetPath))
	if !desc.WholeDirectory() {
		target = filepath.Join(target, desc.Files[0])
	}
	return target
}

func (l *Linker) verifyOne(project, key string) Status {
	target := l.TargetPath(project, key)
	if target == "" {
		return StatusMissing
	}

	info, err := os.Lstat(target)
	if err != nil {
		return StatusMissing
	}

	if info.Mode()&os.ModeSymlink == 0 {
		return StatusOccupied
	}

	if _, err := os.Stat(target); err != nil {
		return StatusBroken
	}
	return StatusValid
}

// Repair re-creates links for agents verifying as Broken or Occupied,
// forcing removal of whatever holds the target. Valid and Missing
// entries are left alone. The returned map has one entry per repaired
// agent.
func (l *Linker) Repair(project string, keys []string, mode Mode) map[string]Result {
	statuses := l.VerifyLinks(project, keys)

	var damaged []string
	for _, key := range keys {
		if s := statuses[key]; s == StatusBroken || s == StatusOccupied {
			damaged = append(damaged, key)
		}
	}
	if len(damaged) == 0 {
		return map[string]Result{}
	}
	return l.CreateLinks(project, damaged, mode, true)
}

// copyRecursive duplicates src (file or directory) at dst.
func copyRecursive(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return copyFile(src, dst, info.Mode().Perm())
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := copyRecursive(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
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
