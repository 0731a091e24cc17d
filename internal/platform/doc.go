// Package platform isolates OS-specific filesystem behavior: symlink
// creation and capability probing, permission bits, and executable-bit
// handling for scripts. All cross-platform branching in the codebase is
// confined to this package.
package platform
