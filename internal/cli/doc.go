// Package cli wires the cobra command surface: init, status, repair,
// discover, workspace, config, and version. Commands are thin glue over
// the internal packages; all engine behavior lives there.
package cli
