// Package ui renders command lifecycle events as human-readable console
// output for interactive runs of the CLI.
package ui
