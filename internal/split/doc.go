// Package split implements the orchestration pipeline behind the split-in and
// split-out commands.
//
// The Runner sequences the destructive git operations of a split as a fixed,
// fail-fast series of named stages: orphan branch creation, remote history
// population, path-based history filtering through git-filter-repo, and
// rebase or topbase reconciliation. A dry-run execution mode prints the
// equivalent shell commands instead of mutating repository state.
package split
