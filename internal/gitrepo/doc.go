// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// It exposes RepositoryManager for discovering repositories, inspecting refs
// and working tree state, and performing the branch-level operations the split
// pipeline sequences, along with pure helpers for inferring project names from
// remote locators.
package gitrepo
