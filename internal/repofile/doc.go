// Package repofile models the structured configuration describing one split
// mapping: the counterpart repository, the branch to pull from it, and the
// include, include-as, and exclude path rules that drive history filtering.
//
// Rule arrays are validated once at load time, before any destructive
// pipeline stage can consume them.
package repofile
