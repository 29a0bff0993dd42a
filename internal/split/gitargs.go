package split

import (
	"strings"

	"github.com/monosplit/monosplit/internal/gitrepo"
)

const (
	checkoutSubcommandConstant   = "checkout"
	orphanFlagConstant           = "--orphan"
	removeSubcommandConstant     = "rm"
	recursiveForceFlagConstant   = "-rf"
	currentDirectoryPathConstant = "."
	mergeSubcommandConstant      = "merge"
	pullSubcommandConstant       = "pull"
	rebaseSubcommandConstant     = "rebase"
	rebaseOntoFlagConstant       = "--onto"
)

// The helpers below render the git argument vectors the pipeline would run,
// for dry-run output. They mirror the repository manager's real invocations.

func gitCheckoutArgumentsForBranch(branchName string) []string {
	return []string{checkoutSubcommandConstant, orphanFlagConstant, branchName}
}

func gitClearWorktreeArguments() []string {
	return []string{removeSubcommandConstant, recursiveForceFlagConstant, currentDirectoryPathConstant}
}

func gitMergeArgumentsForBranch(branchName string) []string {
	return []string{mergeSubcommandConstant, branchName}
}

func gitPullArguments(remoteLocator string, remoteBranch string) []string {
	pullArguments := []string{pullSubcommandConstant, remoteLocator}
	if len(strings.TrimSpace(remoteBranch)) > 0 {
		pullArguments = append(pullArguments, remoteBranch)
	}
	return pullArguments
}

func gitRebaseArguments(upstreamReference string) []string {
	return []string{rebaseSubcommandConstant, upstreamReference}
}

func gitRebaseOntoArguments(newBase string, upstreamReference string) []string {
	return []string{rebaseSubcommandConstant, rebaseOntoFlagConstant, newBase, upstreamReference}
}

func inferBranchNameFromRemote(remoteLocator string) (string, error) {
	return gitrepo.InferProjectName(remoteLocator)
}
