package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/monosplit/monosplit/internal/execshell"
)

const (
	gitRevParseSubcommandConstant           = "rev-parse"
	gitShowTopLevelFlagConstant             = "--show-toplevel"
	gitSymbolicRefSubcommandConstant        = "symbolic-ref"
	gitQuietFlagConstant                    = "-q"
	gitHeadReferenceConstant                = "HEAD"
	gitLSFilesSubcommandConstant            = "ls-files"
	gitModifiedFlagConstant                 = "--modified"
	gitCheckoutSubcommandConstant           = "checkout"
	gitOrphanFlagConstant                   = "--orphan"
	gitRemoveSubcommandConstant             = "rm"
	gitRecursiveForceFlagConstant           = "-rf"
	gitCurrentDirectoryPathConstant         = "."
	gitMergeSubcommandConstant              = "merge"
	gitPullSubcommandConstant               = "pull"
	gitRebaseSubcommandConstant             = "rebase"
	gitRebaseOntoFlagConstant               = "--onto"
	executorNotConfiguredMessageConstant    = "git executor not configured"
	repositoryNotFoundMessageConstant       = "no git repository found"
	lineSeparatorConstant                   = "\n"
)

// GitExecutor exposes the subset of shell execution used by the repository manager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ErrExecutorNotConfigured reports a RepositoryManager constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrRepositoryNotFound reports that no enclosing repository exists for a directory.
var ErrRepositoryNotFound = errors.New(repositoryNotFoundMessageConstant)

// RepositoryManager performs repository-level git operations through a shell executor.
type RepositoryManager struct {
	gitExecutor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager around the provided executor.
func NewRepositoryManager(gitExecutor GitExecutor) (*RepositoryManager, error) {
	if gitExecutor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{gitExecutor: gitExecutor}, nil
}

// FindRepositoryRoot locates the root of the repository enclosing the starting directory.
func (manager *RepositoryManager) FindRepositoryRoot(executionContext context.Context, startingDirectory string) (string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitShowTopLevelFlagConstant},
		WorkingDirectory: startingDirectory,
	}
	executionResult, executionError := manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		var commandFailure execshell.CommandFailedError
		if errors.As(executionError, &commandFailure) {
			return "", ErrRepositoryNotFound
		}
		return "", executionError
	}

	repositoryRoot := strings.TrimSpace(executionResult.StandardOutput)
	if len(repositoryRoot) == 0 {
		return "", ErrRepositoryNotFound
	}
	return repositoryRoot, nil
}

// CurrentSymbolicRef reports the symbolic ref the repository points to, or an
// empty string when the repository is in a detached HEAD state.
func (manager *RepositoryManager) CurrentSymbolicRef(executionContext context.Context, repositoryPath string) (string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: repositoryPath,
	}
	executionResult, executionError := manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		var commandFailure execshell.CommandFailedError
		if errors.As(executionError, &commandFailure) {
			return "", nil
		}
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ResolveRevision resolves a revision expression to a commit identifier.
func (manager *RepositoryManager) ResolveRevision(executionContext context.Context, repositoryPath string, revisionExpression string) (string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, revisionExpression},
		WorkingDirectory: repositoryPath,
	}
	executionResult, executionError := manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ListModifiedFiles returns the tracked files carrying uncommitted modifications.
func (manager *RepositoryManager) ListModifiedFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitLSFilesSubcommandConstant, gitModifiedFlagConstant},
		WorkingDirectory: repositoryPath,
	}
	executionResult, executionError := manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return nil, executionError
	}

	trimmedOutput := strings.TrimSpace(executionResult.StandardOutput)
	if len(trimmedOutput) == 0 {
		return nil, nil
	}
	return strings.Split(trimmedOutput, lineSeparatorConstant), nil
}

// CreateOrphanBranch creates and checks out a parentless branch.
func (manager *RepositoryManager) CreateOrphanBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, gitOrphanFlagConstant, branchName},
		WorkingDirectory: repositoryPath,
	}
	_, executionError := manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// ClearIndexAndWorktree removes every tracked entry from the index and working tree.
//
// On a freshly created orphan branch the previous branch's files remain
// staged; clearing them leaves the branch seeded only by history.
func (manager *RepositoryManager) ClearIndexAndWorktree(executionContext context.Context, repositoryPath string) error {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRemoveSubcommandConstant, gitRecursiveForceFlagConstant, gitCurrentDirectoryPathConstant},
		WorkingDirectory: repositoryPath,
	}
	_, executionError := manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// MergeBranch merges the named local branch into the current branch.
func (manager *RepositoryManager) MergeBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitMergeSubcommandConstant, branchName},
		WorkingDirectory: repositoryPath,
	}
	_, executionError := manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// Pull fetches and merges from the remote locator, optionally restricted to a branch.
func (manager *RepositoryManager) Pull(executionContext context.Context, repositoryPath string, remoteLocator string, remoteBranch string) error {
	pullArguments := []string{gitPullSubcommandConstant, remoteLocator}
	if len(strings.TrimSpace(remoteBranch)) > 0 {
		pullArguments = append(pullArguments, remoteBranch)
	}
	commandDetails := execshell.CommandDetails{
		Arguments:        pullArguments,
		WorkingDirectory: repositoryPath,
	}
	_, executionError := manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// Rebase replays the current branch onto the provided upstream reference.
func (manager *RepositoryManager) Rebase(executionContext context.Context, repositoryPath string, upstreamReference string) error {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRebaseSubcommandConstant, upstreamReference},
		WorkingDirectory: repositoryPath,
	}
	_, executionError := manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
	return executionError
}

// RebaseOnto replays only the commits after upstreamReference on top of newBase.
func (manager *RepositoryManager) RebaseOnto(executionContext context.Context, repositoryPath string, newBase string, upstreamReference string) error {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRebaseSubcommandConstant, gitRebaseOntoFlagConstant, newBase, upstreamReference},
		WorkingDirectory: repositoryPath,
	}
	_, executionError := manager.gitExecutor.ExecuteGit(executionContext, commandDetails)
	return executionError
}
