package split

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/monosplit/monosplit/internal/execshell"
	"github.com/monosplit/monosplit/internal/repofile"
)

// SplitDirection selects which way history flows through the pipeline.
type SplitDirection string

// ExecutionMode selects between mutating the repository and printing commands.
type ExecutionMode string

const (
	// DirectionOut extracts a subtree of the local repository into a standalone branch.
	DirectionOut SplitDirection = "out"
	// DirectionIn injects external history into a subdirectory of the local repository.
	DirectionIn SplitDirection = "in"

	// ModeReal performs every stage against the repository.
	ModeReal ExecutionMode = "real"
	// ModeSimulate prints the equivalent shell commands for mutating stages
	// while still running the read-only ones.
	ModeSimulate ExecutionMode = "simulate"
)

const (
	stageNameVerifyDependenciesConstant      = "verify_dependencies"
	stageNameSaveCurrentDirectoryConstant    = "save_current_directory"
	stageNameDiscoverRepositoryConstant      = "discover_repository"
	stageNameChangeToRepositoryConstant      = "change_to_repository_root"
	stageNameSafeToProceedConstant           = "safe_to_proceed"
	stageNameSaveCurrentRefConstant          = "save_current_ref"
	stageNameBindRepoFileConstant            = "bind_repo_file"
	stageNamePrepareOutputBranchConstant     = "prepare_output_branch"
	stageNamePopulateBranchConstant          = "populate_branch"
	stageNameFilterIncludeConstant           = "filter_include"
	stageNameFilterIncludeAsConstant         = "filter_include_as"
	stageNameFilterExcludeConstant           = "filter_exclude"
	stageNameReconcileConstant               = "reconcile"
	stageFailureTemplateConstant             = "stage %s: %w"
	missingDependencyTemplateConstant        = "missing dependency %q: %w"
	gitDependencyNameConstant                = "git"
	filterRepoDependencyNameConstant         = "git-filter-repo"
	gitVersionFlagConstant                   = "--version"
	repositoryManagerMissingMessageConstant  = "repository manager not configured"
	gitExecutorMissingMessageConstant        = "git executor not configured"
	repoFileLoaderMissingMessageConstant     = "repo file loader not configured"
	unsafeWorktreeMessageConstant            = "You have modified changes. Please stash or commit your changes before running this command"
	reconciliationFailedMessageConstant      = "rebase stopped on conflicts; resolve them and finish the rebase manually"
	remoteRepositoryRequiredMessageConstant  = "split-in requires remote_repo in the repo file or an explicit --input-branch"
	outputBranchUnresolvedMessageConstant    = "unable to resolve an output branch name; set name in the repo file or pass --output-branch"
	headRevisionExpressionConstant           = "HEAD"
	branchReferencePrefixConstant            = "refs/heads/"
	simulatedChangeDirectoryTemplateConstant = "cd %s"
	simulatedGitCommandPrefixConstant        = "git"
	commandLineSeparatorConstant             = " "
	lineBreakConstant                        = "\n"
	repositoryRootFieldNameConstant          = "repository_root"
	outputBranchFieldNameConstant            = "output_branch"
	originalReferenceFieldNameConstant       = "original_reference"
	upstreamReferenceFieldNameConstant       = "upstream_reference"
	remoteRepositoryFieldNameConstant        = "remote_repository"
	failureDetailFieldNameConstant           = "failure_detail"
	reconcileFailedTerminalStatusConstant    = 1
	savedDirectoryLogMessageConstant         = "Saved invocation directory"
	discoveredRepositoryLogMessageConstant   = "Discovered repository root"
	cleanWorktreeLogMessageConstant          = "Worktree is clean"
	savedReferenceLogMessageConstant         = "Saved current reference"
	boundRepoFileLogMessageConstant          = "Bound repo file"
	preparedBranchLogMessageConstant         = "Prepared orphan output branch"
	populatedBranchLogMessageConstant        = "Populated branch from remote history"
	mergedInputBranchLogMessageConstant      = "Merged local input branch"
	rewroteHistoryLogMessageConstant         = "Rewrote branch history"
	rebaseSkippedLogMessageConstant          = "No original reference saved; skipping rebase"
	topbaseSkippedLogMessageConstant         = "Missing references for topbase; skipping"
	rebaseFailedLogMessageConstant           = "Rebase stopped on conflicts"
	invocationDirectoryFieldNameConstant     = "invocation_directory"
)

// ErrRepositoryManagerMissing reports a Runner constructed without repository operations.
var ErrRepositoryManagerMissing = errors.New(repositoryManagerMissingMessageConstant)

// ErrGitExecutorMissing reports a Runner constructed without a git executor.
var ErrGitExecutorMissing = errors.New(gitExecutorMissingMessageConstant)

// ErrRepoFileLoaderMissing reports a Runner constructed without a repo file loader.
var ErrRepoFileLoaderMissing = errors.New(repoFileLoaderMissingMessageConstant)

// ErrRemoteRepositoryRequired reports a split-in run with neither a remote
// locator in the repo file nor a local input branch.
var ErrRemoteRepositoryRequired = errors.New(remoteRepositoryRequiredMessageConstant)

// ErrOutputBranchUnresolved reports that no output branch name could be
// derived from the flags, the repo file, or the remote locator.
var ErrOutputBranchUnresolved = errors.New(outputBranchUnresolvedMessageConstant)

// ErrReconciliationIncomplete reports a pipeline that finished with an
// unresolved rebase left in the repository.
var ErrReconciliationIncomplete = errors.New(reconciliationFailedMessageConstant)

// UnsafeWorktreeError reports uncommitted modifications blocking a split.
type UnsafeWorktreeError struct{}

// Error describes the required user action.
func (UnsafeWorktreeError) Error() string {
	return unsafeWorktreeMessageConstant
}

// RepositoryOperations exposes the repository-level git operations the pipeline drives.
type RepositoryOperations interface {
	FindRepositoryRoot(executionContext context.Context, startingDirectory string) (string, error)
	CurrentSymbolicRef(executionContext context.Context, repositoryPath string) (string, error)
	ResolveRevision(executionContext context.Context, repositoryPath string, revisionExpression string) (string, error)
	ListModifiedFiles(executionContext context.Context, repositoryPath string) ([]string, error)
	CreateOrphanBranch(executionContext context.Context, repositoryPath string, branchName string) error
	ClearIndexAndWorktree(executionContext context.Context, repositoryPath string) error
	MergeBranch(executionContext context.Context, repositoryPath string, branchName string) error
	Pull(executionContext context.Context, repositoryPath string, remoteLocator string, remoteBranch string) error
	Rebase(executionContext context.Context, repositoryPath string, upstreamReference string) error
	RebaseOnto(executionContext context.Context, repositoryPath string, newBase string, upstreamReference string) error
}

// GitCommandExecutor exposes raw git execution for dependency probes and filter passes.
type GitCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// DirectoryController abstracts process working directory manipulation.
type DirectoryController interface {
	CurrentDirectory() (string, error)
	ChangeDirectory(directoryPath string) error
}

// RepoFileLoader parses and validates a repo file from disk.
type RepoFileLoader func(repoFilePath string) (repofile.RepoFile, error)

type osDirectoryController struct{}

func (osDirectoryController) CurrentDirectory() (string, error) {
	return os.Getwd()
}

func (osDirectoryController) ChangeDirectory(directoryPath string) error {
	return os.Chdir(directoryPath)
}

// RunnerOptions carries the per-invocation settings of a split run.
type RunnerOptions struct {
	Direction            SplitDirection
	RepoFilePath         string
	DryRun               bool
	Verbose              bool
	ShouldRebase         bool
	ShouldTopbase        bool
	OutputBranchOverride string
	InputBranch          string
}

// RunnerDependencies carries the collaborators a Runner is assembled from.
type RunnerDependencies struct {
	Logger              *zap.Logger
	RepositoryManager   RepositoryOperations
	GitExecutor         GitCommandExecutor
	RepoFileLoader      RepoFileLoader
	DirectoryController DirectoryController
	SimulationOutput    io.Writer
}

// Runner drives the split pipeline from dependency verification through reconciliation.
type Runner struct {
	logger              *zap.Logger
	repositoryManager   RepositoryOperations
	gitExecutor         GitCommandExecutor
	repoFileLoader      RepoFileLoader
	directoryController DirectoryController
	simulationOutput    io.Writer
	options             RunnerOptions
	executionMode       ExecutionMode

	invocationDirectory string
	repositoryRoot      string
	originalReference   string
	topbaseTopReference string
	outputBranch        string
	repoFile            repofile.RepoFile
	includeArguments    []string
	includeAsArguments  []string
	excludeArguments    []string
	terminalStatus      int
}

// NewRunner validates the dependencies and assembles a Runner for the given options.
func NewRunner(dependencies RunnerDependencies, options RunnerOptions) (*Runner, error) {
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerMissing
	}
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorMissing
	}
	if dependencies.RepoFileLoader == nil {
		return nil, ErrRepoFileLoaderMissing
	}

	runnerLogger := dependencies.Logger
	if runnerLogger == nil {
		runnerLogger = zap.NewNop()
	}
	directoryController := dependencies.DirectoryController
	if directoryController == nil {
		directoryController = osDirectoryController{}
	}
	simulationOutput := dependencies.SimulationOutput
	if simulationOutput == nil {
		simulationOutput = os.Stdout
	}
	executionMode := ModeReal
	if options.DryRun {
		executionMode = ModeSimulate
	}

	return &Runner{
		logger:              runnerLogger,
		repositoryManager:   dependencies.RepositoryManager,
		gitExecutor:         dependencies.GitExecutor,
		repoFileLoader:      dependencies.RepoFileLoader,
		directoryController: directoryController,
		simulationOutput:    simulationOutput,
		options:             options,
		executionMode:       executionMode,
	}, nil
}

// TerminalStatus reports the status accumulated by non-fatal reconciliation failures.
func (runner *Runner) TerminalStatus() int {
	return runner.terminalStatus
}

type pipelineStage struct {
	stageName string
	execute   func(executionContext context.Context) error
}

// Run executes every pipeline stage in order, stopping at the first failure.
//
// A rebase or topbase that stops on conflicts is not a stage failure; the
// repository is intentionally left mid-rebase for manual resolution, the
// remaining stages are skipped, and the run reports ErrReconciliationIncomplete.
func (runner *Runner) Run(executionContext context.Context) error {
	pipelineStages := []pipelineStage{
		{stageName: stageNameVerifyDependenciesConstant, execute: runner.verifyDependencies},
		{stageName: stageNameSaveCurrentDirectoryConstant, execute: runner.saveCurrentDirectory},
		{stageName: stageNameDiscoverRepositoryConstant, execute: runner.discoverRepository},
		{stageName: stageNameChangeToRepositoryConstant, execute: runner.changeToRepositoryRoot},
		{stageName: stageNameSafeToProceedConstant, execute: runner.ensureSafeToProceed},
		{stageName: stageNameSaveCurrentRefConstant, execute: runner.saveCurrentReference},
		{stageName: stageNameBindRepoFileConstant, execute: runner.bindRepoFile},
		{stageName: stageNamePrepareOutputBranchConstant, execute: runner.prepareOutputBranch},
		{stageName: stageNamePopulateBranchConstant, execute: runner.populateBranchHistory},
		{stageName: stageNameFilterIncludeConstant, execute: runner.filterInclude},
		{stageName: stageNameFilterIncludeAsConstant, execute: runner.filterIncludeAs},
		{stageName: stageNameFilterExcludeConstant, execute: runner.filterExclude},
		{stageName: stageNameReconcileConstant, execute: runner.reconcile},
	}

	for _, currentStage := range pipelineStages {
		stageError := currentStage.execute(executionContext)
		if stageError == nil {
			continue
		}
		var unsafeWorktree UnsafeWorktreeError
		if errors.As(stageError, &unsafeWorktree) {
			return stageError
		}
		return fmt.Errorf(stageFailureTemplateConstant, currentStage.stageName, stageError)
	}

	if runner.terminalStatus != 0 {
		return ErrReconciliationIncomplete
	}
	return nil
}

func (runner *Runner) verifyDependencies(executionContext context.Context) error {
	_, gitProbeError := runner.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{gitVersionFlagConstant},
	})
	if gitProbeError != nil {
		return fmt.Errorf(missingDependencyTemplateConstant, gitDependencyNameConstant, gitProbeError)
	}

	_, filterProbeError := runner.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{filterEngineSubcommandConstant, gitVersionFlagConstant},
	})
	if filterProbeError != nil {
		return fmt.Errorf(missingDependencyTemplateConstant, filterRepoDependencyNameConstant, filterProbeError)
	}
	return nil
}

func (runner *Runner) saveCurrentDirectory(executionContext context.Context) error {
	currentDirectory, directoryError := runner.directoryController.CurrentDirectory()
	if directoryError != nil {
		return directoryError
	}
	runner.invocationDirectory = currentDirectory
	runner.logProgress(savedDirectoryLogMessageConstant, zap.String(invocationDirectoryFieldNameConstant, currentDirectory))
	return nil
}

func (runner *Runner) discoverRepository(executionContext context.Context) error {
	repositoryRoot, discoveryError := runner.repositoryManager.FindRepositoryRoot(executionContext, runner.invocationDirectory)
	if discoveryError != nil {
		return discoveryError
	}
	runner.repositoryRoot = repositoryRoot
	runner.logProgress(discoveredRepositoryLogMessageConstant, zap.String(repositoryRootFieldNameConstant, repositoryRoot))
	return nil
}

func (runner *Runner) changeToRepositoryRoot(executionContext context.Context) error {
	if runner.executionMode == ModeSimulate {
		runner.printSimulatedCommand(fmt.Sprintf(simulatedChangeDirectoryTemplateConstant, runner.repositoryRoot))
		return nil
	}
	return runner.directoryController.ChangeDirectory(runner.repositoryRoot)
}

func (runner *Runner) ensureSafeToProceed(executionContext context.Context) error {
	modifiedFiles, listError := runner.repositoryManager.ListModifiedFiles(executionContext, runner.repositoryRoot)
	if listError != nil {
		return listError
	}
	if len(modifiedFiles) > 0 {
		return UnsafeWorktreeError{}
	}
	runner.logProgress(cleanWorktreeLogMessageConstant)
	return nil
}

func (runner *Runner) saveCurrentReference(executionContext context.Context) error {
	symbolicReference, referenceError := runner.repositoryManager.CurrentSymbolicRef(executionContext, runner.repositoryRoot)
	if referenceError != nil {
		return referenceError
	}
	runner.originalReference = symbolicReference

	if runner.options.ShouldTopbase {
		topReference, resolveError := runner.repositoryManager.ResolveRevision(executionContext, runner.repositoryRoot, headRevisionExpressionConstant)
		if resolveError != nil {
			return resolveError
		}
		runner.topbaseTopReference = topReference
	}

	runner.logProgress(savedReferenceLogMessageConstant, zap.String(originalReferenceFieldNameConstant, symbolicReference))
	return nil
}

func (runner *Runner) bindRepoFile(executionContext context.Context) error {
	loadedRepoFile, loadError := runner.repoFileLoader(runner.options.RepoFilePath)
	if loadError != nil {
		return loadError
	}
	runner.repoFile = loadedRepoFile

	if runner.options.Direction == DirectionIn && len(loadedRepoFile.RemoteRepository) == 0 && len(runner.options.InputBranch) == 0 {
		return ErrRemoteRepositoryRequired
	}

	resolvedOutputBranch, resolveError := runner.resolveOutputBranch(loadedRepoFile)
	if resolveError != nil {
		return resolveError
	}
	runner.outputBranch = resolvedOutputBranch

	if loadedRepoFile.HasIncludeRules() {
		runner.includeArguments = IncludeArguments(loadedRepoFile.Include)
	}
	if loadedRepoFile.HasIncludeAsRules() {
		runner.includeAsArguments = IncludeAsArguments(loadedRepoFile.IncludeAs)
	}
	if loadedRepoFile.HasExcludeRules() {
		runner.excludeArguments = ExcludeArguments(loadedRepoFile.Exclude)
	}

	runner.logProgress(boundRepoFileLogMessageConstant,
		zap.String(outputBranchFieldNameConstant, resolvedOutputBranch),
		zap.String(remoteRepositoryFieldNameConstant, loadedRepoFile.RemoteRepository),
	)
	return nil
}

func (runner *Runner) prepareOutputBranch(executionContext context.Context) error {
	if runner.executionMode == ModeSimulate {
		runner.printSimulatedGitCommand(gitCheckoutArgumentsForBranch(runner.outputBranch))
		runner.printSimulatedGitCommand(gitClearWorktreeArguments())
		return nil
	}

	if creationError := runner.repositoryManager.CreateOrphanBranch(executionContext, runner.repositoryRoot, runner.outputBranch); creationError != nil {
		return creationError
	}
	if clearError := runner.repositoryManager.ClearIndexAndWorktree(executionContext, runner.repositoryRoot); clearError != nil {
		return clearError
	}
	runner.logProgress(preparedBranchLogMessageConstant, zap.String(outputBranchFieldNameConstant, runner.outputBranch))
	return nil
}

func (runner *Runner) populateBranchHistory(executionContext context.Context) error {
	if runner.options.Direction != DirectionIn {
		return nil
	}

	if len(runner.options.InputBranch) > 0 {
		if runner.executionMode == ModeSimulate {
			runner.printSimulatedGitCommand(gitMergeArgumentsForBranch(runner.options.InputBranch))
			return nil
		}
		if mergeError := runner.repositoryManager.MergeBranch(executionContext, runner.repositoryRoot, runner.options.InputBranch); mergeError != nil {
			return mergeError
		}
		runner.logProgress(mergedInputBranchLogMessageConstant)
		return nil
	}

	if runner.executionMode == ModeSimulate {
		runner.printSimulatedGitCommand(gitPullArguments(runner.repoFile.RemoteRepository, runner.repoFile.RemoteBranch))
		return nil
	}
	if pullError := runner.repositoryManager.Pull(executionContext, runner.repositoryRoot, runner.repoFile.RemoteRepository, runner.repoFile.RemoteBranch); pullError != nil {
		return pullError
	}
	runner.logProgress(populatedBranchLogMessageConstant, zap.String(remoteRepositoryFieldNameConstant, runner.repoFile.RemoteRepository))
	return nil
}

func (runner *Runner) filterInclude(executionContext context.Context) error {
	return runner.runFilterPass(executionContext, runner.includeArguments)
}

func (runner *Runner) filterIncludeAs(executionContext context.Context) error {
	return runner.runFilterPass(executionContext, runner.includeAsArguments)
}

func (runner *Runner) filterExclude(executionContext context.Context) error {
	return runner.runFilterPass(executionContext, runner.excludeArguments)
}

func (runner *Runner) runFilterPass(executionContext context.Context, rawArguments []string) error {
	if len(rawArguments) == 0 {
		return nil
	}

	filterInvocation := BuildFilterInvocation(rawArguments, runner.outputBranch)
	if runner.executionMode == ModeSimulate {
		runner.printSimulatedCommand(strings.Join(filterInvocation, commandLineSeparatorConstant))
		return nil
	}

	_, filterError := runner.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        filterInvocation[1:],
		WorkingDirectory: runner.repositoryRoot,
	})
	if filterError != nil {
		return filterError
	}
	runner.logProgress(rewroteHistoryLogMessageConstant, zap.String(outputBranchFieldNameConstant, runner.outputBranch))
	return nil
}

func (runner *Runner) reconcile(executionContext context.Context) error {
	if runner.options.ShouldTopbase {
		return runner.topbaseOntoOriginal(executionContext)
	}
	if runner.options.ShouldRebase {
		return runner.rebaseOntoOriginal(executionContext)
	}
	return nil
}

func (runner *Runner) rebaseOntoOriginal(executionContext context.Context) error {
	if len(runner.originalReference) == 0 {
		runner.logger.Warn(rebaseSkippedLogMessageConstant)
		return nil
	}

	upstreamReference := strings.TrimPrefix(runner.originalReference, branchReferencePrefixConstant)
	if runner.executionMode == ModeSimulate {
		runner.printSimulatedGitCommand(gitRebaseArguments(upstreamReference))
		return nil
	}

	rebaseError := runner.repositoryManager.Rebase(executionContext, runner.repositoryRoot, upstreamReference)
	if rebaseError != nil {
		runner.recordReconciliationFailure(rebaseError, upstreamReference)
		return nil
	}
	return nil
}

func (runner *Runner) topbaseOntoOriginal(executionContext context.Context) error {
	if len(runner.originalReference) == 0 || len(runner.topbaseTopReference) == 0 {
		runner.logger.Warn(topbaseSkippedLogMessageConstant)
		return nil
	}

	newBaseReference := strings.TrimPrefix(runner.originalReference, branchReferencePrefixConstant)
	if runner.executionMode == ModeSimulate {
		runner.printSimulatedGitCommand(gitRebaseOntoArguments(newBaseReference, runner.topbaseTopReference))
		return nil
	}

	topbaseError := runner.repositoryManager.RebaseOnto(executionContext, runner.repositoryRoot, newBaseReference, runner.topbaseTopReference)
	if topbaseError != nil {
		runner.recordReconciliationFailure(topbaseError, newBaseReference)
		return nil
	}
	return nil
}

// recordReconciliationFailure marks the run as ending with an unresolved
// rebase without aborting the pipeline.
func (runner *Runner) recordReconciliationFailure(reconciliationError error, upstreamReference string) {
	runner.terminalStatus = reconcileFailedTerminalStatusConstant
	runner.logger.Warn(rebaseFailedLogMessageConstant,
		zap.String(upstreamReferenceFieldNameConstant, upstreamReference),
		zap.String(failureDetailFieldNameConstant, reconciliationFailureDetail(reconciliationError, runner.options.Verbose)),
	)
}

// reconciliationFailureDetail surfaces the rebase's stderr, trimmed to its
// first line unless verbose output was requested.
func reconciliationFailureDetail(reconciliationError error, verbose bool) string {
	var commandFailure execshell.CommandFailedError
	if errors.As(reconciliationError, &commandFailure) {
		trimmedStandardError := strings.TrimSpace(commandFailure.Result.StandardError)
		if len(trimmedStandardError) > 0 {
			if verbose {
				return trimmedStandardError
			}
			firstLine, _, _ := strings.Cut(trimmedStandardError, lineBreakConstant)
			return firstLine
		}
	}
	return reconciliationError.Error()
}

func (runner *Runner) logProgress(progressMessage string, logFields ...zap.Field) {
	if runner.options.Verbose {
		runner.logger.Info(progressMessage, logFields...)
		return
	}
	runner.logger.Debug(progressMessage, logFields...)
}

func (runner *Runner) printSimulatedCommand(commandLine string) {
	fmt.Fprintln(runner.simulationOutput, commandLine)
}

func (runner *Runner) printSimulatedGitCommand(gitArguments []string) {
	commandWords := append([]string{simulatedGitCommandPrefixConstant}, gitArguments...)
	runner.printSimulatedCommand(strings.Join(commandWords, commandLineSeparatorConstant))
}

func (runner *Runner) resolveOutputBranch(loadedRepoFile repofile.RepoFile) (string, error) {
	if len(runner.options.OutputBranchOverride) > 0 {
		return runner.options.OutputBranchOverride, nil
	}
	if len(loadedRepoFile.Name) > 0 {
		return loadedRepoFile.Name, nil
	}
	if len(loadedRepoFile.RemoteRepository) > 0 {
		inferredName, inferenceError := inferBranchNameFromRemote(loadedRepoFile.RemoteRepository)
		if inferenceError != nil {
			return "", inferenceError
		}
		return inferredName, nil
	}
	return "", ErrOutputBranchUnresolved
}
