package split_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/monosplit/monosplit/internal/execshell"
	"github.com/monosplit/monosplit/internal/repofile"
	"github.com/monosplit/monosplit/internal/split"
)

const (
	testRepositoryRootConstant = "/work/monorepo"
	testInvocationPathConstant = "/work/monorepo/tools"
	testOriginalRefConstant    = "refs/heads/main"
	testHeadCommitConstant     = "0a1b2c3d4e5f"
	testOutputBranchConstant   = "library"
	testRemoteLocatorConstant  = "https://website.com/reponame.git"
	testRepoFilePathConstant   = "library.yaml"
)

type fakeRepositoryOperations struct {
	repositoryRoot  string
	symbolicRef     string
	headRevision    string
	modifiedFiles   []string
	rebaseError     error
	rebaseOntoError error
	recordedCalls   []string
}

func (operations *fakeRepositoryOperations) FindRepositoryRoot(_ context.Context, startingDirectory string) (string, error) {
	operations.recordedCalls = append(operations.recordedCalls, "find-root:"+startingDirectory)
	return operations.repositoryRoot, nil
}

func (operations *fakeRepositoryOperations) CurrentSymbolicRef(_ context.Context, _ string) (string, error) {
	operations.recordedCalls = append(operations.recordedCalls, "symbolic-ref")
	return operations.symbolicRef, nil
}

func (operations *fakeRepositoryOperations) ResolveRevision(_ context.Context, _ string, revisionExpression string) (string, error) {
	operations.recordedCalls = append(operations.recordedCalls, "resolve:"+revisionExpression)
	return operations.headRevision, nil
}

func (operations *fakeRepositoryOperations) ListModifiedFiles(_ context.Context, _ string) ([]string, error) {
	operations.recordedCalls = append(operations.recordedCalls, "list-modified")
	return operations.modifiedFiles, nil
}

func (operations *fakeRepositoryOperations) CreateOrphanBranch(_ context.Context, _ string, branchName string) error {
	operations.recordedCalls = append(operations.recordedCalls, "orphan:"+branchName)
	return nil
}

func (operations *fakeRepositoryOperations) ClearIndexAndWorktree(_ context.Context, _ string) error {
	operations.recordedCalls = append(operations.recordedCalls, "clear-worktree")
	return nil
}

func (operations *fakeRepositoryOperations) MergeBranch(_ context.Context, _ string, branchName string) error {
	operations.recordedCalls = append(operations.recordedCalls, "merge:"+branchName)
	return nil
}

func (operations *fakeRepositoryOperations) Pull(_ context.Context, _ string, remoteLocator string, remoteBranch string) error {
	operations.recordedCalls = append(operations.recordedCalls, fmt.Sprintf("pull:%s:%s", remoteLocator, remoteBranch))
	return nil
}

func (operations *fakeRepositoryOperations) Rebase(_ context.Context, _ string, upstreamReference string) error {
	operations.recordedCalls = append(operations.recordedCalls, "rebase:"+upstreamReference)
	return operations.rebaseError
}

func (operations *fakeRepositoryOperations) RebaseOnto(_ context.Context, _ string, newBase string, upstreamReference string) error {
	operations.recordedCalls = append(operations.recordedCalls, fmt.Sprintf("rebase-onto:%s:%s", newBase, upstreamReference))
	return operations.rebaseOntoError
}

type fakeGitExecutor struct {
	recordedArguments [][]string
}

func (executor *fakeGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	duplicatedArguments := append([]string(nil), details.Arguments...)
	executor.recordedArguments = append(executor.recordedArguments, duplicatedArguments)
	return execshell.ExecutionResult{}, nil
}

type fakeDirectoryController struct {
	currentDirectory string
	changedTo        []string
}

func (controller *fakeDirectoryController) CurrentDirectory() (string, error) {
	return controller.currentDirectory, nil
}

func (controller *fakeDirectoryController) ChangeDirectory(directoryPath string) error {
	controller.changedTo = append(controller.changedTo, directoryPath)
	return nil
}

func staticRepoFileLoader(loadedRepoFile repofile.RepoFile) split.RepoFileLoader {
	return func(string) (repofile.RepoFile, error) {
		return loadedRepoFile, nil
	}
}

func newTestDependencies(operations *fakeRepositoryOperations, executor *fakeGitExecutor, loadedRepoFile repofile.RepoFile, simulationOutput *bytes.Buffer) (split.RunnerDependencies, *fakeDirectoryController) {
	directoryController := &fakeDirectoryController{currentDirectory: testInvocationPathConstant}
	dependencies := split.RunnerDependencies{
		RepositoryManager:   operations,
		GitExecutor:         executor,
		RepoFileLoader:      staticRepoFileLoader(loadedRepoFile),
		DirectoryController: directoryController,
		SimulationOutput:    simulationOutput,
	}
	return dependencies, directoryController
}

func TestNewRunnerValidatesDependencies(testInstance *testing.T) {
	operations := &fakeRepositoryOperations{}
	executor := &fakeGitExecutor{}
	loader := staticRepoFileLoader(repofile.RepoFile{})

	testCases := []struct {
		name          string
		dependencies  split.RunnerDependencies
		expectedError error
	}{
		{
			name:          "missing_repository_manager",
			dependencies:  split.RunnerDependencies{GitExecutor: executor, RepoFileLoader: loader},
			expectedError: split.ErrRepositoryManagerMissing,
		},
		{
			name:          "missing_git_executor",
			dependencies:  split.RunnerDependencies{RepositoryManager: operations, RepoFileLoader: loader},
			expectedError: split.ErrGitExecutorMissing,
		},
		{
			name:          "missing_repo_file_loader",
			dependencies:  split.RunnerDependencies{RepositoryManager: operations, GitExecutor: executor},
			expectedError: split.ErrRepoFileLoaderMissing,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, constructionError := split.NewRunner(testCase.dependencies, split.RunnerOptions{})
			require.ErrorIs(testInstance, constructionError, testCase.expectedError)
		})
	}
}

func TestRunnerSplitOutRealExecution(testInstance *testing.T) {
	operations := &fakeRepositoryOperations{
		repositoryRoot: testRepositoryRootConstant,
		symbolicRef:    testOriginalRefConstant,
	}
	executor := &fakeGitExecutor{}
	loadedRepoFile := repofile.RepoFile{Name: testOutputBranchConstant, Include: []string{"lib/"}}
	dependencies, directoryController := newTestDependencies(operations, executor, loadedRepoFile, &bytes.Buffer{})

	runner, constructionError := split.NewRunner(dependencies, split.RunnerOptions{
		Direction:    split.DirectionOut,
		RepoFilePath: testRepoFilePathConstant,
		ShouldRebase: true,
	})
	require.NoError(testInstance, constructionError)
	require.NoError(testInstance, runner.Run(context.Background()))

	require.Equal(testInstance, []string{
		"find-root:" + testInvocationPathConstant,
		"list-modified",
		"symbolic-ref",
		"orphan:" + testOutputBranchConstant,
		"clear-worktree",
		"rebase:main",
	}, operations.recordedCalls)
	require.Equal(testInstance, []string{testRepositoryRootConstant}, directoryController.changedTo)

	require.Len(testInstance, executor.recordedArguments, 3)
	require.Equal(testInstance, []string{"--version"}, executor.recordedArguments[0])
	require.Equal(testInstance, []string{"filter-repo", "--version"}, executor.recordedArguments[1])
	require.Equal(testInstance,
		[]string{"filter-repo", "--path", "lib/", "--refs", testOutputBranchConstant, "--force"},
		executor.recordedArguments[2])
	require.Zero(testInstance, runner.TerminalStatus())
}

func TestRunnerRejectsDirtyWorktree(testInstance *testing.T) {
	operations := &fakeRepositoryOperations{
		repositoryRoot: testRepositoryRootConstant,
		modifiedFiles:  []string{"lib/api.go"},
	}
	executor := &fakeGitExecutor{}
	dependencies, _ := newTestDependencies(operations, executor, repofile.RepoFile{Name: testOutputBranchConstant}, &bytes.Buffer{})

	runner, constructionError := split.NewRunner(dependencies, split.RunnerOptions{Direction: split.DirectionOut, RepoFilePath: testRepoFilePathConstant})
	require.NoError(testInstance, constructionError)

	runError := runner.Run(context.Background())
	require.Error(testInstance, runError)
	var unsafeWorktree split.UnsafeWorktreeError
	require.ErrorAs(testInstance, runError, &unsafeWorktree)

	for _, recordedCall := range operations.recordedCalls {
		require.NotContains(testInstance, recordedCall, "orphan")
		require.NotContains(testInstance, recordedCall, "clear-worktree")
	}
}

func TestRunnerDryRunPrintsEquivalentCommands(testInstance *testing.T) {
	operations := &fakeRepositoryOperations{
		repositoryRoot: testRepositoryRootConstant,
		symbolicRef:    testOriginalRefConstant,
	}
	executor := &fakeGitExecutor{}
	simulationOutput := &bytes.Buffer{}
	loadedRepoFile := repofile.RepoFile{Name: testOutputBranchConstant, Include: []string{"lib/"}, Exclude: []string{"lib/secret/"}}
	dependencies, directoryController := newTestDependencies(operations, executor, loadedRepoFile, simulationOutput)

	runner, constructionError := split.NewRunner(dependencies, split.RunnerOptions{
		Direction:    split.DirectionOut,
		RepoFilePath: testRepoFilePathConstant,
		DryRun:       true,
		ShouldRebase: true,
	})
	require.NoError(testInstance, constructionError)
	require.NoError(testInstance, runner.Run(context.Background()))

	printedLines := strings.Split(strings.TrimSpace(simulationOutput.String()), "\n")
	require.Equal(testInstance, []string{
		"cd " + testRepositoryRootConstant,
		"git checkout --orphan " + testOutputBranchConstant,
		"git rm -rf .",
		"git filter-repo --path lib/ --refs " + testOutputBranchConstant + " --force",
		"git filter-repo --invert-paths --path lib/secret/ --refs " + testOutputBranchConstant + " --force",
		"git rebase main",
	}, printedLines)

	require.Empty(testInstance, directoryController.changedTo)
	require.Equal(testInstance, []string{
		"find-root:" + testInvocationPathConstant,
		"list-modified",
		"symbolic-ref",
	}, operations.recordedCalls)
}

func TestRunnerSplitInPopulatesHistory(testInstance *testing.T) {
	testCases := []struct {
		name         string
		repoFile     repofile.RepoFile
		inputBranch  string
		expectedCall string
	}{
		{
			name:         "pull_from_remote",
			repoFile:     repofile.RepoFile{Name: testOutputBranchConstant, RemoteRepository: testRemoteLocatorConstant, RemoteBranch: "develop", IncludeAs: []string{"", "lib/"}},
			expectedCall: "pull:" + testRemoteLocatorConstant + ":develop",
		},
		{
			name:         "merge_local_input_branch",
			repoFile:     repofile.RepoFile{Name: testOutputBranchConstant, IncludeAs: []string{"", "lib/"}},
			inputBranch:  "imported-history",
			expectedCall: "merge:imported-history",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			operations := &fakeRepositoryOperations{
				repositoryRoot: testRepositoryRootConstant,
				symbolicRef:    testOriginalRefConstant,
			}
			executor := &fakeGitExecutor{}
			dependencies, _ := newTestDependencies(operations, executor, testCase.repoFile, &bytes.Buffer{})

			runner, constructionError := split.NewRunner(dependencies, split.RunnerOptions{
				Direction:    split.DirectionIn,
				RepoFilePath: testRepoFilePathConstant,
				InputBranch:  testCase.inputBranch,
			})
			require.NoError(testInstance, constructionError)
			require.NoError(testInstance, runner.Run(context.Background()))
			require.Contains(testInstance, operations.recordedCalls, testCase.expectedCall)
		})
	}
}

func TestRunnerSplitInRequiresRemoteOrInputBranch(testInstance *testing.T) {
	operations := &fakeRepositoryOperations{
		repositoryRoot: testRepositoryRootConstant,
		symbolicRef:    testOriginalRefConstant,
	}
	executor := &fakeGitExecutor{}
	dependencies, _ := newTestDependencies(operations, executor, repofile.RepoFile{Name: testOutputBranchConstant}, &bytes.Buffer{})

	runner, constructionError := split.NewRunner(dependencies, split.RunnerOptions{Direction: split.DirectionIn, RepoFilePath: testRepoFilePathConstant})
	require.NoError(testInstance, constructionError)
	require.ErrorIs(testInstance, runner.Run(context.Background()), split.ErrRemoteRepositoryRequired)
}

func TestRunnerOutputBranchResolution(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		repoFile             repofile.RepoFile
		outputBranchOverride string
		expectedBranch       string
		expectedError        error
	}{
		{
			name:                 "flag_override_wins",
			repoFile:             repofile.RepoFile{Name: "from-file", RemoteRepository: testRemoteLocatorConstant},
			outputBranchOverride: "from-flag",
			expectedBranch:       "from-flag",
		},
		{
			name:           "repo_file_name_beats_remote",
			repoFile:       repofile.RepoFile{Name: "from-file", RemoteRepository: testRemoteLocatorConstant},
			expectedBranch: "from-file",
		},
		{
			name:           "remote_name_inferred",
			repoFile:       repofile.RepoFile{RemoteRepository: testRemoteLocatorConstant},
			expectedBranch: "reponame",
		},
		{
			name:          "nothing_to_resolve",
			repoFile:      repofile.RepoFile{},
			expectedError: split.ErrOutputBranchUnresolved,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			operations := &fakeRepositoryOperations{
				repositoryRoot: testRepositoryRootConstant,
				symbolicRef:    testOriginalRefConstant,
			}
			executor := &fakeGitExecutor{}
			dependencies, _ := newTestDependencies(operations, executor, testCase.repoFile, &bytes.Buffer{})

			runner, constructionError := split.NewRunner(dependencies, split.RunnerOptions{
				Direction:            split.DirectionOut,
				RepoFilePath:         testRepoFilePathConstant,
				OutputBranchOverride: testCase.outputBranchOverride,
			})
			require.NoError(testInstance, constructionError)

			runError := runner.Run(context.Background())
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, runError, testCase.expectedError)
				return
			}
			require.NoError(testInstance, runError)
			require.Contains(testInstance, operations.recordedCalls, "orphan:"+testCase.expectedBranch)
		})
	}
}

func TestRunnerRebaseConflictReportsWithoutAborting(testInstance *testing.T) {
	rebaseFailure := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"rebase", "main"}}},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: "could not apply 0a1b2c3"},
	}
	operations := &fakeRepositoryOperations{
		repositoryRoot: testRepositoryRootConstant,
		symbolicRef:    testOriginalRefConstant,
		rebaseError:    rebaseFailure,
	}
	executor := &fakeGitExecutor{}
	dependencies, _ := newTestDependencies(operations, executor, repofile.RepoFile{Name: testOutputBranchConstant, Include: []string{"lib/"}}, &bytes.Buffer{})

	runner, constructionError := split.NewRunner(dependencies, split.RunnerOptions{
		Direction:    split.DirectionOut,
		RepoFilePath: testRepoFilePathConstant,
		ShouldRebase: true,
	})
	require.NoError(testInstance, constructionError)

	runError := runner.Run(context.Background())
	require.ErrorIs(testInstance, runError, split.ErrReconciliationIncomplete)
	require.Equal(testInstance, 1, runner.TerminalStatus())
	require.Contains(testInstance, operations.recordedCalls, "rebase:main")
}

func TestRunnerTopbaseReplaysOntoOriginalBranch(testInstance *testing.T) {
	operations := &fakeRepositoryOperations{
		repositoryRoot: testRepositoryRootConstant,
		symbolicRef:    testOriginalRefConstant,
		headRevision:   testHeadCommitConstant,
	}
	executor := &fakeGitExecutor{}
	dependencies, _ := newTestDependencies(operations, executor, repofile.RepoFile{Name: testOutputBranchConstant, Include: []string{"lib/"}}, &bytes.Buffer{})

	runner, constructionError := split.NewRunner(dependencies, split.RunnerOptions{
		Direction:     split.DirectionOut,
		RepoFilePath:  testRepoFilePathConstant,
		ShouldRebase:  true,
		ShouldTopbase: true,
	})
	require.NoError(testInstance, constructionError)
	require.NoError(testInstance, runner.Run(context.Background()))

	require.Contains(testInstance, operations.recordedCalls, "resolve:HEAD")
	require.Contains(testInstance, operations.recordedCalls, fmt.Sprintf("rebase-onto:main:%s", testHeadCommitConstant))
	require.NotContains(testInstance, operations.recordedCalls, "rebase:main")
}

func TestRunnerDetachedHeadSkipsRebase(testInstance *testing.T) {
	operations := &fakeRepositoryOperations{
		repositoryRoot: testRepositoryRootConstant,
		symbolicRef:    "",
	}
	executor := &fakeGitExecutor{}
	dependencies, _ := newTestDependencies(operations, executor, repofile.RepoFile{Name: testOutputBranchConstant, Include: []string{"lib/"}}, &bytes.Buffer{})

	runner, constructionError := split.NewRunner(dependencies, split.RunnerOptions{
		Direction:    split.DirectionOut,
		RepoFilePath: testRepoFilePathConstant,
		ShouldRebase: true,
	})
	require.NoError(testInstance, constructionError)
	require.NoError(testInstance, runner.Run(context.Background()))

	for _, recordedCall := range operations.recordedCalls {
		require.NotContains(testInstance, recordedCall, "rebase")
	}
	require.Zero(testInstance, runner.TerminalStatus())
}
