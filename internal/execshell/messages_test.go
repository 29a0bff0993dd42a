package execshell_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/monosplit/monosplit/internal/execshell"
)

func TestCommandMessageFormatterDescribesKnownSubcommands(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}

	testCases := []struct {
		name            string
		command         execshell.ShellCommand
		expectedStarted string
		expectedSuccess string
	}{
		{
			name: "modified_files",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"ls-files", "--modified"}, WorkingDirectory: "/repo"},
			},
			expectedStarted: "Reviewing working tree for modified files in /repo",
			expectedSuccess: "Collected modified file listing for /repo",
		},
		{
			name: "orphan_checkout",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"checkout", "--orphan", "library"}, WorkingDirectory: "/repo"},
			},
			expectedStarted: "Creating orphan branch library in /repo",
			expectedSuccess: "Created and checked out orphan branch library in /repo",
		},
		{
			name: "filter_repo",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"filter-repo", "--path", "lib/", "--refs", "library", "--force"}},
			},
			expectedStarted: "Rewriting history on library with git-filter-repo",
			expectedSuccess: "Rewrote history on library with git-filter-repo",
		},
		{
			name: "rebase_onto",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"rebase", "--onto", "master", "library-top"}},
			},
			expectedStarted: "Rebasing onto master",
			expectedSuccess: "Rebased onto master",
		},
		{
			name: "generic_fallback",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"--version"}},
			},
			expectedStarted: "Running git --version",
			expectedSuccess: "Completed git --version",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedStarted, formatter.BuildStartedMessage(testCase.command))
			require.Equal(testInstance, testCase.expectedSuccess, formatter.BuildSuccessMessage(testCase.command))
		})
	}
}

func TestCommandMessageFormatterIncludesStandardErrorDetail(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}
	command := execshell.ShellCommand{
		Name:    execshell.CommandGit,
		Details: execshell.CommandDetails{Arguments: []string{"merge", "feature"}},
	}
	failureMessage := formatter.BuildFailureMessage(command, execshell.ExecutionResult{ExitCode: 1, StandardError: "merge conflict"})
	require.Equal(testInstance, "Failed to merge branch feature (exit code 1: merge conflict)", failureMessage)
}
