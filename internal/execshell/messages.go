package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	workingDirectoryArgumentOffsetConstant  = 1
)

const (
	gitLSFilesSubcommandNameConstant     = "ls-files"
	gitSymbolicRefSubcommandNameConstant = "symbolic-ref"
	gitRevParseSubcommandNameConstant    = "rev-parse"
	gitCheckoutSubcommandNameConstant    = "checkout"
	gitRemoveSubcommandNameConstant      = "rm"
	gitPullSubcommandNameConstant        = "pull"
	gitMergeSubcommandNameConstant       = "merge"
	gitRebaseSubcommandNameConstant      = "rebase"
	gitFilterRepoSubcommandNameConstant  = "filter-repo"
	gitOrphanFlagConstant                = "--orphan"
	gitShowTopLevelFlagConstant          = "--show-toplevel"
	gitRebaseOntoFlagConstant            = "--onto"
	gitVersionFlagConstant               = "--version"
)

const (
	gitModifiedFilesStartTemplateConstant            = "Reviewing working tree for modified files in %s"
	gitModifiedFilesSuccessTemplateConstant          = "Collected modified file listing for %s"
	gitModifiedFilesFailureTemplateConstant          = "Failed to list modified files in %s (exit code %d%s)"
	gitModifiedFilesExecutionFailureTemplateConstant = "Unable to list modified files in %s: %s"
	gitSymbolicRefStartTemplateConstant              = "Reading the current ref in %s"
	gitSymbolicRefSuccessTemplateConstant            = "%s currently points to %s"
	gitSymbolicRefDetachedSuccessTemplateConstant    = "%s is in a detached HEAD state"
	gitSymbolicRefFailureTemplateConstant            = "Failed to read the current ref in %s (exit code %d%s)"
	gitSymbolicRefExecutionFailureTemplateConstant   = "Unable to read the current ref in %s: %s"
	gitTopLevelStartTemplateConstant                 = "Locating the repository root from %s"
	gitTopLevelSuccessTemplateConstant               = "Repository root resolved to %s"
	gitTopLevelFailureTemplateConstant               = "Failed to locate a repository from %s (exit code %d%s)"
	gitTopLevelExecutionFailureTemplateConstant      = "Unable to locate a repository from %s: %s"
	gitOrphanCheckoutStartTemplateConstant           = "Creating orphan branch %s in %s"
	gitOrphanCheckoutSuccessTemplateConstant         = "Created and checked out orphan branch %s in %s"
	gitOrphanCheckoutFailureTemplateConstant         = "Failed to create orphan branch %s in %s (exit code %d%s)"
	gitOrphanCheckoutExecutionFailureTemplate        = "Unable to create orphan branch %s in %s: %s"
	gitRemoveStartTemplateConstant                   = "Clearing the index and working tree in %s"
	gitRemoveSuccessTemplateConstant                 = "Cleared the index and working tree in %s"
	gitRemoveFailureTemplateConstant                 = "Failed to clear the index and working tree in %s (exit code %d%s)"
	gitRemoveExecutionFailureTemplateConstant        = "Unable to clear the index and working tree in %s: %s"
	gitPullStartTemplateConstant                     = "Pulling history from %s"
	gitPullSuccessTemplateConstant                   = "Pulled history from %s"
	gitPullFailureTemplateConstant                   = "Failed to pull history from %s (exit code %d%s)"
	gitPullExecutionFailureTemplateConstant          = "Unable to pull history from %s: %s"
	gitMergeStartTemplateConstant                    = "Merging branch %s"
	gitMergeSuccessTemplateConstant                  = "Merged branch %s"
	gitMergeFailureTemplateConstant                  = "Failed to merge branch %s (exit code %d%s)"
	gitMergeExecutionFailureTemplateConstant         = "Unable to merge branch %s: %s"
	gitRebaseStartTemplateConstant                   = "Rebasing onto %s"
	gitRebaseSuccessTemplateConstant                 = "Rebased onto %s"
	gitRebaseFailureTemplateConstant                 = "Failed to rebase onto %s (exit code %d%s)"
	gitRebaseExecutionFailureTemplateConstant        = "Unable to rebase onto %s: %s"
	gitFilterStartTemplateConstant                   = "Rewriting history on %s with git-filter-repo"
	gitFilterSuccessTemplateConstant                 = "Rewrote history on %s with git-filter-repo"
	gitFilterFailureTemplateConstant                 = "History rewrite on %s failed (exit code %d%s)"
	gitFilterExecutionFailureTemplateConstant        = "Unable to rewrite history on %s: %s"
	gitFilterRefsFlagConstant                        = "--refs"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommand {
	case gitLSFilesSubcommandNameConstant:
		return formatter.buildStageMessage(stage, result, failure,
			gitModifiedFilesStartTemplateConstant,
			gitModifiedFilesSuccessTemplateConstant,
			gitModifiedFilesFailureTemplateConstant,
			gitModifiedFilesExecutionFailureTemplateConstant,
			formatter.describeWorkingDirectory(command))
	case gitSymbolicRefSubcommandNameConstant:
		return formatter.describeGitSymbolicRefMessage(command, result, failure, stage)
	case gitRevParseSubcommandNameConstant:
		if containsArgument(command.Details.Arguments, gitShowTopLevelFlagConstant) {
			return formatter.describeGitTopLevelMessage(command, result, failure, stage)
		}
		return formatter.buildGenericMessage(command, result, failure, stage)
	case gitCheckoutSubcommandNameConstant:
		if containsArgument(command.Details.Arguments, gitOrphanFlagConstant) {
			return formatter.describeGitOrphanCheckoutMessage(command, result, failure, stage)
		}
		return formatter.buildGenericMessage(command, result, failure, stage)
	case gitRemoveSubcommandNameConstant:
		return formatter.buildStageMessage(stage, result, failure,
			gitRemoveStartTemplateConstant,
			gitRemoveSuccessTemplateConstant,
			gitRemoveFailureTemplateConstant,
			gitRemoveExecutionFailureTemplateConstant,
			formatter.describeWorkingDirectory(command))
	case gitPullSubcommandNameConstant:
		return formatter.buildStageMessage(stage, result, failure,
			gitPullStartTemplateConstant,
			gitPullSuccessTemplateConstant,
			gitPullFailureTemplateConstant,
			gitPullExecutionFailureTemplateConstant,
			formatter.ensureValue(formatter.argumentAtIndex(command.Details.Arguments, 1)))
	case gitMergeSubcommandNameConstant:
		return formatter.buildStageMessage(stage, result, failure,
			gitMergeStartTemplateConstant,
			gitMergeSuccessTemplateConstant,
			gitMergeFailureTemplateConstant,
			gitMergeExecutionFailureTemplateConstant,
			formatter.ensureValue(formatter.argumentAtIndex(command.Details.Arguments, 1)))
	case gitRebaseSubcommandNameConstant:
		return formatter.buildStageMessage(stage, result, failure,
			gitRebaseStartTemplateConstant,
			gitRebaseSuccessTemplateConstant,
			gitRebaseFailureTemplateConstant,
			gitRebaseExecutionFailureTemplateConstant,
			formatter.describeRebaseTarget(command.Details.Arguments))
	case gitFilterRepoSubcommandNameConstant:
		return formatter.buildStageMessage(stage, result, failure,
			gitFilterStartTemplateConstant,
			gitFilterSuccessTemplateConstant,
			gitFilterFailureTemplateConstant,
			gitFilterExecutionFailureTemplateConstant,
			formatter.describeFilterTargetBranch(command.Details.Arguments))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitSymbolicRefMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitSymbolicRefStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		trimmedReference := strings.TrimSpace(result.StandardOutput)
		if len(trimmedReference) == 0 {
			return fmt.Sprintf(gitSymbolicRefDetachedSuccessTemplateConstant, workingDirectory)
		}
		return fmt.Sprintf(gitSymbolicRefSuccessTemplateConstant, workingDirectory, trimmedReference)
	case messageStageFailure:
		return fmt.Sprintf(gitSymbolicRefFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitSymbolicRefExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitTopLevelMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitTopLevelStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitTopLevelSuccessTemplateConstant, formatter.ensureValue(strings.TrimSpace(result.StandardOutput)))
	case messageStageFailure:
		return fmt.Sprintf(gitTopLevelFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitTopLevelExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitOrphanCheckoutMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	branchName := formatter.ensureValue(formatter.argumentAfterFlag(command.Details.Arguments, gitOrphanFlagConstant))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitOrphanCheckoutStartTemplateConstant, branchName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitOrphanCheckoutSuccessTemplateConstant, branchName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitOrphanCheckoutFailureTemplateConstant, branchName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitOrphanCheckoutExecutionFailureTemplate, branchName, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildStageMessage(stage messageStage, result ExecutionResult, failure error, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string, subject string) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, subject)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, subject)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, subject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(executionFailureTemplate, subject, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := command.String()
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeRebaseTarget(arguments []string) string {
	ontoTarget := formatter.argumentAfterFlag(arguments, gitRebaseOntoFlagConstant)
	if len(ontoTarget) > 0 {
		return ontoTarget
	}
	return formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
}

func (formatter CommandMessageFormatter) describeFilterTargetBranch(arguments []string) string {
	return formatter.ensureValue(formatter.argumentAfterFlag(arguments, gitFilterRefsFlagConstant))
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, argumentIndex int) string {
	if argumentIndex < 0 || argumentIndex >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[argumentIndex])
}

func (formatter CommandMessageFormatter) argumentAfterFlag(arguments []string, flagName string) string {
	for argumentIndex, argumentValue := range arguments {
		if strings.TrimSpace(argumentValue) == flagName {
			return formatter.argumentAtIndex(arguments, argumentIndex+workingDirectoryArgumentOffsetConstant)
		}
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return strings.TrimSpace(value)
}

func containsArgument(arguments []string, expectedArgument string) bool {
	for _, argumentValue := range arguments {
		if strings.TrimSpace(argumentValue) == expectedArgument {
			return true
		}
	}
	return false
}
