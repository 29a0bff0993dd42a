package split

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/monosplit/monosplit/internal/execshell"
	"github.com/monosplit/monosplit/internal/gitrepo"
	"github.com/monosplit/monosplit/internal/repofile"
	"github.com/monosplit/monosplit/internal/ui"
	"github.com/monosplit/monosplit/internal/utils"
)

const (
	splitOutCommandUseConstant                = "split-out <repo-file>"
	splitOutCommandShortDescriptionConstant   = "Extract a subtree of the repository history into a standalone branch"
	splitOutCommandLongDescriptionConstant    = "split-out creates an orphan branch and rewrites the repository history onto it, keeping only the paths selected by the repo file."
	splitInCommandUseConstant                 = "split-in <repo-file>"
	splitInCommandShortDescriptionConstant    = "Inject external repository history into a subdirectory"
	splitInCommandLongDescriptionConstant     = "split-in creates an orphan branch, pulls external history into it, and rewrites that history under the subdirectory selected by the repo file."
	commandExecutionErrorTemplateConstant     = "split failed: %w"
	repositoryManagerCreationTemplateConstant = "unable to construct repository manager: %w"
	flagDryRunNameConstant                    = "dry-run"
	flagDryRunDescriptionConstant             = "Print the equivalent shell commands instead of running them"
	flagVerboseNameConstant                   = "verbose"
	flagVerboseDescriptionConstant            = "Log each pipeline stage as it completes"
	flagRebaseNameConstant                    = "rebase"
	flagRebaseDescriptionConstant             = "Rebase the new branch onto the original branch after filtering"
	flagTopbaseNameConstant                   = "topbase"
	flagTopbaseDescriptionConstant            = "Replay only the novel commits of the new branch onto the original branch"
	flagOutputBranchNameConstant              = "output-branch"
	flagOutputBranchDescriptionConstant       = "Name of the branch the rewritten history lands on"
	flagInputBranchNameConstant               = "input-branch"
	flagInputBranchDescriptionConstant        = "Local branch to merge instead of pulling from the remote"
	repoFileArgumentCountConstant             = 1
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles a split-in or split-out Cobra command.
type CommandBuilder struct {
	Direction                    SplitDirection
	LoggerProvider               LoggerProvider
	GitExecutor                  GitCommandExecutor
	RepositoryManager            RepositoryOperations
	RepoFileLoader               RepoFileLoader
	DirectoryController          DirectoryController
	SimulationOutput             io.Writer
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the Cobra command for the builder's direction.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	commandUse := splitOutCommandUseConstant
	commandShort := splitOutCommandShortDescriptionConstant
	commandLong := splitOutCommandLongDescriptionConstant
	if builder.Direction == DirectionIn {
		commandUse = splitInCommandUseConstant
		commandShort = splitInCommandShortDescriptionConstant
		commandLong = splitInCommandLongDescriptionConstant
	}

	command := &cobra.Command{
		Use:           commandUse,
		Short:         commandShort,
		Long:          commandLong,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(repoFileArgumentCountConstant),
		RunE:          builder.run,
	}

	command.Flags().Bool(flagDryRunNameConstant, false, flagDryRunDescriptionConstant)
	command.Flags().Bool(flagVerboseNameConstant, false, flagVerboseDescriptionConstant)
	command.Flags().Bool(flagRebaseNameConstant, false, flagRebaseDescriptionConstant)
	command.Flags().Bool(flagTopbaseNameConstant, false, flagTopbaseDescriptionConstant)
	command.Flags().String(flagOutputBranchNameConstant, "", flagOutputBranchDescriptionConstant)
	if builder.Direction == DirectionIn {
		command.Flags().String(flagInputBranchNameConstant, "", flagInputBranchDescriptionConstant)
	}

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command, arguments)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger(builder.resolveConfiguration().EnableDebugLogging || builder.debugRequested(command))

	gitExecutor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}

	repositoryManager, managerError := builder.resolveRepositoryManager(gitExecutor)
	if managerError != nil {
		return fmt.Errorf(repositoryManagerCreationTemplateConstant, managerError)
	}

	runner, runnerError := NewRunner(RunnerDependencies{
		Logger:              logger,
		RepositoryManager:   repositoryManager,
		GitExecutor:         gitExecutor,
		RepoFileLoader:      builder.resolveRepoFileLoader(),
		DirectoryController: builder.DirectoryController,
		SimulationOutput:    builder.SimulationOutput,
	}, options)
	if runnerError != nil {
		return runnerError
	}

	runError := runner.Run(command.Context())
	if runError != nil {
		var unsafeWorktree UnsafeWorktreeError
		if errors.As(runError, &unsafeWorktree) {
			return runError
		}
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) (RunnerOptions, error) {
	configuration := builder.resolveConfiguration()

	options := RunnerOptions{
		Direction:            builder.Direction,
		RepoFilePath:         strings.TrimSpace(arguments[0]),
		DryRun:               configuration.DryRun,
		Verbose:              configuration.Verbose,
		ShouldRebase:         configuration.Rebase,
		ShouldTopbase:        configuration.Topbase,
		OutputBranchOverride: configuration.OutputBranch,
	}

	commandFlags := command.Flags()
	if commandFlags.Changed(flagDryRunNameConstant) {
		options.DryRun, _ = commandFlags.GetBool(flagDryRunNameConstant)
	}
	if commandFlags.Changed(flagVerboseNameConstant) {
		options.Verbose, _ = commandFlags.GetBool(flagVerboseNameConstant)
	}
	if commandFlags.Changed(flagRebaseNameConstant) {
		options.ShouldRebase, _ = commandFlags.GetBool(flagRebaseNameConstant)
	}
	if commandFlags.Changed(flagTopbaseNameConstant) {
		options.ShouldTopbase, _ = commandFlags.GetBool(flagTopbaseNameConstant)
	}
	if commandFlags.Changed(flagOutputBranchNameConstant) {
		outputBranchValue, _ := commandFlags.GetString(flagOutputBranchNameConstant)
		options.OutputBranchOverride = strings.TrimSpace(outputBranchValue)
	}
	if builder.Direction == DirectionIn && commandFlags.Changed(flagInputBranchNameConstant) {
		inputBranchValue, _ := commandFlags.GetString(flagInputBranchNameConstant)
		options.InputBranch = strings.TrimSpace(inputBranchValue)
	}

	return options, nil
}

func (builder *CommandBuilder) debugRequested(command *cobra.Command) bool {
	if command == nil {
		return false
	}
	contextAccessor := utils.NewCommandContextAccessor()
	logLevel, available := contextAccessor.LogLevel(command.Context())
	return available && strings.EqualFold(logLevel, string(utils.LogLevelDebug))
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (GitCommandExecutor, error) {
	if builder.GitExecutor != nil {
		return builder.GitExecutor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	if humanReadableLogging {
		shellExecutor.RegisterEventObserver(ui.NewConsoleCommandEventLogger(logger))
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveRepositoryManager(gitExecutor GitCommandExecutor) (RepositoryOperations, error) {
	if builder.RepositoryManager != nil {
		return builder.RepositoryManager, nil
	}
	return gitrepo.NewRepositoryManager(gitExecutor)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveRepoFileLoader() RepoFileLoader {
	if builder.RepoFileLoader != nil {
		return builder.RepoFileLoader
	}
	return repofile.Load
}
