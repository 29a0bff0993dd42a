package split

import "strings"

const (
	dryRunConfigurationKeySuffixConstant       = ".dry_run"
	verboseConfigurationKeySuffixConstant      = ".verbose"
	rebaseConfigurationKeySuffixConstant       = ".rebase"
	topbaseConfigurationKeySuffixConstant      = ".topbase"
	outputBranchConfigurationKeySuffixConstant = ".output_branch"
)

// CommandConfiguration captures configuration values shared by the split commands.
type CommandConfiguration struct {
	DryRun             bool   `mapstructure:"dry_run"`
	Verbose            bool   `mapstructure:"verbose"`
	Rebase             bool   `mapstructure:"rebase"`
	Topbase            bool   `mapstructure:"topbase"`
	OutputBranch       string `mapstructure:"output_branch"`
	EnableDebugLogging bool   `mapstructure:"log_debug"`
}

// DefaultCommandConfiguration provides baseline configuration values for the split commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		DryRun:             false,
		Verbose:            false,
		Rebase:             false,
		Topbase:            false,
		OutputBranch:       "",
		EnableDebugLogging: false,
	}
}

// DefaultConfigurationValues exposes default configuration values keyed under the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKeyPrefix + dryRunConfigurationKeySuffixConstant:       defaults.DryRun,
		configurationKeyPrefix + verboseConfigurationKeySuffixConstant:      defaults.Verbose,
		configurationKeyPrefix + rebaseConfigurationKeySuffixConstant:       defaults.Rebase,
		configurationKeyPrefix + topbaseConfigurationKeySuffixConstant:      defaults.Topbase,
		configurationKeyPrefix + outputBranchConfigurationKeySuffixConstant: defaults.OutputBranch,
	}
}

// Sanitize trims configuration values without applying implicit defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.OutputBranch = strings.TrimSpace(configuration.OutputBranch)
	return sanitized
}
