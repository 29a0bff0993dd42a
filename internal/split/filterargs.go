package split

const (
	filterEngineProgramNameConstant       = "git"
	filterEngineSubcommandConstant        = "filter-repo"
	filterRefsFlagConstant                = "--refs"
	filterForceFlagConstant               = "--force"
	filterPathFlagConstant                = "--path"
	filterPathRenameFlagConstant          = "--path-rename"
	filterInvertPathsFlagConstant         = "--invert-paths"
	filterPathRenameSeparatorConstant     = ":"
	filterInvocationTrailerLengthConstant = 5
)

// BuildFilterInvocation assembles the full git-filter-repo invocation: the
// engine name, the raw filter arguments verbatim and in the given order, and
// the fixed trailer restricting the rewrite to the output branch and forcing
// re-execution over any prior run's metadata.
//
// Callers are responsible for pairing path and rename arguments correctly; no
// reordering or deduplication happens here.
func BuildFilterInvocation(rawArguments []string, outputBranch string) []string {
	filterInvocation := make([]string, 0, len(rawArguments)+filterInvocationTrailerLengthConstant)
	filterInvocation = append(filterInvocation, filterEngineProgramNameConstant, filterEngineSubcommandConstant)
	filterInvocation = append(filterInvocation, rawArguments...)
	filterInvocation = append(filterInvocation, filterRefsFlagConstant, outputBranch, filterForceFlagConstant)
	return filterInvocation
}

// IncludeArguments converts include rules into repeated --path arguments.
func IncludeArguments(includeRules []string) []string {
	includeArguments := make([]string, 0, len(includeRules)*2)
	for _, includePath := range includeRules {
		includeArguments = append(includeArguments, filterPathFlagConstant, includePath)
	}
	return includeArguments
}

// IncludeAsArguments converts consecutive source/destination pairs into
// --path-rename arguments.
func IncludeAsArguments(includeAsRules []string) []string {
	includeAsArguments := make([]string, 0, len(includeAsRules))
	for ruleIndex := 0; ruleIndex+1 < len(includeAsRules); ruleIndex += 2 {
		renameSpecification := includeAsRules[ruleIndex] + filterPathRenameSeparatorConstant + includeAsRules[ruleIndex+1]
		includeAsArguments = append(includeAsArguments, filterPathRenameFlagConstant, renameSpecification)
	}
	return includeAsArguments
}

// ExcludeArguments converts exclude rules into an inverted path selection.
func ExcludeArguments(excludeRules []string) []string {
	excludeArguments := make([]string, 0, len(excludeRules)*2+1)
	excludeArguments = append(excludeArguments, filterInvertPathsFlagConstant)
	for _, excludePath := range excludeRules {
		excludeArguments = append(excludeArguments, filterPathFlagConstant, excludePath)
	}
	return excludeArguments
}
