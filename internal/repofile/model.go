package repofile

import (
	"fmt"
)

const (
	includeFieldNameConstant                = "include"
	includeAsFieldNameConstant              = "include_as"
	excludeFieldNameConstant                = "exclude"
	invalidRuleArrayMessageTemplateConstant = "%s is invalid: must be either a single string or an even length array of strings"
	singleRuleLengthConstant                = 1
	evenLengthDivisorConstant               = 2
)

// RepoFile is one parsed split specification.
type RepoFile struct {
	Name             string   `yaml:"name" toml:"name" mapstructure:"name"`
	RemoteRepository string   `yaml:"remote_repo" toml:"remote_repo" mapstructure:"remote_repo"`
	RemoteBranch     string   `yaml:"remote_branch" toml:"remote_branch" mapstructure:"remote_branch"`
	Include          []string `yaml:"include" toml:"include" mapstructure:"include"`
	IncludeAs        []string `yaml:"include_as" toml:"include_as" mapstructure:"include_as"`
	Exclude          []string `yaml:"exclude" toml:"exclude" mapstructure:"exclude"`
}

// InvalidRuleError reports a rule array violating the include/exclude validity rule.
type InvalidRuleError struct {
	FieldName string
}

// Error names the offending field.
func (ruleError InvalidRuleError) Error() string {
	return fmt.Sprintf(invalidRuleArrayMessageTemplateConstant, ruleError.FieldName)
}

// RuleSetIsValid reports whether a rule array satisfies the validity rule: a
// single entry is valid only when allowSingle is set, and any longer array
// must have an even length.
func RuleSetIsValid(rules []string, allowSingle bool) bool {
	ruleCount := len(rules)
	if ruleCount == singleRuleLengthConstant && allowSingle {
		return true
	}
	return ruleCount >= singleRuleLengthConstant && ruleCount%evenLengthDivisorConstant == 0
}

// EnsureRuleArrayValid converts an invalid rule array into an InvalidRuleError.
// A nil array is acceptable; the corresponding filter pass is simply skipped.
func EnsureRuleArrayValid(rules []string, allowSingle bool, fieldName string) error {
	if rules == nil {
		return nil
	}
	if !RuleSetIsValid(rules, allowSingle) {
		return InvalidRuleError{FieldName: fieldName}
	}
	return nil
}

// Validate checks every rule array carried by the repo file.
//
// Include and exclude accept a single path; include_as never does, because a
// rename always requires a source and a destination.
func (repoFile RepoFile) Validate() error {
	if validationError := EnsureRuleArrayValid(repoFile.Include, true, includeFieldNameConstant); validationError != nil {
		return validationError
	}
	if validationError := EnsureRuleArrayValid(repoFile.IncludeAs, false, includeAsFieldNameConstant); validationError != nil {
		return validationError
	}
	if validationError := EnsureRuleArrayValid(repoFile.Exclude, true, excludeFieldNameConstant); validationError != nil {
		return validationError
	}
	return nil
}

// HasIncludeRules reports whether an include filter pass should run.
func (repoFile RepoFile) HasIncludeRules() bool {
	return len(repoFile.Include) > 0
}

// HasIncludeAsRules reports whether an include-as filter pass should run.
func (repoFile RepoFile) HasIncludeAsRules() bool {
	return len(repoFile.IncludeAs) > 0
}

// HasExcludeRules reports whether an exclude filter pass should run.
func (repoFile RepoFile) HasExcludeRules() bool {
	return len(repoFile.Exclude) > 0
}
