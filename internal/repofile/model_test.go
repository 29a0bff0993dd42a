package repofile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/monosplit/monosplit/internal/repofile"
)

func TestRuleSetIsValid(testInstance *testing.T) {
	testCases := []struct {
		name           string
		rules          []string
		allowSingle    bool
		expectedResult bool
	}{
		{name: "empty_disallowed", rules: []string{}, allowSingle: true, expectedResult: false},
		{name: "single_allowed", rules: []string{"lib/"}, allowSingle: true, expectedResult: true},
		{name: "single_disallowed", rules: []string{"lib/"}, allowSingle: false, expectedResult: false},
		{name: "pair_with_single_allowed", rules: []string{"lib/", "src/"}, allowSingle: true, expectedResult: true},
		{name: "pair_with_single_disallowed", rules: []string{"lib/", "src/"}, allowSingle: false, expectedResult: true},
		{name: "odd_length_disallowed", rules: []string{"a", "b", "c"}, allowSingle: true, expectedResult: false},
		{name: "even_quad", rules: []string{"a", "b", "c", "d"}, allowSingle: false, expectedResult: true},
		{name: "odd_quintet", rules: []string{"a", "b", "c", "d", "e"}, allowSingle: false, expectedResult: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedResult, repofile.RuleSetIsValid(testCase.rules, testCase.allowSingle))
		})
	}
}

func TestRepoFileValidate(testInstance *testing.T) {
	testCases := []struct {
		name             string
		repoFile         repofile.RepoFile
		expectedBadField string
	}{
		{
			name:     "absent_rule_arrays",
			repoFile: repofile.RepoFile{Name: "library"},
		},
		{
			name:     "valid_rule_arrays",
			repoFile: repofile.RepoFile{Include: []string{"lib/"}, IncludeAs: []string{"lib/", "src/"}, Exclude: []string{"lib/secret/"}},
		},
		{
			name:             "single_include_as_rejected",
			repoFile:         repofile.RepoFile{IncludeAs: []string{"lib/"}},
			expectedBadField: "include_as",
		},
		{
			name:             "odd_include_rejected",
			repoFile:         repofile.RepoFile{Include: []string{"a", "b", "c"}},
			expectedBadField: "include",
		},
		{
			name:             "empty_exclude_rejected",
			repoFile:         repofile.RepoFile{Exclude: []string{}},
			expectedBadField: "exclude",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			validationError := testCase.repoFile.Validate()
			if len(testCase.expectedBadField) == 0 {
				require.NoError(testInstance, validationError)
				return
			}
			require.Error(testInstance, validationError)
			var ruleError repofile.InvalidRuleError
			require.ErrorAs(testInstance, validationError, &ruleError)
			require.Equal(testInstance, testCase.expectedBadField, ruleError.FieldName)
		})
	}
}
