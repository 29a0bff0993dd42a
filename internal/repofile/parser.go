package repofile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	tomlFileExtensionConstant          = ".toml"
	repoFileReadErrorTemplateConstant  = "unable to read repo file %s: %w"
	repoFileParseErrorTemplateConstant = "unable to parse repo file %s: %w"
	repoFileRulesErrorTemplateConstant = "repo file %s: %w"
)

// Load reads, decodes, and validates a repo file.
//
// Files ending in .toml decode as TOML; everything else decodes as YAML.
func Load(repoFilePath string) (RepoFile, error) {
	repoFileContents, readError := os.ReadFile(repoFilePath)
	if readError != nil {
		return RepoFile{}, fmt.Errorf(repoFileReadErrorTemplateConstant, repoFilePath, readError)
	}

	var repoFile RepoFile
	var decodeError error
	switch strings.ToLower(filepath.Ext(repoFilePath)) {
	case tomlFileExtensionConstant:
		decodeError = toml.Unmarshal(repoFileContents, &repoFile)
	default:
		decodeError = yaml.Unmarshal(repoFileContents, &repoFile)
	}
	if decodeError != nil {
		return RepoFile{}, fmt.Errorf(repoFileParseErrorTemplateConstant, repoFilePath, decodeError)
	}

	if validationError := repoFile.Validate(); validationError != nil {
		return RepoFile{}, fmt.Errorf(repoFileRulesErrorTemplateConstant, repoFilePath, validationError)
	}

	return repoFile, nil
}
