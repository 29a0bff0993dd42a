package gitrepo

import (
	"fmt"
	"os"
	"strings"
)

const (
	forwardSlashSeparatorConstant             = '/'
	backslashSeparatorConstant                = '\\'
	projectNameDotDelimiterConstant           = "."
	relativePathPrefixConstant                = "."
	absolutePathPrefixConstant                = "/"
	projectNameInferenceErrorTemplateConstant = "unable to infer a project name from remote locator: %s"
)

var remoteLocatorSchemePrefixes = []string{
	"ssh://",
	"git://",
	"http://",
	"https://",
	"ftp://",
	"sftp://",
	"file://",
}

// ProjectNameError reports a remote locator no project name could be inferred from.
type ProjectNameError struct {
	Locator string
}

// Error describes the inference failure.
func (nameError ProjectNameError) Error() string {
	return fmt.Sprintf(projectNameInferenceErrorTemplateConstant, nameError.Locator)
}

// IsRemoteDescriptor reports whether the locator looks like a usable remote
// repository description: a known URL scheme, a relative path, or an absolute path.
func IsRemoteDescriptor(remoteLocator string) bool {
	for _, schemePrefix := range remoteLocatorSchemePrefixes {
		if strings.HasPrefix(remoteLocator, schemePrefix) {
			return true
		}
	}
	return strings.HasPrefix(remoteLocator, relativePathPrefixConstant) ||
		strings.HasPrefix(remoteLocator, absolutePathPrefixConstant)
}

// InferProjectName derives a short project name from a remote locator by taking
// the final path component and stripping any dotted suffix such as ".git".
//
// The host platform's native path separator is tried first; when the locator
// contains no occurrence of it, the alternate separator is tried, which
// accepts locators written with the other platform's slash.
func InferProjectName(remoteLocator string) (string, error) {
	nativeSeparator := rune(os.PathSeparator)
	alternateSeparator := rune(backslashSeparatorConstant)
	if nativeSeparator != forwardSlashSeparatorConstant {
		alternateSeparator = forwardSlashSeparatorConstant
	}

	projectName := projectNameWithSeparator(remoteLocator, nativeSeparator)
	if len(projectName) == 0 {
		projectName = projectNameWithSeparator(remoteLocator, alternateSeparator)
	}

	if len(projectName) == 0 {
		return "", ProjectNameError{Locator: remoteLocator}
	}
	return projectName, nil
}

func projectNameWithSeparator(remoteLocator string, pathSeparator rune) string {
	if !IsRemoteDescriptor(remoteLocator) {
		return ""
	}

	candidateName := strings.TrimRight(strings.TrimSpace(remoteLocator), string(pathSeparator))
	if !strings.ContainsRune(candidateName, pathSeparator) {
		return ""
	}

	separatorIndex := strings.LastIndex(candidateName, string(pathSeparator))
	candidateName = candidateName[separatorIndex+1:]

	dotIndex := strings.Index(candidateName, projectNameDotDelimiterConstant)
	if dotIndex >= 0 {
		candidateName = candidateName[:dotIndex]
	}

	return candidateName
}
