// Package project locates local repository clones under a common root folder.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielolaszy/jbranch/internal/logging"
)

var (
	// ErrNotFound is returned by Resolve when no folder matches the project name.
	ErrNotFound = errors.New("project folder not found")
	// ErrAmbiguous is returned by Resolve when more than one folder matches.
	ErrAmbiguous = errors.New("multiple project folders found")
)

// Lister lists the entries of a single directory. afero.Afero satisfies it.
type Lister interface {
	ReadDir(dirname string) ([]os.FileInfo, error)
}

// FindFolders returns the entries directly under root whose name contains
// projectName, compared case-insensitively. Paths are joined with root and keep
// the order the lister returned them in. No match yields an empty slice.
func FindFolders(lister Lister, root string, projectName string) ([]string, error) {
	entries, err := lister.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	needle := strings.ToLower(projectName)
	result := []string{}
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Name()), needle) {
			result = append(result, filepath.Join(root, entry.Name()))
		}
	}

	logging.Debug("matched project folders",
		"root", root,
		"project", projectName,
		"count", len(result))

	return result, nil
}

// Resolve returns the single folder under root matching projectName. Zero or
// multiple matches are errors; Resolve never picks one of several candidates.
func Resolve(lister Lister, root string, projectName string) (string, error) {
	folders, err := FindFolders(lister, root, projectName)
	if err != nil {
		return "", err
	}

	switch len(folders) {
	case 0:
		return "", fmt.Errorf("%w: no folder for %s in %s", ErrNotFound, projectName, root)
	case 1:
		return folders[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %s in %s",
			ErrAmbiguous, projectName, strings.Join(folders, ", "), root)
	}
}
