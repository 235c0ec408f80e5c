package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

func IIf[T any](test bool, ifTrue, ifFalse T) T {
	if test {
		return ifTrue
	} else {
		return ifFalse
	}
}

func PathAbs(path string) (string, error) {
	if strings.HasPrefix(filepath.ToSlash(path), "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}

		path = filepath.Join(home, path[2:])
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return path, nil
}

// PathCanonical returns an absolute path with symlinks resolved, so two
// spellings of the same directory compare equal.
func PathCanonical(path string) (string, error) {
	path, err := PathAbs(path)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}

	return filepath.Clean(resolved), nil
}

func FileExists(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return true, nil

	} else if errors.Is(err, os.ErrNotExist) {
		return false, nil

	} else {
		return false, err
	}
}

var ErrNotRepository = errors.New("not a git repository")

// FindRepositoryRoot walks up from dir until a directory containing .git is found.
func FindRepositoryRoot(dir string) (string, error) {
	dir, err := PathCanonical(dir)
	if err != nil {
		return "", err
	}

	for {
		exists, err := FileExists(filepath.Join(dir, ".git"))
		if err != nil {
			return "", err
		}
		if exists {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Wrapf(ErrNotRepository, "searching from %v", dir)
		}
		dir = parent
	}
}
