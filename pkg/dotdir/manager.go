// Package dotdir resolves the .lingo/ directory that holds config.toml and
// relay logs.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the lingo directory.
	dirName = ".lingo"

	// HomeEnv overrides the home-level directory when set.
	HomeEnv = "LINGO_HOME"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to a .lingo/ directory, creating it when
// missing. Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.lingo/ dir
//  3. $LINGO_HOME
//  4. Home ~/.lingo/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	case os.Getenv(HomeEnv) != "":
		dir = os.Getenv(HomeEnv)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating lingo directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// File joins name onto the resolved target directory. Parent directories of
// name are created.
func (m *Manager) File(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", name, err)
	}
	return path, nil
}

func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
