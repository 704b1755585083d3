package config

import (
	"os"
	"path/filepath"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leapfmt.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leapfmt.yml"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}

// FindConfigFile walks up from startDir to the nearest directory containing
// leapfmt.yaml or leapfmt.yml and returns the file's path.
// Returns empty string if not found.
func FindConfigFile(startDir string) string {
	dir := startDir
	for range maxUpwardSearchLevels {
		if path := findConfigFile(dir); path != "" {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
	return ""
}
