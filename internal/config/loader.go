package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

var configFileNames = []string{"config.yaml", "config.json"}

// GetConfigPath determines the configuration file path.
// Priority:
// 1. the path passed in (from the --config flag)
// 2. JSSECRETSCANNER_CONFIG_PATH environment variable
// 3. config.yaml, then config.json, in the current working directory
// 4. the same files in the XDG config directory (see UserConfigDir)
// An explicit path that does not exist yields "" so the caller can report it.
func GetConfigPath(configFilePathFlag string) string {
	if configFilePathFlag != "" {
		if fileExists(configFilePathFlag) {
			return configFilePathFlag
		}
		return ""
	}

	if envPath := os.Getenv(EnvConfigPath); envPath != "" && fileExists(envPath) {
		return envPath
	}

	if cwd, err := os.Getwd(); err == nil {
		if path := findConfigFile(cwd); path != "" {
			return path
		}
	}
	return findConfigFile(UserConfigDir())
}

// UserConfigDir is $XDG_CONFIG_HOME/jssecretscanner.
func UserConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

func findConfigFile(dir string) string {
	for _, file := range configFileNames {
		path := filepath.Join(dir, file)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
