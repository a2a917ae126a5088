package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound indicates no config file was found in the standard search locations.
var ErrConfigNotFound = errors.New("configuration file not found")

var configNames = []string{"luadomain.yaml", "luadomain.yml", "luadomain.json"}

// Load loads, completes and validates the configuration.
func Load(explicitPath string) (*Config, error) {
	cfg, _, err := LoadWithPath(explicitPath)
	return cfg, err
}

// LoadWithPath is Load that also returns the path of the file read.
func LoadWithPath(explicitPath string) (*Config, string, error) {
	path, err := resolvePath(explicitPath)
	if err != nil {
		return nil, "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	cfg, err := loadConfigFromFile(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// LoadOrDefault loads the configuration, falling back to Default when no
// file exists in the search locations.
func LoadOrDefault(explicitPath string) (*Config, error) {
	cfg, err := Load(explicitPath)
	if errors.Is(err, ErrConfigNotFound) {
		return Default(), nil
	}
	return cfg, err
}

func resolvePath(explicitPath string) (string, error) {
	if explicitPath != "" {
		_, err := os.Stat(explicitPath)
		switch {
		case os.IsNotExist(err):
			return "", fmt.Errorf("specified config file does not exist: %s", explicitPath)
		case err != nil:
			return "", fmt.Errorf("cannot access config file %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}

	dirs := searchDirs()
	for _, dir := range dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w: looked for %s in %s", ErrConfigNotFound,
		strings.Join(configNames, ", "), strings.Join(dirs, ", "))
}

// searchDirs lists the directories searched for a config file, closest
// first: the working directory, its parents, then the user config directory.
func searchDirs() []string {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		for dir := wd; ; {
			dirs = append(dirs, dir)
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(userConfigDir, "luadomain"))
	}
	return dirs
}

// loadConfigFromFile parses a configuration file from any fs.File source,
// using the file name to pick the decoder.
func loadConfigFromFile(file fs.File) (*Config, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("error getting file info: %w", err)
	}
	return parseConfigData(data, stat.Name())
}

type decoder struct {
	name      string
	unmarshal func([]byte, any) error
}

var (
	yamlDecoder = decoder{"YAML", yaml.Unmarshal}
	jsonDecoder = decoder{"JSON", json.Unmarshal}
)

// parseConfigData expands $VAR and ${VAR} references in data, then decodes
// it by extension. Unknown extensions try YAML, then JSON.
func parseConfigData(data []byte, filename string) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	var decoders []decoder
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		decoders = []decoder{jsonDecoder}
	case ".yaml", ".yml":
		decoders = []decoder{yamlDecoder}
	default:
		decoders = []decoder{yamlDecoder, jsonDecoder}
	}

	var errs []string
	for _, d := range decoders {
		var cfg Config
		err := d.unmarshal(expanded, &cfg)
		if err == nil {
			return &cfg, nil
		}
		errs = append(errs, fmt.Sprintf("%s error: %v", d.name, err))
	}

	err := fmt.Errorf("error parsing config: %s", strings.Join(errs, ", "))
	if strings.Contains(string(data), "$") {
		err = fmt.Errorf("%w (hint: environment variable expansion may have introduced invalid syntax if values contain special characters)", err)
	}
	return nil, err
}
