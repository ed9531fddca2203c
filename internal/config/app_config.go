// Package config loads application configuration and ignore-pattern files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"projviz/internal/utils"
)

const (
	// ConfigFileName is the name of the optional configuration file looked
	// up in the working directory.
	ConfigFileName = "projviz.yaml"
	// GlobalConfigDirectoryName is the directory under $HOME holding the
	// global configuration file.
	GlobalConfigDirectoryName = ".projviz"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration defaults.
// Command-line flags take precedence over every value here.
type ApplicationConfiguration struct {
	Scan  ScanConfiguration  `mapstructure:"scan"`
	Serve ServeConfiguration `mapstructure:"serve"`
}

// ScanConfiguration defines defaults for the scan command.
type ScanConfiguration struct {
	Output        string   `mapstructure:"output"`
	Ignore        []string `mapstructure:"ignore"`
	UseIgnoreFile *bool    `mapstructure:"use_ignore_file"`
}

// ServeConfiguration defines defaults for the serve command.
type ServeConfiguration struct {
	Host            string   `mapstructure:"host"`
	Port            *int     `mapstructure:"port"`
	PreviewMaxBytes *int64   `mapstructure:"preview_max_bytes"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
}

// LoadApplicationConfiguration loads configuration from the global file under
// $HOME/.projviz and a local file in the working directory, merging local
// values over global ones. Missing files are not an error.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, GlobalConfigDirectoryName, ConfigFileName)
		globalConfiguration, loadError := loadConfigurationFromPath(globalPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(globalConfiguration)
	}

	localPath := options.ExplicitFilePath
	if localPath == "" {
		localPath = filepath.Join(workingDirectory, ConfigFileName)
	} else if !filepath.IsAbs(localPath) {
		localPath = filepath.Join(workingDirectory, localPath)
	}
	localConfiguration, loadError := loadConfigurationFromPath(localPath)
	if loadError != nil {
		return ApplicationConfiguration{}, loadError
	}
	merged = merged.Merge(localConfiguration)

	merged.Scan.Ignore = utils.DeduplicatePatterns(merged.Scan.Ignore)
	return merged, nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	pathInformation, statError := os.Stat(path)
	if statError != nil {
		if os.IsNotExist(statError) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statError)
	}
	if pathInformation.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readError := reader.ReadInConfig(); readError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readError)
	}
	var configuration ApplicationConfiguration
	if decodeError := reader.Unmarshal(&configuration); decodeError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeError)
	}
	return configuration, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (configuration ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := configuration
	result.Scan = result.Scan.merge(override.Scan)
	result.Serve = result.Serve.merge(override.Serve)
	return result
}

func (configuration ScanConfiguration) merge(override ScanConfiguration) ScanConfiguration {
	result := configuration
	if override.Output != "" {
		result.Output = override.Output
	}
	if len(override.Ignore) > 0 {
		result.Ignore = append([]string{}, utils.DeduplicatePatterns(override.Ignore)...)
	}
	if override.UseIgnoreFile != nil {
		result.UseIgnoreFile = cloneBool(override.UseIgnoreFile)
	}
	return result
}

func (configuration ServeConfiguration) merge(override ServeConfiguration) ServeConfiguration {
	result := configuration
	if override.Host != "" {
		result.Host = override.Host
	}
	if override.Port != nil {
		result.Port = cloneInt(override.Port)
	}
	if override.PreviewMaxBytes != nil {
		result.PreviewMaxBytes = cloneInt64(override.PreviewMaxBytes)
	}
	if len(override.CORSOrigins) > 0 {
		result.CORSOrigins = append([]string{}, override.CORSOrigins...)
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt64(value *int64) *int64 {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
