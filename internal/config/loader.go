package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ConfigPathEnv names an operator supplied config file merged over the bundled one.
const ConfigPathEnv = "CONFIG_PATH"

type EnvMap struct {
	EnvMappings map[string]string `mapstructure:"env_mappings,omitempty"`
}

type SecretMap struct {
	Dir      string            `mapstructure:"dir,omitempty"`
	Mappings map[string]string `mapstructure:"mappings,omitempty"`
}

type secretsSection struct {
	Secrets SecretMap `mapstructure:"secrets,omitempty"`
}

// readConfig locates and reads a configuration file using Viper. It searches for
// a file named "{name}.{ext}" in each of the given directories in order; the first
// found file is read.
//
// Parameters:
//   - logger: Logger for config load messages (success and failure).
//   - name: Config file base name without extension (e.g., "config").
//   - ext: Config file extension/type (e.g., "yaml"); used by Viper as config type.
//   - dirs: One or more directories to search for the file; first match wins.
//
// Returns:
//   - *viper.Viper: Viper instance with the config loaded, or a new Viper if no file was read.
//   - error: Non-nil if no config file was found in any dir or if reading failed.
func readConfig(logger *slog.Logger, name string, ext string, dirs ...string) (*viper.Viper, error) {
	logger.Info("Reading the configuration file", "file", fmt.Sprintf("%s.%s", name, ext), "dirs", fmt.Sprintf("%v", dirs))

	configValues := viper.New()

	configValues.SetConfigName(name)
	configValues.SetConfigType(ext)
	for _, dir := range dirs {
		configValues.AddConfigPath(dir)
	}
	err := configValues.ReadInConfig()

	if err != nil {
		logger.Error("Failed to read the configuration file", "file", fmt.Sprintf("%s.%s", name, ext), "dirs", fmt.Sprintf("%v", dirs), "error", err.Error())
	} else {
		logger.Info("Read the configuration file", "file", configValues.ConfigFileUsed())
	}

	return configValues, err
}

// mergeOperatorConfig applies the file named by CONFIG_PATH. Every top level
// section of the operator file replaces the bundled section of the same name,
// sections it does not mention are kept.
func mergeOperatorConfig(logger *slog.Logger, configValues *viper.Viper) (*viper.Viper, error) {
	path := os.Getenv(ConfigPathEnv)
	if path == "" {
		return configValues, nil
	}
	operatorValues := viper.New()
	operatorValues.SetConfigFile(path)
	operatorValues.SetConfigType("yaml")
	if err := operatorValues.ReadInConfig(); err != nil {
		logger.Error("Failed to read the operator configuration file", "file", path, "error", err.Error())
		return nil, err
	}

	settings := configValues.AllSettings()
	for section, value := range operatorValues.AllSettings() {
		settings[section] = value
	}
	merged := viper.New()
	if err := merged.MergeConfigMap(settings); err != nil {
		return nil, err
	}
	logger.Info("Merged the operator configuration file", "file", path)
	return merged, nil
}

// LoadConfig loads the adapter layer configuration with Viper.
//
// Configuration loading order (later sources override earlier ones):
//  1. config.yaml found in dirs (default config, ./config, ../../config)
//  2. the file named by CONFIG_PATH, replacing whole top level sections
//  3. environment variables mapped via env_mappings
//  4. secrets from files mapped via secrets.mappings with secrets.dir
//
// Example configuration structure:
//
//	env_mappings:
//	  adapters_image_registry: adapters.image_registry
//	secrets:
//	  dir: /var/run/secrets/evalhub
//	  mappings:
//	    image_registry:optional: adapters.image_registry
//
// Secret file names ending in :optional may be missing.
func LoadConfig(logger *slog.Logger, dirs ...string) (*Config, error) {
	if len(dirs) == 0 {
		dirs = []string{"config", "./config", "../../config"}
	}
	configValues, err := readConfig(logger, "config", "yaml", dirs...)
	if err != nil {
		return nil, err
	}
	configValues, err = mergeOperatorConfig(logger, configValues)
	if err != nil {
		return nil, err
	}

	// set up the environment variable mappings
	envMappings := EnvMap{}
	if err := configValues.Unmarshal(&envMappings); err != nil {
		return nil, err
	}
	for envName, field := range envMappings.EnvMappings {
		if err := configValues.BindEnv(field, strings.ToUpper(envName)); err != nil {
			return nil, err
		}
		logger.Info("Mapped environment variable", "field_name", field, "env_name", envName)
	}

	// set up the secrets from the secrets directory
	secrets := secretsSection{}
	if err := configValues.Unmarshal(&secrets); err != nil {
		return nil, err
	}
	if secrets.Secrets.Dir != "" {
		if _, err := os.Stat(secrets.Secrets.Dir); !os.IsNotExist(err) {
			for fileName, fieldName := range secrets.Secrets.Mappings {
				optional := strings.HasSuffix(fileName, ":optional")
				if optional {
					fileName = strings.TrimSuffix(fileName, ":optional")
				}
				secret, err := getSecret(secrets.Secrets.Dir, fileName, optional)
				if err != nil {
					logger.Error("Failed to read secret file", "file", fmt.Sprintf("%s/%s", secrets.Secrets.Dir, fileName), "error", err.Error())
					return nil, err
				}
				if secret != "" {
					configValues.Set(fieldName, strings.TrimSpace(secret))
				}
			}
		}
	}

	conf := Config{}
	if err := configValues.Unmarshal(&conf); err != nil {
		return nil, err
	}
	if conf.Adapters == nil {
		conf.Adapters = &AdaptersConfig{}
	}
	return &conf, nil
}

// getSecret reads a secret from a file. A missing optional file yields an
// empty string and no error.
func getSecret(secretsDir string, secretName string, optional bool) (string, error) {
	secret, err := os.ReadFile(fmt.Sprintf("%s/%s", secretsDir, secretName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && optional {
			return "", nil
		}
		return "", err
	}
	return string(secret), nil
}
