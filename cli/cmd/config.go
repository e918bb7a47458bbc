package cmd

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const configFilename = "remap.yaml"

// ChannelConfig describes where to fetch mapping archives for one release
// channel. The URL is a template; {channel} and {version} are substituted.
type ChannelConfig struct {
	URL string `yaml:"url"`
}

type Config struct {
	Channels map[string]ChannelConfig `yaml:"channels"`
}

// LoadConfig reads remap.yaml from the current directory.
func LoadConfig() (Config, error) {
	var result Config

	if _, err := os.Stat(configFilename); os.IsNotExist(err) {
		return Config{}, errors.Errorf("no %s found in current directory", configFilename)
	}
	yamlFile, err := os.ReadFile(configFilename)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(yamlFile, &result); err != nil {
		return Config{}, err
	}
	return result, nil
}
