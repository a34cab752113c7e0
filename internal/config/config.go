package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"gamelift-connect/types"
)

const DefaultIPCheckURL = "https://checkip.amazonaws.com"

// LoadWithOverrides loads configuration from various sources with command-line flag overrides
func LoadWithOverrides(configPath string, flagOverrides map[string]interface{}) (*types.Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("gamelift-connect")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.gamelift-connect")
	}

	// GAMELIFT_CONNECT_REGION, GAMELIFT_CONNECT_KEYDIR, ...
	v.SetEnvPrefix("GAMELIFT_CONNECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Apply flag overrides (only set non-empty/non-zero values)
	for key, value := range flagOverrides {
		switch val := value.(type) {
		case string:
			if val != "" {
				v.Set(key, value)
			}
		case int:
			if val != 0 {
				v.Set(key, value)
			}
		case bool:
			if val {
				v.Set(key, value)
			}
		default:
			if value != nil {
				v.Set(key, value)
			}
		}
	}

	config := &types.Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("region", "")
	v.SetDefault("profile", "")
	v.SetDefault("ipCheckUrl", DefaultIPCheckURL)
	v.SetDefault("ipCheckTimeoutMs", 0)
	v.SetDefault("keyDir", ".")
	v.SetDefault("logPath", "")
}

func validateConfig(config *types.Config) error {
	if config.IPCheckURL == "" {
		return fmt.Errorf("ipCheckUrl is required")
	}

	u, err := url.Parse(config.IPCheckURL)
	if err != nil {
		return fmt.Errorf("invalid ipCheckUrl: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("ipCheckUrl must use http:// or https:// scheme, got %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("ipCheckUrl must include a host")
	}

	if config.IPCheckTimeoutMs < 0 {
		return fmt.Errorf("ipCheckTimeoutMs must be non-negative")
	}

	if config.KeyDir == "" {
		return fmt.Errorf("keyDir is required")
	}

	return nil
}
