package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const defaultAPIURL = "http://localhost:8080"

// cliConfig is read from ~/.kitchen/config.yaml, overridden by KITCHEN_* env vars.
type cliConfig struct {
	APIURL string `mapstructure:"api_url"`
	Token  string `mapstructure:"token"`
	Email  string `mapstructure:"email"`
}

func configPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".kitchen", "config.yaml")
	}
	return filepath.Join(home, ".kitchen", "config.yaml")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("KITCHEN")
	v.AutomaticEnv()
	v.SetDefault("api_url", defaultAPIURL)
	v.SetDefault("token", "")
	v.SetDefault("email", "")
	return v
}

func loadConfig(v *viper.Viper) (*cliConfig, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}
	cfg := &cliConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// saveSession persists the bearer token for later commands.
func saveSession(v *viper.Viper, email, token string) error {
	path := v.ConfigFileUsed()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	v.Set("email", email)
	v.Set("token", token)
	return v.WriteConfigAs(path)
}
