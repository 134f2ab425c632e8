// Package configx loads typed configuration from the environment. Each
// component declares its own struct with envconfig tags and loads it
// under its prefix; an optional .env file is exported first.
package configx

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

var (
	envFilePath string
	parseOnce   sync.Once
)

// MustNew is New, panicking on error. Intended for process startup.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New populates a T from the environment under prefix. When the -env
// flag names a file it is exported first; otherwise a ./.env file is
// exported when present.
func New[T any](prefix string) (*T, error) {
	if path := resolveEnvPath(); path != "" {
		if err := exportEnvFile(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	} else if err := exportEnvFileIfExists(".env"); err != nil {
		return nil, fmt.Errorf("load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func resolveEnvPath() string {
	parseOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFilePath, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	return strings.TrimSpace(envFilePath)
}

func exportEnvFileIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvFile(path)
}

// exportEnvFile reads path with viper and mirrors its settings into the
// process environment so envconfig can see them.
func exportEnvFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for key, value := range v.AllSettings() {
		if err := os.Setenv(strings.ToUpper(key), fmt.Sprint(value)); err != nil {
			return err
		}
	}
	return nil
}
