// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file and environment
// variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// UploadDir is the directory holding every stored user file.
	UploadDir string `json:"upload_dir"`

	// DefaultsDir holds the template files copied to every new account.
	DefaultsDir string `json:"defaults_dir"`

	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	registerFlags(flag.CommandLine, options)
}

func registerFlags(set *flag.FlagSet, o *Options) {
	set.StringVar(&o.Port, "a", "localhost:5000", "run on ip:port server")
	set.StringVar(&o.DatabaseDSN, "d", "", "db address")
	set.StringVar(&o.UploadDir, "u", "uploads", "directory for uploaded files")
	set.StringVar(&o.DefaultsDir, "p", "arquivos_padrao", "directory with default files for new accounts")
	set.StringVar(&o.LogLevel, "l", "info", "log level")
	set.StringVar(&o.Config, "config", "config.json", "path to config file")
	set.StringVar(&o.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	if err := resolve(options, os.Getenv); err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	return options
}

// resolve applies the config file and then the environment on top of the
// flag values already stored in o.
func resolve(o *Options, getenv func(string) string) error {
	if configPath := getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}
	if err := loadFile(o); err != nil {
		return err
	}
	applyEnv(o, getenv)
	return nil
}

// loadFile merges the JSON config file into o. A missing file is ignored.
func loadFile(o *Options) error {
	if o.Config == "" {
		return nil
	}
	data, err := os.ReadFile(o.Config)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// applyEnv overrides options with the environment variables that are set.
func applyEnv(o *Options, getenv func(string) string) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"SERVER_ADDRESS", &o.Port},
		{"DATABASE_DSN", &o.DatabaseDSN},
		{"UPLOAD_DIR", &o.UploadDir},
		{"DEFAULTS_DIR", &o.DefaultsDir},
		{"LOG_LEVEL", &o.LogLevel},
	}
	for _, ov := range overrides {
		if v := getenv(ov.key); v != "" {
			*ov.dst = v
		}
	}
}
