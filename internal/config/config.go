// Package config loads the server's environment-variable configuration.
package config

import "os"

// Server holds the runtime configuration for the arena server process.
type Server struct {
	BindAddr          string
	DatabaseURL       string
	LogDirectory      string
	LogFileNamePrefix string
}

// Default returns the configuration the process falls back to when no
// environment variable overrides a field.
func Default() Server {
	return Server{
		BindAddr:          "127.0.0.1:8080",
		DatabaseURL:       "sqlite:agarust_db.sqlite",
		LogDirectory:      "./",
		LogFileNamePrefix: "agarust_server.log",
	}
}

// Load returns Default() overridden by BIND_ADDR, DATABASE_URL,
// LOG_DIRECTORY, and LOG_FILE_NAME_PREFIX, whichever are set.
func Load() Server {
	cfg := Default()

	if v := os.Getenv("BIND_ADDR"); v != "" {
		cfg.BindAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("LOG_DIRECTORY"); v != "" {
		cfg.LogDirectory = v
	}
	if v := os.Getenv("LOG_FILE_NAME_PREFIX"); v != "" {
		cfg.LogFileNamePrefix = v
	}

	return cfg
}
