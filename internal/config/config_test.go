package config

import "testing"

func TestLoadUsesDefaultsWhenUnset(t *testing.T) {
	t.Setenv("BIND_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_DIRECTORY", "")
	t.Setenv("LOG_FILE_NAME_PREFIX", "")

	got := Load()
	want := Default()
	if got != want {
		t.Fatalf("expected defaults %+v, got %+v", want, got)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("BIND_ADDR", "0.0.0.0:9090")
	t.Setenv("DATABASE_URL", "sqlite:test.sqlite")
	t.Setenv("LOG_DIRECTORY", "/tmp/logs")
	t.Setenv("LOG_FILE_NAME_PREFIX", "custom.log")

	got := Load()
	want := Server{
		BindAddr:          "0.0.0.0:9090",
		DatabaseURL:       "sqlite:test.sqlite",
		LogDirectory:      "/tmp/logs",
		LogFileNamePrefix: "custom.log",
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
