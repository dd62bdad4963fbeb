package startup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable LoadConfig reads. t.Setenv registers the
// restore; the variable is then removed so .env files can still fill it.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PIXELPEEK_CONFIG",
		"PIXELPEEK_MAX_CONCURRENT",
		"PIXELPEEK_OUTPUT",
		"PIXELPEEK_REQUEST_TIMEOUT",
		"PIXELPEEK_BATCH_TIMEOUT",
		"PIXELPEEK_TLS_INSECURE",
		"PIXELPEEK_MAX_BODY_BYTES",
		"PIXELPEEK_USER_AGENT",
		"PIXELPEEK_DATABASE",
		"PORT",
		"METRICS_ENABLED",
		"LOG_HEALTH_CHECKS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// chdirTemp runs the test from an empty directory so no .env is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxConcurrent != 10 {
		t.Errorf("MaxConcurrent = %d, want 10", cfg.MaxConcurrent)
	}
	if cfg.OutputPath != "image_details.csv" {
		t.Errorf("OutputPath = %q", cfg.OutputPath)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if !cfg.TLSInsecure {
		t.Error("TLSInsecure should default to true")
	}
	if cfg.BatchTimeout != 0 || cfg.DatabasePath != "" {
		t.Errorf("BatchTimeout = %v, DatabasePath = %q, want unset", cfg.BatchTimeout, cfg.DatabasePath)
	}
	if !strings.HasPrefix(cfg.UserAgent, "PixelPeek/") {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	chdirTemp(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	clearEnv(t)
	dir := chdirTemp(t)

	configPath := filepath.Join(dir, "pixelpeek.yaml")
	writeFile(t, configPath, `
max_concurrent: 4
output_path: from-yaml.csv
request_timeout: 5s
batch_timeout: 2m
tls_insecure: false
user_agent: yaml-agent
`)
	writeFile(t, filepath.Join(dir, ".env"), "PIXELPEEK_OUTPUT=from-dotenv.csv\nPIXELPEEK_DATABASE=history.db\n")
	t.Setenv("PIXELPEEK_MAX_CONCURRENT", "7")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.MaxConcurrent != 7 {
		t.Errorf("MaxConcurrent = %d, want env value 7", cfg.MaxConcurrent)
	}
	if cfg.OutputPath != "from-dotenv.csv" {
		t.Errorf("OutputPath = %q, want .env value", cfg.OutputPath)
	}
	if cfg.DatabasePath != "history.db" || !cfg.HistoryEnabled() {
		t.Errorf("DatabasePath = %q, want history.db", cfg.DatabasePath)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.BatchTimeout != 2*time.Minute {
		t.Errorf("timeouts = %v/%v, want 5s/2m from yaml", cfg.RequestTimeout, cfg.BatchTimeout)
	}
	if cfg.TLSInsecure {
		t.Error("TLSInsecure should be false from yaml")
	}
	if cfg.UserAgent != "yaml-agent" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	clearEnv(t)
	dir := chdirTemp(t)

	configPath := filepath.Join(dir, "alt.yaml")
	writeFile(t, configPath, "port: \"9999\"\n")
	t.Setenv("PIXELPEEK_CONFIG", configPath)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		missing bool
	}{
		{name: "missing file", missing: true},
		{name: "unknown key", yaml: "max_concurency: 3\n"},
		{name: "bad duration in yaml", yaml: "request_timeout: soon\n"},
		{name: "bad integer env", env: map[string]string{"PIXELPEEK_MAX_CONCURRENT": "lots"}},
		{name: "bad duration env", env: map[string]string{"PIXELPEEK_BATCH_TIMEOUT": "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := chdirTemp(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			switch {
			case tt.missing:
				path = filepath.Join(dir, "nope.yaml")
			case tt.yaml != "":
				path = filepath.Join(dir, "config.yaml")
				writeFile(t, path, tt.yaml)
			}

			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig() should fail")
			}
		})
	}
}

func TestLoadFileEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, path, "")

	cfg := DefaultConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Error("empty document should keep defaults")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "auto concurrency", mutate: func(c *Config) { c.MaxConcurrent = 0 }},
		{name: "negative concurrency", mutate: func(c *Config) { c.MaxConcurrent = -1 }, wantErr: true},
		{name: "empty output", mutate: func(c *Config) { c.OutputPath = "" }, wantErr: true},
		{name: "zero request timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: true},
		{name: "negative batch timeout", mutate: func(c *Config) { c.BatchTimeout = -time.Second }, wantErr: true},
		{name: "zero body cap", mutate: func(c *Config) { c.MaxBodyBytes = 0 }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Port = "http" }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.Port = "70000" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetchConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestTimeout = 3 * time.Second
	cfg.TLSInsecure = false
	cfg.MaxBodyBytes = 1024
	cfg.UserAgent = "test"

	fc := cfg.FetchConfig()
	if fc.Timeout != 3*time.Second || fc.InsecureSkipVerify || fc.MaxBodyBytes != 1024 || fc.UserAgent != "test" {
		t.Errorf("FetchConfig() = %+v", fc)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{name: "unset uses default true", defaultValue: true, want: true},
		{name: "unset uses default false", defaultValue: false, want: false},
		{name: "true", envValue: "true", want: true},
		{name: "false", envValue: "false", defaultValue: true, want: false},
		{name: "one", envValue: "1", want: true},
		{name: "zero", envValue: "0", defaultValue: true, want: false},
		{name: "invalid uses default", envValue: "maybe", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.envValue)
			if got := getEnvBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STRING", "")
	if got := getEnv("TEST_STRING", "fallback"); got != "fallback" {
		t.Errorf("getEnv() = %q, want fallback", got)
	}
	t.Setenv("TEST_STRING", "set")
	if got := getEnv("TEST_STRING", "fallback"); got != "set" {
		t.Errorf("getEnv() = %q, want set", got)
	}
}

func TestLogConfigDoesNotPanic(_ *testing.T) {
	cfg := DefaultConfig()
	LogConfig(cfg)

	cfg.MaxConcurrent = 0
	cfg.BatchTimeout = time.Minute
	cfg.TLSInsecure = false
	LogConfig(cfg)
}

// testChdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%s): %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("Chdir(%s): %v", prev, err)
		}
	})
}
