package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// LLM defaults
	if cfg.LLM.URL == "" {
		t.Error("LLM URL should not be empty")
	}
	if cfg.LLM.Model == "" {
		t.Error("LLM Model should not be empty")
	}
	if cfg.LLM.MaxTokens <= 0 {
		t.Error("LLM MaxTokens should be positive")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		t.Error("LLM Temperature should be between 0 and 2")
	}

	// Trace defaults
	if cfg.Trace.Dir == "" {
		t.Error("Trace Dir should not be empty")
	}
	if !cfg.Trace.Enabled {
		t.Error("Tracing should be enabled by default")
	}

	// Registry defaults
	if cfg.Registry.Path == "" {
		t.Error("Registry Path should not be empty")
	}

	// Optimizer defaults
	if cfg.Optimizer.PopulationSize < 2 {
		t.Error("Optimizer PopulationSize should be at least 2")
	}
	if cfg.Optimizer.NumGenerations < 1 {
		t.Error("Optimizer NumGenerations should be at least 1")
	}
	if cfg.Optimizer.EliteCount < 1 || cfg.Optimizer.EliteCount > cfg.Optimizer.PopulationSize {
		t.Error("Optimizer EliteCount should be within the population")
	}

	// Server defaults
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		t.Error("Server Port should be valid")
	}
	if cfg.Server.Host == "" {
		t.Error("Server Host should not be empty")
	}
}

func TestEnvString(t *testing.T) {
	target := "original"

	t.Run("sets value when env var exists", func(t *testing.T) {
		t.Setenv("TEST_VAR", "new_value")
		envString("TEST_VAR", &target)
		if target != "new_value" {
			t.Errorf("expected 'new_value', got '%s'", target)
		}
	})

	t.Run("does not change value when env var is empty", func(t *testing.T) {
		t.Setenv("TEST_VAR", "")
		target = "original"
		envString("TEST_VAR", &target)
		if target != "original" {
			t.Errorf("expected 'original', got '%s'", target)
		}
	})

	t.Run("does not change value when env var is unset", func(t *testing.T) {
		target = "original"
		envString("NONEXISTENT_VAR", &target)
		if target != "original" {
			t.Errorf("expected 'original', got '%s'", target)
		}
	})
}

func TestEnvInt(t *testing.T) {
	target := 42

	t.Run("sets value when env var is valid int", func(t *testing.T) {
		t.Setenv("TEST_INT", "100")
		envInt("TEST_INT", &target)
		if target != 100 {
			t.Errorf("expected 100, got %d", target)
		}
	})

	t.Run("does not change value when env var is invalid", func(t *testing.T) {
		t.Setenv("TEST_INT", "not_a_number")
		target = 42
		envInt("TEST_INT", &target)
		if target != 42 {
			t.Errorf("expected 42, got %d", target)
		}
	})

	t.Run("does not change value when env var is empty", func(t *testing.T) {
		t.Setenv("TEST_INT", "")
		target = 42
		envInt("TEST_INT", &target)
		if target != 42 {
			t.Errorf("expected 42, got %d", target)
		}
	})
}

func TestEnvInt64(t *testing.T) {
	var target int64 = 7

	t.Run("sets value when env var is valid", func(t *testing.T) {
		t.Setenv("TEST_INT64", "123456789012")
		envInt64("TEST_INT64", &target)
		if target != 123456789012 {
			t.Errorf("expected 123456789012, got %d", target)
		}
	})

	t.Run("does not change value when env var is invalid", func(t *testing.T) {
		t.Setenv("TEST_INT64", "nope")
		target = 7
		envInt64("TEST_INT64", &target)
		if target != 7 {
			t.Errorf("expected 7, got %d", target)
		}
	})
}

func TestEnvFloat(t *testing.T) {
	target := 0.5

	t.Run("sets value when env var is valid float", func(t *testing.T) {
		t.Setenv("TEST_FLOAT", "0.8")
		envFloat("TEST_FLOAT", &target)
		if target != 0.8 {
			t.Errorf("expected 0.8, got %f", target)
		}
	})

	t.Run("does not change value when env var is invalid", func(t *testing.T) {
		t.Setenv("TEST_FLOAT", "not_a_float")
		target = 0.5
		envFloat("TEST_FLOAT", &target)
		if target != 0.5 {
			t.Errorf("expected 0.5, got %f", target)
		}
	})
}

func TestEnvBool(t *testing.T) {
	target := true

	t.Run("sets value when env var is valid bool", func(t *testing.T) {
		t.Setenv("TEST_BOOL", "false")
		envBool("TEST_BOOL", &target)
		if target {
			t.Error("expected false")
		}
	})

	t.Run("does not change value when env var is invalid", func(t *testing.T) {
		t.Setenv("TEST_BOOL", "maybe")
		target = true
		envBool("TEST_BOOL", &target)
		if !target {
			t.Error("expected true")
		}
	})
}

func TestValidate_ServerPort(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"valid port 80", 80, false},
		{"valid port 8090", 8090, false},
		{"valid port 65535", 65535, false},
		{"invalid port 0", 0, true},
		{"invalid port -1", -1, true},
		{"invalid port 65536", 65536, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Server.Port = tt.port
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != nil && !strings.Contains(err.Error(), "server port") {
				t.Errorf("error should mention server port, got: %v", err)
			}
		})
	}
}

func TestValidate_LLMTemperature(t *testing.T) {
	tests := []struct {
		name        string
		temperature float64
		wantErr     bool
	}{
		{"valid temp 0", 0, false},
		{"valid temp 0.7", 0.7, false},
		{"valid temp 2.0", 2.0, false},
		{"invalid temp -0.1", -0.1, true},
		{"invalid temp 2.1", 2.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LLM.Temperature = tt.temperature
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != nil && !strings.Contains(err.Error(), "temperature") {
				t.Errorf("error should mention temperature, got: %v", err)
			}
		})
	}
}

func TestValidate_LLMURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http URL", "http://localhost:8000", false},
		{"valid https URL", "https://api.groq.com/openai/v1", false},
		{"empty URL", "", true},
		{"invalid URL without scheme", "localhost:8000", true},
		{"invalid URL without host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LLM.URL = tt.url
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != nil && !strings.Contains(err.Error(), "LLM URL") {
				t.Errorf("error should mention LLM URL, got: %v", err)
			}
		})
	}
}

func TestValidate_Optimizer(t *testing.T) {
	t.Run("rejects population below 2", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Optimizer.PopulationSize = 1
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "population size") {
			t.Errorf("expected population size error, got: %v", err)
		}
	})

	t.Run("rejects elite count above population", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Optimizer.EliteCount = cfg.Optimizer.PopulationSize + 1
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "elite count") {
			t.Errorf("expected elite count error, got: %v", err)
		}
	})

	t.Run("rejects zero generations", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Optimizer.NumGenerations = 0
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "generations") {
			t.Errorf("expected generations error, got: %v", err)
		}
	})
}

func TestValidate_RequiredPaths(t *testing.T) {
	t.Run("requires trace dir", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Trace.Dir = ""
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "trace directory") {
			t.Errorf("expected trace directory error, got: %v", err)
		}
	})

	t.Run("requires registry path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Registry.Path = ""
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "registry path") {
			t.Errorf("expected registry path error, got: %v", err)
		}
	})
}

func TestIsGeminiConfigured(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IsGeminiConfigured() {
		t.Error("Gemini should not be configured without an API key")
	}

	cfg.Gemini.APIKey = "key"
	if !cfg.IsGeminiConfigured() {
		t.Error("Gemini should be configured with an API key")
	}
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"valid http", "http://localhost:8000", true},
		{"valid https", "https://api.openai.com/v1", true},
		{"missing scheme", "localhost:8000", false},
		{"missing host", "http://", false},
		{"empty string", "", false},
		{"scheme only", "http", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidURL(tt.url); got != tt.want {
				t.Errorf("isValidURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	t.Run("uses SOLACE_CONFIG env var when set", func(t *testing.T) {
		t.Setenv("SOLACE_CONFIG", "/custom/path/config.json")
		path := getConfigPath()
		if path != "/custom/path/config.json" {
			t.Errorf("expected custom path, got %s", path)
		}
	})

	t.Run("defaults to .config/solace when no env var", func(t *testing.T) {
		path := getConfigPath()
		expectedPath := filepath.Join(homeDir, ".config", "solace", "config.json")
		if path != expectedPath {
			t.Errorf("expected %s, got %s", expectedPath, path)
		}
	})
}
