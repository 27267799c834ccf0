package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for Solace
type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Gemini    GeminiConfig    `json:"gemini"`
	Trace     TraceConfig     `json:"trace"`
	Registry  RegistryConfig  `json:"registry"`
	Optimizer OptimizerConfig `json:"optimizer"`
	Policy    PolicyConfig    `json:"policy"`
	Server    ServerConfig    `json:"server"`
}

// LLMConfig holds OpenAI-compatible API configuration (OpenAI/Groq/vLLM)
type LLMConfig struct {
	URL         string  `json:"url"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// GeminiConfig holds Google Gemini configuration (optional second provider)
type GeminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"` // e.g., "gemini-1.5-flash"
}

// TraceConfig holds trace store configuration
type TraceConfig struct {
	Dir     string `json:"dir"`
	Enabled bool   `json:"enabled"`
}

// RegistryConfig holds prompt registry configuration
type RegistryConfig struct {
	Path string `json:"path"`
}

// OptimizerConfig holds evolutionary prompt search defaults
type OptimizerConfig struct {
	PopulationSize int    `json:"population_size"`
	NumGenerations int    `json:"num_generations"`
	EliteCount     int    `json:"elite_count"`
	TraceSample    int    `json:"trace_sample"`
	Seed           int64  `json:"seed"`
	ResultsDir     string `json:"results_dir"`
}

// PolicyConfig holds advantage tracker defaults
type PolicyConfig struct {
	NumEpochs int    `json:"num_epochs"`
	StatePath string `json:"state_path"`
}

// ServerConfig holds ops server configuration
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".solace")

	return &Config{
		LLM: LLMConfig{
			URL:         "http://localhost:8000/v1",
			APIKey:      "",
			Model:       "llama-3.1-8b-instant",
			MaxTokens:   1024,
			Temperature: 0.7,
		},
		Gemini: GeminiConfig{
			APIKey: "",
			Model:  "gemini-1.5-flash",
		},
		Trace: TraceConfig{
			Dir:     filepath.Join(dataDir, "traces"),
			Enabled: true,
		},
		Registry: RegistryConfig{
			Path: filepath.Join(dataDir, "prompts.json"),
		},
		Optimizer: OptimizerConfig{
			PopulationSize: 6,
			NumGenerations: 4,
			EliteCount:     3,
			TraceSample:    20,
			Seed:           0,
			ResultsDir:     filepath.Join(dataDir, "optimization"),
		},
		Policy: PolicyConfig{
			NumEpochs: 3,
			StatePath: filepath.Join(dataDir, "policy.json"),
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
	}
}

// envString loads a string environment variable into the target pointer if set
func envString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// envInt loads an integer environment variable into the target pointer if set and valid
func envInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}

// envInt64 loads a 64-bit integer environment variable into the target pointer if set and valid
func envInt64(key string, target *int64) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			*target = i
		}
	}
}

// envFloat loads a float64 environment variable into the target pointer if set and valid
func envFloat(key string, target *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

// envBool loads a boolean environment variable into the target pointer if set and valid
func envBool(key string, target *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse config file %s: %v\n", configPath, err)
		}
	}

	envString("SOLACE_LLM_URL", &cfg.LLM.URL)
	envString("SOLACE_LLM_API_KEY", &cfg.LLM.APIKey)
	envString("SOLACE_LLM_MODEL", &cfg.LLM.Model)
	envInt("SOLACE_LLM_MAX_TOKENS", &cfg.LLM.MaxTokens)
	envFloat("SOLACE_LLM_TEMPERATURE", &cfg.LLM.Temperature)

	envString("SOLACE_GEMINI_API_KEY", &cfg.Gemini.APIKey)
	envString("SOLACE_GEMINI_MODEL", &cfg.Gemini.Model)

	envString("SOLACE_TRACE_DIR", &cfg.Trace.Dir)
	envBool("SOLACE_TRACE_ENABLED", &cfg.Trace.Enabled)

	envString("SOLACE_REGISTRY_PATH", &cfg.Registry.Path)

	envInt("SOLACE_OPT_POPULATION", &cfg.Optimizer.PopulationSize)
	envInt("SOLACE_OPT_GENERATIONS", &cfg.Optimizer.NumGenerations)
	envInt("SOLACE_OPT_ELITES", &cfg.Optimizer.EliteCount)
	envInt("SOLACE_OPT_TRACE_SAMPLE", &cfg.Optimizer.TraceSample)
	envInt64("SOLACE_OPT_SEED", &cfg.Optimizer.Seed)
	envString("SOLACE_OPT_RESULTS_DIR", &cfg.Optimizer.ResultsDir)

	envInt("SOLACE_POLICY_EPOCHS", &cfg.Policy.NumEpochs)
	envString("SOLACE_POLICY_STATE_PATH", &cfg.Policy.StatePath)

	envString("SOLACE_SERVER_HOST", &cfg.Server.Host)
	envInt("SOLACE_SERVER_PORT", &cfg.Server.Port)

	if err := os.MkdirAll(cfg.Trace.Dir, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Registry.Path), 0755); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsGeminiConfigured returns true if the Gemini provider can be used
func (c *Config) IsGeminiConfigured() bool {
	return c.Gemini.APIKey != ""
}

// isValidURL validates that a URL has proper format
func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server port must be between 1 and 65535")
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "LLM temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, "LLM max_tokens must be positive")
	}
	if c.LLM.URL == "" {
		errs = append(errs, "LLM URL is required")
	} else if !isValidURL(c.LLM.URL) {
		errs = append(errs, "LLM URL must be a valid URL")
	}

	if c.Trace.Dir == "" {
		errs = append(errs, "trace directory is required")
	}
	if c.Registry.Path == "" {
		errs = append(errs, "prompt registry path is required")
	}

	if c.Optimizer.PopulationSize < 2 {
		errs = append(errs, "optimizer population size must be at least 2")
	}
	if c.Optimizer.NumGenerations < 1 {
		errs = append(errs, "optimizer generations must be at least 1")
	}
	if c.Optimizer.EliteCount < 1 || c.Optimizer.EliteCount > c.Optimizer.PopulationSize {
		errs = append(errs, "optimizer elite count must be between 1 and the population size")
	}
	if c.Optimizer.TraceSample < 1 {
		errs = append(errs, "optimizer trace sample must be at least 1")
	}

	if c.Policy.NumEpochs < 1 {
		errs = append(errs, "policy epochs must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() string {
	if path := os.Getenv("SOLACE_CONFIG"); path != "" {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}

	// Check ~/.config/solace/config.json first
	configDir := filepath.Join(homeDir, ".config", "solace")
	configPath := filepath.Join(configDir, "config.json")
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	// Check ~/.solace/config.json
	altPath := filepath.Join(homeDir, ".solace", "config.json")
	if _, err := os.Stat(altPath); err == nil {
		return altPath
	}

	return configPath
}
