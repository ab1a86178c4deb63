package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port     string
	Provider string
	Timeout  time.Duration

	// Google Cloud service account used by the Vision recognizer
	ClientEmail     string
	PrivateKey      string
	ProjectID       string
	CredentialsFile string

	GeminiAPIKey string
	GeminiModel  string

	OllamaURL   string
	OllamaModel string

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load builds the configuration from the environment. It never fails;
// missing credentials surface later when the recognizer is constructed.
func Load() *Config {
	timeout, err := time.ParseDuration(getEnv("OCR_TIMEOUT", "60s"))
	if err != nil || timeout <= 0 {
		slog.Warn("Invalid OCR_TIMEOUT, using default", "value", os.Getenv("OCR_TIMEOUT"), "err", err)
		timeout = 60 * time.Second
	}

	return &Config{
		Port:     getEnv("PORT", "8888"),
		Provider: strings.ToLower(getEnv("OCR_PROVIDER", "vision")),
		Timeout:  timeout,

		ClientEmail: os.Getenv("GOOGLE_CLOUD_CLIENT_EMAIL"),
		// keys pasted into .env files usually carry escaped newlines
		PrivateKey:      strings.ReplaceAll(os.Getenv("GOOGLE_CLOUD_PRIVATE_KEY"), `\n`, "\n"),
		ProjectID:       os.Getenv("GOOGLE_CLOUD_PROJECT_ID"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		OllamaURL:   getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: getEnv("OLLAMA_MODEL", "llama3.2-vision"),

		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}
}

// LogSummary reports which credentials are present without printing secrets.
func (c *Config) LogSummary() {
	slog.Info("Configuration loaded",
		"provider", c.Provider,
		"timeout", c.Timeout,
		"client_email", c.ClientEmail,
		"project_id", c.ProjectID,
		"private_key_length", len(c.PrivateKey),
		"credentials_file", c.CredentialsFile,
		"gemini_key_set", c.GeminiAPIKey != "",
		"ollama_url", c.OllamaURL,
		"openai_key_set", c.OpenAIAPIKey != "",
	)
}

// LogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func LogLevel() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
