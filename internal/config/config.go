package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	LogLevel      string
	LogFormat     string
	// Static data
	MenuFile    string
	FAQFile     string
	PolicyFile  string
	PromptsFile string
	// Generative backend
	LLMProvider      string
	LLMTimeout       time.Duration
	OllamaURL        string
	OllamaModel      string
	OllamaEmbedModel string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAIEmbedModel string
	// Retrieval
	RetrievalEnabled bool
	RetrievalK       int
	// Sessions
	SessionStore        string
	SessionDir          string
	DatabaseURL         string
	SessionHistoryLimit int
	// Mail
	MailTransport         string
	SMTPServer            string
	SMTPPort              int
	SMTPUser              string
	SMTPPass              string
	MailFrom              string
	MailRelayURL          string
	MailRelayTokenURL     string
	MailRelayClientID     string
	MailRelayClientSecret string
	MailRelayScopes       []string
	MetricsEnabled        bool
	// Warnings are collected while loading and logged once the logger exists.
	Warnings []string
}

func Load() Config {
	_ = godotenv.Load()
	var warnings []string
	cfg := Config{
		Port:                  getEnvDefault("PORT", "8080"),
		AllowedOrigin:         getEnvDefault("ALLOWED_ORIGIN", "*"),
		LogLevel:              getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:             getEnvDefault("LOG_FORMAT", "json"),
		MenuFile:              os.Getenv("MENU_FILE"),
		FAQFile:               os.Getenv("FAQ_FILE"),
		PolicyFile:            os.Getenv("POLICY_FILE"),
		PromptsFile:           os.Getenv("PROMPTS_FILE"),
		LLMProvider:           strings.ToLower(getEnvDefault("LLM_PROVIDER", "ollama")),
		LLMTimeout:            getEnvDurationDefault("LLM_TIMEOUT", 25*time.Second, &warnings),
		OllamaURL:             getEnvDefault("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:           getEnvDefault("OLLAMA_MODEL", "phi3:mini"),
		OllamaEmbedModel:      getEnvDefault("OLLAMA_EMBED_MODEL", "all-minilm"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:         os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:           getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIEmbedModel:      getEnvDefault("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		RetrievalEnabled:      getEnvBoolDefault("RETRIEVAL_ENABLED", true),
		RetrievalK:            getEnvIntDefault("RETRIEVAL_K", 4, &warnings),
		SessionStore:          strings.ToLower(getEnvDefault("SESSION_STORE", "memory")),
		SessionDir:            getEnvDefault("SESSION_DIR", "data/sessions"),
		DatabaseURL:           os.Getenv("DB_URL"),
		SessionHistoryLimit:   getEnvIntDefault("SESSION_HISTORY_LIMIT", 40, &warnings),
		MailTransport:         strings.ToLower(getEnvDefault("MAIL_TRANSPORT", "smtp")),
		SMTPServer:            os.Getenv("SMTP_SERVER"),
		SMTPPort:              getEnvIntDefault("SMTP_PORT", 587, &warnings),
		SMTPUser:              os.Getenv("SMTP_USER"),
		SMTPPass:              os.Getenv("SMTP_PASS"),
		MailFrom:              getEnvDefault("MAIL_FROM", os.Getenv("SMTP_USER")),
		MailRelayURL:          os.Getenv("MAIL_RELAY_URL"),
		MailRelayTokenURL:     os.Getenv("MAIL_RELAY_TOKEN_URL"),
		MailRelayClientID:     os.Getenv("MAIL_RELAY_CLIENT_ID"),
		MailRelayClientSecret: os.Getenv("MAIL_RELAY_CLIENT_SECRET"),
		MailRelayScopes:       getEnvListDefault("MAIL_RELAY_SCOPES", nil),
		MetricsEnabled:        getEnvBoolDefault("METRICS_ENABLED", true),
	}
	if cfg.LLMProvider == "openai" && cfg.OpenAIAPIKey == "" && cfg.OpenAIBaseURL == "" {
		warnings = append(warnings, "OPENAI_API_KEY is not set; generated replies will use fallback text")
	}
	if cfg.MailTransport == "smtp" && cfg.SMTPServer == "" {
		warnings = append(warnings, "SMTP_SERVER is not set; bills and confirmations cannot be emailed")
	}
	cfg.Warnings = warnings
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getEnvIntDefault(key string, def int, warnings *[]string) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		*warnings = append(*warnings, fmt.Sprintf("%s=%q is not an integer, using %d", key, v, def))
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration, warnings *[]string) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		*warnings = append(*warnings, fmt.Sprintf("%s=%q is not a duration, using %s", key, v, def))
	}
	return def
}
