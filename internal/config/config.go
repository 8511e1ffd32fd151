package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const Version = "1.4.0"

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	SMTP         SMTPConfig
	Voice        VoiceConfig
	Zoho         ZohoConfig
	Conversation ConversationConfig
	Intro        IntroConfig
	Ai           AIConfig
	Auth         AuthConfig
	Otel         OtelConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	FrontendURL        string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection string
	Debug      bool
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type VoiceConfig struct {
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	STTModel          string
	ElevenLabsBaseURL string
	Timeout           time.Duration
	FFmpegPath        string
	CacheTTL          time.Duration
}

type ZohoConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccountsURL  string
	APIBase      string
}

type ConversationConfig struct {
	SessionTTL      time.Duration
	UpstreamTimeout time.Duration
	ScriptPath      string
}

type IntroConfig struct {
	Origin                 string
	TrustedOrigins         []string
	AllowAnyOriginFallback bool
	NextURL                string
}

type AIConfig struct {
	LLMProvider string // "" disables the LLM extractor; "ollama" or "openai"
	LLMModel    string
	LLMBaseURL  string
	LLMAPIKey   string
}

type AuthConfig struct {
	JWTSecret string
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	frontend := getEnv("FRONTEND_URL", "http://localhost:5173")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			FrontendURL:        frontend,
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/intro.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", frontend),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Debug:      getEnvAsBool("DB_DEBUG", false),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "261 Claims"),
		},
		Voice: VoiceConfig{
			ElevenLabsAPIKey:  getEnv("ELEVENLABS_API_KEY", ""),
			ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", ""),
			STTModel:          getEnv("ELEVENLABS_STT_MODEL", "scribe_v1"),
			ElevenLabsBaseURL: getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
			Timeout:           getEnvAsDuration("ELEVENLABS_TIMEOUT", 30*time.Second),
			FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
			CacheTTL:          getEnvAsDuration("TTS_CACHE_TTL", 24*time.Hour),
		},
		Zoho: ZohoConfig{
			ClientID:     getEnv("ZOHO_CLIENT_ID", ""),
			ClientSecret: getEnv("ZOHO_CLIENT_SECRET", ""),
			RefreshToken: getEnv("ZOHO_REFRESH_TOKEN", ""),
			AccountsURL:  getEnv("ZOHO_ACCOUNTS_URL", "https://accounts.zoho.com"),
			APIBase:      getEnv("ZOHO_API_BASE", "https://www.zohoapis.com/crm/v2"),
		},
		Conversation: ConversationConfig{
			SessionTTL:      getEnvAsDuration("SESSION_TTL", time.Hour),
			UpstreamTimeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 20*time.Second),
			ScriptPath:      getEnv("INTAKE_SCRIPT_PATH", ""),
		},
		Intro: IntroConfig{
			Origin:                 getEnv("INTRO_ORIGIN", frontend),
			TrustedOrigins:         getEnvAsList("INTRO_TRUSTED_ORIGINS", nil),
			AllowAnyOriginFallback: getEnvAsBool("INTRO_ALLOW_ANY_ORIGIN_FALLBACK", true),
			NextURL:                getEnv("INTRO_NEXT_URL", "/claim"),
		},
		Ai: AIConfig{
			LLMProvider: getEnv("LLM_PROVIDER", ""),
			LLMModel:    getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Otel: OtelConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "e261-voice-be"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
