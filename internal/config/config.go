package config

import "github.com/caarlos0/env/v10"

// Config zentralisiert die Konfiguration des Dienstes.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	LLMAPIKey      string `env:"LLM_API_KEY,required"`
	LLMBaseURL     string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel       string `env:"LLM_MODEL" envDefault:"gpt-4-turbo-preview"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	WhisperModel   string `env:"WHISPER_MODEL" envDefault:"whisper-1"`
	// Sprach-Hint für die Transkription; Falldokumentation ist deutsch.
	TranscribeLanguage string `env:"TRANSCRIBE_LANGUAGE" envDefault:"de"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	// Fenster und Obergrenze für LLM-gebundene Aufrufe pro Fachkraft.
	LLMRateWindowMinutes int `env:"LLM_RATE_WINDOW_MINUTES" envDefault:"10"`
	LLMRateMax           int `env:"LLM_RATE_MAX" envDefault:"60"`
}

// LoadConfig lädt die Konfiguration aus Umgebungsvariablen.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
