package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	Cache      CacheConfig
	LLM        LLMConfig
	Adapters   AdapterConfig
	Snapshot   SnapshotConfig
	Twilio     TwilioConfig
	Classifier ClassifierConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// AuthConfig guards the API with an X-API-Key header. Auth is disabled when
// the key is unset.
type AuthConfig struct {
	APIKey string
}

type CacheConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type LLMConfig struct {
	// Provider selects the generative backend: "google" or "openai".
	Provider     string
	GoogleAPIKey string
	OpenAIAPIKey string
	Model        string
	Temperature  float64
	Timeout      time.Duration
}

type AdapterConfig struct {
	OpenWeatherAPIKey string
	NewsAPIKey        string
	GeocodeUserAgent  string

	GeocodeTimeout time.Duration
	WeatherTimeout time.Duration
	SeismicTimeout time.Duration
	EventsTimeout  time.Duration
	NewsTimeout    time.Duration
}

type SnapshotConfig struct {
	Enabled  bool
	Interval time.Duration
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

type ClassifierConfig struct {
	InferenceURL string
	Timeout      time.Duration
}

func Load() (*Config, error) {
	// Best effort; environment variables win over .env contents.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_SECRET_KEY", ""),
		},
		Cache: CacheConfig{
			Enabled:  getEnvAsBool("CACHE_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		LLM: LLMConfig{
			Provider:     getEnv("LLM_PROVIDER", "google"),
			GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			Model:        getEnv("LLM_MODEL", ""),
			Temperature:  getEnvAsFloat("LLM_TEMPERATURE", 0.4),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Adapters: AdapterConfig{
			OpenWeatherAPIKey: getEnv("OPENWEATHERMAP_API_KEY", ""),
			NewsAPIKey:        getEnv("NEWSAPI_KEY", ""),
			GeocodeUserAgent:  getEnv("GEOCODE_USER_AGENT", "hazardwatch/1.0"),
			GeocodeTimeout:    getEnvAsDuration("GEOCODE_TIMEOUT", 10*time.Second),
			WeatherTimeout:    getEnvAsDuration("WEATHER_TIMEOUT", 10*time.Second),
			SeismicTimeout:    getEnvAsDuration("SEISMIC_TIMEOUT", 15*time.Second),
			EventsTimeout:     getEnvAsDuration("EVENTS_TIMEOUT", 15*time.Second),
			NewsTimeout:       getEnvAsDuration("NEWS_TIMEOUT", 15*time.Second),
		},
		Snapshot: SnapshotConfig{
			Enabled:  getEnvAsBool("SNAPSHOT_ENABLED", true),
			Interval: getEnvAsDuration("SNAPSHOT_INTERVAL", 10*time.Minute),
		},
		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		},
		Classifier: ClassifierConfig{
			InferenceURL: getEnv("CLASSIFIER_URL", ""),
			Timeout:      getEnvAsDuration("CLASSIFIER_TIMEOUT", 20*time.Second),
		},
	}

	switch cfg.LLM.Provider {
	case "google":
		if cfg.LLM.GoogleAPIKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required when LLM_PROVIDER=google")
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "gemini-1.5-flash"
		}
	case "openai":
		if cfg.LLM.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "gpt-4o-mini"
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (expected google or openai)", cfg.LLM.Provider)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
