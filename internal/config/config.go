package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type NewsConfig struct {
	NewsDataKey   string `yaml:"newsdata_key"`
	NewsDataURL   string `yaml:"newsdata_url"`
	NewsAPIKey    string `yaml:"newsapi_key"`
	NewsAPIURL    string `yaml:"newsapi_url"`
	Country       string `yaml:"country"`
	Language      string `yaml:"language"`
	MaxArticles   int    `yaml:"max_articles"`
	FetchTimeout  int    `yaml:"fetch_timeout_ms"`
	FilterPaywall bool   `yaml:"filter_paywall"`
}

type SpeechConfig struct {
	Mode              string  `yaml:"mode"` // auto, mock
	ServerURL         string  `yaml:"server_url"`
	ProbeTimeout      int     `yaml:"probe_timeout_ms"`
	SynthesizeTimeout int     `yaml:"synthesize_timeout_ms"`
	LocalCommand      string  `yaml:"local_command"`
	PlayerCommand     string  `yaml:"player_command"`
	PrefsPath         string  `yaml:"prefs_path"`
	DefaultEngine     string  `yaml:"default_engine"`
	DefaultVoice      string  `yaml:"default_voice"`
	DefaultSpeed      float64 `yaml:"default_speed"`
	DefaultVolume     float64 `yaml:"default_volume"`
	AutoCleanup       bool    `yaml:"auto_cleanup"`
}

type Config struct {
	Name        string          `yaml:"name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	News        NewsConfig      `yaml:"news"`
	Speech      SpeechConfig    `yaml:"speech"`
}

func Default() Config {
	return Config{
		Name:        "newsd",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		News: NewsConfig{
			NewsDataURL:   "https://newsdata.io/api/1/news",
			NewsAPIURL:    "https://newsapi.org/v2",
			Country:       "za",
			Language:      "en",
			MaxArticles:   20,
			FetchTimeout:  10000,
			FilterPaywall: true,
		},
		Speech: SpeechConfig{
			Mode:              "auto",
			ServerURL:         "http://localhost:8000",
			ProbeTimeout:      3000,
			SynthesizeTimeout: 30000,
			LocalCommand:      "espeak-ng",
			PlayerCommand:     "mpv --no-video --really-quiet",
			PrefsPath:         "./data/speech-prefs.db",
			DefaultEngine:     "pyttsx3",
			DefaultVoice:      "default",
			DefaultSpeed:      1.0,
			DefaultVolume:     0.8,
			AutoCleanup:       true,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Name, "NEWS_NAME")
	overrideString(&cfg.Environment, "NEWS_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "NEWS_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "NEWS_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "NEWS_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "NEWS_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "NEWS_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Enabled, "NEWS_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "NEWS_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "NEWS_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "NEWS_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "NEWS_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "NEWS_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "NEWS_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "NEWS_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "NEWS_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.News.NewsDataKey, "NEWS_NEWSDATA_KEY")
	overrideString(&cfg.News.NewsDataURL, "NEWS_NEWSDATA_URL")
	overrideString(&cfg.News.NewsAPIKey, "NEWS_NEWSAPI_KEY")
	overrideString(&cfg.News.NewsAPIURL, "NEWS_NEWSAPI_URL")
	overrideString(&cfg.News.Country, "NEWS_COUNTRY")
	overrideString(&cfg.News.Language, "NEWS_LANGUAGE")
	overrideInt(&cfg.News.MaxArticles, "NEWS_MAX_ARTICLES")
	overrideInt(&cfg.News.FetchTimeout, "NEWS_FETCH_TIMEOUT_MS")
	overrideBool(&cfg.News.FilterPaywall, "NEWS_FILTER_PAYWALL")
	overrideString(&cfg.Speech.Mode, "NEWS_SPEECH_MODE")
	overrideString(&cfg.Speech.ServerURL, "NEWS_SPEECH_SERVER_URL")
	overrideInt(&cfg.Speech.ProbeTimeout, "NEWS_SPEECH_PROBE_TIMEOUT_MS")
	overrideInt(&cfg.Speech.SynthesizeTimeout, "NEWS_SPEECH_SYNTHESIZE_TIMEOUT_MS")
	overrideString(&cfg.Speech.LocalCommand, "NEWS_SPEECH_LOCAL_COMMAND")
	overrideString(&cfg.Speech.PlayerCommand, "NEWS_SPEECH_PLAYER_COMMAND")
	overrideString(&cfg.Speech.PrefsPath, "NEWS_SPEECH_PREFS_PATH")
	overrideString(&cfg.Speech.DefaultEngine, "NEWS_SPEECH_DEFAULT_ENGINE")
	overrideString(&cfg.Speech.DefaultVoice, "NEWS_SPEECH_DEFAULT_VOICE")
	overrideFloat(&cfg.Speech.DefaultSpeed, "NEWS_SPEECH_DEFAULT_SPEED")
	overrideFloat(&cfg.Speech.DefaultVolume, "NEWS_SPEECH_DEFAULT_VOLUME")
	overrideBool(&cfg.Speech.AutoCleanup, "NEWS_SPEECH_AUTO_CLEANUP")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.Name == "" {
		return errors.New("name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.News.NewsDataURL == "" || cfg.News.NewsAPIURL == "" {
		return errors.New("news source URLs must not be empty")
	}
	if cfg.News.MaxArticles <= 0 {
		return errors.New("news.max_articles must be positive")
	}
	if cfg.News.FetchTimeout <= 0 {
		return errors.New("news.fetch_timeout_ms must be positive")
	}
	switch cfg.Speech.Mode {
	case "auto", "mock":
	default:
		return errors.New("speech.mode must be one of auto|mock")
	}
	if cfg.Speech.ServerURL == "" {
		return errors.New("speech.server_url must not be empty")
	}
	if cfg.Speech.ProbeTimeout <= 0 {
		return errors.New("speech.probe_timeout_ms must be positive")
	}
	if cfg.Speech.SynthesizeTimeout <= 0 {
		return errors.New("speech.synthesize_timeout_ms must be positive")
	}
	if cfg.Speech.PrefsPath == "" {
		return errors.New("speech.prefs_path must not be empty")
	}
	switch cfg.Speech.DefaultEngine {
	case "pyttsx3", "gtts", "local":
	default:
		return errors.New("speech.default_engine must be one of pyttsx3|gtts|local")
	}
	if cfg.Speech.DefaultSpeed < 0.5 || cfg.Speech.DefaultSpeed > 2.0 {
		return errors.New("speech.default_speed must be between 0.5 and 2.0")
	}
	if cfg.Speech.DefaultVolume < 0 || cfg.Speech.DefaultVolume > 1 {
		return errors.New("speech.default_volume must be between 0 and 1")
	}
	return nil
}
