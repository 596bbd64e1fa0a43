package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort      = "8080"
	defaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash-preview-09-2025:generateContent"
	defaultAttempts  = 5
)

type ServerConfig struct {
	Port               string   `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type FirebaseConfig struct {
	CredentialsPath string `yaml:"credentials_path"`
	ProjectID       string `yaml:"project_id"`
	// AppID compõe o caminho artifacts/{appId}/public/data/todos
	AppID string `yaml:"app_id"`
}

type GeminiConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	MaxAttempts int    `yaml:"max_attempts"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN monta a string de conexão do lib/pq.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Firebase FirebaseConfig `yaml:"firebase"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	DB       DBConfig       `yaml:"db"`
	LogLevel string         `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{Port: defaultPort},
		Gemini: GeminiConfig{URL: defaultGeminiURL, MaxAttempts: defaultAttempts},
		DB:     DBConfig{Host: "localhost", Port: 5432, SSLMode: "disable"},
	}
}

// Load lê o arquivo YAML em path (opcional; ausente é ignorado) e aplica as
// variáveis de ambiente por cima.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("erro ao abrir %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("erro ao decodificar %s: %w", path, err)
			}
		}
	}

	if err := overrideFromEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overrideFromEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s inválido %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	// Servidor
	setString("SERVER_PORT", &cfg.Server.Port)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.CORSAllowedOrigins = strings.Split(origins, ",")
	}

	// Firebase
	setString("FIREBASE_CREDENTIALS_PATH", &cfg.Firebase.CredentialsPath)
	setString("FIREBASE_PROJECT_ID", &cfg.Firebase.ProjectID)
	setString("APP_ID", &cfg.Firebase.AppID)

	// Gemini
	setString("GEMINI_API_URL", &cfg.Gemini.URL)
	setString("GEMINI_API_KEY", &cfg.Gemini.APIKey)
	if err := setInt("GEMINI_MAX_ATTEMPTS", &cfg.Gemini.MaxAttempts); err != nil {
		return err
	}

	// PostgreSQL
	setString("DB_HOST", &cfg.DB.Host)
	if err := setInt("DB_PORT", &cfg.DB.Port); err != nil {
		return err
	}
	setString("DB_USER", &cfg.DB.User)
	setString("DB_PASSWORD", &cfg.DB.Password)
	setString("DB_NAME", &cfg.DB.Name)
	setString("DB_SSLMODE", &cfg.DB.SSLMode)

	setString("LOG_LEVEL", &cfg.LogLevel)
	return nil
}

// Validate confere os campos sem os quais o servidor não sobe.
func (c *Config) Validate() error {
	var errs []error
	if c.Firebase.CredentialsPath == "" {
		errs = append(errs, errors.New("FIREBASE_CREDENTIALS_PATH não está definido"))
	}
	if c.Firebase.AppID == "" {
		errs = append(errs, errors.New("APP_ID não está definido"))
	}
	if c.Gemini.URL == "" {
		errs = append(errs, errors.New("GEMINI_API_URL não está definido"))
	}
	if c.Gemini.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("GEMINI_MAX_ATTEMPTS deve ser >= 1 (atual: %d)", c.Gemini.MaxAttempts))
	}
	return errors.Join(errs...)
}
