package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DevelopmentSecret is the fallback signing key. It is refused in release mode.
const DevelopmentSecret = "taskline-secret-key-change-in-production"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // mongodb, sqlite, mysql, postgres
	URL    string `yaml:"url"`    // mongodb connection url
	Name   string `yaml:"name"`   // mongodb database name
	DSN    string `yaml:"dsn"`    // gorm dsn for relational drivers
}

type JWTConfig struct {
	Secret        string `yaml:"secret"`
	ExpireMinutes int    `yaml:"expire_minutes"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig applies to the public auth endpoints
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configPath (default config.yaml) if it exists, then applies a
// .env file and environment overrides.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		cfg = DefaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg.overrideFromEnv()
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8000",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "mongodb",
			URL:    "mongodb://localhost:27017",
			Name:   "project_management",
			DSN:    "taskline.db",
		},
		JWT: JWTConfig{
			Secret:        DevelopmentSecret,
			ExpireMinutes: 30,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
				"http://127.0.0.1:3000",
				"http://127.0.0.1",
				"https://localhost:3000",
				"https://localhost",
			},
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	} else if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if url := os.Getenv("MONGODB_URL"); url != "" {
		c.Database.URL = url
	}
	if name := os.Getenv("DATABASE_NAME"); name != "" {
		c.Database.Name = name
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("SECRET_KEY"); secret != "" {
		c.JWT.Secret = secret
	} else if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if minutes, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES")); err == nil && minutes > 0 {
		c.JWT.ExpireMinutes = minutes
	}
	// Extra origins are appended to the configured list.
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.CORS.AllowedOrigins = append(c.CORS.AllowedOrigins, splitAndTrim(origins, ",")...)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64); err == nil && rps > 0 {
		c.RateLimit.RPS = rps
	}
	if burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST")); err == nil && burst > 0 {
		c.RateLimit.Burst = burst
	}
}

// Validate rejects configurations that must not reach production.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret must not be empty")
	}
	if c.Server.Mode == "release" && c.JWT.Secret == DevelopmentSecret {
		return errors.New("SECRET_KEY must be set in release mode")
	}
	switch c.Database.Driver {
	case "mongodb":
		if c.Database.URL == "" || c.Database.Name == "" {
			return errors.New("mongodb driver requires url and name")
		}
	case "sqlite", "mysql", "postgres":
		if c.Database.DSN == "" {
			return errors.New(c.Database.Driver + " driver requires dsn")
		}
	default:
		return errors.New("unsupported database driver: " + c.Database.Driver)
	}
	return nil
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
