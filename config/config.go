package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	minSecretLength = 32
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	Environment  string

	// Учётные данные, которыми засевается таблица settings при первом запуске.
	AdminUsername string
	AdminPassword string

	// Пустой RedisURL отключает кеш публичного списка игроков.
	RedisURL string

	CORSAllowedOrigins []string
	LoginRateLimit     int // запросов в минуту с одного IP

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(envOr("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	env := strings.ToLower(envOr("APP_ENV", EnvDevelopment))
	if env != EnvDevelopment && env != EnvProduction {
		return nil, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, env)
	}

	adminUser := os.Getenv("ADMIN_USERNAME")
	adminPass := os.Getenv("ADMIN_PASSWORD")
	if env == EnvDevelopment {
		if adminUser == "" {
			adminUser = "admin"
		}
		if adminPass == "" {
			adminPass = "admin123"
		}
	}

	rateLimit := envInt("LOGIN_RATE_LIMIT", 10)
	if rateLimit <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT must be positive, got %d", rateLimit)
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		Environment:        env,
		AdminUsername:      adminUser,
		AdminPassword:      adminPass,
		RedisURL:           os.Getenv("REDIS_URL"),
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LoginRateLimit:     rateLimit,
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           envInt("SMTP_PORT", 587),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASS"),
		SMTPFrom:           os.Getenv("SMTP_FROM"),
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// Validate возвращает предупреждения о небезопасной конфигурации.
// Для development предупреждений нет.
func (c *Config) Validate() []string {
	if !c.IsProduction() {
		return nil
	}

	var warnings []string
	if len(c.JWTSecretKey) < minSecretLength {
		warnings = append(warnings, fmt.Sprintf("JWT_SECRET_KEY is shorter than %d characters", minSecretLength))
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		warnings = append(warnings, "ADMIN_USERNAME/ADMIN_PASSWORD not set, admin seeding is skipped")
	} else if isWeakPassword(c.AdminPassword) {
		warnings = append(warnings, "ADMIN_PASSWORD is weak")
	}
	if strings.Contains(c.DatabaseURL, ":password@") || strings.Contains(c.DatabaseURL, ":postgres@") {
		warnings = append(warnings, "DATABASE_URL uses a default password")
	}
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			warnings = append(warnings, "CORS_ALLOWED_ORIGINS allows any origin")
			break
		}
	}
	return warnings
}

func isWeakPassword(p string) bool {
	switch strings.ToLower(p) {
	case "admin", "admin123", "password", "123456", "12345678":
		return true
	}
	return len(p) < 8
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
