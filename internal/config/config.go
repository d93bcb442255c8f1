package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPAddr string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	SessionSecret string
	GinMode       string
	OpenAIAPIKey  string

	TokenHMACSecret    string
	TokenRSAPublicKey  string
	TokenIssuer        string
	TokenUsernameClaim string

	NotificationsPath    string
	DeadlineScanInterval time.Duration
	DeadlineWarningDays  int
	AllowedOrigins       []string

	MigrateOnly bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "ticketuser")
	v.SetDefault("DB_PASSWORD", "ticketpassword")
	v.SetDefault("DB_NAME", "ticket_tracker")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SESSION_SECRET", "default-secret-key-change-me")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("TOKEN_HMAC_SECRET", "")
	v.SetDefault("TOKEN_RSA_PUBLIC_KEY", "")
	v.SetDefault("TOKEN_ISSUER", "")
	v.SetDefault("TOKEN_USERNAME_CLAIM", "preferred_username")
	v.SetDefault("NOTIFICATIONS_PATH", "/api/v1/notifications")
	v.SetDefault("DEADLINE_SCAN_INTERVAL", "15m")
	v.SetDefault("DEADLINE_WARNING_DAYS", 2)
	v.SetDefault("ALLOWED_ORIGINS", "*")
}

// Load reads configuration from defaults, an optional config file, the
// environment and command-line flags, in increasing priority.
func Load(args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flags.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	flags.String("config", "", "optional config file (yaml, toml or json)")
	flags.Bool("migrate-only", false, "run database migrations and exit")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	if err := v.BindPFlag("HTTP_ADDR", flags.Lookup("addr")); err != nil {
		return nil, fmt.Errorf("failed to bind addr flag: %w", err)
	}
	migrateOnly, _ := flags.GetBool("migrate-only")

	cfg := fromViper(v)
	cfg.MigrateOnly = migrateOnly
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		AppEnv:               v.GetString("APP_ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		HTTPAddr:             v.GetString("HTTP_ADDR"),
		DBDriver:             strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:               v.GetString("DB_HOST"),
		DBPort:               v.GetString("DB_PORT"),
		DBUser:               v.GetString("DB_USER"),
		DBPassword:           v.GetString("DB_PASSWORD"),
		DBName:               v.GetString("DB_NAME"),
		DBSSLMode:            v.GetString("DB_SSLMODE"),
		RedisHost:            v.GetString("REDIS_HOST"),
		RedisPort:            v.GetString("REDIS_PORT"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		SessionSecret:        v.GetString("SESSION_SECRET"),
		GinMode:              v.GetString("GIN_MODE"),
		OpenAIAPIKey:         v.GetString("OPENAI_API_KEY"),
		TokenHMACSecret:      v.GetString("TOKEN_HMAC_SECRET"),
		TokenRSAPublicKey:    v.GetString("TOKEN_RSA_PUBLIC_KEY"),
		TokenIssuer:          v.GetString("TOKEN_ISSUER"),
		TokenUsernameClaim:   v.GetString("TOKEN_USERNAME_CLAIM"),
		NotificationsPath:    v.GetString("NOTIFICATIONS_PATH"),
		DeadlineScanInterval: v.GetDuration("DEADLINE_SCAN_INTERVAL"),
		DeadlineWarningDays:  v.GetInt("DEADLINE_WARNING_DAYS"),
		AllowedOrigins:       splitList(v.GetString("ALLOWED_ORIGINS")),
	}
}

// Validate reports configuration the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want mysql or postgres)", c.DBDriver)
	}
	if c.TokenHMACSecret == "" && c.TokenRSAPublicKey == "" {
		return fmt.Errorf("one of TOKEN_HMAC_SECRET or TOKEN_RSA_PUBLIC_KEY is required")
	}
	if c.DeadlineWarningDays < 0 {
		return fmt.Errorf("DEADLINE_WARNING_DAYS must not be negative")
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
