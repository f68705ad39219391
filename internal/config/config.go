package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App struct {
		Name  string `mapstructure:"name"`
		Env   string `mapstructure:"env"`
		Debug bool   `mapstructure:"debug"`
	} `mapstructure:"app"`

	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`

	Database struct {
		Driver     string `mapstructure:"driver"`
		DSN        string `mapstructure:"dsn"`
		Host       string `mapstructure:"host"`
		Port       int    `mapstructure:"port"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		Name       string `mapstructure:"name"`
		SSLMode    string `mapstructure:"sslmode"`
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"database"`

	Webhook struct {
		Timeout   time.Duration `mapstructure:"timeout"`
		UserAgent string        `mapstructure:"user_agent"`
	} `mapstructure:"webhook"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		Output string `mapstructure:"output"`
		File   string `mapstructure:"file"`
	} `mapstructure:"log"`

	CORS struct {
		AllowOrigins []string `mapstructure:"allow_origins"`
	} `mapstructure:"cors"`

	Sessions struct {
		RecentLimit int `mapstructure:"recent_limit"`
	} `mapstructure:"sessions"`
}

// Load lê o .env (quando existir) e resolve a configuração a partir do ambiente.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("app.name", "chatrelay")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "chatrelay")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "chat.db")
	v.SetDefault("webhook.timeout", 30*time.Second)
	v.SetDefault("webhook.user_agent", "ChatRelay-Webhook/1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "")
	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("sessions.recent_limit", 20)

	bindings := map[string][]string{
		"app.name":              {"APP_NAME"},
		"app.env":               {"APP_ENV"},
		"app.debug":             {"APP_DEBUG"},
		"server.port":           {"SERVER_PORT", "PORT"},
		"database.driver":       {"DATABASE_DRIVER"},
		"database.dsn":          {"DATABASE_DSN", "DATABASE_URL"},
		"database.host":         {"POSTGRES_HOST"},
		"database.port":         {"POSTGRES_PORT"},
		"database.user":         {"POSTGRES_USER"},
		"database.password":     {"POSTGRES_PASSWORD"},
		"database.name":         {"POSTGRES_DB"},
		"database.sslmode":      {"POSTGRES_SSLMODE"},
		"database.sqlite_path":  {"SQLITE_PATH"},
		"webhook.timeout":       {"WEBHOOK_TIMEOUT"},
		"webhook.user_agent":    {"WEBHOOK_USER_AGENT"},
		"log.level":             {"LOG_LEVEL"},
		"log.format":            {"LOG_FORMAT"},
		"log.output":            {"LOG_OUTPUT"},
		"log.file":              {"LOG_FILE"},
		"cors.allow_origins":    {"CORS_ALLOW_ORIGINS"},
		"sessions.recent_limit": {"SESSIONS_RECENT_LIMIT"},
	}
	for key, envs := range bindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	return v
}

func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("erro ao mapear configuração: %w", err)
	}

	// CORS_ALLOW_ORIGINS chega do ambiente como uma string separada por vírgulas
	cfg.CORS.AllowOrigins = splitList(strings.Join(cfg.CORS.AllowOrigins, ","))

	if cfg.Database.Driver == "" {
		if cfg.Database.Host != "" || strings.HasPrefix(cfg.Database.DSN, "postgres") {
			cfg.Database.Driver = DriverPostgres
		} else {
			cfg.Database.Driver = DriverSQLite
		}
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = cfg.buildDSN()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) buildDSN() string {
	switch c.Database.Driver {
	case DriverPostgres:
		u := &url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.Database.User, c.Database.Password),
			Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
			Path:     "/" + c.Database.Name,
			RawQuery: "sslmode=" + c.Database.SSLMode,
		}
		return u.String()
	default:
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", c.Database.SQLitePath)
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("driver de banco não suportado: %s", c.Database.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("porta inválida: %d", c.Server.Port)
	}

	if c.Webhook.Timeout <= 0 {
		return fmt.Errorf("timeout de webhook inválido: %s", c.Webhook.Timeout)
	}

	if c.Sessions.RecentLimit <= 0 {
		c.Sessions.RecentLimit = 20
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.Env, "development")
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
