package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                   string   `mapstructure:"PORT"`
	Env                    string   `mapstructure:"ENV"`
	DatabaseURL            string   `mapstructure:"DATABASE_URL"`
	DBMaxConns             int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns             int32    `mapstructure:"DB_MIN_CONNS"`
	AdminPasskey           string   `mapstructure:"ADMIN_PASSKEY"`
	SessionSecret          string   `mapstructure:"SESSION_SECRET"`
	SessionTTLMinutes      int      `mapstructure:"SESSION_TTL_MINUTES"`
	CORSOrigins            []string `mapstructure:"CORS_ORIGINS"`
	UsersCollection        string   `mapstructure:"USERS_COLLECTION"`
	PatientsCollection     string   `mapstructure:"PATIENTS_COLLECTION"`
	AppointmentsCollection string   `mapstructure:"APPOINTMENTS_COLLECTION"`
	RateLimitRPS           float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst         int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("SESSION_TTL_MINUTES", 60)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("USERS_COLLECTION", "users")
	v.SetDefault("PATIENTS_COLLECTION", "patients")
	v.SetDefault("APPOINTMENTS_COLLECTION", "appointments")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("ADMIN_PASSKEY")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("SESSION_TTL_MINUTES")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("USERS_COLLECTION")
	v.BindEnv("PATIENTS_COLLECTION")
	v.BindEnv("APPOINTMENTS_COLLECTION")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. The admin passkey
// must be a six digit code; the server refuses to start without one in
// production so the admin surface is never left wide open.
func (c *Config) Validate() error {
	if c.AdminPasskey == "" {
		if c.IsProduction() {
			return fmt.Errorf("ADMIN_PASSKEY is required in production")
		}
	} else {
		if len(c.AdminPasskey) != 6 {
			return fmt.Errorf("ADMIN_PASSKEY must be exactly 6 digits, got %d characters", len(c.AdminPasskey))
		}
		for _, r := range c.AdminPasskey {
			if r < '0' || r > '9' {
				return fmt.Errorf("ADMIN_PASSKEY must contain only digits")
			}
		}
	}

	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", c.SessionTTLMinutes)
	}

	if c.UsersCollection == "" || c.PatientsCollection == "" || c.AppointmentsCollection == "" {
		return fmt.Errorf("collection identifiers must not be empty")
	}

	return nil
}

// SessionSigningKey returns the key used to sign admin session tokens.
// SESSION_SECRET takes precedence; otherwise the passkey itself seeds the
// key, matching the original single-secret deployment.
func (c *Config) SessionSigningKey() []byte {
	if c.SessionSecret != "" {
		return []byte(c.SessionSecret)
	}
	return []byte("intake-session:" + c.AdminPasskey)
}
