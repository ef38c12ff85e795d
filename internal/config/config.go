package config

import (
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTTTLHours int    `mapstructure:"JWT_TTL_HOURS"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// ReceiptsDir is the fixed root directory receipt PDFs are served from.
	ReceiptsDir string `mapstructure:"RECEIPTS_DIR"`

	// PaymentProviders is the brand allow-list, encoded as
	// "brand=endpoint,brand=endpoint". It is parsed once at startup and
	// never mutated afterwards.
	PaymentProviders string `mapstructure:"PAYMENT_PROVIDERS"`

	SMTPHost    string `mapstructure:"SMTP_HOST"`
	SMTPPort    int    `mapstructure:"SMTP_PORT"`
	SMTPUser    string `mapstructure:"SMTP_USER"`
	SMTPPass    string `mapstructure:"SMTP_PASS"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`
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
	v.SetDefault("JWT_TTL_HOURS", 1)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RECEIPTS_DIR", "/invoices")
	v.SetDefault("PAYMENT_PROVIDERS", "visa=http://visa,mastercard=http://master,master=http://master")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("JWT_TTL_HOURS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RECEIPTS_DIR")
	v.BindEnv("PAYMENT_PROVIDERS")
	v.BindEnv("SMTP_HOST")
	v.BindEnv("SMTP_PORT")
	v.BindEnv("SMTP_USER")
	v.BindEnv("SMTP_PASS")
	v.BindEnv("FRONTEND_URL")

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

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: A built-in JWT secret is used when JWT_SECRET is unset.")
		log.Println("WARNING: Do NOT use this configuration in production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ProviderEndpoints parses PAYMENT_PROVIDERS into a brand → endpoint map.
func (c *Config) ProviderEndpoints() (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(c.PaymentProviders, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		brand, endpoint, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed PAYMENT_PROVIDERS entry %q", pair)
		}
		brand = strings.ToLower(strings.TrimSpace(brand))
		endpoint = strings.TrimSpace(endpoint)
		u, err := url.Parse(endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, fmt.Errorf("provider endpoint for %q must be an http(s) URL, got %q", brand, endpoint)
		}
		out[brand] = endpoint
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("PAYMENT_PROVIDERS must define at least one brand")
	}
	return out, nil
}

// Validate checks that the configuration is safe to run. Outside development
// a real JWT secret is mandatory, and the receipts root must be an absolute
// path so filename validation cannot be sidestepped by a relative root.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q; refusing to start without authentication configuration", c.Env)
	}
	if !filepath.IsAbs(c.ReceiptsDir) {
		return fmt.Errorf("RECEIPTS_DIR must be an absolute path, got %q", c.ReceiptsDir)
	}
	if _, err := c.ProviderEndpoints(); err != nil {
		return err
	}
	if c.JWTTTLHours <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive, got %d", c.JWTTTLHours)
	}
	return nil
}
