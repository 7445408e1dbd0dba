package config

import "fmt"

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	PaymentPageURL string   `mapstructure:"payment_page_url"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// JWTConfig configures the session issuer. The signing key is process-wide
// and loaded once at startup; there is no rotation.
type JWTConfig struct {
	Secret                  string `mapstructure:"secret"`
	SessionExpHours         int    `mapstructure:"session_exp_hours"`
	PaymentIntentExpMinutes int    `mapstructure:"payment_intent_exp_minutes"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

// IdentityConfig configures the external identity provider used to verify
// bearer credentials on sync.
type IdentityConfig struct {
	VerifyURL      string `mapstructure:"verify_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PayPalConfig configures the payment processor client.
type PayPalConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	ClientID       string `mapstructure:"client_id"`
	ClientSecret   string `mapstructure:"client_secret"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PlansConfig points at an optional YAML file overriding the built-in
// plan catalog.
type PlansConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
}
