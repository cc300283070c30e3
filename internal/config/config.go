// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Mail      MailConfig      `koanf:"mail"`
	OTP       OTPConfig       `koanf:"otp"`
	Comments  CommentsConfig  `koanf:"comments"`
	Articles  ArticlesConfig  `koanf:"articles"`
	OAuth     OAuthConfig     `koanf:"oauth"`
	Admin     AdminConfig     `koanf:"admin"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	Locale      string `koanf:"locale"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MailConfig struct {
	Host               string `koanf:"host"`
	Port               int    `koanf:"port"`
	Username           string `koanf:"username"`
	Password           string `koanf:"password"`
	From               string `koanf:"from"`
	InsecureSkipVerify bool   `koanf:"insecure_skip_verify"`
}

// Configured reports whether enough transport credentials exist to attempt
// a send.
func (m MailConfig) Configured() bool {
	return m.Host != "" && m.Username != "" && m.Password != ""
}

type OTPConfig struct {
	CodeLength           int           `koanf:"code_length"`
	TTL                  time.Duration `koanf:"ttl"`
	MaxSends             int           `koanf:"max_sends"`
	SendWindow           time.Duration `koanf:"send_window"`
	CleanupInterval      time.Duration `koanf:"cleanup_interval"`
	SendLimitPerMinute   int           `koanf:"send_limit_per_minute"`
	VerifyLimitPerMinute int           `koanf:"verify_limit_per_minute"`
}

const (
	DeletePolicyCascade  = "cascade"
	DeletePolicyReparent = "reparent"
)

type CommentsConfig struct {
	MinLength            int      `koanf:"min_length"`
	MaxLength            int      `koanf:"max_length"`
	MaxDepth             int      `koanf:"max_depth"`
	DeletePolicy         string   `koanf:"delete_policy"`
	Denylist             []string `koanf:"denylist"`
	CreateLimitPerMinute int      `koanf:"create_limit_per_minute"`
}

type ArticlesConfig struct {
	PageSize    int           `koanf:"page_size"`
	MaxPageSize int           `koanf:"max_page_size"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`
}

type OAuthConfig struct {
	SessionSecret      string `koanf:"session_secret"`
	CallbackBaseURL    string `koanf:"callback_base_url"`
	GoogleClientID     string `koanf:"google_client_id"`
	GoogleClientSecret string `koanf:"google_client_secret"`
	GitHubClientID     string `koanf:"github_client_id"`
	GitHubClientSecret string `koanf:"github_client_secret"`
}

func (o OAuthConfig) Enabled() bool {
	return o.GoogleClientID != "" || o.GitHubClientID != ""
}

type AdminConfig struct {
	BootstrapEmail string `koanf:"bootstrap_email"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Mini CMS",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.locale":      "en",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "168h",
		"jwt.issuer":               "minicms",
		"jwt.audience":             "minicms-api",
		"jwt.private_key_path":     "keys/private.pem",
		"jwt.public_key_path":      "keys/public.pem",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "minicms",

		"mail.port": 587,

		"otp.code_length":             6,
		"otp.ttl":                     "15m",
		"otp.max_sends":               5,
		"otp.send_window":             "1h",
		"otp.cleanup_interval":        "10m",
		"otp.send_limit_per_minute":   5,
		"otp.verify_limit_per_minute": 10,

		"comments.min_length":              3,
		"comments.max_length":              1000,
		"comments.max_depth":               3,
		"comments.delete_policy":           DeletePolicyCascade,
		"comments.denylist":                []string{},
		"comments.create_limit_per_minute": 10,

		"articles.page_size":     12,
		"articles.max_page_size": 50,
		"articles.cache_ttl":     "1h",

		"oauth.callback_base_url": "http://localhost:8080",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":    "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"APP_LOCALE":                  "app.locale",
	"SMTP_HOST":                   "mail.host",
	"SMTP_PORT":                   "mail.port",
	"SMTP_USER":                   "mail.username",
	"SMTP_APP_PASSWORD":           "mail.password",
	"SMTP_FROM":                   "mail.from",
	"SMTP_INSECURE_SKIP_VERIFY":   "mail.insecure_skip_verify",
	"OTP_TTL":                     "otp.ttl",
	"OTP_MAX_SENDS":               "otp.max_sends",
	"OTP_SEND_WINDOW":             "otp.send_window",
	"COMMENTS_MAX_DEPTH":          "comments.max_depth",
	"COMMENTS_DELETE_POLICY":      "comments.delete_policy",
	"ARTICLES_CACHE_TTL":          "articles.cache_ttl",
	"OAUTH_SESSION_SECRET":        "oauth.session_secret",
	"OAUTH_CALLBACK_BASE_URL":     "oauth.callback_base_url",
	"GOOGLE_CLIENT_ID":            "oauth.google_client_id",
	"GOOGLE_CLIENT_SECRET":        "oauth.google_client_secret",
	"GITHUB_CLIENT_ID":            "oauth.github_client_id",
	"GITHUB_CLIENT_SECRET":        "oauth.github_client_secret",
	"ADMIN_BOOTSTRAP_EMAIL":       "admin.bootstrap_email",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.App.Locale != "en" && c.App.Locale != "fa" {
		return fmt.Errorf("app.locale must be one of en, fa")
	}

	if c.OTP.CodeLength < 4 || c.OTP.CodeLength > 10 {
		return fmt.Errorf("otp.code_length must be between 4 and 10")
	}

	if c.OTP.TTL <= 0 || c.OTP.SendWindow <= 0 || c.OTP.MaxSends <= 0 {
		return fmt.Errorf("otp.ttl, otp.send_window and otp.max_sends must be positive")
	}

	if c.Comments.MinLength < 1 || c.Comments.MaxLength < c.Comments.MinLength {
		return fmt.Errorf("comments length bounds are invalid")
	}

	if c.Comments.MaxDepth < 1 {
		return fmt.Errorf("comments.max_depth must be at least 1")
	}

	switch c.Comments.DeletePolicy {
	case DeletePolicyCascade, DeletePolicyReparent:
	default:
		return fmt.Errorf(
			"comments.delete_policy must be %q or %q",
			DeletePolicyCascade,
			DeletePolicyReparent,
		)
	}

	if c.Articles.PageSize < 1 || c.Articles.MaxPageSize < c.Articles.PageSize {
		return fmt.Errorf("articles page sizes are invalid")
	}

	if c.OAuth.Enabled() && c.OAuth.SessionSecret == "" {
		return fmt.Errorf("OAUTH_SESSION_SECRET is required when OAuth is enabled")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
