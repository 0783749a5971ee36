package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Telephony TelephonyConfig
	IVR       IVRConfig
}

type AppConfig struct {
	Env  string
	Port int

	// LogLevel overrides the env-derived default (debug, info, warn, error).
	LogLevel string

	// PublicBaseURL is the externally reachable scheme+host the provider
	// posts webhooks to. Continuation URLs are built from it.
	PublicBaseURL string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// MaxOpenConns caps the pool; zero uses the utils default.
	MaxOpenConns int

	// SSLMode is one of disable, require, verify-ca, verify-full.
	SSLMode string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TelephonyConfig holds SignalWire (LaML) credentials and voice settings.
type TelephonyConfig struct {
	SpaceURL  string
	ProjectID string
	APIToken  string

	// FromNumber is the caller id used on outbound legs.
	FromNumber string

	ValidateSignatures bool

	Voice    string
	Language string
}

type IVRConfig struct {
	// PaymentURL receives menu option 3. Empty disables phone payments.
	PaymentURL string

	SettingsCacheTTL time.Duration
	// ClickToCallHoldTTL bounds how long a per-number click-to-call slot
	// survives a crashed process.
	ClickToCallHoldTTL time.Duration
}

// Load reads configuration from the environment. A .env file (or the file
// named by ENV_FILE) is loaded first when present; real env vars win.
func Load() (Config, error) {
	loadEnvFile()

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	c.App.PublicBaseURL = strings.TrimSuffix(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	{
		n, err := optionalInt("DB_MAX_OPEN_CONNS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.MaxOpenConns = n
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	{
		n, err := optionalInt("REDIS_DB")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.DB = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate() based on env.
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")

	c.Telephony.SpaceURL = strings.TrimSpace(os.Getenv("SIGNALWIRE_SPACE_URL"))
	c.Telephony.ProjectID = strings.TrimSpace(os.Getenv("SIGNALWIRE_PROJECT_ID"))
	c.Telephony.APIToken = os.Getenv("SIGNALWIRE_API_TOKEN")
	c.Telephony.FromNumber = strings.TrimSpace(os.Getenv("SIGNALWIRE_FROM_NUMBER"))
	c.Telephony.Voice = strings.TrimSpace(os.Getenv("IVR_VOICE"))
	c.Telephony.Language = strings.TrimSpace(os.Getenv("IVR_LANGUAGE"))
	{
		b, err := optionalBool("SIGNALWIRE_VALIDATE_SIGNATURES")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Telephony.ValidateSignatures = b
	}

	c.IVR.PaymentURL = strings.TrimSpace(os.Getenv("IVR_PAYMENT_URL"))
	c.IVR.SettingsCacheTTL = mustDuration("IVR_SETTINGS_CACHE_TTL")
	c.IVR.ClickToCallHoldTTL = mustDuration("IVR_CLICK_TO_CALL_HOLD_TTL")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills env-dependent defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.PublicBaseURL == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required"))
	} else if u, err := url.Parse(c.App.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an absolute URL, got %q", c.App.PublicBaseURL))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			// Allowed values are enforced below.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("REDIS_DB must be >= 0, got %d", c.Redis.DB))
	}
	if c.DB.MaxOpenConns < 0 {
		errs = append(errs, fmt.Errorf("DB_MAX_OPEN_CONNS must be >= 0, got %d", c.DB.MaxOpenConns))
	}
	switch c.App.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.App.LogLevel))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if c.Auth.AccessTokenTTL <= 0 {
		// Default: short-lived access tokens.
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		// Default: longer-lived refresh tokens.
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	// Local runs may skip the provider; outbound calls then fail with a
	// configuration error instead of at startup.
	if c.App.Env != "local" {
		if c.Telephony.SpaceURL == "" {
			errs = append(errs, errors.New("SIGNALWIRE_SPACE_URL is required"))
		}
		if c.Telephony.ProjectID == "" {
			errs = append(errs, errors.New("SIGNALWIRE_PROJECT_ID is required"))
		}
		if c.Telephony.APIToken == "" {
			errs = append(errs, errors.New("SIGNALWIRE_API_TOKEN is required"))
		}
		if c.Telephony.FromNumber == "" {
			errs = append(errs, errors.New("SIGNALWIRE_FROM_NUMBER is required"))
		}
	}
	if c.IsProduction() && !c.Telephony.ValidateSignatures {
		errs = append(errs, errors.New("SIGNALWIRE_VALIDATE_SIGNATURES must be true in production"))
	}
	if c.Telephony.ValidateSignatures && c.Telephony.APIToken == "" {
		errs = append(errs, errors.New("SIGNALWIRE_API_TOKEN is required to validate signatures"))
	}
	if c.Telephony.Voice == "" {
		c.Telephony.Voice = "woman"
	}
	if c.Telephony.Language == "" {
		c.Telephony.Language = "en-US"
	}
	if c.IVR.PaymentURL != "" {
		if u, err := url.Parse(c.IVR.PaymentURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("IVR_PAYMENT_URL must be an absolute URL, got %q", c.IVR.PaymentURL))
		}
	}
	if c.IVR.SettingsCacheTTL <= 0 {
		c.IVR.SettingsCacheTTL = time.Minute
	}
	if c.IVR.ClickToCallHoldTTL <= 0 {
		c.IVR.ClickToCallHoldTTL = time.Minute
	}

	return joinErrors(errs)
}

// TelephonyEnabled reports whether outbound calls can be placed.
func (c Config) TelephonyEnabled() bool {
	return c.Telephony.SpaceURL != "" && c.Telephony.ProjectID != "" && c.Telephony.APIToken != ""
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalBool(key string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func loadEnvFile() {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	// godotenv.Load never overrides variables already set.
	_ = godotenv.Load(path)
}

func optionalInt(key string) (int, error) {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return 0, nil
	}
	return mustInt(key)
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
