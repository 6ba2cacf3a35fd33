package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Directory DirectoryConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Photo     PhotoConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// DBConfig describes one Postgres connection. It is used for the primary
// user store and, with a DIRECTORY_ prefix, for the employee directory.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type DirectoryConfig struct {
	DB DBConfig

	// CostCenters restricts which directory rows may authenticate.
	// Unset defaults to the two maintenance cost centers.
	CostCenters []string
	// AllCostCenters lifts the restriction ("*" in DIRECTORY_COST_CENTERS).
	AllCostCenters bool

	// LoginEnabled allows the national-id-only login path.
	LoginEnabled bool
}

// RedisConfig is optional; it is only required when Photo.Cache is "redis".
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// SessionTTL is the lifetime of a session token.
	SessionTTL time.Duration
	// SessionLeeway is the clock skew tolerated when verifying exp/iat.
	SessionLeeway time.Duration
}

type PhotoConfig struct {
	BaseURL   string
	Cache     string
	CacheTTL  time.Duration
	CacheSize int
}

const (
	PhotoCacheMemory = "memory"
	PhotoCacheRedis  = "redis"
)

// DefaultCostCenters are the directory cost centers allowed to sign in
// when DIRECTORY_COST_CENTERS is unset.
var DefaultCostCenters = []string{"Tecnicos de Mantenimiento", "Gestion de Mantenimiento"}

const (
	defaultSessionTTL     = 2 * time.Hour
	defaultPhotoCacheTTL  = time.Hour
	defaultPhotoCacheSize = 1024
	defaultPhotoBaseURL   = "https://admon.sao6.com.co/web/uploads/empleados/"
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	{
		db, errs := loadDB("DB_")
		c.DB = db
		parseErrs = append(parseErrs, errs...)
	}
	{
		db, errs := loadDB("DIRECTORY_DB_")
		c.Directory.DB = db
		parseErrs = append(parseErrs, errs...)
	}
	if v := strings.TrimSpace(os.Getenv("DIRECTORY_COST_CENTERS")); v == "*" {
		c.Directory.AllCostCenters = true
	} else {
		c.Directory.CostCenters = splitList(v)
	}
	{
		b, err := optionalBool("DIRECTORY_LOGIN_ENABLED", true)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Directory.LoginEnabled = b
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := optionalInt("REDIS_PORT")
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
	// Duration env vars are optional; defaults applied in Validate().
	for _, f := range []struct {
		key string
		dst *time.Duration
	}{
		{"SESSION_TTL", &c.Auth.SessionTTL},
		{"SESSION_LEEWAY", &c.Auth.SessionLeeway},
		{"PHOTO_CACHE_TTL", &c.Photo.CacheTTL},
	} {
		d, err := optionalDuration(f.key)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		*f.dst = d
	}

	c.Photo.BaseURL = strings.TrimSpace(os.Getenv("PHOTO_BASE_URL"))
	c.Photo.Cache = strings.ToLower(strings.TrimSpace(os.Getenv("PHOTO_CACHE")))
	{
		n, err := optionalInt("PHOTO_CACHE_SIZE")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Photo.CacheSize = n
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills in defaults.
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

	errs = append(errs, c.validateDB(&c.DB, "DB_")...)
	errs = append(errs, c.validateDB(&c.Directory.DB, "DIRECTORY_DB_")...)
	if c.Directory.AllCostCenters {
		c.Directory.CostCenters = nil
	} else if len(c.Directory.CostCenters) == 0 {
		c.Directory.CostCenters = append([]string(nil), DefaultCostCenters...)
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in production"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = defaultSessionTTL
	}
	if c.Auth.SessionLeeway < 0 {
		errs = append(errs, errors.New("SESSION_LEEWAY must not be negative"))
	}
	if c.Auth.SessionLeeway >= c.Auth.SessionTTL {
		errs = append(errs, errors.New("SESSION_LEEWAY must be smaller than SESSION_TTL"))
	}

	if c.Photo.BaseURL == "" {
		c.Photo.BaseURL = defaultPhotoBaseURL
	}
	if !strings.HasSuffix(c.Photo.BaseURL, "/") {
		c.Photo.BaseURL += "/"
	}
	if c.Photo.Cache == "" {
		c.Photo.Cache = PhotoCacheMemory
	}
	if c.Photo.CacheTTL <= 0 {
		c.Photo.CacheTTL = defaultPhotoCacheTTL
	}
	if c.Photo.CacheSize <= 0 {
		c.Photo.CacheSize = defaultPhotoCacheSize
	}
	switch c.Photo.Cache {
	case PhotoCacheMemory:
	case PhotoCacheRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required when PHOTO_CACHE=redis"))
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
		if c.Redis.DB < 0 {
			errs = append(errs, fmt.Errorf("REDIS_DB must not be negative, got %d", c.Redis.DB))
		}
	default:
		errs = append(errs, fmt.Errorf("PHOTO_CACHE must be one of memory, redis, got %q", c.Photo.Cache))
	}

	return joinErrors(errs)
}

func (c *Config) validateDB(db *DBConfig, prefix string) []error {
	var errs []error
	if db.Host == "" {
		errs = append(errs, fmt.Errorf("%sHOST is required", prefix))
	}
	if db.Port <= 0 || db.Port > 65535 {
		errs = append(errs, fmt.Errorf("%sPORT must be a valid port, got %d", prefix, db.Port))
	}
	if db.User == "" {
		errs = append(errs, fmt.Errorf("%sUSER is required", prefix))
	}
	if db.Name == "" {
		errs = append(errs, fmt.Errorf("%sNAME is required", prefix))
	}
	if strings.TrimSpace(db.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, fmt.Errorf("%sSSLMODE is required in production", prefix))
		} else {
			// Local-friendly default; production must be explicit.
			db.SSLMode = "disable"
		}
	}
	if db.SSLMode != "" && !isValidSSLMode(db.SSLMode) {
		errs = append(errs, fmt.Errorf("%sSSLMODE must be one of disable, require, verify-ca, verify-full, got %q", prefix, db.SSLMode))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// DSN renders a libpq-style connection string. Avoid logging it; it contains secrets.
func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func loadDB(prefix string) (DBConfig, []error) {
	var errs []error
	db := DBConfig{}
	db.Host = strings.TrimSpace(os.Getenv(prefix + "HOST"))
	{
		n, err := mustInt(prefix + "PORT")
		n, errs = appendParseErr(errs, n, err)
		db.Port = n
	}
	db.User = strings.TrimSpace(os.Getenv(prefix + "USER"))
	db.Password = os.Getenv(prefix + "PASSWORD")
	db.Name = strings.TrimSpace(os.Getenv(prefix + "NAME"))
	db.SSLMode = strings.TrimSpace(os.Getenv(prefix + "SSLMODE"))
	return db, errs
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

func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func optionalDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 90m, got %q", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
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
