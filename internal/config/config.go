package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the fully resolved application configuration.
type Config struct {
	Port        string
	Env         string
	CORSOrigins string

	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Provider ProviderConfig
	Ledger   LedgerConfig
	Deposit  DepositConfig
}

type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN builds a libpq-style connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type ProviderConfig struct {
	Name string // "paystack" or "stripe"

	PaystackSecretKey   string
	PaystackBaseURL     string
	PaystackCallbackURL string
	// PaystackVerifyWebhooks re-reads each charge.success from the
	// verify endpoint before settling.
	PaystackVerifyWebhooks bool

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string
}

type LedgerConfig struct {
	DefaultCurrency       string
	LockTimeout           time.Duration
	OperationTimeout      time.Duration
	WalletNumberAttempts  int
	IdempotencySuccessTTL time.Duration
	IdempotencyFailureTTL time.Duration
	SweepInterval         time.Duration
	BalanceCacheTTL       time.Duration
}

// DepositConfig bounds are in minor units.
type DepositConfig struct {
	MinAmount int64
	MaxAmount int64
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads the environment into a Config and checks required values.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        GetEnv("PORT", "3000"),
		Env:         GetEnv("ENV", "development"),
		CORSOrigins: GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		DB:          LoadDBConfig(),
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: GetEnv("JWT_SECRET", ""),
		},
		Provider: ProviderConfig{
			Name:                   strings.ToLower(GetEnv("PAYMENT_PROVIDER", "paystack")),
			PaystackSecretKey:      GetEnv("PAYSTACK_SECRET_KEY", ""),
			PaystackBaseURL:        GetEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			PaystackCallbackURL:    GetEnv("PAYSTACK_CALLBACK_URL", ""),
			PaystackVerifyWebhooks: GetBoolEnv("PAYSTACK_VERIFY_WEBHOOKS", true),
			StripeSecretKey:        GetEnv("STRIPE_SECRET_KEY", ""),
			StripeWebhookSecret:    GetEnv("STRIPE_WEBHOOK_SECRET", ""),
			StripeSuccessURL:       GetEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/deposit/success"),
			StripeCancelURL:        GetEnv("STRIPE_CANCEL_URL", "http://localhost:3000/deposit/cancel"),
		},
		Ledger: LedgerConfig{
			DefaultCurrency:       GetEnv("DEFAULT_CURRENCY", "NGN"),
			LockTimeout:           GetDurationEnv("LEDGER_LOCK_TIMEOUT", 5*time.Second),
			OperationTimeout:      GetDurationEnv("LEDGER_OPERATION_TIMEOUT", 15*time.Second),
			WalletNumberAttempts:  GetIntEnv("WALLET_NUMBER_ATTEMPTS", 10),
			IdempotencySuccessTTL: GetDurationEnv("IDEMPOTENCY_SUCCESS_TTL", 30*24*time.Hour),
			IdempotencyFailureTTL: GetDurationEnv("IDEMPOTENCY_FAILURE_TTL", 7*24*time.Hour),
			SweepInterval:         GetDurationEnv("IDEMPOTENCY_SWEEP_INTERVAL", time.Hour),
			BalanceCacheTTL:       GetDurationEnv("BALANCE_CACHE_TTL", 5*time.Minute),
		},
		Deposit: DepositConfig{
			MinAmount: GetInt64Env("DEPOSIT_MIN_AMOUNT", 100),
			MaxAmount: GetInt64Env("DEPOSIT_MAX_AMOUNT", 10_000_000),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDBConfig reads only the database settings. Tools that need the
// database but not the HTTP stack use it directly.
func LoadDBConfig() DBConfig {
	return DBConfig{
		Host:            GetEnv("DB_HOST", "localhost"),
		Port:            GetEnv("DB_PORT", "5432"),
		User:            GetEnv("DB_USER", "postgres"),
		Password:        GetEnv("DB_PASSWORD", "postgres"),
		Name:            GetEnv("DB_NAME", "wallet_service"),
		SSLMode:         GetEnv("DB_SSLMODE", "disable"),
		MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
	}
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	switch c.Provider.Name {
	case "paystack":
		if c.Provider.PaystackSecretKey == "" {
			return fmt.Errorf("PAYSTACK_SECRET_KEY is required when PAYMENT_PROVIDER=paystack")
		}
	case "stripe":
		if c.Provider.StripeSecretKey == "" || c.Provider.StripeWebhookSecret == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required when PAYMENT_PROVIDER=stripe")
		}
	default:
		return fmt.Errorf("unsupported PAYMENT_PROVIDER %q", c.Provider.Name)
	}
	if c.Deposit.MinAmount <= 0 || c.Deposit.MaxAmount < c.Deposit.MinAmount {
		return fmt.Errorf("invalid deposit bounds: min=%d max=%d", c.Deposit.MinAmount, c.Deposit.MaxAmount)
	}
	return nil
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetBoolEnv returns a boolean environment variable or a default value.
func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// GetInt64Env returns an int64 environment variable or a default value.
func GetInt64Env(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv parses values like "5s" or "720h".
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}
