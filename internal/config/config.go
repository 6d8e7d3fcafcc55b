package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultMinLeadTime is the minimum time between now and departure for a
// booking to be cancellable.  It is the single source of truth for the
// cancellation window; CANCEL_MIN_LEAD_TIME overrides it.
const DefaultMinLeadTime = 2 * time.Hour

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Optional backends (MySQL ledger, RabbitMQ,
// Primary service) are disabled when their address is left empty.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	PrimaryBaseURL string        // base URL of the authoritative booking service
	PrimaryToken   string        // bearer token sent to the Primary service (optional)
	PrimaryTimeout time.Duration // per-request client timeout, 0 means none

	DBUser string // ledger database username
	DBPass string // ledger database password (optional)
	DBHost string // ledger database host; empty disables the MySQL ledger
	DBPort string // ledger database port
	DBName string // ledger database name

	RabbitURL string // AMQP url; empty disables event publishing

	JWTSecret string // secret used to verify operator tokens

	CancelMinLeadTime time.Duration  // cancellation window
	Location          *time.Location // zone travel dates are interpreted in
}

// Load reads configuration values from an optional .env file and the
// process environment.  JWT_SECRET is required; a missing value halts the
// program with a fatal log message.
func Load() Config {
	cfg := load()
	cfg.JWTSecret = must("JWT_SECRET")
	return cfg
}

// LoadTooling is Load for command line tools that never verify operator
// tokens, so JWT_SECRET may be absent.
func LoadTooling() Config {
	cfg := load()
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	return cfg
}

func load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return Config{
		Env:               getenv("APP_ENV", "dev"),
		Port:              getenv("APP_PORT", "8080"),
		PrimaryBaseURL:    strings.TrimRight(os.Getenv("PRIMARY_BASE_URL"), "/"),
		PrimaryToken:      os.Getenv("PRIMARY_TOKEN"),
		PrimaryTimeout:    envDur("PRIMARY_TIMEOUT", 0),
		DBUser:            getenv("DB_USER", "root"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            os.Getenv("DB_HOST"),
		DBPort:            getenv("DB_PORT", "3306"),
		DBName:            getenv("DB_NAME", "bookings"),
		RabbitURL:         rabbitURL(),
		CancelMinLeadTime: envDur("CANCEL_MIN_LEAD_TIME", DefaultMinLeadTime),
		Location:          location(os.Getenv("TIMEZONE")),
	}
}

// LedgerDBEnabled reports whether a MySQL ledger has been configured.
func (c Config) LedgerDBEnabled() bool { return c.DBHost != "" }

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

func location(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("config: unknown TIMEZONE %q, using local time", name)
		return time.Local
	}
	return loc
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
