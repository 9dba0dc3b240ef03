package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"
)

// Config holds runtime configuration for the backend API service.  Each
// field corresponds to an environment variable.  The types reflect how the
// values are used: strings for identifiers and secrets, ints for costs and
// counts.
type Config struct {
	Env    string // application environment (e.g. "dev", "prod")
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	DBMaxOpenConns    int           // connection pool ceiling
	DBMaxIdleConns    int           // idle connections kept warm
	DBConnMaxLifetime time.Duration // recycle age for pooled connections

	// Identity provider settings.  Access tokens presented to the API are
	// RS256 JWTs issued by an external OAuth2/OIDC provider and are
	// verified against this issuer and audience.
	OIDCIssuer   string // issuer URL used for discovery and claim checks
	OIDCAudience string // expected audience (client id of the backend API)

	// AuthPublicKeyPEM optionally supplies a static RSA public key (PEM).
	// When set, token signatures are verified against this key instead of
	// the issuer's JWKS.  Used in development and tests.
	AuthPublicKeyPEM string

	BcryptCost int // bcrypt cost for guest booking access codes

	SMTPHost string // outbound mail server host
	SMTPPort string // outbound mail server port
	SMTPUser string // SMTP username / from address
	SMTPPass string // SMTP password
}

// GatewayConfig holds runtime configuration for the authenticated proxy
// tier.  The gateway terminates browser sessions and forwards requests to
// the backend API with a Bearer token.
type GatewayConfig struct {
	Env  string // application environment
	Port string // HTTP port to listen on

	// BackendURL is the base URL of the backend API.
	BackendURL string

	OIDCIssuer       string // identity provider issuer URL
	OIDCClientID     string // OAuth2 client id of the gateway
	OIDCClientSecret string // OAuth2 client secret
	OIDCRedirectURL  string // callback URL registered with the provider

	SessionTTLHours int    // lifetime of a browser session in hours
	CookieName      string // name of the session cookie
}

// Load reads backend configuration from environment variables.  Required
// variables are enforced by must() and missing values cause the program to
// exit with a fatal log message.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"), // empty allowed
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		DBMaxOpenConns:    envIntDefault("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    envIntDefault("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		OIDCIssuer:        must("OIDC_ISSUER"),
		OIDCAudience:      must("OIDC_AUDIENCE"),
		AuthPublicKeyPEM:  os.Getenv("AUTH_PUBLIC_KEY_PEM"),
		BcryptCost:        envIntDefault("BCRYPT_COST", 10),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          envStrDefault("SMTP_PORT", "587"),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPass:          os.Getenv("SMTP_PASS"),
	}
}

// LoadGateway reads gateway configuration from environment variables.
func LoadGateway() GatewayConfig {
	return GatewayConfig{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		BackendURL:       envStrDefault("BACKEND_URL", "http://localhost:5000"),
		OIDCIssuer:       must("OIDC_ISSUER"),
		OIDCClientID:     must("OIDC_CLIENT_ID"),
		OIDCClientSecret: must("OIDC_CLIENT_SECRET"),
		OIDCRedirectURL:  must("OIDC_REDIRECT_URL"),
		SessionTTLHours:  envIntDefault("SESSION_TTL_HOURS", 24),
		CookieName:       envStrDefault("SESSION_COOKIE_NAME", "sa_session"),
	}
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

// envStrDefault returns the value of an environment variable or a default.
func envStrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envIntDefault returns an integer environment variable or a default when
// the variable is unset or malformed.
func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
