package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Auth scheme values accepted by AUTH_SCHEME. The session scheme keeps the
// identity claim server-side in Redis behind a cookie; the token scheme
// hands the client a signed bearer token instead. Lifecycle operations are
// scheme-agnostic, so exactly one scheme is active per deployment.
const (
	SchemeSession = "session"
	SchemeToken   = "token"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The signing keypair is loaded separately by
// LoadKeys so that key material never travels through this struct.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	DBUser          string        // database username
	DBPass          string        // database password (optional)
	DBHost          string        // database host address
	DBPort          string        // database port number
	DBName          string        // database name
	AuthScheme      string        // "session" or "token"
	PrivateKeyPath  string        // PEM file with the RSA signing key
	PublicKeyPath   string        // PEM file with the verification key
	AuthTokenTTL    time.Duration // lifetime of login-issued bearer tokens
	ConfirmTokenTTL time.Duration // lifetime of confirmation / email-change tokens
	SessionTTL      time.Duration // lifetime of server-side session claims
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"), // empty allowed
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		AuthScheme:      envStr("AUTH_SCHEME", SchemeSession),
		PrivateKeyPath:  must("AUTH_PRIVATE_KEY_FILE"),
		PublicKeyPath:   must("AUTH_PUBLIC_KEY_FILE"),
		AuthTokenTTL:    envDur("AUTH_TOKEN_TTL", time.Hour),
		ConfirmTokenTTL: envDur("CONFIRM_TOKEN_TTL", 24*time.Hour+time.Minute),
		SessionTTL:      envDur("SESSION_TTL", 12*time.Hour),
	}
	if cfg.AuthScheme != SchemeSession && cfg.AuthScheme != SchemeToken {
		log.Fatalf("invalid AUTH_SCHEME: %q (want %q or %q)", cfg.AuthScheme, SchemeSession, SchemeToken)
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
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
