package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	JWTSecret string

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string

	// JWTExpireHours is the token lifetime in hours (default 24). Set via JWT_EXPIRE_HOURS.
	JWTExpireHours int

	// BucketURL is a gocloud.dev bucket URL (file:///var/data/contents,
	// s3://bucket?region=..., mem:// for tests). Ignored when S3Endpoint is set.
	BucketURL string

	// S3Endpoint enables S3-compatible stores with custom endpoints
	// (R2, MinIO, Wasabi). When set, the bucket is opened with static
	// credentials and path-style addressing.
	S3Endpoint    string
	S3Region      string
	S3Bucket      string
	S3AccessKeyID string
	S3Secret      string

	// MaxUploadBytes bounds uploaded file size (default 50 MiB).
	MaxUploadBytes int64

	// RosterRollPrefix is prepended to the 3-digit suffix on roster lookups.
	RosterRollPrefix string

	// ManifestReconcileCron, when set (e.g. "0 4 * * *"), rebuilds the
	// manifest on that schedule to converge after out-of-band bucket edits.
	ManifestReconcileCron string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// CORSAllowedOrigins is a list of origins allowed for CORS.
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string
}

// DefaultMaxUploadBytes caps staged uploads at 50 MiB.
const DefaultMaxUploadBytes = 50 << 20

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "coursevault"),
		DBUser: getEnv("DB_USER", "coursevault"),
		DBPass: getEnv("DB_PASS", "coursevault"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		JWTSecret:      getEnv("JWT_SECRET", "supersecretkey"),
		Env:            getEnv("ENV", "dev"),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),

		BucketURL: getEnv("BUCKET_URL", "file:///var/lib/coursevault/contents"),

		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3Region:      getEnv("S3_REGION", "auto"),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3AccessKeyID: getEnv("S3_ACCESS_KEY_ID", ""),
		S3Secret:      getEnv("S3_SECRET_ACCESS_KEY", ""),

		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),

		RosterRollPrefix: getEnv("ROSTER_ROLL_PREFIX", "240957"),

		ManifestReconcileCron: getEnv("MANIFEST_RECONCILE_CRON", ""),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
