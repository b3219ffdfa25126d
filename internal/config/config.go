package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	CourseFile    string // JSON catalog produced by cmd/seed or the admin editor
	AssetBasePath string // filesystem blob store for topic assets

	AuthHMACSecret  string
	EnableGuestAuth bool

	AdminUser     string
	AdminPassHash string // bcrypt

	TestTimeLimitMin int // timed test duration, minutes

	CORSOrigins []string

	LogLevel string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:         envOr("HTTP_ADDR", ":8080"),
		DBDriver:         envOr("DB_DRIVER", "sqlite"),
		DBDSN:            envOr("DB_DSN", ""),
		CourseFile:       envOr("COURSE_FILE", "./course.json"),
		AssetBasePath:    envOr("ASSET_BASE_PATH", "./data"),
		AuthHMACSecret:   envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		EnableGuestAuth:  envBool("ENABLE_GUEST_AUTH", true),
		AdminUser:        envOr("ADMIN_USER", "admin"),
		AdminPassHash:    envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		TestTimeLimitMin: envInt("TEST_TIME_LIMIT_MIN", 20),
		CORSOrigins:      csvOr("CORS_ORIGINS", "http://localhost:3000"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
