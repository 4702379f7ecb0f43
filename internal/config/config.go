package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	AMQPURL string // RabbitMQ connection URL (empty disables events)

	OSSEndpoint  string // object store endpoint (empty selects the filesystem store)
	OSSKeyID     string // object store access key id
	OSSKeySecret string // object store access key secret
	OSSBucket    string // bucket holding snapshot documents
	BlobDir      string // filesystem blob root used when OSSEndpoint is empty

	SMTPHost string // outbound mail host (empty disables mail)
	SMTPPort string // outbound mail port
	SMTPUser string // outbound mail username
	SMTPPass string // outbound mail password
	MailFrom string // From address on notification mail

	SnapshotSweepMin int // minutes between automatic snapshot sweeps
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		AMQPURL: os.Getenv("AMQP_URL"),

		OSSEndpoint:  os.Getenv("OSS_ENDPOINT"),
		OSSKeyID:     os.Getenv("OSS_ACCESS_KEY_ID"),
		OSSKeySecret: os.Getenv("OSS_ACCESS_KEY_SECRET"),
		OSSBucket:    os.Getenv("OSS_BUCKET"),
		BlobDir:      getenvDefault("BLOB_DIR", "./data/blobs"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getenvDefault("SMTP_PORT", "587"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: getenvDefault("MAIL_FROM", "no-reply@cabinbuddy.app"),

		SnapshotSweepMin: intDefault("SNAPSHOT_SWEEP_MIN", 60),
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// getenvDefault reads an optional variable, falling back to def when unset.
func getenvDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// intDefault reads an optional integer variable, falling back to def when
// unset.  An unparseable value is fatal rather than silently defaulted.
func intDefault(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
