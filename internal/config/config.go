package config // package config loads application configuration from environment variables

import (
    "log"  // log is used to report configuration errors and halt execution
    "os"   // os provides access to environment variables
    "time" // time parses durations and the display location
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env            string         // application environment (e.g. "dev", "prod")
    Port           string         // HTTP port to listen on
    BackendURL     string         // base URL of the ticketing backend
    BackendTimeout time.Duration  // per-request timeout for backend calls
    JWTSecret      string         // secret used to sign staff session JWTs
    SessionTTL     time.Duration  // lifetime of a staff session
    CheckoutTTL    time.Duration  // idle lifetime of a checkout session
    WhatsAppPhone  string         // organizer phone for the manual payment channel
    FingerprintKey string         // key for checkout fingerprints (random when empty)
    Location       *time.Location // zone used to render menu dates
    PolicyFile     string         // optional YAML file overriding availability thresholds
    AMQPURL        string         // RabbitMQ url; empty disables activity publishing
    ActivityLogDir string         // directory of the activity log written by the consumer
    DB             DBConfig       // MySQL check-in audit store; disabled when Host is empty
}

// DBConfig holds the MySQL connection settings of the audit log.
type DBConfig struct {
    User string
    Pass string
    Host string
    Port string
    Name string
}

// Enabled reports whether an audit database is configured.
func (d DBConfig) Enabled() bool { return d.Host != "" }

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:            envStr("APP_ENV", "dev"),                        // environment (dev/test/prod)
        Port:           envStr("APP_PORT", "8080"),                      // port to bind the HTTP server
        BackendURL:     must("BACKEND_URL"),                             // ticketing backend
        BackendTimeout: envDur("BACKEND_TIMEOUT", 10*time.Second),       // backend request timeout
        JWTSecret:      must("JWT_SECRET"),                              // secret used for signing JWTs
        SessionTTL:     time.Duration(envInt("SESSION_TTL_MIN", 720)) * time.Minute,
        CheckoutTTL:    time.Duration(envInt("CHECKOUT_TTL_MIN", 30)) * time.Minute,
        WhatsAppPhone:  must("WHATSAPP_PHONE"),                          // manual channel contact
        FingerprintKey: os.Getenv("FINGERPRINT_KEY"),                    // empty allowed
        Location:       loadLocation(envStr("DISPLAY_TZ", "America/Argentina/Buenos_Aires")),
        PolicyFile:     os.Getenv("POLICY_FILE"),                        // empty allowed
        AMQPURL:        amqpURL(),                                       // broker url
        ActivityLogDir: envStr("ACTIVITY_LOG_DIR", "logs"),
        DB: DBConfig{
            User: os.Getenv("DB_USER"),
            Pass: os.Getenv("DB_PASS"),
            Host: os.Getenv("DB_HOST"),
            Port: envStr("DB_PORT", "3306"),
            Name: envStr("DB_NAME", "storefront"),
        },
    }
    if cfg.SessionTTL <= 0 {
        cfg.SessionTTL = 12 * time.Hour
    }
    if cfg.CheckoutTTL <= 0 {
        cfg.CheckoutTTL = 30 * time.Minute
    }
    return cfg
}

// amqpURL reads RABBITMQ_URL, falling back to AMQP_URL.
func amqpURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}

func loadLocation(name string) *time.Location {
    loc, err := time.LoadLocation(name)
    if err != nil {
        log.Printf("config: unknown DISPLAY_TZ %q, using UTC: %v", name, err)
        return time.UTC
    }
    return loc
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
