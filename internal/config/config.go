package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "time"     // time parses the event start date
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for years,
// time.Time for the event calendar anchor.
type Config struct {
    Env            string    // application environment (e.g. "dev", "prod")
    Port           string    // HTTP port to listen on
    DBUser         string    // database username
    DBPass         string    // database password (optional)
    DBHost         string    // database host address
    DBPort         string    // database port number
    DBName         string    // database name
    JWTSecret      string    // secret used to verify JWTs issued by the auth provider
    EventYear      int       // default conference edition served by listings
    EventStartDate time.Time // first day of the event; anchors the day-filter vocabulary
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),             // environment (dev/test/prod)
        Port:           must("APP_PORT"),            // port to bind the HTTP server
        DBUser:         must("DB_USER"),             // database user
        DBPass:         os.Getenv("DB_PASS"),        // database password (empty allowed)
        DBHost:         must("DB_HOST"),             // database host
        DBPort:         must("DB_PORT"),             // database port
        DBName:         must("DB_NAME"),             // database name
        JWTSecret:      must("JWT_SECRET"),          // secret used for verifying JWTs
        EventYear:      mustInt("EVENT_YEAR"),       // conference edition, e.g. 2025
        EventStartDate: mustDate("EVENT_START_DATE"), // first event day, YYYY-MM-DD
    }
}

// DBConfig holds only the database connection values.  The one-shot
// initialization utility loads this instead of the full server Config so
// it can run without the HTTP-related variables being set.
type DBConfig struct {
    User string
    Pass string
    Host string
    Port string
    Name string
}

// LoadDB reads the database environment variables.
func LoadDB() DBConfig {
    return DBConfig{
        User: must("DB_USER"),
        Pass: os.Getenv("DB_PASS"),
        Host: must("DB_HOST"),
        Port: must("DB_PORT"),
        Name: must("DB_NAME"),
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

// mustDate parses a required YYYY-MM-DD environment variable into a UTC
// time.Time at midnight.
func mustDate(key string) time.Time {
    s := must(key)
    t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
    if err != nil {
        log.Fatalf("invalid date for %s: %q", key, s)
    }
    return t
}
