package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	PublicURL         string
	DBDriver          string
	DBUrl             string
	DBName            string
	SchemaPath        string
	ShopifyAPIVersion string
	AllowedOrigins    []string
	Debug             bool
}

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// ParseFlags reads an optional .env file, then the command line.
// Every flag falls back to its SURVEY_* environment variable.
func ParseFlags() (Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse(os.Args[1:], os.Getenv)
}

func Parse(args []string, getenv func(string) string) (cfg Config, err error) {
	env := func(key, def string) string {
		if v := getenv("SURVEY_" + key); v != "" {
			return v
		}
		return def
	}
	envUint := func(key string, def uint) uint {
		n, err := strconv.ParseUint(env(key, ""), 10, 32)
		if err != nil {
			return def
		}
		return uint(n)
	}

	fs := flag.NewFlagSet("cart-survey", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", env("HOST", "0.0.0.0"), "listen host name")
	var port uint
	fs.UintVar(&port, "port", envUint("PORT", 3000), "listen port number")
	fs.StringVar(&cfg.PublicURL, "public-url", env("PUBLIC_URL", ""), "externally reachable base URL of this service (default derived from host/port)")
	fs.StringVar(&cfg.DBDriver, "db-driver", env("DB_DRIVER", DriverSQLite), "storage backend: sqlite or mongo")
	fs.StringVar(&cfg.DBUrl, "db-url", env("DB_URL", "survey.sqlite"), "path to SQLite3 DB file, or MongoDB connection URI")
	fs.StringVar(&cfg.DBName, "db-name", env("DB_NAME", "cart_survey"), "MongoDB database name")
	fs.StringVar(&cfg.SchemaPath, "schema", env("SCHEMA", ""), "YAML survey schema (default built-in cart survey)")
	fs.StringVar(&cfg.ShopifyAPIVersion, "shopify-api-version", env("SHOPIFY_API_VERSION", "2023-07"), "Shopify admin API version")
	var origins string
	fs.StringVar(&origins, "allowed-origins", env("ALLOWED_ORIGINS", "*"), "comma separated storefront origins allowed to submit")
	debug, _ := strconv.ParseBool(env("DEBUG", "false"))
	fs.BoolVar(&cfg.Debug, "debug", debug, "log at DEBUG level")

	err = fs.Parse(args)
	if err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	if cfg.PublicURL == "" {
		cfg.PublicURL = cfg.Url()
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	switch cfg.DBDriver {
	case DriverSQLite, DriverMongo:
	default:
		err = fmt.Errorf("unknown -db-driver %q", cfg.DBDriver)
	}
	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func (cfg Config) ScriptURL() string {
	return cfg.PublicURL + "/api/shopify/survey-script"
}

func (cfg Config) SubmitURL() string {
	return cfg.PublicURL + "/api/survey/submit"
}
