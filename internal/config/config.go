// Package config assembles server settings from built-in defaults, an
// optional YAML file, LISTINGS_* environment variables and command-line
// flags, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/listings/internal/gate"
)

// Config holds everything the server needs to start.
type Config struct {
	Addr    string `yaml:"addr"`
	DBPath  string `yaml:"db"`
	LogPath string `yaml:"log"`

	// PublicDir holds data/properties.json and the assets/ tree.
	PublicDir string `yaml:"public"`
	// Source is the published collection: a file path or an http(s) URL.
	// Empty means PublicDir/data/properties.json.
	Source string `yaml:"source"`
	// AssetsURL, when set, makes gallery probes go over HTTP to that base
	// instead of reading PublicDir.
	AssetsURL  string        `yaml:"assets_url"`
	GalleryTTL time.Duration `yaml:"gallery_ttl"`

	PasswordHash string `yaml:"password_hash"`
	Salt         string `yaml:"salt"`

	// Refresh is a cron spec for re-fetching the collection. Empty disables
	// the job.
	Refresh       string `yaml:"refresh"`
	SecureCookies bool   `yaml:"secure_cookies"`

	// APIOrigins may read /api/ from other sites. Empty disables CORS.
	APIOrigins []string `yaml:"api_origins"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:         ":8080",
		DBPath:       "listings.sqlite3",
		PublicDir:    "public",
		GalleryTTL:   5 * time.Minute,
		PasswordHash: gate.DefaultPasswordHash,
		Salt:         gate.DefaultSalt,
	}
}

// SourceLocation resolves the collection location.
func (c Config) SourceLocation() string {
	if c.Source != "" {
		return c.Source
	}
	return filepath.Join(c.PublicDir, "data", "properties.json")
}

// Gate returns the gate parameters with the configured password.
func (c Config) Gate() gate.Config {
	g := gate.DefaultConfig()
	g.PasswordHash = c.PasswordHash
	g.Salt = c.Salt
	return g
}

const usage = `Usage: listings [flags]
       listings hash [-salt <salt>] [-bcrypt] <password>

Flags:
  -c, -config <path>      YAML config file (env LISTINGS_CONFIG)
  -d, -db <path>          SQLite database path (default: listings.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -p, -public <dir>       public directory with data/ and assets/ (default: public)
  -s, -source <loc>       collection file or URL (default: <public>/data/properties.json)
  -r, -refresh <spec>     cron spec for re-fetching the collection, e.g. "@every 15m"
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit
`

// Usage writes the command-line help to w.
func Usage(w io.Writer) {
	fmt.Fprint(w, usage)
}

// Load builds the configuration for args (without the program name).
// getenv is usually os.Getenv. flag.ErrHelp is returned for -h.
func Load(args []string, getenv func(string) string) (Config, error) {
	fs := flag.NewFlagSet("listings", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var f Config
	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&f.DBPath, "db", "", "")
	fs.StringVar(&f.DBPath, "d", "", "")
	fs.StringVar(&f.Addr, "addr", "", "")
	fs.StringVar(&f.Addr, "a", "", "")
	fs.StringVar(&f.PublicDir, "public", "", "")
	fs.StringVar(&f.PublicDir, "p", "", "")
	fs.StringVar(&f.Source, "source", "", "")
	fs.StringVar(&f.Source, "s", "", "")
	fs.StringVar(&f.Refresh, "refresh", "", "")
	fs.StringVar(&f.Refresh, "r", "", "")
	fs.StringVar(&f.LogPath, "log", "", "")
	fs.StringVar(&f.LogPath, "l", "", "")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg := Default()

	if configPath == "" {
		configPath = getenv("LISTINGS_CONFIG")
	}
	if configPath != "" {
		if err := cfg.mergeFile(configPath); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(getenv); err != nil {
		return Config{}, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "db", "d":
			cfg.DBPath = f.DBPath
		case "addr", "a":
			cfg.Addr = f.Addr
		case "public", "p":
			cfg.PublicDir = f.PublicDir
		case "source", "s":
			cfg.Source = f.Source
		case "refresh", "r":
			cfg.Refresh = f.Refresh
		case "log", "l":
			cfg.LogPath = f.LogPath
		}
	})

	if cfg.PasswordHash == "" {
		return Config{}, errors.New("password hash must not be empty")
	}
	return cfg, nil
}

// mergeFile overlays the keys present in a YAML file.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("LISTINGS_ADDR", &c.Addr)
	str("LISTINGS_DB", &c.DBPath)
	str("LISTINGS_LOG", &c.LogPath)
	str("LISTINGS_PUBLIC", &c.PublicDir)
	str("LISTINGS_SOURCE", &c.Source)
	str("LISTINGS_ASSETS_URL", &c.AssetsURL)
	str("LISTINGS_PASSWORD_HASH", &c.PasswordHash)
	str("LISTINGS_SALT", &c.Salt)
	str("LISTINGS_REFRESH", &c.Refresh)

	if v := getenv("LISTINGS_API_ORIGINS"); v != "" {
		c.APIOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.APIOrigins = append(c.APIOrigins, o)
			}
		}
	}

	if v := getenv("LISTINGS_GALLERY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LISTINGS_GALLERY_TTL: %w", err)
		}
		c.GalleryTTL = d
	}
	if v := getenv("LISTINGS_SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LISTINGS_SECURE_COOKIES: %w", err)
		}
		c.SecureCookies = b
	}
	return nil
}
