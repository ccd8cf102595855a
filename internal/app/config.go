package app

import (
	"io/fs"
	"net/url"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/shopeasy/internal/domain/profile"
)

const envPrefix = "SHOPEASY"

// Config holds the client configuration, loadable from a .env file,
// environment variables (SHOPEASY_ prefix), flags or YAML config files.
type Config struct {
	CatalogURL string        `default:"https://dummyjson.com" env:"CATALOG_URL" usage:"Catalog service base URL" flag:"catalog-url"`
	Timeout    time.Duration `default:"10s" env:"TIMEOUT" usage:"Per-request catalog timeout"`
	DebugAddr  string        `default:"" env:"DEBUG_ADDR" usage:"Debug listener address, empty disables it" flag:"debug-addr"`
	Profile    ProfileConfig
	Graceful   GracefulConfig
}

// ProfileConfig is the profile shown before the user edits it.
type ProfileConfig struct {
	Name  string `default:"John Doe" usage:"Initial profile name"`
	Email string `default:"johndoe@example.com" usage:"Initial profile email"`
	Photo string `default:"https://i.pravatar.cc/150" usage:"Initial profile photo URI"`
}

// Profile converts the configured values.
func (c ProfileConfig) Profile() profile.Profile {
	return profile.Profile{Name: c.Name, Email: c.Email, Photo: c.Photo}
}

// GracefulConfig controls shutdown of the debug listener.
type GracefulConfig struct {
	ShutdownTimeout time.Duration `default:"5s" usage:"Maximum debug listener shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig reads .env into the environment, then loads configuration from
// environment variables, flags and YAML files.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}
	return load(aconfig.Config{
		EnvPrefix: envPrefix,
		Files:     []string{"shopeasy.yaml", "/etc/shopeasy/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func load(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.CatalogURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("catalog URL %q must be absolute", c.CatalogURL)
	}
	if c.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if err := profile.Validate(c.Profile.Profile()); err != nil {
		return errors.Wrap(err, "initial profile")
	}
	return nil
}
