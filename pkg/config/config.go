package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the deployment configuration for one run. It is built
// once at startup (defaults, then optional file, then environment,
// then command-line overrides) and read-only afterwards.
type Config struct {
	// Domain is the certificate common name and SAN base.
	Domain string `mapstructure:"domain"`

	// CertsDir is the directory holding the generated certificate bundle.
	CertsDir string `mapstructure:"certs_dir"`

	// Network is the name of the isolated container network.
	Network string `mapstructure:"network"`

	WebappImage     string `mapstructure:"webapp_image"`
	NginxImage      string `mapstructure:"nginx_image"`
	WebappContainer string `mapstructure:"webapp_container"`
	NginxContainer  string `mapstructure:"nginx_container"`

	// HTTPPort and HTTPSPort are the host-published front-end ports,
	// also used by the verification probes.
	HTTPPort  int `mapstructure:"http_port"`
	HTTPSPort int `mapstructure:"https_port"`

	// APIVersion is passed to the primary service as a version marker.
	APIVersion string `mapstructure:"api_version"`

	// CertDays and CADays are the leaf and authority validities.
	CertDays int `mapstructure:"cert_days"`
	CADays   int `mapstructure:"ca_days"`

	// ServiceLabel is the label key identifying managed containers.
	ServiceLabel string `mapstructure:"service_label"`

	// MetricsFile, when set, receives the run's metrics in Prometheus
	// textfile-collector format.
	MetricsFile string `mapstructure:"metrics_file"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from defaults, an optional YAML file and
// the environment. configPath may be empty; a missing file is not an
// error, an unparsable one is.
func Load(configPath string) (Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("domain", "webapp.quayside.dev")
	v.SetDefault("certs_dir", "certs")
	v.SetDefault("network", "webapp-network")
	v.SetDefault("webapp_image", "webapp:latest")
	v.SetDefault("nginx_image", "webapp-nginx:latest")
	v.SetDefault("webapp_container", "webapp")
	v.SetDefault("nginx_container", "nginx")
	v.SetDefault("http_port", 8080)
	v.SetDefault("https_port", 8443)
	v.SetDefault("api_version", "1.0.0")
	v.SetDefault("cert_days", 825)
	v.SetDefault("ca_days", 3650)
	v.SetDefault("service_label", "dev.quayside.service")
	v.SetDefault("metrics_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if the file exists but is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return Config{}, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("DECKHAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The unprefixed names are honored for compatibility with the
	// deployed services, which read the same variables.
	_ = v.BindEnv("http_port", "DECKHAND_HTTP_PORT", "HTTP_PORT")
	_ = v.BindEnv("https_port", "DECKHAND_HTTPS_PORT", "HTTPS_PORT")
	_ = v.BindEnv("api_version", "DECKHAND_API_VERSION", "API_VERSION")

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for values no run can work with.
func (c Config) Validate() error {
	if c.Domain == "" {
		return fmt.Errorf("domain must not be empty")
	}
	if c.CertsDir == "" {
		return fmt.Errorf("certs_dir must not be empty")
	}
	if c.Network == "" {
		return fmt.Errorf("network must not be empty")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port %d out of range", c.HTTPPort)
	}
	if c.HTTPSPort < 1 || c.HTTPSPort > 65535 {
		return fmt.Errorf("https_port %d out of range", c.HTTPSPort)
	}
	if c.CertDays < 1 {
		return fmt.Errorf("cert_days must be positive")
	}
	if c.CADays < 1 {
		return fmt.Errorf("ca_days must be positive")
	}
	return nil
}
