// Package config holds the configuration of the insight server and CLI.
//
// Values are resolved in three layers: flag defaults, then the YAML file
// named by -config.file, then flags given explicitly on the command line.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Query    QueryConfig    `yaml:"query"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	HTTPListenAddress string `yaml:"http_listen_address"`
	HTTPListenPort    int    `yaml:"http_listen_port"`
}

func (cfg *ServerConfig) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.HTTPListenAddress, "server.http-listen-address", "", "HTTP server listen address.")
	f.IntVar(&cfg.HTTPListenPort, "server.http-listen-port", 4321, "HTTP server listen port.")
}

// Addr returns the host:port the server listens on.
func (cfg *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.HTTPListenAddress, cfg.HTTPListenPort)
}

func (cfg *ServerConfig) Validate() error {
	if cfg.HTTPListenPort < 0 || cfg.HTTPListenPort > 65535 {
		return fmt.Errorf("invalid http_listen_port %d", cfg.HTTPListenPort)
	}
	return nil
}

type StorageConfig struct {
	// Dir holds one parquet file per dataset.
	Dir string `yaml:"dir"`
}

func (cfg *StorageConfig) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.Dir, "storage.dir", "data", "Directory datasets are persisted to.")
}

func (cfg *StorageConfig) Validate() error {
	if cfg.Dir == "" {
		return errors.New("storage.dir must be set")
	}
	return nil
}

type QueryConfig struct {
	MaxResultRows  int `yaml:"max_result_rows"`
	MaxFilterDepth int `yaml:"max_filter_depth"`
}

func (cfg *QueryConfig) RegisterFlags(f *flag.FlagSet) {
	f.IntVar(&cfg.MaxResultRows, "query.max-result-rows", 5000, "Queries returning more rows than this fail.")
	f.IntVar(&cfg.MaxFilterDepth, "query.max-filter-depth", 100, "Maximum nesting depth of a WHERE clause.")
}

func (cfg *QueryConfig) Validate() error {
	if cfg.MaxResultRows < 1 {
		return fmt.Errorf("query.max_result_rows must be positive, got %d", cfg.MaxResultRows)
	}
	if cfg.MaxFilterDepth < 1 {
		return fmt.Errorf("query.max_filter_depth must be positive, got %d", cfg.MaxFilterDepth)
	}
	return nil
}

type GeocoderConfig struct {
	// URL is the base address of the geocoding service. Building addresses
	// are appended to it, URL-escaped.
	URL         string        `yaml:"url"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

func (cfg *GeocoderConfig) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.URL, "geocoder.url", "", "Base URL of the geocoding service used for rooms datasets.")
	f.DurationVar(&cfg.Timeout, "geocoder.timeout", 10*time.Second, "Timeout of one geocoding request.")
	f.IntVar(&cfg.Concurrency, "geocoder.concurrency", 8, "Maximum concurrent geocoding requests.")
}

func (cfg *GeocoderConfig) Validate() error {
	if cfg.Timeout <= 0 {
		return fmt.Errorf("geocoder.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("geocoder.concurrency must be positive, got %d", cfg.Concurrency)
	}
	return nil
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (cfg *LogConfig) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.Level, "log.level", "info", "Only log messages with the given severity or above. One of: debug, info, warn, error.")
	f.StringVar(&cfg.Format, "log.format", "logfmt", "Output log messages in the given format. One of: logfmt, json.")
}

func (cfg *LogConfig) Validate() error {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", cfg.Level)
	}
	switch cfg.Format {
	case "logfmt", "json":
	default:
		return fmt.Errorf("invalid log.format %q", cfg.Format)
	}
	return nil
}

// RegisterFlags registers every section's flags with their defaults.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.Server.RegisterFlags(f)
	cfg.Storage.RegisterFlags(f)
	cfg.Query.RegisterFlags(f)
	cfg.Geocoder.RegisterFlags(f)
	cfg.Log.RegisterFlags(f)
}

// Validate checks every section.
func (cfg *Config) Validate() error {
	for _, v := range []interface{ Validate() error }{
		&cfg.Server, &cfg.Storage, &cfg.Query, &cfg.Geocoder, &cfg.Log,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Defaults returns a config holding every flag default.
func Defaults() Config {
	var cfg Config
	cfg.RegisterFlags(flag.NewFlagSet("defaults", flag.ContinueOnError))
	return cfg
}

// LoadFile decodes the YAML file at path over cfg. Unknown keys are errors.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open config file")
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

// Parse resolves cfg from fs, which must already hold cfg's flags and have
// been parsed. The file named by configFile is applied between the flag
// defaults and the flags reported by changed. A nil changed reports the
// flags fs itself parsed.
func Parse(cfg *Config, fs *flag.FlagSet, configFile string, changed func(name string) bool) error {
	if configFile != "" {
		if changed == nil {
			set := map[string]bool{}
			fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
			changed = func(name string) bool { return set[name] }
		}
		explicit := map[string]string{}
		fs.VisitAll(func(fl *flag.Flag) {
			if changed(fl.Name) {
				explicit[fl.Name] = fl.Value.String()
			}
		})

		if err := LoadFile(configFile, cfg); err != nil {
			return err
		}
		for name, value := range explicit {
			if err := fs.Set(name, value); err != nil {
				return errors.Wrapf(err, "re-apply flag %s", name)
			}
		}
	}
	return cfg.Validate()
}
