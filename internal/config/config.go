package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/signals/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "signals.yaml"

	// DefaultAddress is the default server listen address.
	DefaultAddress = ":8080"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultSnapshotPath is the default disk snapshot file.
	DefaultSnapshotPath = "signals.snapshot.json"
)

// Snapshot drivers.
const (
	SnapshotNone = ""
	SnapshotDisk = "disk"
	SnapshotS3   = "s3"
)

// Config is the complete signals.yaml configuration.
type Config struct {
	// Name is the graph name, used as the metrics namespace label.
	Name string `yaml:"name,omitempty"`

	Server   ServerConfig   `yaml:"server,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
	Tracing  TracingConfig  `yaml:"tracing,omitempty"`
	Snapshot SnapshotConfig `yaml:"snapshot,omitempty"`

	// Signals are the writable nodes of the graph.
	Signals []SignalSpec `yaml:"signals,omitempty"`

	// Computed are the derived nodes of the graph.
	Computed []ComputedSpec `yaml:"computed,omitempty"`

	// path stores where the config was loaded from.
	path string
}

// ServerConfig configures the live server.
type ServerConfig struct {
	Address         string        `yaml:"address,omitempty"`
	SendBuffer      int           `yaml:"send_buffer,omitempty"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
	Path      string `yaml:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled    bool   `yaml:"enabled,omitempty"`
	TracerName string `yaml:"tracer_name,omitempty"`
}

// SnapshotConfig configures persistence of signal values.
type SnapshotConfig struct {
	// Driver selects the store: "" (none), "disk" or "s3".
	Driver string `yaml:"driver,omitempty"`

	// Path is the snapshot file for the disk driver.
	Path string `yaml:"path,omitempty"`

	// Bucket, Key, Region and Endpoint configure the s3 driver.
	Bucket   string `yaml:"bucket,omitempty"`
	Key      string `yaml:"key,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`

	// Interval is how often the server saves a snapshot. Zero saves only on
	// shutdown.
	Interval time.Duration `yaml:"interval,omitempty"`
}

// SignalSpec declares a writable signal.
type SignalSpec struct {
	Name string `yaml:"name"`

	// Type is number, string or bool.
	Type string `yaml:"type"`

	// Value is the initial value. Zero value of Type if omitted.
	Value any `yaml:"value,omitempty"`
}

// ComputedSpec declares a derived node.
type ComputedSpec struct {
	Name string   `yaml:"name"`
	Op   string   `yaml:"op"`
	Deps []string `yaml:"deps"`

	// Sep is the separator for the join op.
	Sep string `yaml:"sep,omitempty"`
}

// New creates a Config with default values and no nodes.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'signals init' to create one or pass --config")
		}
		return nil, errors.New("E102").Wrap(err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes a configuration document. Unknown fields are rejected.
func Parse(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.New("E102").
			WithSuggestion("Check that the file is valid YAML").
			Wrap(err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("SIGNALS_ADDR"); ok && v != "" {
		c.Server.Address = v
	}
	if v, ok := lookup("SIGNALS_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("SIGNALS_SNAPSHOT_PATH"); ok && v != "" {
		c.Snapshot.Path = v
		if c.Snapshot.Driver == SnapshotNone {
			c.Snapshot.Driver = SnapshotDisk
		}
	}
	if v, ok := lookup("SIGNALS_S3_BUCKET"); ok && v != "" {
		c.Snapshot.Bucket = v
		c.Snapshot.Driver = SnapshotS3
	}
}

// Save writes the configuration to path through a temporary file.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	c.path = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "signals"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "signals"
	}
	if c.Snapshot.Driver == SnapshotDisk && c.Snapshot.Path == "" {
		c.Snapshot.Path = DefaultSnapshotPath
	}
	if c.Snapshot.Driver == SnapshotS3 && c.Snapshot.Key == "" {
		c.Snapshot.Key = DefaultSnapshotPath
	}
}

// Validate checks settings that do not depend on the graph. Graph checks
// happen when the graph is built.
func (c *Config) Validate() error {
	if c.Server.SendBuffer < 0 {
		return errors.New("E103").WithDetail("server.send_buffer must not be negative")
	}
	if c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return errors.New("E103").WithDetail("server timeouts must not be negative")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return errors.New("E104").
			WithDetail("log.level " + c.Log.Level).
			WithSuggestion("Use debug, info, warn or error")
	}

	switch c.Snapshot.Driver {
	case SnapshotNone, SnapshotDisk:
	case SnapshotS3:
		if c.Snapshot.Bucket == "" {
			return errors.New("E105").WithDetail("snapshot.bucket is required for the s3 driver")
		}
	default:
		return errors.New("E105").
			WithDetail("unknown snapshot.driver " + c.Snapshot.Driver).
			WithSuggestion("Use disk or s3")
	}
	if c.Snapshot.Interval < 0 {
		return errors.New("E105").WithDetail("snapshot.interval must not be negative")
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.ToUpper(l.Level)))
	return level, err
}

// Example returns a small, valid configuration used by 'signals init'.
func Example() *Config {
	cfg := &Config{
		Name: "shop",
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Signals: []SignalSpec{
			{Name: "price", Type: "number", Value: 10},
			{Name: "qty", Type: "number", Value: 2},
			{Name: "customer", Type: "string", Value: "guest"},
		},
		Computed: []ComputedSpec{
			{Name: "total", Op: "product", Deps: []string{"price", "qty"}},
			{Name: "greeting", Op: "join", Deps: []string{"customer"}, Sep: " "},
		},
	}
	cfg.applyDefaults()
	return cfg
}
