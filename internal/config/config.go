// Package config loads clonetrack settings from an optional clonetrack.yaml,
// CLONETRACK_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"clonetrack/internal/blob"
	"clonetrack/internal/core"
	"clonetrack/internal/tabular"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "CLONETRACK"

// StorageConfig selects the project workspace backend.
type StorageConfig struct {
	Driver      string `mapstructure:"driver" validate:"oneof=memory sqlite postgres"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn" validate:"required_if=Driver postgres"`
}

// S3Config addresses the bucket holding workbooks.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint" validate:"omitempty,url"`
	PathStyle bool   `mapstructure:"path_style"`
}

// BlobConfig selects where templates, results and exports live.
type BlobConfig struct {
	Driver string   `mapstructure:"driver" validate:"oneof=fs s3 memory"`
	FSRoot string   `mapstructure:"fs_root"`
	S3     S3Config `mapstructure:"s3"`
}

// WorkbookConfig sets the format of newly written sheets.
type WorkbookConfig struct {
	Format string `mapstructure:"format" validate:"oneof=xlsx csv"`
}

// LogConfig configures the slog handler and the JSON-lines sinks.
type LogConfig struct {
	Level     string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format    string `mapstructure:"format" validate:"oneof=text json"`
	AuditFile string `mapstructure:"audit_file"`
	TraceFile string `mapstructure:"trace_file"`
}

// SamplingConfig seeds validated-clone sampling; zero draws a random seed.
type SamplingConfig struct {
	Seed uint64 `mapstructure:"seed"`
}

// Config is the root settings struct.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Workbook WorkbookConfig `mapstructure:"workbook"`
	Log      LogConfig      `mapstructure:"log"`
	Sampling SamplingConfig `mapstructure:"sampling"`
}

var defaults = map[string]any{
	"storage.driver":       string(core.StorageSQLite),
	"storage.sqlite_path":  "clonetrack.db",
	"storage.postgres_dsn": "",
	"blob.driver":          string(blob.DriverFilesystem),
	"blob.fs_root":         "workbooks",
	"blob.s3.bucket":       "",
	"blob.s3.region":       "",
	"blob.s3.prefix":       "",
	"blob.s3.endpoint":     "",
	"blob.s3.path_style":   false,
	"workbook.format":      string(tabular.FormatXLSX),
	"log.level":            "info",
	"log.format":           "text",
	"log.audit_file":       "",
	"log.trace_file":       "",
	"sampling.seed":        0,
}

// envAliases keep the historical driver variables working.
var envAliases = map[string]string{
	"storage.sqlite_path":  "CLONETRACK_SQLITE_PATH",
	"storage.postgres_dsn": "CLONETRACK_POSTGRES_DSN",
}

// FlagKeys maps command-line flag names onto config keys.
var FlagKeys = map[string]string{
	"storage":       "storage.driver",
	"db":            "storage.sqlite_path",
	"postgres-dsn":  "storage.postgres_dsn",
	"blob":          "blob.driver",
	"workbook-dir":  "blob.fs_root",
	"format":        "workbook.format",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"audit-file":    "log.audit_file",
	"trace-file":    "log.trace_file",
	"sampling-seed": "sampling.seed",
}

// Load reads the configuration. file may be empty, in which case
// ./clonetrack.yaml is used when present. flags may be nil.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(EnvPrefix+"_"+strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("clonetrack")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Blob.Driver == string(blob.DriverS3) && c.Blob.S3.Bucket == "" {
		return fmt.Errorf("invalid config: blob.s3.bucket is required for the s3 driver")
	}
	return nil
}

// StorageSettings converts the storage section for core.OpenPersistentStore.
func (c Config) StorageSettings() core.StorageSettings {
	return core.StorageSettings{
		Driver:      core.StorageDriver(c.Storage.Driver),
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
	}
}

// BlobSettings converts the blob section for blob.Open.
func (c Config) BlobSettings() blob.Settings {
	return blob.Settings{
		Driver: c.Blob.Driver,
		FSRoot: c.Blob.FSRoot,
		S3: blob.S3Config{
			Bucket:    c.Blob.S3.Bucket,
			Region:    c.Blob.S3.Region,
			Prefix:    c.Blob.S3.Prefix,
			Endpoint:  c.Blob.S3.Endpoint,
			PathStyle: c.Blob.S3.PathStyle,
		},
	}
}

// Format returns the workbook format.
func (c Config) Format() tabular.Format { return tabular.Format(c.Workbook.Format) }
