// Package config loads the frontscan run configuration from a TOML
// file: the target package, classification signals, the deny list, the
// service-owner registry, and batch/cache tuning.
//
// The deny list and owner registry are ordinary configuration loaded
// once per run and passed into the analyzer, not module-level tables;
// the analysis core never touches the filesystem.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/frontscan/frontscan/pkg/analysis"
	apperrors "github.com/frontscan/frontscan/pkg/errors"
)

// Defaults applied by Load when the file leaves fields unset.
const (
	DefaultTarget   = "govuk-frontend"
	DefaultCacheTTL = 24 * time.Hour
)

// Config is the full run configuration.
type Config struct {
	// Target is the package whose adoption is tracked.
	Target string `toml:"target"`

	Prototype Prototype `toml:"prototype"`
	Batch     Batch     `toml:"batch"`
	Cache     CacheConf `toml:"cache"`
	Output    Output    `toml:"output"`

	// Deny lists repositories excluded outright from analysis.
	Deny []analysis.RepoRef `toml:"deny"`
	// Owners maps repository owner to service-owner registry info.
	Owners map[string]analysis.OwnerInfo `toml:"owners"`
}

// Prototype configures the disposable-prototype classifier.
type Prototype struct {
	// Package is the prototype tooling package name.
	Package string `toml:"package"`
	// Marker is the tree path identifying legacy prototype instances.
	Marker string `toml:"marker"`
}

// Batch configures the batch driver.
type Batch struct {
	// Size is how many results accumulate before a flush.
	Size int `toml:"size"`
}

// CacheConf selects and tunes the response cache.
type CacheConf struct {
	// Backend is one of "file", "redis", "none". Empty means "file".
	Backend string `toml:"backend"`
	// TTL is the entry time-to-live (e.g. "24h").
	TTL duration `toml:"ttl"`
	// RedisAddr is the host:port for the redis backend.
	RedisAddr string `toml:"redis_addr"`
	// RedisPassword authenticates against redis, if set.
	RedisPassword string `toml:"redis_password"`
	// RedisDB selects the redis database number.
	RedisDB int `toml:"redis_db"`
}

// Output configures where results land.
type Output struct {
	// Dir receives the JSON/CSV result files.
	Dir string `toml:"dir"`
	// MongoURI, when set, additionally writes results to MongoDB.
	MongoURI string `toml:"mongo_uri"`
	// MongoDatabase is the database name for the mongo sink.
	MongoDatabase string `toml:"mongo_database"`
}

// duration unwraps TOML duration strings ("24h", "90s").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Load reads and validates a config file. A missing path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Target: DefaultTarget,
		Prototype: Prototype{
			Package: analysis.DefaultPrototypePackage,
			Marker:  analysis.DefaultPrototypeMarker,
		},
		Batch:  Batch{Size: analysis.DefaultBatchSize},
		Cache:  CacheConf{Backend: "file", TTL: duration{DefaultCacheTTL}},
		Output: Output{Dir: "results", MongoDatabase: "frontscan"},
	}
}

func (c *Config) validate() error {
	if c.Target == "" {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "target package must not be empty")
	}
	if c.Batch.Size < 1 {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "batch size must be at least 1, got %d", c.Batch.Size)
	}
	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "redis cache backend requires redis_addr")
	}
	for i, r := range c.Deny {
		if r.Owner == "" || r.Name == "" {
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "deny entry %d needs both owner and name", i)
		}
	}
	return nil
}

// AnalyzerOptions maps the configuration onto analysis options.
func (c *Config) AnalyzerOptions() analysis.Options {
	return analysis.Options{
		Target:           c.Target,
		PrototypeMarker:  c.Prototype.Marker,
		PrototypePackage: c.Prototype.Package,
		DenyList:         c.Deny,
		Owners:           c.Owners,
	}
}

// CacheTTL returns the configured TTL, defaulting when unset.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTL.Duration <= 0 {
		return DefaultCacheTTL
	}
	return c.Cache.TTL.Duration
}

// String implements fmt.Stringer for debug logging without dumping
// credentials.
func (c *Config) String() string {
	return fmt.Sprintf("target=%s deny=%d owners=%d batch=%d cache=%s",
		c.Target, len(c.Deny), len(c.Owners), c.Batch.Size, c.Cache.Backend)
}
