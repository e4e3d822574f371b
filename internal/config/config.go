package config

import "errors"

// Config is the top-level configuration struct for vocdoc.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Packages []PackageConfig `mapstructure:"packages"`
	Build    BuildConfig     `mapstructure:"build"`
	Output   OutputConfig    `mapstructure:"output"`
}

// PackageConfig names one directory subtree to document.
type PackageConfig struct {
	Dir       string `mapstructure:"dir"`
	Name      string `mapstructure:"name"`
	Namespace string `mapstructure:"namespace"`
}

// BuildConfig holds scan and resource knobs.
type BuildConfig struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
	Workers int      `mapstructure:"workers"`
}

// OutputConfig holds output destination and format.
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

// Output formats.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("build.workers must be non-negative")
	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("output.format must be markdown, json or yaml")
	// ErrMissingPackageDir indicates a package entry without a dir.
	ErrMissingPackageDir = errors.New("packages entries must set dir")
)

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Build.Workers < 0 {
		return ErrInvalidWorkers
	}

	switch c.Output.Format {
	case FormatMarkdown, FormatJSON, FormatYAML:
	default:
		return ErrInvalidFormat
	}

	for _, pkg := range c.Packages {
		if pkg.Dir == "" {
			return ErrMissingPackageDir
		}
	}

	return nil
}
