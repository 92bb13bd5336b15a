package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/geoknoesis/rdf-canon/rdf"
)

// Config holds defaults for every command. Durations use time.ParseDuration syntax.
type Config struct {
	Algorithm     string `toml:"algorithm" yaml:"algorithm"`
	HashAlgorithm string `toml:"hash_algorithm" yaml:"hash_algorithm"`
	MaxDepth      int    `toml:"max_depth" yaml:"max_depth"`
	MaxSteps      uint64 `toml:"max_steps" yaml:"max_steps"`
	TimeSlice     string `toml:"time_slice" yaml:"time_slice"`
	StrictIRI     bool   `toml:"strict_iri" yaml:"strict_iri"`

	Serve ServeConfig `toml:"serve" yaml:"serve"`
}

// ServeConfig configures the HTTP service.
type ServeConfig struct {
	Addr     string `toml:"addr" yaml:"addr"`
	RedisURL string `toml:"redis_url" yaml:"redis_url"`
	CacheTTL string `toml:"cache_ttl" yaml:"cache_ttl"`
	// MaxQuads rejects request bodies with more quads. Zero means no limit.
	MaxQuads     int `toml:"max_quads" yaml:"max_quads"`
	MaxLineBytes int `toml:"max_line_bytes" yaml:"max_line_bytes"`
}

// LoadConfig reads a TOML or YAML configuration file, chosen by extension.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config file extension %q (want .toml, .yaml or .yml)", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// canonFlags are the engine settings shared by every command.
type canonFlags struct {
	algorithm     string
	hashAlgorithm string
	maxDepth      int
	maxSteps      uint64
	timeSlice     time.Duration
	strictIRI     bool
}

func (f *canonFlags) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&f.algorithm, "algorithm", "a", string(rdf.AlgorithmURDNA2015), "canonicalization algorithm (URDNA2015 or URGNA2012)")
	flags.StringVar(&f.hashAlgorithm, "hash-algorithm", "", "override the algorithm's digest (sha1, sha256, sha384, blake2b-256)")
	flags.IntVar(&f.maxDepth, "max-depth", rdf.DefaultMaxRecursionDepth, "nested steps run on one stack")
	flags.Uint64Var(&f.maxSteps, "max-steps", rdf.DefaultMaxTotalSteps, "abort after this many steps")
	flags.DurationVar(&f.timeSlice, "time-slice", rdf.DefaultTimeSlice, "run time between cooperative yields")
	flags.BoolVar(&f.strictIRI, "strict-iri", false, "reject quads with invalid IRIs")
}

// resolveConfig loads the config file, if any, and overlays flags set on the command line.
func (c *CLI) resolveConfig(cmd *cobra.Command) (Config, error) {
	var cfg Config
	if c.configPath != "" {
		loaded, err := LoadConfig(c.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("algorithm") || cfg.Algorithm == "" {
		cfg.Algorithm = c.flags.algorithm
	}
	if flags.Changed("hash-algorithm") {
		cfg.HashAlgorithm = c.flags.hashAlgorithm
	}
	if flags.Changed("max-depth") || cfg.MaxDepth == 0 {
		cfg.MaxDepth = c.flags.maxDepth
	}
	if flags.Changed("max-steps") || cfg.MaxSteps == 0 {
		cfg.MaxSteps = c.flags.maxSteps
	}
	if flags.Changed("time-slice") || cfg.TimeSlice == "" {
		cfg.TimeSlice = c.flags.timeSlice.String()
	}
	if flags.Changed("strict-iri") {
		cfg.StrictIRI = c.flags.strictIRI
	}
	return cfg, nil
}

// canonOptions converts the configuration into engine options. Unknown algorithm names
// are reported here, before any input is read.
func (cfg Config) canonOptions(logger *log.Logger) ([]rdf.CanonOption, error) {
	alg, err := rdf.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	opts := []rdf.CanonOption{
		rdf.OptAlgorithm(alg),
		rdf.OptMaxRecursionDepth(cfg.MaxDepth),
		rdf.OptMaxTotalSteps(cfg.MaxSteps),
		rdf.OptLogger(logger),
	}
	if cfg.TimeSlice != "" {
		slice, err := time.ParseDuration(cfg.TimeSlice)
		if err != nil {
			return nil, fmt.Errorf("invalid time slice %q: %w", cfg.TimeSlice, err)
		}
		opts = append(opts, rdf.OptTimeSlice(slice))
	}
	if cfg.HashAlgorithm != "" {
		opts = append(opts, rdf.OptHashAlgorithm(rdf.HashAlgorithm(cfg.HashAlgorithm)))
	}
	if cfg.StrictIRI {
		opts = append(opts, rdf.OptStrictIRIValidation())
	}
	if _, err := rdf.ResolveCanonOptions(opts...); err != nil {
		return nil, err
	}
	return opts, nil
}
