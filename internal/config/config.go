package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/vicsek"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "config.schema.json"

// Neighbor search strategies.
const (
	SearchBruteForce = "bruteforce"
	SearchCellList   = "celllist"
)

// Initial heading distributions.
const (
	HeadingsUniform = "uniform"
	HeadingsPerlin  = "perlin"
	HeadingsAligned = "aligned"
)

type Config struct {
	// Ensemble
	N   int     `json:"n" toml:"n" yaml:"n"`
	L   float64 `json:"l" toml:"l" yaml:"l"`
	V0  float64 `json:"v0" toml:"v0" yaml:"v0"`
	Eta float64 `json:"eta" toml:"eta" yaml:"eta"`
	R   float64 `json:"r" toml:"r" yaml:"r"`
	Dt  float64 `json:"dt" toml:"dt" yaml:"dt"`

	// Run
	Steps           int    `json:"steps" toml:"steps" yaml:"steps"` // frames recorded by the headless driver
	Seed            uint64 `json:"seed" toml:"seed" yaml:"seed"`    // 0 picks one from the clock
	NeighborSearch  string `json:"neighborSearch" toml:"neighborSearch" yaml:"neighborSearch"`
	Workers         int    `json:"workers" toml:"workers" yaml:"workers"`
	InitialHeadings string `json:"initialHeadings" toml:"initialHeadings" yaml:"initialHeadings"`

	// Display and export
	ScreenSize int     `json:"screenSize" toml:"screenSize" yaml:"screenSize"`
	ArrowScale float64 `json:"arrowScale" toml:"arrowScale" yaml:"arrowScale"`
	FPS        int     `json:"fps" toml:"fps" yaml:"fps"`
	LogLevel   string  `json:"logLevel" toml:"logLevel" yaml:"logLevel"`
}

// DefaultConfig returns the reference run: 500 particles in a 10x10 box,
// speed 0.2, noise 0.05, radius 1, time step 0.5, 30 frames per second.
func DefaultConfig() *Config {
	return &Config{
		N:               500,
		L:               10,
		V0:              0.2,
		Eta:             0.05,
		R:               1,
		Dt:              0.5,
		Steps:           200,
		NeighborSearch:  SearchBruteForce,
		Workers:         1,
		InitialHeadings: HeadingsUniform,
		ScreenSize:      800,
		ArrowScale:      1,
		FPS:             30,
		LogLevel:        "info",
	}
}

// LoadConfig loads configuration from a JSON, TOML or YAML file, validates
// it against the embedded schema and overlays it on DefaultConfig.
func LoadConfig(configFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := jsonschema.CompileString(schemaURL, schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// 3. Decode to a plain JSON document, whatever the syntax
	doc, err := toJSON(configFile, b)
	if err != nil {
		return nil, err
	}

	// 4. Validate
	var v interface{}
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 5. Unmarshal into Struct, on top of the defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(doc, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Params().Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// toJSON re-encodes TOML and YAML documents as JSON so a single schema
// and a single set of struct tags drive validation and decoding.
func toJSON(name string, b []byte) ([]byte, error) {
	var doc map[string]interface{}
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		return b, nil
	case ".toml":
		if err := toml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .json, .toml, .yaml)", ext)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert config to json: %w", err)
	}
	return out, nil
}

// Params returns the physical parameters of the run.
func (c *Config) Params() vicsek.Params {
	return vicsek.Params{N: c.N, L: c.L, V0: c.V0, Eta: c.Eta, R: c.R, Dt: c.Dt}
}

// ResolveSeed replaces a zero seed by one taken from src, so the seed of
// a run can always be logged and replayed. It returns the seed in use.
func (c *Config) ResolveSeed(src vicsek.NoiseSource) uint64 {
	for c.Seed == 0 {
		c.Seed = uint64(src.Float64() * math.MaxUint32)
	}
	return c.Seed
}

// Options translates the run settings into simulator options.
func (c *Config) Options() []vicsek.Option {
	opts := []vicsek.Option{vicsek.WithWorkers(c.Workers)}
	if c.Seed != 0 {
		opts = append(opts, vicsek.WithSeed(c.Seed))
	}
	switch c.NeighborSearch {
	case SearchCellList:
		opts = append(opts, vicsek.WithNeighborSearch(vicsek.NewCellList()))
	default:
		opts = append(opts, vicsek.WithNeighborSearch(vicsek.NewBruteForce()))
	}
	return opts
}

// InitialState draws uniform positions and headings following
// InitialHeadings. The stream is derived from Seed, distinct from the
// one feeding the simulator's noise.
func (c *Config) InitialState() ([]geometry.Vector2D, []float64) {
	src := vicsek.NewNoiseSource(^c.Seed)
	positions := vicsek.UniformPositions(c.N, c.L, src)
	switch c.InitialHeadings {
	case HeadingsPerlin:
		return positions, vicsek.PerlinHeadings(positions, c.L, int64(c.Seed))
	case HeadingsAligned:
		return positions, vicsek.AlignedHeadings(c.N, src.Float64()*2*math.Pi)
	default:
		return positions, vicsek.UniformHeadings(c.N, src)
	}
}

// NewSimulator builds a simulator from the configuration.
func (c *Config) NewSimulator() (*vicsek.Simulator, error) {
	positions, headings := c.InitialState()
	return vicsek.New(c.Params(), positions, headings, c.Options()...)
}

// ValidateFile reports whether configFile loads and passes schema
// validation.
func ValidateFile(configFile string) error {
	_, err := LoadConfig(configFile)
	return err
}
