package oursin

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

// Config carries the tunable parameters of the uncertainty evaluation.
// Pointer fields are user overrides; nil means "computed from the data".
type Config struct {
	// DziPercent is the relative depth-cell-size uncertainty in percent.
	DziPercent float64 `mapstructure:"dzi_percent"`

	// Edge-distance perturbation in percent of the measured distance.
	LeftEdgePercent  float64 `mapstructure:"left_edge_dist_percent"`
	RightEdgePercent float64 `mapstructure:"right_edge_dist_percent"`

	// DraftError replaces the depth-dependent draft offset, meters.
	DraftError *float64 `mapstructure:"draft_error_m"`

	// Exponent-band overrides for the extrapolation scenarios.
	ExpPPMin *float64 `mapstructure:"exp_pp_min"`
	ExpPPMax *float64 `mapstructure:"exp_pp_max"`
	ExpNSMin *float64 `mapstructure:"exp_ns_min"`
	ExpNSMax *float64 `mapstructure:"exp_ns_max"`

	// CrossCellCorrelation is the assumed correlation of instrument
	// noise between contiguous depth cells.
	CrossCellCorrelation float64 `mapstructure:"cross_cell_correlation"`

	// Workers bounds the scenario worker pool.
	Workers int `mapstructure:"workers"`

	// DisabledFamilies lists scenario families whose results are pinned
	// to the baseline.
	DisabledFamilies []string `mapstructure:"disabled_families"`

	// TermOverrides replaces computed 68% terms, keyed by term name,
	// values in percent.
	TermOverrides map[string]float64 `mapstructure:"term_overrides"`

	// Total95User bypasses the combination for reporting purposes.
	Total95User *float64 `mapstructure:"total_95_user"`
}

// DefaultConfig returns the configuration used when no profile is given.
func DefaultConfig() Config {
	return Config{
		DziPercent:           0.5,
		LeftEdgePercent:      20,
		RightEdgePercent:     20,
		CrossCellCorrelation: 1,
		Workers:              4,
	}
}

// LoadConfig reads an uncertainty profile from the given file.
func LoadConfig(profilePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(profilePath)

	v.SetDefault("dzi_percent", 0.5)
	v.SetDefault("left_edge_dist_percent", 20)
	v.SetDefault("right_edge_dist_percent", 20)
	v.SetDefault("cross_cell_correlation", 1)
	v.SetDefault("workers", 4)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse uncertainty config: %w", err)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	return &cfg, nil
}

func (c Config) familyDisabled(family string) bool {
	for _, f := range c.DisabledFamilies {
		if f == family {
			return true
		}
	}
	return false
}

func (c Config) termOverride(term domain.Term) (float64, bool) {
	v, ok := c.TermOverrides[string(term)]
	return v, ok
}
