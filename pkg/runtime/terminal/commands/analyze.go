package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hydro-tools/flow-atlas/pkg/runtime/terminal/export"
	"github.com/hydro-tools/flow-atlas/pkg/services/analysis"
	"github.com/hydro-tools/flow-atlas/pkg/services/oursin"
	"github.com/hydro-tools/flow-atlas/pkg/store/measurementfile"
)

type AnalyzeCmd struct {
	measurementPath string
	profilePath     string
	verbose         bool
	reporter        *export.Reporter
}

func NewAnalyzeCmd(reporter *export.Reporter) *cobra.Command {
	ac := &AnalyzeCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a measurement and report its discharge uncertainty",
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.measurementPath, "measurement", "", "Path to the materialized measurement file")
	cmd.Flags().StringVar(&ac.profilePath, "profile", "", "Path to an uncertainty configuration profile")
	cmd.Flags().BoolVar(&ac.verbose, "verbose", false, "Enable debug logging")

	_ = cmd.MarkFlagRequired("measurement")

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, args []string) error {
	level := zerolog.WarnLevel
	if ac.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg := oursin.DefaultConfig()
	if ac.profilePath != "" {
		loaded, err := oursin.LoadConfig(ac.profilePath)
		if err != nil {
			return fmt.Errorf("failed to load uncertainty profile: %w", err)
		}
		cfg = *loaded
	}

	file, err := measurementfile.Load(ac.measurementPath)
	if err != nil {
		return fmt.Errorf("failed to load measurement: %w", err)
	}

	store := measurementfile.NewStore(file)
	analyzer, err := analysis.NewAnalyzer(store, store, cfg)
	if err != nil {
		return err
	}

	result, err := analyzer.Run(ctx, file.Measurement)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	return ac.reporter.Handle(result)
}
