package measurementfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
	"github.com/hydro-tools/flow-atlas/pkg/services/oursin"
)

// File is the materialized measurement exchanged with the upstream
// processing chain: the value objects this module consumes, the
// normalized profiles produced upstream, and the reprocessed discharge
// tables for each named scenario.
type File struct {
	Measurement domain.Measurement `json:"measurement"`

	// Profiles align 1:1 with the measurement's transects; Composite is
	// the measurement-wide profile over the checked transects.
	Profiles  []domain.NormalizedProfile `json:"profiles"`
	Composite domain.NormalizedProfile   `json:"composite_profile"`

	// Scenarios maps scenario names to the per-checked-transect
	// discharge decompositions computed by the external integrator.
	Scenarios map[string][]domain.DischargeSummary `json:"scenarios"`
}

// Load reads and validates a measurement file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open measurement file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a measurement file from a reader.
func Decode(r io.Reader) (*File, error) {
	var file File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse measurement file: %w", err)
	}

	m := file.Measurement
	if len(m.Transects) == 0 {
		return nil, fmt.Errorf("measurement file has no transects")
	}
	if len(m.Discharges) != len(m.Transects) {
		return nil, fmt.Errorf("measurement file has %d discharges for %d transects",
			len(m.Discharges), len(m.Transects))
	}
	if len(file.Profiles) != len(m.Transects) {
		return nil, fmt.Errorf("measurement file has %d profiles for %d transects",
			len(file.Profiles), len(m.Transects))
	}
	return &file, nil
}

// Store serves profiles and scenario tables from a measurement file. It
// implements both the profile-builder and reprocessor collaborators for
// workflows where the upstream chain has already materialized every
// scenario.
type Store struct {
	file *File
}

func NewStore(file *File) *Store {
	return &Store{file: file}
}

// Build returns the stored profile for the transect. The threshold and
// subsection are fixed upstream when the file is materialized, so they
// are not re-derived here.
func (s *Store) Build(_ context.Context, transect domain.Transect, _ string,
	_ float64, _ [2]float64) (domain.NormalizedProfile, error) {

	for _, p := range s.file.Profiles {
		if p.Source == transect.Source {
			return p, nil
		}
	}
	return domain.NormalizedProfile{}, fmt.Errorf("no profile for transect %q", transect.Source)
}

// BuildComposite returns the stored measurement-wide profile.
func (s *Store) BuildComposite(_ context.Context, _ []domain.Transect, _ string,
	_ float64, _ [2]float64) (domain.NormalizedProfile, error) {

	return s.file.Composite, nil
}

// Reprocess resolves a scenario to its stored discharge table.
func (s *Store) Reprocess(_ context.Context, _ domain.Measurement,
	scenario oursin.Scenario) ([]domain.DischargeSummary, error) {

	ds, ok := s.file.Scenarios[scenario.Name]
	if !ok {
		return nil, fmt.Errorf("no stored discharges for scenario %q", scenario.Name)
	}
	return ds, nil
}
