package extrap

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

// ProfileBuilder produces normalized profiles from transect data.
// Implementations own the cell-averaging and binning strategy.
type ProfileBuilder interface {
	// Build computes the normalized profile of one transect.
	Build(ctx context.Context, transect domain.Transect, dataType string,
		threshold float64, subsection [2]float64) (domain.NormalizedProfile, error)
	// BuildComposite aggregates the checked transects into a single
	// measurement-wide profile.
	BuildComposite(ctx context.Context, transects []domain.Transect, dataType string,
		threshold float64, subsection [2]float64) (domain.NormalizedProfile, error)
}

// SensitivityHook is notified after every recomputation so discharge
// sensitivities can be refreshed from the new fits.
type SensitivityHook interface {
	Recompute(ctx context.Context, transects []domain.Transect, state domain.ExtrapolationState) error
}

// Coordinator owns the extrapolation state of a measurement: the
// per-transect fits, the composite fit and the settings they were
// produced under. All mutators recompute the whole state.
type Coordinator struct {
	builder   ProfileBuilder
	hook      SensitivityHook
	transects []domain.Transect
	profiles  []domain.NormalizedProfile
	composite domain.NormalizedProfile
	state     domain.ExtrapolationState
}

// NewCoordinator wires a coordinator. The hook may be nil when no
// sensitivity consumer is attached.
func NewCoordinator(builder ProfileBuilder, hook SensitivityHook) (*Coordinator, error) {
	if builder == nil {
		return nil, fmt.Errorf("extrap: profile builder is required")
	}
	return &Coordinator{builder: builder, hook: hook}, nil
}

// Populate initializes the state from the given transects with the
// default settings and performs the first full computation.
func (c *Coordinator) Populate(ctx context.Context, transects []domain.Transect) (domain.ExtrapolationState, error) {
	c.transects = transects
	c.state = domain.ExtrapolationState{
		Threshold:  20,
		Subsection: [2]float64{0, 100},
		FitMethod:  domain.FitAutomatic,
		DataType:   "q",
	}
	if err := c.recompute(ctx); err != nil {
		return domain.ExtrapolationState{}, err
	}
	return c.state, nil
}

// ChangeFitMethod switches between automatic selection and the manual
// per-transect settings, recomputing everything.
func (c *Coordinator) ChangeFitMethod(ctx context.Context, method domain.FitMethod) (domain.ExtrapolationState, error) {
	c.state.FitMethod = method
	if err := c.recompute(ctx); err != nil {
		return domain.ExtrapolationState{}, err
	}
	return c.state, nil
}

// ChangeThreshold updates the percent-valid threshold used when
// normalizing profiles.
func (c *Coordinator) ChangeThreshold(ctx context.Context, threshold float64) (domain.ExtrapolationState, error) {
	if threshold < 0 || threshold > 100 {
		return domain.ExtrapolationState{}, fmt.Errorf("extrap: threshold %.1f outside [0, 100]", threshold)
	}
	c.state.Threshold = threshold
	if err := c.recompute(ctx); err != nil {
		return domain.ExtrapolationState{}, err
	}
	return c.state, nil
}

// ChangeExtents restricts the cross-section portion, in percent of
// total width, that contributes to the profiles.
func (c *Coordinator) ChangeExtents(ctx context.Context, subsection [2]float64) (domain.ExtrapolationState, error) {
	if subsection[0] < 0 || subsection[1] > 100 || subsection[0] >= subsection[1] {
		return domain.ExtrapolationState{}, fmt.Errorf("extrap: invalid subsection [%.1f, %.1f]", subsection[0], subsection[1])
	}
	c.state.Subsection = subsection
	if err := c.recompute(ctx); err != nil {
		return domain.ExtrapolationState{}, err
	}
	return c.state, nil
}

// ChangeDataType switches the profiles between discharge and velocity
// data.
func (c *Coordinator) ChangeDataType(ctx context.Context, dataType string) (domain.ExtrapolationState, error) {
	if dataType != "q" && dataType != "v" {
		return domain.ExtrapolationState{}, fmt.Errorf("extrap: unknown data type %q", dataType)
	}
	c.state.DataType = dataType
	if err := c.recompute(ctx); err != nil {
		return domain.ExtrapolationState{}, err
	}
	return c.state, nil
}

// State returns the current extrapolation state.
func (c *Coordinator) State() domain.ExtrapolationState {
	return c.state
}

// Profiles returns the per-transect profiles followed by the composite
// profile from the last computation.
func (c *Coordinator) Profiles() ([]domain.NormalizedProfile, domain.NormalizedProfile) {
	return c.profiles, c.composite
}

func (c *Coordinator) recompute(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	c.profiles = make([]domain.NormalizedProfile, len(c.transects))
	for i, tr := range c.transects {
		profile, err := c.builder.Build(ctx, tr, c.state.DataType, c.state.Threshold, c.state.Subsection)
		if err != nil {
			return fmt.Errorf("building profile for transect %q: %w", tr.Source, err)
		}
		c.profiles[i] = profile
	}
	composite, err := c.builder.BuildComposite(ctx, c.transects, c.state.DataType, c.state.Threshold, c.state.Subsection)
	if err != nil {
		return fmt.Errorf("building composite profile: %w", err)
	}
	c.composite = composite

	c.state.PerTransect = make([]domain.SelectedFit, len(c.transects))
	for i := range c.transects {
		var manual *domain.ExtrapSetting
		if c.state.FitMethod == domain.FitManual {
			manual = &c.transects[i].Extrap
		}
		c.state.PerTransect[i] = SelectFit(c.profiles[i], c.state.FitMethod, manual)
	}

	// The composite has no stored setting of its own; manual mode reuses
	// the first checked transect's setting for it.
	var compositeManual *domain.ExtrapSetting
	if c.state.FitMethod == domain.FitManual {
		for i := range c.transects {
			if c.transects[i].Checked {
				compositeManual = &c.transects[i].Extrap
				break
			}
		}
	}
	c.state.Composite = SelectFit(c.composite, c.state.FitMethod, compositeManual)

	c.state.Messages = c.state.Messages[:0]
	cf := c.state.Composite
	if (cf.TopFitR2 > 0.9 || cf.TopR2 > 0.9) && math.Abs(cf.TopMaxDiff) > 0.2 {
		c.state.Messages = append(c.state.Messages,
			"The measurement profile may warrant a 3-point fit at the top")
	}

	logger.Debug().
		Str("fitMethod", string(c.state.FitMethod)).
		Str("dataType", c.state.DataType).
		Float64("threshold", c.state.Threshold).
		Str("topMethod", string(cf.TopMethod)).
		Str("botMethod", string(cf.BotMethod)).
		Float64("exponent", cf.Exponent).
		Msg("extrapolation recomputed")

	if c.hook != nil {
		if err := c.hook.Recompute(ctx, c.transects, c.state); err != nil {
			return fmt.Errorf("refreshing discharge sensitivities: %w", err)
		}
	}
	return nil
}
