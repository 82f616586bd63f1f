package measurementfile

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
	"github.com/hydro-tools/flow-atlas/pkg/services/oursin"
)

func testFile() *File {
	return &File{
		Measurement: domain.Measurement{
			Transects: []domain.Transect{
				{Source: "transect_1", Checked: true},
				{Source: "transect_2", Checked: true},
			},
			Discharges: []domain.Discharge{{Total: 10}, {Total: 10.4}},
		},
		Profiles: []domain.NormalizedProfile{
			{Source: "transect_1"},
			{Source: "transect_2"},
		},
		Composite: domain.NormalizedProfile{Source: "composite"},
		Scenarios: map[string][]domain.DischargeSummary{
			oursin.ScenarioPPOpt: {{Total: 10}, {Total: 10.4}},
		},
	}
}

func TestDecode(t *testing.T) {
	encode := func(t *testing.T, f *File) *bytes.Buffer {
		t.Helper()
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(f))
		return &buf
	}

	t.Run("round trips a valid file", func(t *testing.T) {
		got, err := Decode(encode(t, testFile()))
		require.NoError(t, err)
		assert.Len(t, got.Measurement.Transects, 2)
		assert.Equal(t, "composite", got.Composite.Source)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := Decode(bytes.NewBufferString("{not json"))
		assert.Error(t, err)
	})

	t.Run("rejects a file without transects", func(t *testing.T) {
		f := testFile()
		f.Measurement.Transects = nil
		f.Measurement.Discharges = nil
		f.Profiles = nil
		_, err := Decode(encode(t, f))
		assert.Error(t, err)
	})

	t.Run("rejects mismatched discharges", func(t *testing.T) {
		f := testFile()
		f.Measurement.Discharges = f.Measurement.Discharges[:1]
		_, err := Decode(encode(t, f))
		assert.Error(t, err)
	})

	t.Run("rejects mismatched profiles", func(t *testing.T) {
		f := testFile()
		f.Profiles = f.Profiles[:1]
		_, err := Decode(encode(t, f))
		assert.Error(t, err)
	})
}

func TestStore_Build(t *testing.T) {
	store := NewStore(testFile())

	t.Run("matches the profile by transect source", func(t *testing.T) {
		p, err := store.Build(context.Background(), domain.Transect{Source: "transect_2"}, "q", 20, [2]float64{0, 100})
		require.NoError(t, err)
		assert.Equal(t, "transect_2", p.Source)
	})

	t.Run("errors for an unknown transect", func(t *testing.T) {
		_, err := store.Build(context.Background(), domain.Transect{Source: "transect_9"}, "q", 20, [2]float64{0, 100})
		assert.Error(t, err)
	})

	t.Run("serves the composite profile", func(t *testing.T) {
		p, err := store.BuildComposite(context.Background(), nil, "q", 20, [2]float64{0, 100})
		require.NoError(t, err)
		assert.Equal(t, "composite", p.Source)
	})
}

func TestStore_Reprocess(t *testing.T) {
	store := NewStore(testFile())

	t.Run("resolves a stored scenario", func(t *testing.T) {
		ds, err := store.Reprocess(context.Background(), domain.Measurement{},
			oursin.Scenario{Name: oursin.ScenarioPPOpt})
		require.NoError(t, err)
		require.Len(t, ds, 2)
		assert.Equal(t, 10.0, ds[0].Total)
	})

	t.Run("errors for a scenario the file does not carry", func(t *testing.T) {
		_, err := store.Reprocess(context.Background(), domain.Measurement{},
			oursin.Scenario{Name: oursin.ScenarioEdgeMin})
		assert.Error(t, err)
	})
}
