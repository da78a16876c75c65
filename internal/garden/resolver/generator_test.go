// internal/garden/resolver/generator_test.go
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-planner/internal/common/logger"
	"garden-planner/internal/garden/extract"
	"garden-planner/internal/models"
)

func TestGenerator_RepairsNoisyOutput(t *testing.T) {
	raw := `Here's the plant data:
{
  // generated profile
  'name': 'Sweet Basil',
  plant_type: 'Herbs',
  days_to_harvest: 60,
  spacing_inches: 10,
  sun_requirements: 'Full sun to part shade',
  water_requirements: 'keep soil consistently moist',
  soil_ph_range: 6.5,
  companion_plants: "Tomato, Pepper, none",
  avoid_planting_with: None,
  scientific_name: None,
}`
	c := &fakeCompleter{responses: map[string]string{"sweet basil": raw}}
	g := NewGenerator(c, time.Second, logger.NewTestLogger(t))

	rec, err := g.Generate(context.Background(), "sweet basil ")
	require.NoError(t, err)

	assert.Equal(t, "Sweet Basil", rec.Name)
	assert.Equal(t, "sweet basil", rec.Key)
	assert.Equal(t, models.CategoryHerb, rec.Category)
	assert.Equal(t, 60, rec.DaysToHarvest)
	assert.Equal(t, 10.0, rec.SpacingInches)
	assert.Equal(t, "partial shade", rec.SunRequirement)
	assert.Equal(t, "high", rec.WaterRequirement)
	assert.Equal(t, "6.0-7.0", rec.SoilPHRange)
	assert.Equal(t, []string{"Tomato", "Pepper"}, rec.CompanionPlants)
	assert.Equal(t, []string{}, rec.AvoidPlantingWith)
	assert.Empty(t, rec.ScientificName)
	assert.Equal(t, models.SourceGenerated, rec.Source)
	assert.Equal(t, int64(1), rec.UsageCount)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestGenerator_KeepsRequestedNameWhenModelRenames(t *testing.T) {
	c := &fakeCompleter{responses: map[string]string{"roma": `{"name": "Tomato (Roma)", "plant_type": "vegetable"}`}}
	g := NewGenerator(c, time.Second, logger.NewTestLogger(t))

	rec, err := g.Generate(context.Background(), "Roma")
	require.NoError(t, err)
	assert.Equal(t, "Roma", rec.Name)
	assert.Equal(t, "roma", rec.Key)
}

func TestGenerator_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		check    func(t *testing.T, err error)
	}{
		{
			name:     "null",
			response: "null",
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotAPlant) },
		},
		{
			name:     "fenced null",
			response: "```json\nnull\n```",
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotAPlant) },
		},
		{
			name:     "no structure",
			response: "I could not find that plant.",
			check:    func(t *testing.T, err error) { assert.True(t, extract.IsFailure(err)) },
		},
		{
			name:     "wrong types",
			response: `{"name": 42}`,
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidProfile) },
		},
		{
			name:     "scalar array",
			response: `[1, 2, 3]`,
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidProfile) },
		},
		{
			name: "service error",
			err:  errors.New("unreachable"),
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "unreachable")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCompleter{responses: map[string]string{"thing": tt.response}, err: tt.err}
			g := NewGenerator(c, time.Second, logger.NewTestLogger(t))

			_, err := g.Generate(context.Background(), "Thing")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestGenerator_Timeout(t *testing.T) {
	c := &fakeCompleter{responses: map[string]string{"kale": `{"name":"Kale"}`}, delay: time.Second}
	g := NewGenerator(c, 20*time.Millisecond, logger.NewTestLogger(t))

	_, err := g.Generate(context.Background(), "kale")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerator_BlankName(t *testing.T) {
	g := NewGenerator(&fakeCompleter{}, time.Second, logger.NewTestLogger(t))
	_, err := g.Generate(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrGenerationEmpty)
}

func TestNormalizeHelpers(t *testing.T) {
	raw := func(s string) json.RawMessage { return json.RawMessage(s) }

	assert.Equal(t, 75.0, PositiveNumber(raw(`75`)))
	assert.Equal(t, 0.0, PositiveNumber(raw(`-3`)))
	assert.Equal(t, 70.0, PositiveNumber(raw(`"70 to 80 days"`)))
	assert.Equal(t, 0.0, PositiveNumber(raw(`"soon"`)))
	assert.Equal(t, 0.0, PositiveNumber(nil))

	assert.Equal(t, "6.0-7.0", normalizePH(nil))
	assert.Equal(t, "5.5-6.5", normalizePH(raw(`"6.5 - 5.5"`)))
	assert.Equal(t, "6.3-7.3", normalizePH(raw(`6.8`)))
	assert.Equal(t, "6.0-7.0", normalizePH(raw(`"neutral"`)))

	assert.Equal(t, models.CategoryFruit, normalizeCategory("Berries"))
	assert.Equal(t, models.CategoryFlower, normalizeCategory("annual flower"))
	assert.Equal(t, models.CategoryVegetable, normalizeCategory(""))

	assert.Equal(t, "shade", normalizeSun("Full shade"))
	assert.Equal(t, "full sun", normalizeSun(""))
	assert.Equal(t, "low", normalizeWater("Drought tolerant"))
	assert.Equal(t, "moderate", normalizeWater("medium"))
}
