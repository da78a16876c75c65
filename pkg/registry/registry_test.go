// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-planner/internal/models"
)

func tomato() SeedPlant {
	return SeedPlant{
		Name:             "Tomato",
		ScientificName:   "Solanum lycopersicum",
		Category:         "vegetable",
		DaysToHarvest:    75,
		SpacingInches:    24,
		SunRequirement:   "full sun",
		WaterRequirement: "moderate",
		CompanionPlants:  []string{"Basil", "Carrot"},
	}
}

func TestRegistry_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plants.json")

	reg := New()
	require.NoError(t, reg.Add(tomato()))
	require.NoError(t, reg.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, loaded.Version)
	require.Len(t, loaded.Plants, 1)
	assert.Equal(t, tomato(), loaded.Plants[0])
	assert.NoError(t, loaded.Validate())
}

func TestRegistry_Add(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Add(tomato()))

	dup := tomato()
	dup.Name = "  TOMATO "
	assert.ErrorContains(t, reg.Add(dup), "already exists")

	bad := tomato()
	bad.Name = "Moss"
	bad.Category = "bryophyte"
	assert.ErrorContains(t, reg.Add(bad), "category")

	assert.Len(t, reg.Plants, 1)
}

func TestRegistry_Validate(t *testing.T) {
	reg := New()
	assert.ErrorContains(t, reg.Validate(), "no plants")

	noName := tomato()
	noName.Name = ""
	shady := tomato()
	shady.Name = "Hosta"
	shady.SunRequirement = "moonlight"

	reg.Plants = []SeedPlant{tomato(), noName, shady, tomato()}
	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 problem(s)")
	assert.Contains(t, err.Error(), "plants[1]: ")
	assert.Contains(t, err.Error(), `plants[2] "Hosta"`)
	assert.Contains(t, err.Error(), "duplicate of plants[0]")
}

func TestRegistry_Records(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Add(tomato()))

	recs := reg.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "tomato", recs[0].Key)
	assert.Equal(t, models.SourceSeeded, recs[0].Source)
	assert.Equal(t, []string{"Basil", "Carrot"}, recs[0].CompanionPlants)
	assert.NotNil(t, recs[0].AvoidPlantingWith)
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{plants:"), 0o600))
	_, err = LoadRegistry(path)
	assert.ErrorContains(t, err, "decode registry")
}

func TestShippedRegistryIsValid(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "plant-registry.json"))
	require.NoError(t, err)
	assert.NoError(t, reg.Validate())
	_, ok := reg.Find("tomato")
	assert.True(t, ok)
}
