// cmd/tools/plant-seeder/main_test.go
package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-planner/internal/garden/store"
	"garden-planner/pkg/registry"
)

func TestRunAdd_CreatesRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.json")

	err := runAdd([]string{
		"-path", path,
		"-name", "Swiss Chard",
		"-category", "Vegetable",
		"-days", "55",
		"-sun", "full sun",
		"-companions", "Bean, Onion,,",
	})
	require.NoError(t, err)

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, reg.Plants, 1)
	assert.Equal(t, "vegetable", reg.Plants[0].Category)
	assert.Equal(t, []string{"Bean", "Onion"}, reg.Plants[0].CompanionPlants)

	assert.NoError(t, runValidate([]string{"-path", path}))
	assert.ErrorContains(t, runAdd([]string{"-path", path, "-name", "swiss chard", "-category", "vegetable"}), "already exists")
}

func TestRunAdd_RequiresNameAndCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.json")
	assert.Error(t, runAdd([]string{"-path", path, "-name", "Okra"}))
}

func TestRunValidate_ShippedRegistry(t *testing.T) {
	assert.NoError(t, runValidate([]string{"-path", filepath.Join("..", "..", "..", "configs", "plant-registry.json")}))
}

func TestPrintStats(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "plants.db"))
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(ctx))
	t.Cleanup(func() { s.Close() })

	reg := registry.New()
	require.NoError(t, reg.Add(registry.SeedPlant{Name: "Okra", Category: "vegetable", DaysToHarvest: 55}))
	for _, rec := range reg.Records() {
		require.NoError(t, s.Upsert(ctx, rec))
	}

	assert.NoError(t, printStats(ctx, s))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
}
