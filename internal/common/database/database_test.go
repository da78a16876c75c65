// internal/common/database/database_test.go
package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-planner/internal/common/config"
	"garden-planner/internal/models"
)

func TestOpenPlantStore_SQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "nested", "plants.db")

	backend, err := OpenPlantStore(context.Background(), cfg)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, backend.Upsert(ctx, models.PlantRecord{Name: "Basil", Category: models.CategoryHerb}))

	got, err := backend.FindByName(ctx, "basil")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Basil", got.Name)
}

func TestNewElasticsearch(t *testing.T) {
	client, err := NewElasticsearch(config.ElasticsearchConfig{URL: "http://localhost:9200"})
	require.NoError(t, err)
	assert.NotNil(t, client.Client)

	_, err = NewElasticsearch(config.ElasticsearchConfig{})
	assert.Error(t, err)
}

func TestNewRedis(t *testing.T) {
	client, err := NewRedis(config.RedisConfig{Address: "localhost:6379"})
	require.NoError(t, err)
	assert.NotNil(t, client.GetClient())
	assert.NoError(t, client.Close())

	_, err = NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}
