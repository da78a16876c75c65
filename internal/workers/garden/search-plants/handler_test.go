// internal/workers/garden/search-plants/handler_test.go
package searchplants

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"garden-planner/internal/common/errors"
	"garden-planner/internal/common/logger"
	"garden-planner/internal/garden/search"
	"garden-planner/internal/garden/store"
	"garden-planner/internal/models"
)

// ==========================
// Mocks
// ==========================

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Search(ctx context.Context, q search.Query) ([]models.PlantRecord, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.PlantRecord), args.Int(1), args.Error(2)
}

type MockFinder struct {
	mock.Mock
}

func (m *MockFinder) FindByCategory(ctx context.Context, category string) ([]models.PlantRecord, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlantRecord), args.Error(1)
}

func (m *MockFinder) SearchBySubstring(ctx context.Context, query string) ([]models.PlantRecord, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlantRecord), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, IndexTimeout: time.Second}
}

func setupStore(t testing.TB) *store.SQLite {
	t.Helper()
	ctx := context.Background()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "plants.db"))
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(ctx))
	t.Cleanup(func() { s.Close() })

	for _, p := range []models.PlantRecord{
		{Name: "Bush Bean", Category: "vegetable", Source: models.SourceSeeded},
		{Name: "Pole Bean", Category: "vegetable", Source: models.SourceSeeded},
		{Name: "Beet", Category: "vegetable", Source: models.SourceSeeded},
		{Name: "Basil", Category: "herb", Source: models.SourceSeeded},
		{Name: "Bean Sprout Herb", Category: "herb", Source: models.SourceSeeded},
	} {
		require.NoError(t, s.Upsert(ctx, p))
	}
	return s
}

func names(plants []models.PlantRecord) []string {
	out := make([]string, len(plants))
	for i, p := range plants {
		out[i] = p.Name
	}
	return out
}

func assertErrorCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Elasticsearch Tier
// ==========================

func TestHandler_Execute_IndexFirst(t *testing.T) {
	index := new(MockIndex)
	finder := new(MockFinder)
	hits := []models.PlantRecord{{Name: "Tomato", Key: "tomato"}}
	index.On("Search", mock.Anything, search.Query{Text: "tomato", Category: "vegetable", Limit: 5}).
		Return(hits, 12, nil)

	h := NewHandler(createTestConfig(), index, finder, logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{Query: " tomato ", Category: "Vegetable", Limit: 5})

	require.NoError(t, err)
	assert.Equal(t, SourceElasticsearch, output.Source)
	assert.Equal(t, 12, output.TotalResults)
	assert.Equal(t, hits, output.Plants)
	finder.AssertNotCalled(t, "SearchBySubstring", mock.Anything, mock.Anything)
}

func TestHandler_Execute_DefaultLimit(t *testing.T) {
	index := new(MockIndex)
	index.On("Search", mock.Anything, search.Query{Text: "kale", Limit: search.DefaultLimit}).
		Return(nil, 0, nil)

	h := NewHandler(createTestConfig(), index, nil, logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{Query: "kale"})

	require.NoError(t, err)
	assert.NotNil(t, output.Plants)
	assert.Empty(t, output.Plants)
	index.AssertExpectations(t)
}

// ==========================
// Store Fallback
// ==========================

func TestHandler_Execute_FallsBackToStore(t *testing.T) {
	index := new(MockIndex)
	index.On("Search", mock.Anything, mock.Anything).Return(nil, 0, fmt.Errorf("connection refused"))

	h := NewHandler(createTestConfig(), index, setupStore(t), logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{Query: "bean"})

	require.NoError(t, err)
	assert.Equal(t, SourceStore, output.Source)
	assert.Equal(t, 3, output.TotalResults)
	assert.ElementsMatch(t, []string{"Bush Bean", "Pole Bean", "Bean Sprout Herb"}, names(output.Plants))
}

func TestHandler_Execute_StoreOnly(t *testing.T) {
	s := setupStore(t)

	tests := []struct {
		name     string
		input    *Input
		expected []string
		total    int
	}{
		{"category only", &Input{Category: "HERB"}, []string{"Basil", "Bean Sprout Herb"}, 2},
		{"query with category", &Input{Query: "bean", Category: "vegetable"}, []string{"Bush Bean", "Pole Bean"}, 2},
		{"limit truncates", &Input{Category: "vegetable", Limit: 2}, []string{"Beet", "Bush Bean"}, 3},
		{"no match", &Input{Query: "okra"}, []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), nil, s, logger.NewTestLogger(t))
			output, err := h.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			assert.Equal(t, SourceStore, output.Source)
			assert.Equal(t, tt.total, output.TotalResults)
			assert.ElementsMatch(t, tt.expected, names(output.Plants))
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidQuery(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{"nil input", nil},
		{"empty", &Input{}},
		{"whitespace", &Input{Query: "   ", Category: " "}},
		{"negative limit", &Input{Query: "bean", Limit: -1}},
		{"limit too large", &Input{Query: "bean", Limit: 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := new(MockIndex)
			h := NewHandler(createTestConfig(), index, new(MockFinder), logger.NewTestLogger(t))

			_, err := h.Execute(context.Background(), tt.input)

			assertErrorCode(t, err, errors.ErrCodeInvalidSearchQuery)
			index.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Execute_StoreFailure(t *testing.T) {
	finder := new(MockFinder)
	finder.On("SearchBySubstring", mock.Anything, "bean").Return(nil, fmt.Errorf("disk I/O error"))

	h := NewHandler(createTestConfig(), nil, finder, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{Query: "bean"})

	assertErrorCode(t, err, errors.ErrCodePlantSearchFailed)
}

func TestHandler_Execute_StoreTimeout(t *testing.T) {
	finder := new(MockFinder)
	finder.On("FindByCategory", mock.Anything, "herb").Return(nil, fmt.Errorf("find: %w", context.DeadlineExceeded))

	h := NewHandler(createTestConfig(), nil, finder, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{Category: "herb"})

	assertErrorCode(t, err, errors.ErrCodeSearchTimeout)
}

func TestHandler_Execute_NoBackend(t *testing.T) {
	index := new(MockIndex)
	index.On("Search", mock.Anything, mock.Anything).Return(nil, 0, fmt.Errorf("index missing"))

	h := NewHandler(createTestConfig(), index, nil, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{Query: "bean"})

	assertErrorCode(t, err, errors.ErrCodePlantSearchFailed)
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkHandler_SearchStore(b *testing.B) {
	handler := NewHandler(createTestConfig(), nil, setupStore(b), logger.NewNoOpLogger())
	input := &Input{Query: "bean", Limit: 10}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = handler.Execute(context.Background(), input)
	}
}
