// internal/garden/location/location_test.go
package location

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC) }
}

func TestResolve_Ottawa(t *testing.T) {
	loc := New(WithClock(fixedClock()))

	p := loc.Resolve(context.Background(), "k1a0a6")

	assert.Equal(t, "K1A 0A6", p.LocationCode)
	assert.Equal(t, "Ottawa", p.City)
	assert.Equal(t, "Ontario", p.Region)
	assert.Equal(t, CountryCanada, p.Country)
	assert.Equal(t, "4a-6a", p.HardinessZone)
	require.NotNil(t, p.LastFrostDate)
	require.NotNil(t, p.FirstFrostDate)
	assert.Equal(t, "2025-05-01", p.LastFrostDate.String())
	assert.Equal(t, "2025-10-01", p.FirstFrostDate.String())
	require.NotNil(t, p.GrowingSeasonDays)
	assert.Equal(t, 153, *p.GrowingSeasonDays)
	assert.Equal(t, "cold", p.ClimateClass)
	assert.Equal(t, "Ottawa, Ontario", p.Place())
}

func TestResolve_USZip(t *testing.T) {
	loc := New(WithClock(fixedClock()))

	tests := []struct {
		code      string
		wantCode  string
		city      string
		zone      string
		lastFrost string
		class     string
	}{
		{"02139", "02139", "Boston", "4a-6b", "2025-04-15", "cold"},
		{"33101-1234", "33101", "Miami", "8b-11", "2025-03-15", "warm"},
		{"30301", "30301", "Atlanta", "7a-9a", "2025-03-15", "temperate"},
		{"94105", "94105", "Los Angeles", "8a-11", "2025-02-01", "warm"},
		{"98101", "98101", "Seattle", "5a-9a", "2025-03-15", "temperate"},
		{"00501", "00501", "Kansas City", "6a-7a", "2025-03-15", "temperate"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			p := loc.Resolve(context.Background(), tt.code)
			assert.Equal(t, tt.wantCode, p.LocationCode)
			assert.Equal(t, CountryUS, p.Country)
			assert.Equal(t, tt.city, p.City)
			assert.Equal(t, tt.zone, p.HardinessZone)
			require.NotNil(t, p.LastFrostDate)
			assert.Equal(t, tt.lastFrost, p.LastFrostDate.String())
			assert.Equal(t, tt.class, p.ClimateClass)
			assert.NotNil(t, p.GrowingSeasonDays)
		})
	}
}

func TestResolve_Unknown(t *testing.T) {
	loc := New(WithClock(fixedClock()))

	for _, code := range []string{"", "hello", "D1A 1A1", "1234"} {
		p := loc.Resolve(context.Background(), code)
		assert.Empty(t, p.City, code)
		assert.Empty(t, p.HardinessZone, code)
		assert.Nil(t, p.LastFrostDate, code)
		assert.Nil(t, p.GrowingSeasonDays, code)
		assert.Empty(t, p.ClimateClass, code)
		assert.Equal(t, "unknown", p.Zone(), code)
	}
}

func TestClimateClass(t *testing.T) {
	assert.Equal(t, "arctic", climateClass(CountryCanada, "0a-1a"))
	assert.Equal(t, "temperate", climateClass(CountryCanada, "6a-9a"))
	assert.Equal(t, "tropical", climateClass(CountryUS, "10a-11"))
	assert.Equal(t, "temperate", climateClass(CountryUS, ""))
	assert.Equal(t, "cold", climateClass(CountryCanada, ""))
}
