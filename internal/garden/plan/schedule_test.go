// internal/garden/plan/schedule_test.go
package plan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-planner/internal/models"
)

func date(s string) *models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestCorrectSchedules_NeverDropsAPlant(t *testing.T) {
	plants := []models.PlantRecord{tomato(), lettuce()}
	generated := []models.Schedule{
		{PlantName: "Okra", DirectSowDate: date("2026-06-01"), Source: models.SectionGenerated},
		{PlantName: " LETTUCE ", DirectSowDate: date("2026-04-20"), Source: models.SectionGenerated},
		{PlantName: "lettuce", DirectSowDate: date("2026-09-01"), Source: models.SectionGenerated},
	}

	out := CorrectSchedules(generated, plants, ottawa(), models.NewDate(2026, 3, 1))
	require.Len(t, out, 2)

	assert.Equal(t, DefaultSchedule(tomato(), ottawa(), models.NewDate(2026, 3, 1)), out[0])

	assert.Equal(t, "Lettuce", out[1].PlantName)
	assert.Equal(t, models.SectionGenerated, out[1].Source)
	assert.Equal(t, "2026-04-20", out[1].DirectSowDate.String())
}

func TestCorrectSchedules_Rules(t *testing.T) {
	tests := []struct {
		name  string
		in    models.Schedule
		check func(t *testing.T, s models.Schedule)
	}{
		{
			name: "both sowing dates with transplant keeps indoors",
			in: models.Schedule{
				PlantName: "Tomato", StartIndoorsDate: date("2026-03-15"), DirectSowDate: date("2026-05-15"),
				TransplantDate: date("2026-05-20"),
			},
			check: func(t *testing.T, s models.Schedule) {
				assert.NotNil(t, s.StartIndoorsDate)
				assert.Nil(t, s.DirectSowDate)
			},
		},
		{
			name: "both sowing dates without transplant keeps direct sow",
			in: models.Schedule{
				PlantName: "Tomato", StartIndoorsDate: date("2026-03-15"), DirectSowDate: date("2026-05-15"),
			},
			check: func(t *testing.T, s models.Schedule) {
				assert.Nil(t, s.StartIndoorsDate)
				assert.Equal(t, "2026-05-15", s.DirectSowDate.String())
			},
		},
		{
			name: "reversed harvest window is swapped",
			in: models.Schedule{
				PlantName: "Tomato", HarvestStartDate: date("2026-09-30"), HarvestEndDate: date("2026-07-15"),
			},
			check: func(t *testing.T, s models.Schedule) {
				assert.Equal(t, "2026-07-15", s.HarvestStartDate.String())
				assert.Equal(t, "2026-09-30", s.HarvestEndDate.String())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CorrectSchedules([]models.Schedule{tt.in}, []models.PlantRecord{tomato()}, ottawa(), models.NewDate(2026, 3, 1))
			require.Len(t, out, 1)
			tt.check(t, out[0])
		})
	}
}

func TestScheduleEntry_ClearsBadDates(t *testing.T) {
	var e scheduleEntry
	require.NoError(t, json.Unmarshal([]byte(`{
		"plant_name": " Tomato ",
		"start_indoors_date": "null",
		"direct_sow_date": "mid May",
		"transplant_date": "2026-05-20T00:00:00Z",
		"harvest_start_date": "",
		"succession_planting_interval": 21
	}`), &e))

	s := e.toSchedule()
	assert.Equal(t, "Tomato", s.PlantName)
	assert.Nil(t, s.StartIndoorsDate)
	assert.Nil(t, s.DirectSowDate)
	assert.Equal(t, "2026-05-20", s.TransplantDate.String())
	assert.Nil(t, s.HarvestStartDate)
	assert.Nil(t, s.HarvestEndDate)
	require.NotNil(t, s.SuccessionIntervalDays)
	assert.Equal(t, 21, *s.SuccessionIntervalDays)
}

func TestScheduleEntry_SuccessionInterval(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *int
	}{
		{"number", `14`, intPtr(14)},
		{"string with unit", `"14 days"`, intPtr(14)},
		{"range", `"every 2-3 weeks"`, intPtr(2)},
		{"below one", `0.5`, nil},
		{"words", `"as needed"`, nil},
		{"null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e scheduleEntry
			require.NoError(t, json.Unmarshal([]byte(`{"plant_name": "Lettuce", "succession_planting_interval": `+tt.raw+`}`), &e))
			assert.Equal(t, tt.want, e.toSchedule().SuccessionIntervalDays)
		})
	}
}

func intPtr(v int) *int { return &v }

func TestCombineSources(t *testing.T) {
	assert.Equal(t, models.SectionDefault, combineSources(nil))
	assert.Equal(t, models.SectionGenerated, combineSources([]models.SectionSource{models.SectionGenerated, models.SectionGenerated}))
	assert.Equal(t, models.SectionMixed, combineSources([]models.SectionSource{models.SectionGenerated, models.SectionDefault}))
}
