// internal/garden/plan/schedule.go
package plan

import (
	"encoding/json"
	"strings"

	"garden-planner/internal/garden/resolver"
	"garden-planner/internal/models"
)

// scheduleEntry is one generated schedule before correction.
type scheduleEntry struct {
	PlantName          string          `json:"plant_name"`
	StartIndoorsDate   *string         `json:"start_indoors_date"`
	DirectSowDate      *string         `json:"direct_sow_date"`
	TransplantDate     *string         `json:"transplant_date"`
	HarvestStartDate   *string         `json:"harvest_start_date"`
	HarvestEndDate     *string         `json:"harvest_end_date"`
	SuccessionInterval json.RawMessage `json:"succession_planting_interval"`
}

func (e scheduleEntry) toSchedule() models.Schedule {
	s := models.Schedule{
		PlantName:        strings.TrimSpace(e.PlantName),
		StartIndoorsDate: parseDate(e.StartIndoorsDate),
		DirectSowDate:    parseDate(e.DirectSowDate),
		TransplantDate:   parseDate(e.TransplantDate),
		HarvestStartDate: parseDate(e.HarvestStartDate),
		HarvestEndDate:   parseDate(e.HarvestEndDate),
		Source:           models.SectionGenerated,
	}
	if interval := resolver.PositiveNumber(e.SuccessionInterval); interval >= 1 {
		days := int(interval)
		s.SuccessionIntervalDays = &days
	}
	return s
}

// parseDate clears anything that is not a calendar date.
func parseDate(s *string) *models.Date {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	d, err := models.ParseDate(v)
	if err != nil {
		return nil
	}
	return &d
}

// CorrectSchedules reconciles generated schedules with the resolved plants.
// Entries are matched by normalized name; unknown plants are dropped and
// plants without an entry receive their default schedule, so the result has
// exactly one schedule per plant in plant order.
func CorrectSchedules(generated []models.Schedule, plants []models.PlantRecord, climate models.ClimateProfile, today models.Date) []models.Schedule {
	byKey := make(map[string]models.Schedule, len(generated))
	for _, s := range generated {
		key := models.NormalizeKey(s.PlantName)
		if _, dup := byKey[key]; dup || key == "" {
			continue
		}
		byKey[key] = s
	}

	out := make([]models.Schedule, 0, len(plants))
	for _, p := range plants {
		s, ok := byKey[models.NormalizeKey(p.Name)]
		if !ok {
			out = append(out, DefaultSchedule(p, climate, today))
			continue
		}
		s.PlantName = p.Name
		out = append(out, correctSchedule(s))
	}
	return out
}

// correctSchedule keeps a single sowing method and an ordered harvest window.
func correctSchedule(s models.Schedule) models.Schedule {
	if s.StartIndoorsDate != nil && s.DirectSowDate != nil {
		if s.TransplantDate != nil {
			s.DirectSowDate = nil
		} else {
			s.StartIndoorsDate = nil
		}
	}
	if s.HarvestStartDate != nil && s.HarvestEndDate != nil && s.HarvestEndDate.Before(s.HarvestStartDate.Time) {
		s.HarvestStartDate, s.HarvestEndDate = s.HarvestEndDate, s.HarvestStartDate
	}
	return s
}
