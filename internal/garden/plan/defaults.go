// internal/garden/plan/defaults.go
package plan

import (
	"fmt"
	"strconv"
	"strings"

	"garden-planner/internal/models"
)

const (
	defaultDaysToHarvest = 60
	defaultSpacing       = 12.0
	defaultDepth         = 0.5
	defaultSuccession    = 14
	sowAfterFrostDays    = 14
	harvestWindowDays    = 60
)

// anchorDate is the last frost date, or today when the climate is unknown.
func anchorDate(climate models.ClimateProfile, today models.Date) models.Date {
	if climate.LastFrostDate != nil {
		return *climate.LastFrostDate
	}
	return today
}

func daysToHarvest(p models.PlantRecord) int {
	if p.DaysToHarvest > 0 {
		return p.DaysToHarvest
	}
	return defaultDaysToHarvest
}

// DefaultSchedule is the direct-sow schedule for one plant, anchored two
// weeks after the last frost.
func DefaultSchedule(p models.PlantRecord, climate models.ClimateProfile, today models.Date) models.Schedule {
	anchor := anchorDate(climate, today)
	days := daysToHarvest(p)

	s := models.Schedule{
		PlantName:        p.Name,
		DirectSowDate:    models.DatePtr(anchor.AddDays(sowAfterFrostDays)),
		HarvestStartDate: models.DatePtr(anchor.AddDays(days + sowAfterFrostDays)),
		HarvestEndDate:   models.DatePtr(anchor.AddDays(days + harvestWindowDays)),
		Source:           models.SectionDefault,
	}
	if p.Category == models.CategoryVegetable {
		interval := defaultSuccession
		s.SuccessionIntervalDays = &interval
	}
	return s
}

// DefaultSchedules returns one default schedule per plant in plant order.
func DefaultSchedules(plants []models.PlantRecord, climate models.ClimateProfile, today models.Date) []models.Schedule {
	out := make([]models.Schedule, 0, len(plants))
	for _, p := range plants {
		out = append(out, DefaultSchedule(p, climate, today))
	}
	return out
}

// DefaultInstructions builds three attribute-specific lines per category
// from the plant record and climate.
func DefaultInstructions(p models.PlantRecord, climate models.ClimateProfile) models.Instructions {
	sun := orDefault(p.SunRequirement, "appropriate sunlight")
	water := orDefault(p.WaterRequirement, "moderate")
	ph := orDefault(p.SoilPHRange, "6.0-7.0")
	category := orDefault(p.Category, models.CategoryVegetable)
	climateClass := orDefault(climate.ClimateClass, "local")

	depth := p.PlantingDepthInches
	if depth <= 0 {
		depth = defaultDepth
	}
	spacing := p.SpacingInches
	if spacing <= 0 {
		spacing = defaultSpacing
	}

	lastFrost := "your last frost date"
	if climate.LastFrostDate != nil {
		lastFrost = climate.LastFrostDate.String()
	}

	return models.Instructions{
		PlantName: p.Name,
		Preparation: []string{
			fmt.Sprintf("Choose a location with %s for %s", sun, p.Name),
			fmt.Sprintf("Prepare soil with pH %s suitable for %s", ph, p.Name),
			fmt.Sprintf("Ensure good drainage as %s requires %s watering", p.Name, water),
		},
		Planting: []string{
			fmt.Sprintf("Plant %s seeds at %s inch depth", p.Name, formatInches(depth)),
			fmt.Sprintf("Space plants %s inches apart for proper growth", formatInches(spacing)),
			fmt.Sprintf("Plant after last frost date (%s) in your zone %s", lastFrost, climate.Zone()),
		},
		Care: []string{
			fmt.Sprintf("Water %s according to %s water needs", p.Name, water),
			fmt.Sprintf("Monitor growth and provide support if needed for %s", p.Name),
			fmt.Sprintf("Fertilize appropriately for %s during growing season", category),
		},
		PestManagement: []string{
			fmt.Sprintf("Monitor %s regularly for common %s pests", p.Name, category),
			fmt.Sprintf("Use integrated pest management appropriate for %s climate", climateClass),
			"Inspect weekly and treat organically when possible",
		},
		Harvest: []string{
			fmt.Sprintf("Harvest %s approximately %d days after planting", p.Name, daysToHarvest(p)),
			fmt.Sprintf("Pick %s at optimal ripeness for best flavor", p.Name),
			"Harvest regularly to encourage continued production",
		},
		Storage: []string{
			fmt.Sprintf("Store fresh %s properly to maintain quality", p.Name),
			fmt.Sprintf("Consider preservation methods suitable for %s", category),
			"Use or preserve harvest promptly for best results",
		},
		Source: models.SectionDefault,
	}
}

// gardenDimensions maps a garden size to suggested bed dimensions.
func gardenDimensions(size models.GardenSize) string {
	switch size {
	case models.GardenSmall:
		return "10x10 ft"
	case models.GardenLarge:
		return "30x40 ft"
	default:
		return "20x20 ft"
	}
}

// DefaultLayout groups every plant into one mixed bed and derives spacing
// and companion advice from the records.
func DefaultLayout(plants []models.PlantRecord, size models.GardenSize) models.Layout {
	if size == "" {
		size = models.GardenMedium
	}
	names := make([]string, 0, len(plants))
	spacing := make(map[string]string, len(plants))
	for _, p := range plants {
		names = append(names, p.Name)
		if p.SpacingInches > 0 {
			spacing[p.Name] = formatInches(p.SpacingInches) + " inches apart"
		}
	}

	companionTips := companionAdvice(plants)
	if len(companionTips) == 0 {
		companionTips = []string{"Consider companion planting benefits"}
	}

	return models.Layout{
		GardenDimensions: fmt.Sprintf("%s recommended for a %s garden", gardenDimensions(size), size),
		PlantGroupings: []models.PlantGrouping{{
			GroupName: "Mixed Garden",
			Plants:    names,
			Reasoning: "All selected plants share one mixed bed",
		}},
		SpacingGuide:  spacing,
		CompanionTips: companionTips,
		LayoutTips:    append([]string{"Place taller plants where they won't shade shorter ones"}, conflictAdvice(plants)...),
		Source:        models.SectionDefault,
	}
}

// companionAdvice lists companion pairs where both plants are in the plan.
func companionAdvice(plants []models.PlantRecord) []string {
	inPlan := planIndex(plants)
	var tips []string
	seen := map[string]struct{}{}
	for _, p := range plants {
		for _, c := range p.CompanionPlants {
			other, ok := inPlan[models.NormalizeKey(c)]
			if !ok || other == p.Name {
				continue
			}
			pair := pairKey(p.Name, other)
			if _, dup := seen[pair]; dup {
				continue
			}
			seen[pair] = struct{}{}
			tips = append(tips, fmt.Sprintf("Plant %s near %s", other, p.Name))
		}
	}
	return tips
}

// conflictAdvice lists avoid pairs where both plants are in the plan.
func conflictAdvice(plants []models.PlantRecord) []string {
	inPlan := planIndex(plants)
	var tips []string
	seen := map[string]struct{}{}
	for _, p := range plants {
		for _, c := range p.AvoidPlantingWith {
			other, ok := inPlan[models.NormalizeKey(c)]
			if !ok || other == p.Name {
				continue
			}
			pair := pairKey(p.Name, other)
			if _, dup := seen[pair]; dup {
				continue
			}
			seen[pair] = struct{}{}
			tips = append(tips, fmt.Sprintf("Keep %s away from %s", other, p.Name))
		}
	}
	return tips
}

func planIndex(plants []models.PlantRecord) map[string]string {
	idx := make(map[string]string, len(plants))
	for _, p := range plants {
		idx[models.NormalizeKey(p.Name)] = p.Name
	}
	return idx
}

func pairKey(a, b string) string {
	a, b = models.NormalizeKey(a), models.NormalizeKey(b)
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// DefaultTips is the fixed tip list for the climate zone and plant count.
func DefaultTips(plants []models.PlantRecord, climate models.ClimateProfile) []string {
	return []string{
		fmt.Sprintf("Consider your hardiness zone (%s) when planning planting dates", climate.Zone()),
		"Start with a soil test to understand your garden's needs",
		"Water deeply but less frequently to encourage strong root growth",
		fmt.Sprintf("Stagger work across your %d plants so sowing and harvest do not all fall in one week", len(plants)),
		"Keep a garden journal to track what works in your specific location",
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// formatInches prints whole numbers without a decimal point.
func formatInches(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
