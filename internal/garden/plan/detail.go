// internal/garden/plan/detail.go
package plan

import (
	"fmt"
	"regexp"

	"garden-planner/internal/models"
)

// DetailThreshold is the number of distinct indicator categories below
// which generated instructions are considered low detail.
const DetailThreshold = 5

type indicator struct {
	name    string
	pattern *regexp.Regexp
}

var indicators = []indicator{
	{"length", regexp.MustCompile(`(?i)\d\s*(?:inch(?:es)?|cm|mm|feet|foot|ft)\b|\d"`)},
	{"temperature", regexp.MustCompile(`(?i)\d\s*°|\d+\s*degrees|\b\d+\s*[fc]\b`)},
	{"duration", regexp.MustCompile(`(?i)\b\d+(?:\s*-\s*\d+)?\s*(?:days?|weeks?|hours?)\b`)},
	{"month", regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\b`)},
	{"date", regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)},
	{"season", regexp.MustCompile(`(?i)\b(?:spring|summer|fall|autumn|winter|frost)\b`)},
	{"ph", regexp.MustCompile(`(?i)\bph\s*\d`)},
	{"fertilizer", regexp.MustCompile(`(?i)\b\d{1,2}-\d{1,2}-\d{1,2}\b|\bnitrogen\b|\bphosphorus\b|\bpotassium\b`)},
	{"quantity", regexp.MustCompile(`(?i)\d\s*(?:gallons?|liters?|litres?|cups?|tablespoons?|tbsp|teaspoons?|tsp|pounds?|lbs?|oz|ounces?)\b`)},
	{"frequency", regexp.MustCompile(`(?i)\b(?:daily|weekly|every\s+\d+|once|twice|\d+\s*(?:-\s*\d+\s*)?times?\s+(?:per|a)\s+(?:day|week|month))\b`)},
}

// AssessDetail counts the distinct indicator categories present anywhere
// in the instruction text.
func AssessDetail(instr models.Instructions) int {
	found := make(map[string]struct{}, len(indicators))
	for _, category := range instr.Categories() {
		for _, line := range category {
			for _, ind := range indicators {
				if _, ok := found[ind.name]; ok {
					continue
				}
				if ind.pattern.MatchString(line) {
					found[ind.name] = struct{}{}
				}
			}
		}
	}
	return len(found)
}

// LowDetail reports whether instr falls below DetailThreshold.
func LowDetail(instr models.Instructions) bool {
	return AssessDetail(instr) < DetailThreshold
}

func hasIndicator(line string) bool {
	for _, ind := range indicators {
		if ind.pattern.MatchString(line) {
			return true
		}
	}
	return false
}

// Enhance rewrites low-detail instructions around computed specifics:
// dates from the climate and measurements from the plant record. Generated
// lines that carry no indicator are dropped.
func Enhance(instr models.Instructions, p models.PlantRecord, climate models.ClimateProfile, today models.Date) models.Instructions {
	sched := DefaultSchedule(p, climate, today)
	sow := sched.DirectSowDate.String()
	harvest := sched.HarvestStartDate.String()

	depth := p.PlantingDepthInches
	if depth <= 0 {
		depth = defaultDepth
	}
	spacing := p.SpacingInches
	if spacing <= 0 {
		spacing = defaultSpacing
	}

	specifics := [][]string{
		{
			fmt.Sprintf("Prepare a bed with %s and soil pH %s for %s", orDefault(p.SunRequirement, "full sun"), orDefault(p.SoilPHRange, "6.0-7.0"), p.Name),
			fmt.Sprintf("Work 2 inches of compost into the top 8 inches of soil before %s", sow),
		},
		{
			fmt.Sprintf("Sow %s %s inch deep and %s inches apart on %s", p.Name, formatInches(depth), formatInches(spacing), sow),
			fmt.Sprintf("Sow only after the last frost in zone %s", climate.Zone()),
		},
		{
			fmt.Sprintf("Give %s %s of water per week", p.Name, weeklyWater(p.WaterRequirement)),
			"Mulch with 2 inches of organic matter once seedlings are 4 inches tall",
		},
		{
			fmt.Sprintf("Inspect %s every 7 days from %s for common %s pests", p.Name, sow, orDefault(p.Category, models.CategoryVegetable)),
		},
		{
			fmt.Sprintf("Begin harvesting %s around %s, about %d days after sowing", p.Name, harvest, daysToHarvest(p)),
		},
		{
			fmt.Sprintf("Cool harvested %s within 2 hours of picking and use within 7 days", p.Name),
		},
	}

	merged := make([][]string, len(specifics))
	for i, category := range instr.Categories() {
		merged[i] = append(merged[i], specifics[i]...)
		for _, line := range category {
			if hasIndicator(line) && !contains(merged[i], line) {
				merged[i] = append(merged[i], line)
			}
		}
	}

	return models.Instructions{
		PlantName:      p.Name,
		Preparation:    merged[0],
		Planting:       merged[1],
		Care:           merged[2],
		PestManagement: merged[3],
		Harvest:        merged[4],
		Storage:        merged[5],
		Source:         models.SectionEnhanced,
	}
}

func weeklyWater(requirement string) string {
	switch requirement {
	case "low":
		return "0.5 inch"
	case "high":
		return "1.5 inches"
	default:
		return "1 inch"
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
