// internal/garden/plan/prompts.go
package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"garden-planner/internal/models"
)

func climateBlock(c models.ClimateProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Location: %s (%s)\n", c.Place(), c.LocationCode)
	fmt.Fprintf(&b, "- Hardiness Zone: %s\n", c.Zone())
	fmt.Fprintf(&b, "- Last Frost Date: %s\n", dateOrUnknown(c.LastFrostDate))
	fmt.Fprintf(&b, "- First Frost Date: %s\n", dateOrUnknown(c.FirstFrostDate))
	if c.GrowingSeasonDays != nil {
		fmt.Fprintf(&b, "- Growing Season: %d days\n", *c.GrowingSeasonDays)
	}
	fmt.Fprintf(&b, "- Climate Type: %s", orDefault(c.ClimateClass, "unknown"))
	return b.String()
}

func dateOrUnknown(d *models.Date) string {
	if d == nil {
		return "unknown"
	}
	return d.String()
}

func mustIndent(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

func schedulePrompt(req models.PlanRequest, climate models.ClimateProfile, plants []models.PlantRecord) string {
	type plantInfo struct {
		Name          string  `json:"name"`
		Type          string  `json:"type"`
		DaysToHarvest int     `json:"days_to_harvest,omitempty"`
		Spacing       float64 `json:"spacing,omitempty"`
	}
	info := make([]plantInfo, 0, len(plants))
	for _, p := range plants {
		info = append(info, plantInfo{Name: p.Name, Type: p.Category, DaysToHarvest: p.DaysToHarvest, Spacing: p.SpacingInches})
	}

	return fmt.Sprintf(`You are an expert garden planner. Create precise planting schedules for the following plants based on the location and climate information.

LOCATION INFORMATION:
%s

PLANTS TO SCHEDULE:
%s

GARDENER PROFILE:
- Experience Level: %s
- Garden Size: %s

Respond with ONLY a JSON array of planting schedules with this exact structure:
[
  {
    "plant_name": "Tomato",
    "start_indoors_date": "2024-03-15",
    "direct_sow_date": null,
    "transplant_date": "2024-05-15",
    "harvest_start_date": "2024-07-15",
    "harvest_end_date": "2024-10-01",
    "succession_planting_interval": 14
  }
]

REQUIREMENTS:
- Use ISO date format (YYYY-MM-DD)
- Consider the last frost date for timing
- Account for each plant's days to harvest
- Provide either start_indoors_date OR direct_sow_date, not both for the same plant
- Include succession planting intervals where appropriate
- Ensure harvest dates are realistic for the growing season
- Beginners get simpler schedules`,
		climateBlock(climate), mustIndent(info), req.ExperienceLevel, req.GardenSize)
}

func instructionsPrompt(req models.PlanRequest, climate models.ClimateProfile, p models.PlantRecord) string {
	return fmt.Sprintf(`You are an expert master gardener. Create DETAILED, SPECIFIC growing instructions for %[1]s in %[2]s.

PLANT INFORMATION:
- Name: %[1]s (%[3]s)
- Type: %[4]s
- Days to harvest: %[5]d
- Spacing: %[6]s inches
- Sun requirements: %[7]s
- Water requirements: %[8]s
- Soil pH: %[9]s
- Companion plants: %[10]s

LOCATION CONDITIONS:
%[11]s

GARDENER PROFILE:
- Experience: %[12]s
- Garden size: %[13]s

REQUIREMENTS:
- Give exact measurements, temperatures and timing
- Include varieties suited to this zone
- Mention local climate considerations
- Provide troubleshooting for common problems
- NO generic advice like "follow package directions"

Respond with ONLY a JSON object in this exact format:
{
  "plant_name": "%[1]s",
  "preparation_steps": ["Test soil pH to 6.0-6.8 range", "Amend clay soil with 2-3 inches compost"],
  "planting_steps": ["Start seeds indoors 6-8 weeks before the last frost", "Sow seeds 1/4 inch deep"],
  "care_instructions": ["Water deeply 1-2 times per week, providing 1-1.5 inches total"],
  "pest_management": ["Monitor for hornworms weekly from June-August"],
  "harvest_instructions": ["Harvest when fruits are fully colored but still firm"],
  "storage_tips": ["Store ripe fruit at room temperature for best flavor"]
}`,
		p.Name, climate.Place(), orDefault(p.ScientificName, "unknown"), p.Category, daysToHarvest(p),
		formatInches(p.SpacingInches), p.SunRequirement, p.WaterRequirement, p.SoilPHRange,
		strings.Join(p.CompanionPlants, ", "), climateBlock(climate), req.ExperienceLevel, req.GardenSize)
}

func layoutPrompt(req models.PlanRequest, plants []models.PlantRecord) string {
	type plantInfo struct {
		Name      string   `json:"name"`
		Spacing   float64  `json:"spacing_inches,omitempty"`
		Companion []string `json:"companion_plants"`
		Avoid     []string `json:"avoid_planting_with"`
	}
	info := make([]plantInfo, 0, len(plants))
	for _, p := range plants {
		info = append(info, plantInfo{Name: p.Name, Spacing: p.SpacingInches, Companion: p.CompanionPlants, Avoid: p.AvoidPlantingWith})
	}

	return fmt.Sprintf(`Create garden layout recommendations for a %s garden (%s) with a %s gardener.

PLANTS TO ARRANGE:
%s

Respond with ONLY a JSON object in this format:
{
  "garden_dimensions": "Suggested dimensions",
  "plant_groupings": [
    {"group_name": "Tomato Section", "plants": ["Tomato", "Basil"], "reasoning": "Basil repels pests that affect tomatoes"}
  ],
  "spacing_guide": {"Tomato": "24 inches apart, 36 inches between rows"},
  "companion_planting_tips": ["Plant basil near tomatoes for pest control"],
  "layout_tips": ["Place taller plants on the north side to avoid shading"]
}

Focus on companion planting benefits and efficient space usage.`,
		req.GardenSize, gardenDimensions(req.GardenSize), req.ExperienceLevel, mustIndent(info))
}

func tipsPrompt(req models.PlanRequest, climate models.ClimateProfile, plants []models.PlantRecord) string {
	names := make([]string, 0, len(plants))
	for _, p := range plants {
		names = append(names, p.Name)
	}
	return fmt.Sprintf(`Provide 5-7 general gardening tips for a %s gardener in %s growing these plants: %s.

Consider:
%s

Respond with ONLY a JSON array of strings:
["Tip 1", "Tip 2"]

Make tips specific and actionable for this location and plant selection.`,
		req.ExperienceLevel, climate.Place(), strings.Join(names, ", "), climateBlock(climate))
}
