// internal/garden/resolver/generator.go
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"garden-planner/internal/common/metrics"
	"garden-planner/internal/common/validation"
	"garden-planner/internal/garden/extract"
	"garden-planner/internal/garden/genai"
	"garden-planner/internal/models"
)

var (
	ErrNotAPlant       = errors.New("NOT_A_PLANT")
	ErrInvalidProfile  = errors.New("INVALID_PLANT_PROFILE")
	ErrGenerationEmpty = errors.New("EMPTY_PLANT_NAME")
)

const plantPromptTemplate = `You are an expert gardener and botanist. Provide growing information for the plant: "%[1]s"

Respond with ONLY a valid JSON object with this exact structure:
{
  "name": "%[1]s",
  "scientific_name": "Scientific name if known, or null",
  "plant_type": "vegetable, herb, fruit, or flower",
  "days_to_harvest": 60,
  "spacing_inches": 12,
  "planting_depth_inches": 0.5,
  "sun_requirements": "full sun, partial shade, or shade",
  "water_requirements": "low, moderate, or high",
  "soil_ph_range": "6.0-7.0",
  "companion_plants": ["plant1", "plant2", "plant3"],
  "avoid_planting_with": ["plant1", "plant2"]
}

Requirements:
- Use realistic growing data based on standard gardening practice
- Include 3-5 companion plants that grow well together
- avoid_planting_with may be an empty array
- Use only these sun_requirements values: "full sun", "partial shade", "shade"
- Use only these water_requirements values: "low", "moderate", "high"
- Give soil pH as a range like "6.0-7.0"
- If the plant does not exist or you are unsure, return null

Plant to research: %[1]s`

// plantSchema admits loose numeric and list shapes; normalize tightens them.
var plantSchema = validation.MustCompile("plant", `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "scientific_name": {"type": ["string", "null"]},
    "plant_type": {"type": ["string", "null"]},
    "category": {"type": ["string", "null"]},
    "days_to_harvest": {"type": ["number", "string", "null"]},
    "spacing_inches": {"type": ["number", "string", "null"]},
    "planting_depth_inches": {"type": ["number", "string", "null"]},
    "sun_requirements": {"type": ["string", "null"]},
    "water_requirements": {"type": ["string", "null"]},
    "soil_ph_range": {"type": ["string", "number", "null"]},
    "companion_plants": {"type": ["array", "string", "null"], "items": {"type": "string"}},
    "avoid_planting_with": {"type": ["array", "string", "null"], "items": {"type": "string"}}
  }
}`)

// plantProfile is the generated document after schema validation.
type plantProfile struct {
	Name              string          `json:"name"`
	ScientificName    *string         `json:"scientific_name"`
	PlantType         *string         `json:"plant_type"`
	Category          *string         `json:"category"`
	DaysToHarvest     json.RawMessage `json:"days_to_harvest"`
	Spacing           json.RawMessage `json:"spacing_inches"`
	Depth             json.RawMessage `json:"planting_depth_inches"`
	Sun               *string         `json:"sun_requirements"`
	Water             *string         `json:"water_requirements"`
	SoilPH            json.RawMessage `json:"soil_ph_range"`
	CompanionPlants   json.RawMessage `json:"companion_plants"`
	AvoidPlantingWith json.RawMessage `json:"avoid_planting_with"`
}

type Generator struct {
	completer genai.Completer
	timeout   time.Duration
	logger    Logger
	now       func() time.Time
}

func NewGenerator(completer genai.Completer, timeout time.Duration, log Logger) *Generator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		completer: completer,
		timeout:   timeout,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Generate produces a fresh record for name from the completion service.
// The record Key is the normalized requested name.
func (g *Generator) Generate(ctx context.Context, name string) (models.PlantRecord, error) {
	requested := strings.TrimSpace(name)
	if requested == "" {
		return models.PlantRecord{}, ErrGenerationEmpty
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.completer.Complete(ctx, fmt.Sprintf(plantPromptTemplate, requested))
	if err != nil {
		return models.PlantRecord{}, fmt.Errorf("complete plant %q: %w", requested, err)
	}

	doc, err := g.decode(raw)
	if err != nil {
		return models.PlantRecord{}, fmt.Errorf("plant %q: %w", requested, err)
	}
	if err := plantSchema.Check(doc); err != nil {
		metrics.Extractions.WithLabelValues("plant", "invalid").Inc()
		return models.PlantRecord{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return models.PlantRecord{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	var profile plantProfile
	if err := json.Unmarshal(encoded, &profile); err != nil {
		return models.PlantRecord{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	rec := normalize(requested, profile)
	model := g.completer.Model()
	rec.GeneratedBy = &model
	rec.CreatedAt = g.now()
	return rec, nil
}

// decode extracts the single profile object from raw. A bare null means
// the model does not recognise the plant.
func (g *Generator) decode(raw string) (map[string]interface{}, error) {
	if isNull(raw) {
		return nil, ErrNotAPlant
	}

	res, err := extract.ExtractDetailed(raw)
	if err != nil {
		metrics.Extractions.WithLabelValues("plant", "failed").Inc()
		return nil, err
	}
	if res.Repaired {
		metrics.Extractions.WithLabelValues("plant", "repaired").Inc()
		g.logger.Debug("plant profile repaired", nil)
	} else {
		metrics.Extractions.WithLabelValues("plant", "direct").Inc()
	}

	switch v := res.Value.(type) {
	case map[string]interface{}:
		return v, nil
	case []interface{}:
		if len(v) > 0 {
			if obj, ok := v[0].(map[string]interface{}); ok {
				return obj, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: expected an object", ErrInvalidProfile)
}

func isNull(raw string) bool {
	s := strings.TrimSpace(extract.StripChatter(raw))
	s = strings.Trim(s, "`. \n")
	return strings.EqualFold(s, "null") || strings.EqualFold(s, "none")
}

// normalize maps a generated profile onto the record, folding enum
// spellings and discarding non-positive measurements.
func normalize(requested string, p plantProfile) models.PlantRecord {
	key := models.NormalizeKey(requested)
	name := requested
	if models.NormalizeKey(p.Name) == key {
		name = strings.TrimSpace(p.Name)
	}

	category := ""
	if p.PlantType != nil {
		category = *p.PlantType
	} else if p.Category != nil {
		category = *p.Category
	}

	rec := models.PlantRecord{
		Name:                name,
		Key:                 key,
		Category:            normalizeCategory(category),
		DaysToHarvest:       int(PositiveNumber(p.DaysToHarvest)),
		SpacingInches:       PositiveNumber(p.Spacing),
		PlantingDepthInches: PositiveNumber(p.Depth),
		SunRequirement:      normalizeSun(deref(p.Sun)),
		WaterRequirement:    normalizeWater(deref(p.Water)),
		SoilPHRange:         normalizePH(p.SoilPH),
		CompanionPlants:     nameList(p.CompanionPlants),
		AvoidPlantingWith:   nameList(p.AvoidPlantingWith),
		Source:              models.SourceGenerated,
		UsageCount:          1,
	}
	if p.ScientificName != nil {
		sci := strings.TrimSpace(*p.ScientificName)
		if !strings.EqualFold(sci, "null") && !strings.EqualFold(sci, "unknown") {
			rec.ScientificName = sci
		}
	}
	return rec
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func normalizeCategory(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "herb"):
		return models.CategoryHerb
	case strings.Contains(s, "fruit"), strings.Contains(s, "berry"):
		return models.CategoryFruit
	case strings.Contains(s, "flower"):
		return models.CategoryFlower
	default:
		return models.CategoryVegetable
	}
}

func normalizeSun(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "partial"), strings.Contains(s, "part "), strings.Contains(s, "part-"):
		return "partial shade"
	case strings.Contains(s, "shade") && !strings.Contains(s, "sun"):
		return "shade"
	default:
		return "full sun"
	}
}

func normalizeWater(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "low"), strings.Contains(s, "drought"):
		return "low"
	case strings.Contains(s, "high"), strings.Contains(s, "heavy"), strings.Contains(s, "consistent"):
		return "high"
	default:
		return "moderate"
	}
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// PositiveNumber accepts a JSON number or a string such as "60-70 days";
// the first number in a string wins. Non-positive values give 0.
func PositiveNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f > 0 {
			return f
		}
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	m := numberPattern.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return f
}

// normalizePH renders "low-high" with one decimal place. A single value
// becomes a band of plus or minus 0.5.
func normalizePH(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "6.0-7.0"
	}
	var text string
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		text = strconv.FormatFloat(f, 'f', -1, 64)
	} else if err := json.Unmarshal(raw, &text); err != nil {
		return "6.0-7.0"
	}

	var values []float64
	for _, m := range numberPattern.FindAllString(text, 2) {
		v, err := strconv.ParseFloat(m, 64)
		if err == nil && v > 0 && v <= 14 {
			values = append(values, v)
		}
	}
	switch len(values) {
	case 0:
		return "6.0-7.0"
	case 1:
		return fmt.Sprintf("%.1f-%.1f", values[0]-0.5, values[0]+0.5)
	default:
		lo, hi := values[0], values[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		return fmt.Sprintf("%.1f-%.1f", lo, hi)
	}
}

// nameList accepts a JSON array of names or a comma separated string.
func nameList(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return out
		}
		items = strings.Split(s, ",")
	}
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || strings.EqualFold(item, "none") {
			continue
		}
		out = append(out, item)
	}
	return out
}
