// internal/garden/plan/sections.go
package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"garden-planner/internal/common/metrics"
	"garden-planner/internal/common/validation"
	"garden-planner/internal/garden/extract"
	"garden-planner/internal/garden/genai"
	"garden-planner/internal/models"
)

const (
	sectionSchedules    = "schedules"
	sectionInstructions = "instructions"
	sectionLayout       = "layout"
	sectionTips         = "tips"
)

var (
	errNoCompleter        = errors.New("no completion service configured")
	errInsufficientDetail = errors.New("instructions carry no content")
)

var scheduleSchema = validation.MustCompile("schedules", `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["plant_name"],
    "properties": {
      "plant_name": {"type": "string", "minLength": 1},
      "start_indoors_date": {"type": ["string", "null"]},
      "direct_sow_date": {"type": ["string", "null"]},
      "transplant_date": {"type": ["string", "null"]},
      "harvest_start_date": {"type": ["string", "null"]},
      "harvest_end_date": {"type": ["string", "null"]},
      "succession_planting_interval": {"type": ["number", "string", "null"]}
    }
  }
}`)

var instructionsSchema = validation.MustCompile("instructions", `{
  "type": "object",
  "properties": {
    "plant_name": {"type": ["string", "null"]},
    "preparation_steps": {"$ref": "#/definitions/steps"},
    "planting_steps": {"$ref": "#/definitions/steps"},
    "care_instructions": {"$ref": "#/definitions/steps"},
    "pest_management": {"$ref": "#/definitions/steps"},
    "harvest_instructions": {"$ref": "#/definitions/steps"},
    "storage_tips": {"$ref": "#/definitions/steps"}
  },
  "definitions": {
    "steps": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`)

var layoutSchema = validation.MustCompile("layout", `{
  "type": "object",
  "required": ["plant_groupings"],
  "properties": {
    "garden_dimensions": {"type": ["string", "null"]},
    "plant_groupings": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["group_name", "plants"],
        "properties": {
          "group_name": {"type": "string"},
          "plants": {"type": "array", "items": {"type": "string"}},
          "reasoning": {"type": ["string", "null"]}
        }
      }
    },
    "spacing_guide": {"type": ["object", "null"], "additionalProperties": {"type": "string"}},
    "companion_planting_tips": {"type": ["array", "null"], "items": {"type": "string"}},
    "layout_tips": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`)

var tipsSchema = validation.MustCompile("tips", `{
  "type": "array",
  "minItems": 1,
  "items": {"type": "string"}
}`)

type instructionsDoc struct {
	PlantName      string   `json:"plant_name"`
	Preparation    []string `json:"preparation_steps"`
	Planting       []string `json:"planting_steps"`
	Care           []string `json:"care_instructions"`
	PestManagement []string `json:"pest_management"`
	Harvest        []string `json:"harvest_instructions"`
	Storage        []string `json:"storage_tips"`
}

type groupingDoc struct {
	GroupName string   `json:"group_name"`
	Plants    []string `json:"plants"`
	Reasoning string   `json:"reasoning"`
}

type layoutDoc struct {
	GardenDimensions string            `json:"garden_dimensions"`
	PlantGroupings   []groupingDoc     `json:"plant_groupings"`
	SpacingGuide     map[string]string `json:"spacing_guide"`
	CompanionTips    []string          `json:"companion_planting_tips"`
	LayoutTips       []string          `json:"layout_tips"`
}

// ask runs one completion under the section timeout, extracts the
// structured answer, checks it against schema and decodes it into dst.
func (a *Assembler) ask(ctx context.Context, purpose, prompt string, schema *validation.Schema, dst interface{}) error {
	if a.completer == nil {
		return errNoCompleter
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.SectionTimeout)
	defer cancel()

	raw, err := genai.Instrument(a.completer, purpose).Complete(ctx, prompt)
	if err != nil {
		return err
	}

	res, err := extract.ExtractDetailed(raw)
	if err != nil {
		metrics.Extractions.WithLabelValues(purpose, "failed").Inc()
		return err
	}
	if res.Repaired {
		metrics.Extractions.WithLabelValues(purpose, "repaired").Inc()
	} else {
		metrics.Extractions.WithLabelValues(purpose, "direct").Inc()
	}

	if err := schema.Check(res.Value); err != nil {
		metrics.Extractions.WithLabelValues(purpose, "invalid").Inc()
		return err
	}

	b, err := json.Marshal(res.Value)
	if err != nil {
		return fmt.Errorf("re-encode %s: %w", purpose, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode %s: %w", purpose, err)
	}
	return nil
}

func (a *Assembler) schedules(ctx context.Context, planID string, req models.PlanRequest, climate models.ClimateProfile, plants []models.PlantRecord, today models.Date) ([]models.Schedule, models.SectionSource) {
	ctx, span := a.tracer.Start(ctx, "plan.section.schedules")
	defer span.End()

	var entries []scheduleEntry
	if err := a.ask(ctx, "schedule", schedulePrompt(req, climate, plants), scheduleSchema, &entries); err != nil {
		a.sectionFallback(span, planID, sectionSchedules, err)
		return DefaultSchedules(plants, climate, today), models.SectionDefault
	}

	generated := make([]models.Schedule, 0, len(entries))
	for _, e := range entries {
		generated = append(generated, e.toSchedule())
	}
	out := CorrectSchedules(generated, plants, climate, today)

	sources := make([]models.SectionSource, 0, len(out))
	for _, s := range out {
		sources = append(sources, s.Source)
	}
	source := combineSources(sources)
	span.SetAttributes(attribute.String("plan.section.source", string(source)))
	return out, source
}

func (a *Assembler) instructions(ctx context.Context, planID string, req models.PlanRequest, climate models.ClimateProfile, p models.PlantRecord, today models.Date) models.Instructions {
	ctx, span := a.tracer.Start(ctx, "plan.section.instructions")
	span.SetAttributes(attribute.String("plant.name", p.Name))
	defer span.End()

	var doc instructionsDoc
	err := a.ask(ctx, "instructions", instructionsPrompt(req, climate, p), instructionsSchema, &doc)
	if err == nil {
		instr := models.Instructions{
			PlantName:      p.Name,
			Preparation:    cleanLines(doc.Preparation),
			Planting:       cleanLines(doc.Planting),
			Care:           cleanLines(doc.Care),
			PestManagement: cleanLines(doc.PestManagement),
			Harvest:        cleanLines(doc.Harvest),
			Storage:        cleanLines(doc.Storage),
			Source:         models.SectionGenerated,
		}
		if instr.Empty() {
			err = errInsufficientDetail
		} else {
			if score := AssessDetail(instr); score < DetailThreshold {
				a.logger.Debug("enhancing low detail instructions", map[string]interface{}{
					"planId": planID,
					"plant":  p.Name,
					"score":  score,
				})
				instr = Enhance(instr, p, climate, today)
			}
			span.SetAttributes(attribute.String("plan.section.source", string(instr.Source)))
			return instr
		}
	}

	a.sectionFallback(span, planID, sectionInstructions, err)
	return DefaultInstructions(p, climate)
}

func (a *Assembler) layout(ctx context.Context, planID string, req models.PlanRequest, plants []models.PlantRecord) models.Layout {
	ctx, span := a.tracer.Start(ctx, "plan.section.layout")
	defer span.End()

	fallback := DefaultLayout(plants, req.GardenSize)

	var doc layoutDoc
	if err := a.ask(ctx, "layout", layoutPrompt(req, plants), layoutSchema, &doc); err != nil {
		a.sectionFallback(span, planID, sectionLayout, err)
		return fallback
	}

	out := models.Layout{
		GardenDimensions: strings.TrimSpace(doc.GardenDimensions),
		SpacingGuide:     doc.SpacingGuide,
		CompanionTips:    cleanLines(doc.CompanionTips),
		LayoutTips:       cleanLines(doc.LayoutTips),
		Source:           models.SectionGenerated,
	}
	for _, g := range doc.PlantGroupings {
		out.PlantGroupings = append(out.PlantGroupings, models.PlantGrouping{
			GroupName: strings.TrimSpace(g.GroupName),
			Plants:    cleanLines(g.Plants),
			Reasoning: strings.TrimSpace(g.Reasoning),
		})
	}
	if out.GardenDimensions == "" {
		out.GardenDimensions = fallback.GardenDimensions
	}
	if len(out.SpacingGuide) == 0 {
		out.SpacingGuide = fallback.SpacingGuide
	}
	if len(out.CompanionTips) == 0 {
		out.CompanionTips = fallback.CompanionTips
	}
	if len(out.LayoutTips) == 0 {
		out.LayoutTips = fallback.LayoutTips
	}
	span.SetAttributes(attribute.String("plan.section.source", string(out.Source)))
	return out
}

func (a *Assembler) tips(ctx context.Context, planID string, req models.PlanRequest, climate models.ClimateProfile, plants []models.PlantRecord) ([]string, models.SectionSource) {
	ctx, span := a.tracer.Start(ctx, "plan.section.tips")
	defer span.End()

	var raw []string
	err := a.ask(ctx, "tips", tipsPrompt(req, climate, plants), tipsSchema, &raw)
	if err == nil {
		if tips := cleanLines(raw); len(tips) > 0 {
			span.SetAttributes(attribute.String("plan.section.source", string(models.SectionGenerated)))
			return tips, models.SectionGenerated
		}
		err = errInsufficientDetail
	}

	a.sectionFallback(span, planID, sectionTips, err)
	return DefaultTips(plants, climate), models.SectionDefault
}

func (a *Assembler) sectionFallback(span trace.Span, planID, section string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "section fell back to default")
	span.SetAttributes(attribute.String("plan.section.source", string(models.SectionDefault)))
	a.logger.Warn("plan section using default", map[string]interface{}{
		"planId":  planID,
		"section": section,
		"outcome": genai.Outcome(err),
		"error":   err.Error(),
	})
}

// combineSources reports one source when all agree and mixed otherwise.
func combineSources(sources []models.SectionSource) models.SectionSource {
	if len(sources) == 0 {
		return models.SectionDefault
	}
	first := sources[0]
	for _, s := range sources[1:] {
		if s != first {
			return models.SectionMixed
		}
	}
	return first
}

func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
