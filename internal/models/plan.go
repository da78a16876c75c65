// internal/models/plan.go
package models

import "time"

type GardenSize string

const (
	GardenSmall  GardenSize = "small"
	GardenMedium GardenSize = "medium"
	GardenLarge  GardenSize = "large"
)

type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// MaxPlantsPerPlan bounds PlanRequest.PlantNames.
const MaxPlantsPerPlan = 20

// PlanRequest is the plan creation input contract.
type PlanRequest struct {
	LocationCode    string          `json:"locationCode" validate:"required,max=16"`
	PlantNames      []string        `json:"plantNames" validate:"required,min=1,max=20,dive,required,max=100"`
	GardenSize      GardenSize      `json:"gardenSize" validate:"omitempty,oneof=small medium large"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel" validate:"omitempty,oneof=beginner intermediate advanced"`
}

// WithDefaults fills empty enums with medium/beginner.
func (r PlanRequest) WithDefaults() PlanRequest {
	if r.GardenSize == "" {
		r.GardenSize = GardenMedium
	}
	if r.ExperienceLevel == "" {
		r.ExperienceLevel = ExperienceBeginner
	}
	return r
}

// SectionSource records where a plan section's content came from.
type SectionSource string

const (
	SectionGenerated SectionSource = "generated"
	SectionEnhanced  SectionSource = "enhanced"
	SectionDefault   SectionSource = "default"
	SectionMixed     SectionSource = "mixed"
)

type Schedule struct {
	PlantName              string        `json:"plantName"`
	StartIndoorsDate       *Date         `json:"startIndoorsDate,omitempty"`
	DirectSowDate          *Date         `json:"directSowDate,omitempty"`
	TransplantDate         *Date         `json:"transplantDate,omitempty"`
	HarvestStartDate       *Date         `json:"harvestStartDate,omitempty"`
	HarvestEndDate         *Date         `json:"harvestEndDate,omitempty"`
	SuccessionIntervalDays *int          `json:"successionIntervalDays,omitempty"`
	Source                 SectionSource `json:"source"`
}

type Instructions struct {
	PlantName      string        `json:"plantName"`
	Preparation    []string      `json:"preparation"`
	Planting       []string      `json:"planting"`
	Care           []string      `json:"care"`
	PestManagement []string      `json:"pestManagement"`
	Harvest        []string      `json:"harvest"`
	Storage        []string      `json:"storage"`
	Source         SectionSource `json:"source"`
}

// Categories returns the six instruction lists in display order.
func (i Instructions) Categories() [][]string {
	return [][]string{i.Preparation, i.Planting, i.Care, i.PestManagement, i.Harvest, i.Storage}
}

// Empty reports whether no category carries any text.
func (i Instructions) Empty() bool {
	for _, c := range i.Categories() {
		if len(c) > 0 {
			return false
		}
	}
	return true
}

type PlantGrouping struct {
	GroupName string   `json:"groupName"`
	Plants    []string `json:"plants"`
	Reasoning string   `json:"reasoning"`
}

type Layout struct {
	GardenDimensions string            `json:"gardenDimensions"`
	PlantGroupings   []PlantGrouping   `json:"plantGroupings"`
	SpacingGuide     map[string]string `json:"spacingGuide"`
	CompanionTips    []string          `json:"companionTips"`
	LayoutTips       []string          `json:"layoutTips"`
	Source           SectionSource     `json:"source"`
}

// PlanSections records the provenance of each plan section.
type PlanSections struct {
	Schedules    SectionSource `json:"schedules"`
	Instructions SectionSource `json:"instructions"`
	Layout       SectionSource `json:"layout"`
	Tips         SectionSource `json:"tips"`
}

// GardenPlan is the assembled composite document for one request.
type GardenPlan struct {
	ID               string         `json:"id"`
	CreatedAt        time.Time      `json:"createdAt"`
	Request          PlanRequest    `json:"request"`
	Climate          ClimateProfile `json:"climate"`
	Plants           []PlantRecord  `json:"plants"`
	UnresolvedPlants []string       `json:"unresolvedPlants,omitempty"`
	Schedules        []Schedule     `json:"schedules"`
	Instructions     []Instructions `json:"instructions"`
	Layout           Layout         `json:"layout"`
	Tips             []string       `json:"tips"`
	Sections         PlanSections   `json:"sections"`
}

// PlanSummary is the list view of a stored plan.
type PlanSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	LocationCode string    `json:"locationCode"`
	Zone         string    `json:"zone,omitempty"`
	PlantNames   []string  `json:"plantNames"`
}

func (p *GardenPlan) Summary() PlanSummary {
	names := make([]string, 0, len(p.Plants))
	for _, pl := range p.Plants {
		names = append(names, pl.Name)
	}
	return PlanSummary{
		ID:           p.ID,
		CreatedAt:    p.CreatedAt,
		LocationCode: p.Climate.LocationCode,
		Zone:         p.Climate.HardinessZone,
		PlantNames:   names,
	}
}
