// internal/models/plant.go
package models

import (
	"strings"
	"time"
)

type PlantSource string

const (
	SourceSeeded    PlantSource = "seeded"
	SourceGenerated PlantSource = "generated"
)

// Plant categories accepted by the store and the generator.
const (
	CategoryVegetable = "vegetable"
	CategoryHerb      = "herb"
	CategoryFruit     = "fruit"
	CategoryFlower    = "flower"
)

// PlantRecord is the resolved growing profile of a single plant.
// Name keeps the display form exactly as first stored; Key is the
// lookup form produced by NormalizeKey and is unique per store.
type PlantRecord struct {
	Name                string      `json:"name"`
	Key                 string      `json:"key"`
	ScientificName      string      `json:"scientificName,omitempty"`
	Category            string      `json:"category"`
	DaysToHarvest       int         `json:"daysToHarvest"`
	SpacingInches       float64     `json:"spacingInches"`
	PlantingDepthInches float64     `json:"plantingDepthInches"`
	SunRequirement      string      `json:"sunRequirement"`
	WaterRequirement    string      `json:"waterRequirement"`
	SoilPHRange         string      `json:"soilPhRange"`
	CompanionPlants     []string    `json:"companionPlants"`
	AvoidPlantingWith   []string    `json:"avoidPlantingWith"`
	Source              PlantSource `json:"source"`
	GeneratedBy         *string     `json:"generatedBy,omitempty"`
	UsageCount          int64       `json:"usageCount"`
	CreatedAt           time.Time   `json:"createdAt"`
}

// NormalizeKey folds a plant name into its lookup key.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Clone returns a deep copy so callers never share slices with the cache.
func (p PlantRecord) Clone() PlantRecord {
	out := p
	if p.CompanionPlants != nil {
		out.CompanionPlants = append([]string(nil), p.CompanionPlants...)
	}
	if p.AvoidPlantingWith != nil {
		out.AvoidPlantingWith = append([]string(nil), p.AvoidPlantingWith...)
	}
	if p.GeneratedBy != nil {
		model := *p.GeneratedBy
		out.GeneratedBy = &model
	}
	return out
}

// IsVegetable reports whether succession sowing applies.
func (p PlantRecord) IsVegetable() bool {
	return strings.EqualFold(p.Category, CategoryVegetable)
}

// HarvestDays falls back to 60 when the record carries no estimate.
func (p PlantRecord) HarvestDays() int {
	if p.DaysToHarvest <= 0 {
		return 60
	}
	return p.DaysToHarvest
}

func (p PlantRecord) Spacing() float64 {
	if p.SpacingInches <= 0 {
		return 12
	}
	return p.SpacingInches
}

func (p PlantRecord) Depth() float64 {
	if p.PlantingDepthInches <= 0 {
		return 0.5
	}
	return p.PlantingDepthInches
}

// PlantStats summarises the store contents.
type PlantStats struct {
	Total     int           `json:"total"`
	Seeded    int           `json:"seeded"`
	Generated int           `json:"generated"`
	Popular   []PlantRecord `json:"popular"`
}
