// pkg/registry/schema.go
package registry

import "garden-planner/internal/models"

// PlantRegistry is the seed file imported into the plant store.
type PlantRegistry struct {
	Version     string      `json:"version"`
	LastUpdated string      `json:"lastUpdated"`
	Plants      []SeedPlant `json:"plants"`
}

// SeedPlant is a curated plant profile. Field names match PlantRecord.
type SeedPlant struct {
	Name                string   `json:"name" validate:"required,max=100"`
	ScientificName      string   `json:"scientificName,omitempty" validate:"max=150"`
	Category            string   `json:"category" validate:"required,oneof=vegetable herb fruit flower"`
	DaysToHarvest       int      `json:"daysToHarvest" validate:"min=0,max=730"`
	SpacingInches       float64  `json:"spacingInches" validate:"min=0,max=240"`
	PlantingDepthInches float64  `json:"plantingDepthInches" validate:"min=0,max=24"`
	SunRequirement      string   `json:"sunRequirement" validate:"omitempty,oneof='full sun' 'partial shade' shade"`
	WaterRequirement    string   `json:"waterRequirement" validate:"omitempty,oneof=low moderate high"`
	SoilPHRange         string   `json:"soilPhRange,omitempty"`
	CompanionPlants     []string `json:"companionPlants,omitempty" validate:"dive,required"`
	AvoidPlantingWith   []string `json:"avoidPlantingWith,omitempty" validate:"dive,required"`
}

// Record converts the seed entry into a seeded store record.
func (p SeedPlant) Record() models.PlantRecord {
	return models.PlantRecord{
		Name:                p.Name,
		Key:                 models.NormalizeKey(p.Name),
		ScientificName:      p.ScientificName,
		Category:            models.NormalizeKey(p.Category),
		DaysToHarvest:       p.DaysToHarvest,
		SpacingInches:       p.SpacingInches,
		PlantingDepthInches: p.PlantingDepthInches,
		SunRequirement:      p.SunRequirement,
		WaterRequirement:    p.WaterRequirement,
		SoilPHRange:         p.SoilPHRange,
		CompanionPlants:     append([]string{}, p.CompanionPlants...),
		AvoidPlantingWith:   append([]string{}, p.AvoidPlantingWith...),
		Source:              models.SourceSeeded,
	}
}
