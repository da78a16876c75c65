// internal/workers/garden/create-garden-plan/models.go
package creategardenplan

import "garden-planner/internal/models"

type Input struct {
	models.PlanRequest
}

type Output struct {
	GardenPlan       *models.GardenPlan `json:"gardenPlan"`
	PlanID           string             `json:"planId"`
	UnresolvedPlants []string           `json:"unresolvedPlants"`
}
