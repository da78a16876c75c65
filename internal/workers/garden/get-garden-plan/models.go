// internal/workers/garden/get-garden-plan/models.go
package getgardenplan

import "garden-planner/internal/models"

// Input fetches one plan by PlanID, or lists the newest plans when
// PlanID is empty.
type Input struct {
	PlanID string `json:"planId" validate:"max=64"`
	Limit  int    `json:"limit" validate:"min=0,max=100"`
}

type Output struct {
	GardenPlan *models.GardenPlan   `json:"gardenPlan,omitempty"`
	Plans      []models.PlanSummary `json:"plans"`
}
