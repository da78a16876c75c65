// internal/workers/garden/lookup-location/models.go
package lookuplocation

import "garden-planner/internal/models"

type Input struct {
	LocationCode string `json:"locationCode" validate:"required,max=16"`
}

type Output struct {
	Climate models.ClimateProfile `json:"climate"`
	Country string                `json:"country"`
	// Known is false when the code is well formed but outside the tables.
	Known bool `json:"known"`
}
