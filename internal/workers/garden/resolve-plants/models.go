// internal/workers/garden/resolve-plants/models.go
package resolveplants

import "garden-planner/internal/models"

type Input struct {
	PlantNames []string `json:"plantNames" validate:"required,min=1,max=20,dive,required,max=100"`
}

type Output struct {
	Plants     []models.PlantRecord `json:"plants"`
	Unresolved []string             `json:"unresolved"`
}
