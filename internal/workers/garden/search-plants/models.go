// internal/workers/garden/search-plants/models.go
package searchplants

import "garden-planner/internal/models"

const (
	SourceElasticsearch = "elasticsearch"
	SourceStore         = "store"
)

type Input struct {
	Query    string `json:"query" validate:"max=100"`
	Category string `json:"category" validate:"max=50"`
	Limit    int    `json:"limit" validate:"min=0,max=100"`
}

type Output struct {
	Plants       []models.PlantRecord `json:"plants"`
	TotalResults int                  `json:"totalResults"`
	Source       string               `json:"source"`
}
