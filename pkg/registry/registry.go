// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"garden-planner/internal/common/validation"
	"garden-planner/internal/models"
)

const CurrentVersion = "1.0.0"

func LoadRegistry(path string) (*PlantRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg PlantRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	return &reg, nil
}

// New returns an empty registry stamped with the current version.
func New() *PlantRegistry {
	return &PlantRegistry{
		Version:     CurrentVersion,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Plants:      []SeedPlant{},
	}
}

// Save writes the registry as indented JSON, creating parent directories.
func (r *PlantRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Find returns the plant whose normalized name matches name.
func (r *PlantRegistry) Find(name string) (*SeedPlant, bool) {
	key := models.NormalizeKey(name)
	for i := range r.Plants {
		if models.NormalizeKey(r.Plants[i].Name) == key {
			return &r.Plants[i], true
		}
	}
	return nil, false
}

// Add appends p after validating it. Names are unique case-insensitively.
func (r *PlantRegistry) Add(p SeedPlant) error {
	p.Name = strings.TrimSpace(p.Name)
	if result := validation.Struct(p); !result.Valid {
		return fmt.Errorf("plant %q: %s", p.Name, strings.Join(result.GetErrorMessages(), "; "))
	}
	if _, exists := r.Find(p.Name); exists {
		return fmt.Errorf("plant %q already exists", p.Name)
	}
	r.Plants = append(r.Plants, p)
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// Validate checks every entry and reports all problems at once.
func (r *PlantRegistry) Validate() error {
	if len(r.Plants) == 0 {
		return fmt.Errorf("registry contains no plants")
	}

	var problems []string
	seen := make(map[string]int, len(r.Plants))
	for i, p := range r.Plants {
		label := fmt.Sprintf("plants[%d]", i)
		if p.Name != "" {
			label = fmt.Sprintf("plants[%d] %q", i, p.Name)
		}
		if result := validation.Struct(p); !result.Valid {
			problems = append(problems, label+": "+strings.Join(result.GetErrorMessages(), "; "))
		}
		key := models.NormalizeKey(p.Name)
		if key == "" {
			continue
		}
		if first, dup := seen[key]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate of plants[%d]", label, first))
			continue
		}
		seen[key] = i
	}

	if len(problems) > 0 {
		return fmt.Errorf("registry has %d problem(s):\n  %s", len(problems), strings.Join(problems, "\n  "))
	}
	return nil
}

// Records converts every entry into a seeded store record.
func (r *PlantRegistry) Records() []models.PlantRecord {
	out := make([]models.PlantRecord, 0, len(r.Plants))
	for _, p := range r.Plants {
		out = append(out, p.Record())
	}
	return out
}
