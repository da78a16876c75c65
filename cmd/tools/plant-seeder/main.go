// cmd/tools/plant-seeder/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"garden-planner/internal/common/config"
	"garden-planner/internal/common/database"
	"garden-planner/internal/garden/search"
	"garden-planner/internal/garden/store"
	"garden-planner/pkg/registry"
)

const defaultRegistryPath = "configs/plant-registry.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "add":
		err = runAdd(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "help":
		help()
	default:
		help()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	_ = fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	fmt.Printf("Registry validation passed. Found %d plants.\n", len(reg.Plants))
	return nil
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	name := fs.String("name", "", "Plant name (e.g., Swiss Chard)")
	scientific := fs.String("scientificName", "", "Scientific name")
	category := fs.String("category", "", "Category (vegetable, herb, fruit, flower)")
	days := fs.Int("days", 0, "Days to harvest")
	spacing := fs.Float64("spacing", 0, "Spacing in inches")
	depth := fs.Float64("depth", 0, "Planting depth in inches")
	sun := fs.String("sun", "", "Sun requirement (full sun, partial shade, shade)")
	water := fs.String("water", "", "Water requirement (low, moderate, high)")
	ph := fs.String("ph", "", "Soil pH range (e.g., 6.0-7.0)")
	companions := fs.String("companions", "", "Comma separated companion plants")
	avoid := fs.String("avoid", "", "Comma separated plants to keep apart")
	_ = fs.Parse(args)

	if *name == "" || *category == "" {
		fs.Usage()
		return fmt.Errorf("name and category are required for add")
	}

	reg, err := registry.LoadRegistry(*path)
	if os.IsNotExist(err) {
		reg = registry.New()
	} else if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	plant := registry.SeedPlant{
		Name:                *name,
		ScientificName:      *scientific,
		Category:            strings.ToLower(strings.TrimSpace(*category)),
		DaysToHarvest:       *days,
		SpacingInches:       *spacing,
		PlantingDepthInches: *depth,
		SunRequirement:      *sun,
		WaterRequirement:    *water,
		SoilPHRange:         *ph,
		CompanionPlants:     splitList(*companions),
		AvoidPlantingWith:   splitList(*avoid),
	}
	if err := reg.Add(plant); err != nil {
		return err
	}
	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Printf("Added plant: %s\n", strings.TrimSpace(*name))
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	path := fs.String("path", "", "Path to registry file (defaults to seed.registry_path)")
	dryRun := fs.Bool("dry-run", false, "Show what would be imported without writing")
	_ = fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *path == "" {
		*path = cfg.Seed.RegistryPath
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}

	records := reg.Records()
	if *dryRun {
		for _, rec := range records {
			fmt.Printf("  would import %-20s (%s)\n", rec.Name, rec.Category)
		}
		fmt.Printf("Dry run: %d plants.\n", len(records))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend, err := database.OpenPlantStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	var index *search.Index
	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		index = search.NewIndex(es.Client, cfg.Database.Elasticsearch.Index)
		if err := index.EnsureIndex(ctx); err != nil {
			return err
		}
	}

	imported, failed := 0, 0
	for _, rec := range records {
		if err := backend.Upsert(ctx, rec); err != nil {
			fmt.Printf("  failed %s: %v\n", rec.Name, err)
			failed++
			continue
		}
		if index != nil {
			if err := index.IndexPlant(ctx, rec); err != nil {
				fmt.Printf("  index %s: %v\n", rec.Name, err)
			}
		}
		imported++
	}

	fmt.Printf("Imported %d plants (%d failed).\n", imported, failed)
	if failed > 0 {
		return fmt.Errorf("%d plants failed to import", failed)
	}
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := database.OpenPlantStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	return printStats(ctx, backend)
}

func printStats(ctx context.Context, backend store.Backend) error {
	stats, err := backend.Stats(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func help() {
	fmt.Print(`
Usage: plant-seeder <command> [flags]

Commands:
  validate  Validate the seed registry file
  import    Upsert every registry plant into the plant store as seeded
  add       Add a plant to the registry file
  stats     Print plant store statistics
  help      Show this help message

Examples:
  plant-seeder validate -path configs/plant-registry.json
  plant-seeder import -dry-run
  plant-seeder add -name "Swiss Chard" -category vegetable -days 55 -sun "full sun" -companions "Bean,Onion"
  plant-seeder stats

Use 'plant-seeder <command> -h' for more information about a command.
` + "\n")
}
