// internal/garden/store/sqlite.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"garden-planner/internal/models"
)

// plantRow is the SQLite row layout. Name lists are stored as JSON text.
type plantRow struct {
	LookupKey           string `gorm:"column:lookup_key;primaryKey"`
	Name                string `gorm:"not null"`
	ScientificName      string
	Category            string `gorm:"index"`
	DaysToHarvest       int
	SpacingInches       float64
	PlantingDepthInches float64
	SunRequirement      string
	WaterRequirement    string
	SoilPHRange         string `gorm:"column:soil_ph_range"`
	CompanionPlants     string
	AvoidPlantingWith   string
	Source              string `gorm:"not null"`
	GeneratedBy         *string
	UsageCount          int64 `gorm:"not null;index"`
	CreatedAt           time.Time
}

func (plantRow) TableName() string { return "plants" }

// SQLite is the embedded single-file PlantStore.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database at path. Use
// "file:name?mode=memory&cache=shared" for an in-memory store.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) EnsureSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&plantRow{}); err != nil {
		return fmt.Errorf("migrate plants: %w", err)
	}
	return nil
}

func (s *SQLite) Upsert(ctx context.Context, rec models.PlantRecord) error {
	rec, err := prepare(rec)
	if err != nil {
		return err
	}
	row, err := toRow(rec)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing plantRow
		err := tx.Where("lookup_key = ?", row.LookupKey).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if row.CreatedAt.IsZero() {
				row.CreatedAt = nowUTC()
			}
			return tx.Create(&row).Error
		case err != nil:
			return fmt.Errorf("upsert plant %q: %w", row.LookupKey, err)
		}

		if existing.Source == string(models.SourceSeeded) && row.Source != string(models.SourceSeeded) {
			return nil
		}
		if existing.UsageCount > row.UsageCount {
			row.UsageCount = existing.UsageCount
		}
		row.CreatedAt = existing.CreatedAt
		return tx.Save(&row).Error
	})
}

func (s *SQLite) FindByName(ctx context.Context, key string) (*models.PlantRecord, error) {
	var row plantRow
	err := s.db.WithContext(ctx).Where("lookup_key = ?", models.NormalizeKey(key)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find plant %q: %w", key, err)
	}
	rec := fromRow(row)
	return &rec, nil
}

func (s *SQLite) FindByNames(ctx context.Context, keys []string) ([]models.PlantRecord, error) {
	keys = dedupeKeys(keys)
	if len(keys) == 0 {
		return nil, nil
	}

	var rows []plantRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lookup_key IN ?", keys).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Model(&plantRow{}).
			Where("lookup_key IN ?", keys).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
	})
	if err != nil {
		return nil, fmt.Errorf("find plants: %w", err)
	}

	out := make([]models.PlantRecord, 0, len(rows))
	for _, row := range rows {
		row.UsageCount++
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (s *SQLite) FindByCategory(ctx context.Context, category string) ([]models.PlantRecord, error) {
	return s.find(ctx, "find plants by category", func(db *gorm.DB) *gorm.DB {
		return db.Where("category = ?", models.NormalizeKey(category)).Order("name")
	})
}

func (s *SQLite) SearchBySubstring(ctx context.Context, query string) ([]models.PlantRecord, error) {
	return s.find(ctx, "search plants", func(db *gorm.DB) *gorm.DB {
		return db.Where(`lookup_key LIKE ? ESCAPE '\'`, likePattern(query)).
			Order("usage_count DESC, name ASC").
			Limit(SearchLimit)
	})
}

func (s *SQLite) IncrementUsage(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Model(&plantRow{}).
		Where("lookup_key = ?", models.NormalizeKey(key)).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
	if err != nil {
		return fmt.Errorf("increment usage %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) ListAll(ctx context.Context) ([]models.PlantRecord, error) {
	return s.find(ctx, "list plants", func(db *gorm.DB) *gorm.DB { return db.Order("name") })
}

func (s *SQLite) Stats(ctx context.Context) (models.PlantStats, error) {
	var stats models.PlantStats
	db := s.db.WithContext(ctx).Model(&plantRow{})

	var total, seeded, generated int64
	if err := db.Count(&total).Error; err != nil {
		return stats, fmt.Errorf("plant stats: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&plantRow{}).Where("source = ?", models.SourceSeeded).Count(&seeded).Error; err != nil {
		return stats, fmt.Errorf("plant stats: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&plantRow{}).Where("source = ?", models.SourceGenerated).Count(&generated).Error; err != nil {
		return stats, fmt.Errorf("plant stats: %w", err)
	}
	stats.Total, stats.Seeded, stats.Generated = int(total), int(seeded), int(generated)

	popular, err := s.find(ctx, "popular plants", func(db *gorm.DB) *gorm.DB {
		return db.Order("usage_count DESC, name ASC").Limit(PopularLimit)
	})
	stats.Popular = popular
	return stats, err
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLite) find(ctx context.Context, op string, scope func(*gorm.DB) *gorm.DB) ([]models.PlantRecord, error) {
	var rows []plantRow
	if err := scope(s.db.WithContext(ctx)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]models.PlantRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func toRow(rec models.PlantRecord) (plantRow, error) {
	companions, err := json.Marshal(rec.CompanionPlants)
	if err != nil {
		return plantRow{}, err
	}
	avoid, err := json.Marshal(rec.AvoidPlantingWith)
	if err != nil {
		return plantRow{}, err
	}
	return plantRow{
		LookupKey:           rec.Key,
		Name:                rec.Name,
		ScientificName:      rec.ScientificName,
		Category:            rec.Category,
		DaysToHarvest:       rec.DaysToHarvest,
		SpacingInches:       rec.SpacingInches,
		PlantingDepthInches: rec.PlantingDepthInches,
		SunRequirement:      rec.SunRequirement,
		WaterRequirement:    rec.WaterRequirement,
		SoilPHRange:         rec.SoilPHRange,
		CompanionPlants:     string(companions),
		AvoidPlantingWith:   string(avoid),
		Source:              string(rec.Source),
		GeneratedBy:         rec.GeneratedBy,
		UsageCount:          rec.UsageCount,
		CreatedAt:           rec.CreatedAt,
	}, nil
}

func fromRow(row plantRow) models.PlantRecord {
	rec := models.PlantRecord{
		Name:                row.Name,
		Key:                 row.LookupKey,
		ScientificName:      row.ScientificName,
		Category:            row.Category,
		DaysToHarvest:       row.DaysToHarvest,
		SpacingInches:       row.SpacingInches,
		PlantingDepthInches: row.PlantingDepthInches,
		SunRequirement:      row.SunRequirement,
		WaterRequirement:    row.WaterRequirement,
		SoilPHRange:         row.SoilPHRange,
		Source:              models.PlantSource(row.Source),
		GeneratedBy:         row.GeneratedBy,
		UsageCount:          row.UsageCount,
		CreatedAt:           row.CreatedAt,
	}
	// Lists that fail to decode are left empty rather than failing the read.
	_ = json.Unmarshal([]byte(row.CompanionPlants), &rec.CompanionPlants)
	_ = json.Unmarshal([]byte(row.AvoidPlantingWith), &rec.AvoidPlantingWith)
	return rec
}
