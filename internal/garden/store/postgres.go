// internal/garden/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"garden-planner/internal/models"
)

const plantColumns = `lookup_key, name, scientific_name, category, days_to_harvest, spacing_inches,
	planting_depth_inches, sun_requirement, water_requirement, soil_ph_range, companion_plants,
	avoid_planting_with, source, generated_by, usage_count, created_at`

const createPlantsTable = `
CREATE TABLE IF NOT EXISTS plants (
	lookup_key            TEXT PRIMARY KEY,
	name                  TEXT NOT NULL,
	scientific_name       TEXT,
	category              TEXT NOT NULL DEFAULT '',
	days_to_harvest       INTEGER,
	spacing_inches        DOUBLE PRECISION,
	planting_depth_inches DOUBLE PRECISION,
	sun_requirement       TEXT,
	water_requirement     TEXT,
	soil_ph_range         TEXT,
	companion_plants      TEXT[] NOT NULL DEFAULT '{}',
	avoid_planting_with   TEXT[] NOT NULL DEFAULT '{}',
	source                TEXT NOT NULL DEFAULT 'generated',
	generated_by          TEXT,
	usage_count           BIGINT NOT NULL DEFAULT 1,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS plants_category_idx ON plants (category);
CREATE INDEX IF NOT EXISTS plants_usage_idx ON plants (usage_count DESC, name);`

const upsertPlant = `
INSERT INTO plants (` + plantColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (lookup_key) DO UPDATE SET
	name = EXCLUDED.name,
	scientific_name = EXCLUDED.scientific_name,
	category = EXCLUDED.category,
	days_to_harvest = EXCLUDED.days_to_harvest,
	spacing_inches = EXCLUDED.spacing_inches,
	planting_depth_inches = EXCLUDED.planting_depth_inches,
	sun_requirement = EXCLUDED.sun_requirement,
	water_requirement = EXCLUDED.water_requirement,
	soil_ph_range = EXCLUDED.soil_ph_range,
	companion_plants = EXCLUDED.companion_plants,
	avoid_planting_with = EXCLUDED.avoid_planting_with,
	source = EXCLUDED.source,
	generated_by = EXCLUDED.generated_by,
	usage_count = GREATEST(plants.usage_count, EXCLUDED.usage_count)
WHERE plants.source <> 'seeded' OR EXCLUDED.source = 'seeded'`

// Postgres is the PlantStore backed by a PostgreSQL "plants" table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createPlantsTable); err != nil {
		return fmt.Errorf("create plants table: %w", err)
	}
	return nil
}

func (p *Postgres) Upsert(ctx context.Context, rec models.PlantRecord) error {
	rec, err := prepare(rec)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = nowUTC()
	}

	_, err = p.db.ExecContext(ctx, upsertPlant,
		rec.Key,
		rec.Name,
		nullString(rec.ScientificName),
		rec.Category,
		nullInt(rec.DaysToHarvest),
		nullFloat(rec.SpacingInches),
		nullFloat(rec.PlantingDepthInches),
		nullString(rec.SunRequirement),
		nullString(rec.WaterRequirement),
		nullString(rec.SoilPHRange),
		pq.Array(rec.CompanionPlants),
		pq.Array(rec.AvoidPlantingWith),
		string(rec.Source),
		rec.GeneratedBy,
		rec.UsageCount,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert plant %q: %w", rec.Key, err)
	}
	return nil
}

func (p *Postgres) FindByName(ctx context.Context, key string) (*models.PlantRecord, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE lookup_key = $1`,
		models.NormalizeKey(key),
	)
	rec, err := scanPlant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find plant %q: %w", key, err)
	}
	return &rec, nil
}

// FindByNames bumps usage and reads the matching rows in one statement.
func (p *Postgres) FindByNames(ctx context.Context, keys []string) ([]models.PlantRecord, error) {
	keys = dedupeKeys(keys)
	if len(keys) == 0 {
		return nil, nil
	}
	return p.query(ctx, "find plants",
		`UPDATE plants SET usage_count = usage_count + 1
		WHERE lookup_key = ANY($1)
		RETURNING `+plantColumns,
		pq.Array(keys),
	)
}

func (p *Postgres) FindByCategory(ctx context.Context, category string) ([]models.PlantRecord, error) {
	return p.query(ctx, "find plants by category",
		`SELECT `+plantColumns+` FROM plants WHERE category = $1 ORDER BY name`,
		models.NormalizeKey(category),
	)
}

func (p *Postgres) SearchBySubstring(ctx context.Context, query string) ([]models.PlantRecord, error) {
	return p.query(ctx, "search plants",
		`SELECT `+plantColumns+` FROM plants
		WHERE lookup_key LIKE $1
		ORDER BY usage_count DESC, name ASC
		LIMIT $2`,
		likePattern(query), SearchLimit,
	)
}

func (p *Postgres) IncrementUsage(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE plants SET usage_count = usage_count + 1 WHERE lookup_key = $1`,
		models.NormalizeKey(key),
	)
	if err != nil {
		return fmt.Errorf("increment usage %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) ListAll(ctx context.Context) ([]models.PlantRecord, error) {
	return p.query(ctx, "list plants", `SELECT `+plantColumns+` FROM plants ORDER BY name`)
}

func (p *Postgres) Stats(ctx context.Context) (models.PlantStats, error) {
	var stats models.PlantStats
	err := p.db.QueryRowContext(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE source = 'seeded'),
			count(*) FILTER (WHERE source = 'generated')
		FROM plants`,
	).Scan(&stats.Total, &stats.Seeded, &stats.Generated)
	if err != nil {
		return stats, fmt.Errorf("plant stats: %w", err)
	}

	stats.Popular, err = p.query(ctx, "popular plants",
		`SELECT `+plantColumns+` FROM plants ORDER BY usage_count DESC, name ASC LIMIT $1`,
		PopularLimit,
	)
	return stats, err
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) query(ctx context.Context, op, query string, args ...interface{}) ([]models.PlantRecord, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.PlantRecord
	for rows.Next() {
		rec, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlant(row rowScanner) (models.PlantRecord, error) {
	var (
		rec                 models.PlantRecord
		scientific, sun, pH sql.NullString
		water, generatedBy  sql.NullString
		days                sql.NullInt64
		spacing, depth      sql.NullFloat64
		source              string
	)
	err := row.Scan(
		&rec.Key,
		&rec.Name,
		&scientific,
		&rec.Category,
		&days,
		&spacing,
		&depth,
		&sun,
		&water,
		&pH,
		pq.Array(&rec.CompanionPlants),
		pq.Array(&rec.AvoidPlantingWith),
		&source,
		&generatedBy,
		&rec.UsageCount,
		&rec.CreatedAt,
	)
	if err != nil {
		return rec, err
	}

	rec.ScientificName = scientific.String
	rec.DaysToHarvest = int(days.Int64)
	rec.SpacingInches = spacing.Float64
	rec.PlantingDepthInches = depth.Float64
	rec.SunRequirement = sun.String
	rec.WaterRequirement = water.String
	rec.SoilPHRange = pH.String
	rec.Source = models.PlantSource(source)
	if generatedBy.Valid {
		model := generatedBy.String
		rec.GeneratedBy = &model
	}
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n > 0}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f > 0}
}
