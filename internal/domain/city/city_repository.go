package city

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

var (
	_ Repository = (*EmbeddedRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)

// Repository is where the reference table comes from at startup.
type Repository interface {
	LoadCities(ctx context.Context) ([]types.CityRecord, error)
}

// DBTX is the subset of pgxpool.Pool used by PostgresRepository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LoadReferenceTable reads every city from repo and freezes them into a table.
func LoadReferenceTable(ctx context.Context, repo Repository) (*ReferenceTable, error) {
	records, err := repo.LoadCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference cities: %w", err)
	}
	return NewReferenceTable(records)
}

// EmbeddedRepository serves the table compiled into the binary.
type EmbeddedRepository struct{}

func NewEmbeddedRepository() *EmbeddedRepository {
	return &EmbeddedRepository{}
}

func (EmbeddedRepository) LoadCities(_ context.Context) ([]types.CityRecord, error) {
	t, err := EmbeddedReferenceTable()
	if err != nil {
		return nil, err
	}
	return t.Cities(), nil
}

// PostgresRepository keeps the reference table in the reference_cities table.
type PostgresRepository struct {
	logger *slog.Logger
	db     DBTX
}

func NewPostgresRepository(db DBTX, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		db:     db,
	}
}

// LoadCities returns all rows ordered by their table position.
func (r *PostgresRepository) LoadCities(ctx context.Context) ([]types.CityRecord, error) {
	ctx, span := otel.Tracer("CityRepository").Start(ctx, "LoadCities")
	defer span.End()

	query, args, err := squirrel.Select(
		"name",
		"COALESCE(region, '')",
		"country",
		"latitude",
		"longitude",
	).
		From("reference_cities").
		OrderBy("position").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build cities query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("failed to query reference cities: %w", err)
	}
	defer rows.Close()

	var cities []types.CityRecord
	for rows.Next() {
		var c types.CityRecord
		if err := rows.Scan(&c.Name, &c.Region, &c.Country, &c.Location.Latitude, &c.Location.Longitude); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan reference city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating reference cities: %w", err)
	}

	span.SetAttributes(attribute.Int("cities.count", len(cities)))
	span.SetStatus(codes.Ok, "Reference cities loaded")
	return cities, nil
}

// SeedIfEmpty inserts cities when reference_cities has no rows yet.
// It returns the number of rows inserted.
func (r *PostgresRepository) SeedIfEmpty(ctx context.Context, cities []types.CityRecord) (int, error) {
	ctx, span := otel.Tracer("CityRepository").Start(ctx, "SeedIfEmpty")
	defer span.End()

	l := r.logger.With(slog.String("method", "SeedIfEmpty"))

	var count int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM reference_cities").Scan(&count); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count reference cities: %w", err)
	}
	if count > 0 || len(cities) == 0 {
		l.DebugContext(ctx, "Reference cities already present, skipping seed", slog.Int64("count", count))
		return 0, nil
	}

	builder := squirrel.Insert("reference_cities").
		Columns("position", "name", "region", "country", "latitude", "longitude").
		PlaceholderFormat(squirrel.Dollar)
	for i, c := range cities {
		builder = builder.Values(i, c.Name, NewNullString(c.Region), c.Country, c.Location.Latitude, c.Location.Longitude)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to build seed query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Seed insert failed")
		return 0, fmt.Errorf("failed to seed reference cities: %w", err)
	}

	l.InfoContext(ctx, "Seeded reference cities", slog.Int64("rows", tag.RowsAffected()))
	span.SetAttributes(attribute.Int64("cities.seeded", tag.RowsAffected()))
	return int(tag.RowsAffected()), nil
}

// NewNullString maps "" to NULL for optional text columns.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
