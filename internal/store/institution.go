package store

import (
	"context"
	"fmt"
	"time"

	"admissions/internal/utils"
	"admissions/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	institutionTableName = "admissions.institutions"
	settingsTableName    = "admissions.institute_settings"
)

var (
	institutionColumns = utils.StructTagValues(types.Institution{})
	settingsColumns    = utils.StructTagValues(types.InstituteSettings{})
)

type InstitutionRepository struct {
	pool *pgxpool.Pool
}

func NewInstitutionRepository(pool *pgxpool.Pool) *InstitutionRepository {
	return &InstitutionRepository{pool: pool}
}

func (r *InstitutionRepository) ActiveInstitutions(ctx context.Context) ([]*types.Institution, error) {
	query, args, err := psql().
		Select(institutionColumns...).
		From(institutionTableName).
		Where(sq.Eq{"is_active": true}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active institutions query: %w", err)
	}

	out := make([]*types.Institution, 0)
	if err := pgxscan.Select(ctx, r.pool, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select active institutions: %w", err)
	}

	return out, nil
}

func (r *InstitutionRepository) Institution(ctx context.Context, instituteID string) (*types.Institution, error) {
	query, args, err := psql().
		Select(institutionColumns...).
		From(institutionTableName).
		Where(sq.Eq{"institute_id": instituteID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build institution query: %w", err)
	}

	var inst = new(types.Institution)
	err = pgxscan.Get(ctx, r.pool, inst, query, args...)
	if pgxscan.NotFound(err) {
		return nil, types.ErrInstitutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select institution: %w", err)
	}

	return inst, nil
}

func (r *InstitutionRepository) UpsertInstitution(ctx context.Context, inst *types.Institution) error {
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now()
	}

	query, args, err := psql().
		Insert(institutionTableName).
		SetMap(utils.StructToMap(inst)).
		Suffix("ON CONFLICT (institute_id) DO UPDATE SET " + utils.ExcludedSet("name", "is_active")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build institution upsert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert institution: %w", err)
	}

	return nil
}

// SettingsByInstitute returns the institute's settings. An institute without a settings row
// has no courses.
func (r *InstitutionRepository) SettingsByInstitute(ctx context.Context, instituteID string) (*types.InstituteSettings, error) {
	query, args, err := psql().
		Select(settingsColumns...).
		From(settingsTableName).
		Where(sq.Eq{"institute_id": instituteID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build settings query: %w", err)
	}

	var settings = new(types.InstituteSettings)
	err = pgxscan.Get(ctx, r.pool, settings, query, args...)
	if pgxscan.NotFound(err) {
		return &types.InstituteSettings{InstituteID: instituteID, Courses: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select institute settings: %w", err)
	}

	if settings.Courses == nil {
		settings.Courses = []string{}
	}

	return settings, nil
}

func (r *InstitutionRepository) UpsertSettings(ctx context.Context, settings *types.InstituteSettings) error {
	settings.UpdatedAt = time.Now()

	query, args, err := psql().
		Insert(settingsTableName).
		SetMap(utils.StructToMap(settings)).
		Suffix("ON CONFLICT (institute_id) DO UPDATE SET " + utils.ExcludedSet("courses", "updated_at")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build settings upsert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert institute settings: %w", err)
	}

	return nil
}
