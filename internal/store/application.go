package store

import (
	"context"
	"fmt"
	"time"

	"admissions/internal/utils"
	"admissions/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	applicationTableName     = "admissions.applications"
	applicationFileTableName = "admissions.application_files"
)

var (
	applicationColumns     = utils.StructTagValues(types.Application{})
	applicationFileColumns = utils.StructTagValues(types.ApplicationFile{})

	fileUpsertSet = utils.ExcludedSet(utils.StructTagValues(types.ApplicationFile{}, "application_id", "field_name")...)
)

type ApplicationRepository struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

func (r *ApplicationRepository) Application(ctx context.Context, id string) (*types.Application, error) {
	query, args, err := psql().
		Select(applicationColumns...).
		From(applicationTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build application query: %w", err)
	}

	var app = new(types.Application)
	err = pgxscan.Get(ctx, r.pool, app, query, args...)
	if pgxscan.NotFound(err) {
		return nil, types.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select application: %w", err)
	}

	ensureData(app)
	return app, nil
}

// RecentApplications lists the newest applications, optionally for one institute.
func (r *ApplicationRepository) RecentApplications(ctx context.Context, instituteID string, limit uint64) ([]*types.Application, error) {
	builder := psql().
		Select(applicationColumns...).
		From(applicationTableName).
		OrderBy("created_at DESC").
		Limit(limit)
	if instituteID != "" {
		builder = builder.Where(sq.Eq{"institute_id": instituteID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent applications query: %w", err)
	}

	out := make([]*types.Application, 0)
	if err := pgxscan.Select(ctx, r.pool, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select recent applications: %w", err)
	}

	for _, app := range out {
		ensureData(app)
	}

	return out, nil
}

// CreateApplication inserts the application and its file records in one transaction.
func (r *ApplicationRepository) CreateApplication(ctx context.Context, app *types.Application, files []*types.ApplicationFile) error {
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now
	ensureData(app)

	query, args, err := psql().
		Insert(applicationTableName).
		SetMap(utils.StructToMap(app)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build application insert: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		return upsertFiles(ctx, tx, files)
	})
}

// UpdateApplication rewrites the application's selection and data, and replaces the file
// records of re-uploaded fields, in one transaction.
func (r *ApplicationRepository) UpdateApplication(ctx context.Context, app *types.Application, files []*types.ApplicationFile) error {
	app.UpdatedAt = time.Now()
	ensureData(app)

	query, args, err := psql().
		Update(applicationTableName).
		SetMap(utils.StructToMap(app, "id", "institute_id", "lead_id", "created_at")).
		Where(sq.Eq{"id": app.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build application update: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return types.ErrApplicationNotFound
		}
		return upsertFiles(ctx, tx, files)
	})
}

func (r *ApplicationRepository) FileByField(ctx context.Context, applicationID, fieldName string) (*types.ApplicationFile, error) {
	query, args, err := psql().
		Select(applicationFileColumns...).
		From(applicationFileTableName).
		Where(sq.Eq{"application_id": applicationID, "field_name": fieldName}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build application file query: %w", err)
	}

	var file = new(types.ApplicationFile)
	err = pgxscan.Get(ctx, r.pool, file, query, args...)
	if pgxscan.NotFound(err) {
		return nil, types.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select application file: %w", err)
	}

	return file, nil
}

func upsertFiles(ctx context.Context, tx pgx.Tx, files []*types.ApplicationFile) error {
	for _, file := range files {
		query, args, err := psql().
			Insert(applicationFileTableName).
			SetMap(utils.StructToMap(file)).
			Suffix("ON CONFLICT (application_id, field_name) DO UPDATE SET " + fileUpsertSet).
			ToSql()
		if err != nil {
			return fmt.Errorf("build application file upsert: %w", err)
		}

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert application file %s: %w", file.FieldName, err)
		}
	}
	return nil
}

func ensureData(app *types.Application) {
	if app.PersonalData == nil {
		app.PersonalData = map[string]any{}
	}
	if app.EducationData == nil {
		app.EducationData = map[string]any{}
	}
}
