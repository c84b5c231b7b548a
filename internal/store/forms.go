package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"admissions/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const formTableName = "admissions.form_configurations"

type formRow struct {
	InstituteID      string          `db:"institute_id"`
	PersonalDetails  []types.Section `db:"personal_details"`
	EducationDetails []types.Section `db:"education_details"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

type FormsRepository struct {
	pool *pgxpool.Pool
}

func NewFormsRepository(pool *pgxpool.Pool) *FormsRepository {
	return &FormsRepository{pool: pool}
}

func (r *FormsRepository) FormByInstitute(ctx context.Context, instituteID string) (*types.FormDocument, error) {
	query, args, err := psql().
		Select("institute_id", "personal_details", "education_details", "updated_at").
		From(formTableName).
		Where(sq.Eq{"institute_id": instituteID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build form query: %w", err)
	}

	var row formRow
	err = pgxscan.Get(ctx, r.pool, &row, query, args...)
	if pgxscan.NotFound(err) {
		return nil, types.ErrFormNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select form configuration: %w", err)
	}

	return &types.FormDocument{
		InstituteID:      row.InstituteID,
		PersonalDetails:  nonNilSections(row.PersonalDetails),
		EducationDetails: nonNilSections(row.EducationDetails),
	}, nil
}

// SaveForm replaces the institute's configuration. The last save wins.
func (r *FormsRepository) SaveForm(ctx context.Context, doc *types.FormDocument) error {
	personal, err := json.Marshal(nonNilSections(doc.PersonalDetails))
	if err != nil {
		return fmt.Errorf("encode personal sections: %w", err)
	}
	education, err := json.Marshal(nonNilSections(doc.EducationDetails))
	if err != nil {
		return fmt.Errorf("encode education sections: %w", err)
	}

	query, args, err := psql().
		Insert(formTableName).
		Columns("institute_id", "personal_details", "education_details", "updated_at").
		Values(doc.InstituteID, string(personal), string(education), time.Now()).
		Suffix("ON CONFLICT (institute_id) DO UPDATE SET personal_details = EXCLUDED.personal_details, education_details = EXCLUDED.education_details, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build form upsert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert form configuration: %w", err)
	}

	return nil
}

func nonNilSections(sections []types.Section) []types.Section {
	if sections == nil {
		return []types.Section{}
	}
	return sections
}
