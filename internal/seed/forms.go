package seed

import (
	"context"
	"errors"
	"fmt"

	"admissions/internal/formschema"
	"admissions/pkg/types"
)

type FormStore interface {
	FormByInstitute(ctx context.Context, instituteID string) (*types.FormDocument, error)
	SaveForm(ctx context.Context, doc *types.FormDocument) error
}

// DefaultForm builds a starting configuration holding every required field of the catalog.
func DefaultForm(instituteID string, catalog *formschema.Catalog) (*types.FormDocument, error) {
	b := formschema.NewBuilder(instituteID, catalog)

	for _, category := range types.Categories {
		if err := b.SelectCategory(category); err != nil {
			return nil, err
		}
		for _, section := range catalog.Sections(category) {
			b.SelectSection(section, "")
			for _, tmpl := range catalog.Templates(category, section) {
				if !tmpl.Required {
					continue
				}
				if _, err := b.AddPredefinedField(tmpl.FieldName); err != nil {
					return nil, fmt.Errorf("add %s/%s: %w", section, tmpl.FieldName, err)
				}
			}
		}
	}

	return b.Document(instituteID)
}

// SeedForms gives every seeded institute without a configuration the default form. Saved
// configurations are left alone unless overwrite is set.
func SeedForms(ctx context.Context, repo FormStore, catalog *formschema.Catalog, overwrite bool) error {
	seeded := 0
	for _, s := range Institutions {
		instituteID := s.Institution.InstituteID

		_, err := repo.FormByInstitute(ctx, instituteID)
		switch {
		case err == nil && !overwrite:
			continue
		case err != nil && !errors.Is(err, types.ErrFormNotFound):
			return fmt.Errorf("failed to fetch form for %s: %w", instituteID, err)
		}

		doc, err := DefaultForm(instituteID, catalog)
		if err != nil {
			return fmt.Errorf("failed to build default form for %s: %w", instituteID, err)
		}

		if err := repo.SaveForm(ctx, doc); err != nil {
			return fmt.Errorf("failed to save form for %s: %w", instituteID, err)
		}
		seeded++
	}

	fmt.Printf("Forms seeded: %d saved\n", seeded)
	return nil
}
