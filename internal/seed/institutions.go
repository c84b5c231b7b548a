package seed

import (
	"context"
	"fmt"

	"admissions/pkg/types"
)

type InstitutionWriter interface {
	UpsertInstitution(ctx context.Context, inst *types.Institution) error
	UpsertSettings(ctx context.Context, settings *types.InstituteSettings) error
}

type institutionSeed struct {
	Institution types.Institution
	Courses     []string
}

// Institutions is the source of truth for seeded institutes. Ids are fixed so that a
// re-run updates rather than duplicates.
//
// To generate new IDs: `go run ./cmd/admissions nanoid`
var Institutions = []institutionSeed{
	{
		Institution: types.Institution{InstituteID: "Xq3mW9tLk2VbR7nYp4HcJ8sDf6GzA1eU", Name: "St. Xavier's College", IsActive: true},
		Courses:     []string{"BSc Physics", "BSc Chemistry", "BA English", "BCom"},
	},
	{
		Institution: types.Institution{InstituteID: "Lp8Rt2Kw5NzQ9vHc3Ym6Jb1Fs4Gd7XaE", Name: "Loyola Institute of Technology", IsActive: true},
		Courses:     []string{"BTech Computer Science", "BTech Mechanical", "BTech Civil"},
	},
	{
		Institution: types.Institution{InstituteID: "Zc4Hn7Qe1Tb9Wm3Ks6Vr2Py8Lf5Dj0Gu", Name: "Mount Carmel School of Nursing", IsActive: false},
		Courses:     []string{"BSc Nursing"},
	},
}

// SeedInstitutions upserts every institute and its course list.
func SeedInstitutions(ctx context.Context, repo InstitutionWriter) error {
	for _, s := range Institutions {
		inst := s.Institution
		if err := repo.UpsertInstitution(ctx, &inst); err != nil {
			return fmt.Errorf("failed to upsert institution %s: %w", inst.InstituteID, err)
		}

		settings := &types.InstituteSettings{InstituteID: inst.InstituteID, Courses: s.Courses}
		if err := repo.UpsertSettings(ctx, settings); err != nil {
			return fmt.Errorf("failed to upsert settings for %s: %w", inst.InstituteID, err)
		}
	}

	fmt.Printf("Institutions seeded: %d upserted\n", len(Institutions))
	return nil
}
