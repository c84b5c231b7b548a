// Package backend declares the collaborators the admin panel reads form configurations,
// institutions and applications from. Two implementations exist: the Postgres store and
// the REST client of the admissions API.
package backend

import (
	"context"

	"admissions/internal/submission"
	"admissions/pkg/types"
)

type Forms interface {
	// FormByInstitute returns types.ErrFormNotFound when the institute has no configuration yet.
	FormByInstitute(ctx context.Context, instituteID string) (*types.FormDocument, error)
	SaveForm(ctx context.Context, doc *types.FormDocument) error
}

type Institutions interface {
	ActiveInstitutions(ctx context.Context) ([]*types.Institution, error)
	SettingsByInstitute(ctx context.Context, instituteID string) (*types.InstituteSettings, error)
}

type Applications interface {
	submission.Sender
	ApplicationByID(ctx context.Context, id string) (*types.Application, error)
	RecentApplications(ctx context.Context, instituteID string, limit uint64) ([]*types.Application, error)
}

// FileLocator is implemented by backends that can hand out a download link for an uploaded
// application document.
type FileLocator interface {
	FileURL(ctx context.Context, applicationID, fieldName string) (string, error)
}

// Backend bundles the collaborators a server needs.
type Backend struct {
	Forms        Forms
	Institutions Institutions
	Applications Applications
}

// Locator returns the applications backend as a FileLocator when it supports one.
func (b *Backend) Locator() (FileLocator, bool) {
	l, ok := b.Applications.(FileLocator)
	return l, ok
}
