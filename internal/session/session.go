// Package session keeps in-progress builder and wizard drafts between requests.
package session

import (
	"context"
	"errors"
	"fmt"
)

var ErrDraftNotFound = errors.New("draft not found")

type Kind string

const (
	KindBuilder Kind = "builder"
	KindWizard  Kind = "wizard"
)

// DraftStore persists drafts as JSON under (kind, id). Drafts expire after the store's TTL.
type DraftStore interface {
	Put(ctx context.Context, kind Kind, id string, draft any) error
	// Get decodes the draft into out, or returns ErrDraftNotFound.
	Get(ctx context.Context, kind Kind, id string, out any) error
	Delete(ctx context.Context, kind Kind, id string) error
}

func draftKey(kind Kind, id string) string {
	return fmt.Sprintf("admissions:draft:%s:%s", kind, id)
}
