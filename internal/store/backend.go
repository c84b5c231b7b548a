package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"admissions/internal/submission"
	"admissions/internal/utils"
	"admissions/pkg/types"

	"github.com/sirupsen/logrus"
)

// FileStorage keeps uploaded application documents.
type FileStorage interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
	DownloadURL(ctx context.Context, key string) (string, error)
}

// ApplicationRecords is the row storage behind ApplicationStore. ApplicationRepository
// implements it.
type ApplicationRecords interface {
	Application(ctx context.Context, id string) (*types.Application, error)
	RecentApplications(ctx context.Context, instituteID string, limit uint64) ([]*types.Application, error)
	CreateApplication(ctx context.Context, app *types.Application, files []*types.ApplicationFile) error
	UpdateApplication(ctx context.Context, app *types.Application, files []*types.ApplicationFile) error
	FileByField(ctx context.Context, applicationID, fieldName string) (*types.ApplicationFile, error)
}

// KeyFunc names the object an uploaded document is stored under.
type KeyFunc func(applicationID, fieldName, fileName string) string

// ApplicationStore turns submission payloads into application rows and stored documents.
type ApplicationStore struct {
	logger  *logrus.Logger
	repo    ApplicationRecords
	storage FileStorage
	keyFor  KeyFunc
}

func NewApplicationStore(logger *logrus.Logger, repo ApplicationRecords, storage FileStorage, keyFor KeyFunc) *ApplicationStore {
	return &ApplicationStore{logger: logger, repo: repo, storage: storage, keyFor: keyFor}
}

func (s *ApplicationStore) CreateApplication(ctx context.Context, payload *submission.Payload) (*types.Application, error) {
	app := applicationFromPayload(utils.NanoID(), payload)

	files, err := s.uploadFiles(ctx, app, payload.Files)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateApplication(ctx, app, files); err != nil {
		s.discardFiles(ctx, files)
		if isUniqueViolation(err) {
			return nil, &types.RequestError{Status: http.StatusConflict, Message: "This application already exists.", Err: err}
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return app, nil
}

func (s *ApplicationStore) UpdateApplication(ctx context.Context, id string, payload *submission.Payload) (*types.Application, error) {
	existing, err := s.repo.Application(ctx, id)
	if errors.Is(err, types.ErrApplicationNotFound) {
		return nil, &types.RequestError{Status: http.StatusNotFound, Message: "Application not found.", Err: err}
	}
	if err != nil {
		return nil, err
	}

	app := applicationFromPayload(id, payload)
	app.LeadID = existing.LeadID
	app.CreatedAt = existing.CreatedAt

	previous := s.storedFiles(ctx, id, payload.Files)

	files, err := s.uploadFiles(ctx, app, payload.Files)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateApplication(ctx, app, files); err != nil {
		s.discardFiles(ctx, files)
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	s.discardFiles(ctx, replacedFiles(previous, files))

	return app, nil
}

// storedFiles looks up the current documents of the fields being re-uploaded. A lookup
// failure only costs the cleanup of the old object, so it is logged and skipped.
func (s *ApplicationStore) storedFiles(ctx context.Context, applicationID string, uploads []submission.File) []*types.ApplicationFile {
	var out []*types.ApplicationFile
	for _, upload := range uploads {
		file, err := s.repo.FileByField(ctx, applicationID, upload.FieldName)
		if errors.Is(err, types.ErrFileNotFound) {
			continue
		}
		if err != nil {
			s.logger.WithError(err).
				WithField("application_id", applicationID).
				WithField("field_name", upload.FieldName).
				Warn("failed to look up stored application document")
			continue
		}
		out = append(out, file)
	}
	return out
}

// replacedFiles returns the previous documents whose objects the new uploads did not
// overwrite in place.
func replacedFiles(previous, current []*types.ApplicationFile) []*types.ApplicationFile {
	kept := make(map[string]bool, len(current))
	for _, file := range current {
		kept[file.StorageKey] = true
	}

	var out []*types.ApplicationFile
	for _, file := range previous {
		if !kept[file.StorageKey] {
			out = append(out, file)
		}
	}
	return out
}

func (s *ApplicationStore) ApplicationByID(ctx context.Context, id string) (*types.Application, error) {
	return s.repo.Application(ctx, id)
}

func (s *ApplicationStore) RecentApplications(ctx context.Context, instituteID string, limit uint64) ([]*types.Application, error) {
	return s.repo.RecentApplications(ctx, instituteID, limit)
}

// FileURL returns a short lived link to the document uploaded for a field.
func (s *ApplicationStore) FileURL(ctx context.Context, applicationID, fieldName string) (string, error) {
	file, err := s.repo.FileByField(ctx, applicationID, fieldName)
	if err != nil {
		return "", err
	}
	return s.storage.DownloadURL(ctx, file.StorageKey)
}

// uploadFiles stores each document and writes its filename into the category data under
// the field name. Already uploaded objects are removed when a later one fails.
func (s *ApplicationStore) uploadFiles(ctx context.Context, app *types.Application, uploads []submission.File) ([]*types.ApplicationFile, error) {
	files := make([]*types.ApplicationFile, 0, len(uploads))

	for _, upload := range uploads {
		key, err := s.storage.UploadFile(ctx, s.keyFor(app.ID, upload.FieldName, upload.FileName), upload.Data, upload.ContentType)
		if err != nil {
			s.logger.WithError(err).
				WithField("application_id", app.ID).
				WithField("field_name", upload.FieldName).
				Error("failed to upload application document")
			s.discardFiles(ctx, files)
			return nil, &types.RequestError{Status: http.StatusBadGateway, Message: "Could not upload documents. Please try again.", Err: err}
		}

		files = append(files, &types.ApplicationFile{
			ApplicationID: app.ID,
			FieldName:     upload.FieldName,
			FileName:      upload.FileName,
			MimeType:      upload.ContentType,
			FileSizeBytes: int64(len(upload.Data)),
			StorageKey:    key,
			UploadedAt:    time.Now(),
		})
		app.Data(upload.Category)[upload.FieldName] = upload.FileName
	}

	return files, nil
}

func (s *ApplicationStore) discardFiles(ctx context.Context, files []*types.ApplicationFile) {
	for _, file := range files {
		if err := s.storage.DeleteFile(ctx, file.StorageKey); err != nil {
			s.logger.WithError(err).
				WithField("storage_key", file.StorageKey).
				Warn("failed to remove orphaned application document")
		}
	}
}

func applicationFromPayload(id string, payload *submission.Payload) *types.Application {
	app := &types.Application{
		ID:            id,
		InstituteID:   payload.InstituteID,
		AcademicYear:  payload.AcademicYear,
		Program:       payload.Program,
		PersonalData:  copyData(payload.PersonalData),
		EducationData: copyData(payload.EducationData),
	}
	if lead := strings.TrimSpace(payload.LeadID); lead != "" {
		app.LeadID = &lead
	}
	return app
}

func copyData(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
