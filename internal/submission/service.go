package submission

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"admissions/internal/render"
	"admissions/pkg/types"
)

// Sender delivers a built payload to wherever applications are kept.
type Sender interface {
	CreateApplication(ctx context.Context, payload *Payload) (*types.Application, error)
	UpdateApplication(ctx context.Context, id string, payload *Payload) (*types.Application, error)
}

type Service struct {
	logger       *logrus.Logger
	sender       Sender
	academicYear string
}

func NewService(logger *logrus.Logger, sender Sender, academicYear string) *Service {
	return &Service{
		logger:       logger,
		sender:       sender,
		academicYear: academicYear,
	}
}

// Submit validates the wizard, builds the payload and sends it as one request. Validation
// failures never reach the sender. A failed send leaves the wizard on its current step with
// the server's message, or the generic one, as its error; it is not retried.
func (s *Service) Submit(ctx context.Context, w *Wizard, doc *types.FormDocument) (*types.Application, error) {
	payload, err := w.Prepare(doc, s.academicYear)
	if err != nil {
		return nil, err
	}

	var app *types.Application
	if w.Mode == render.ModeEdit && w.ApplicationID != "" {
		app, err = s.sender.UpdateApplication(ctx, w.ApplicationID, payload)
	} else {
		app, err = s.sender.CreateApplication(ctx, payload)
	}
	if err != nil {
		rerr := asRequestError(err)
		s.logger.WithError(err).
			WithField("institute_id", w.InstituteID).
			WithField("application_id", w.ApplicationID).
			Error("failed to submit application")
		w.Fail(rerr)
		return nil, rerr
	}

	w.Complete(app)
	return app, nil
}

func asRequestError(err error) *types.RequestError {
	var rerr *types.RequestError
	if errors.As(err, &rerr) {
		if rerr.Message == "" {
			rerr.Message = types.GenericRequestFailure
		}
		return rerr
	}
	return &types.RequestError{Message: types.GenericRequestFailure, Err: err}
}
