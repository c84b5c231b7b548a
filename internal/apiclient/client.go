// Package apiclient talks to the admissions REST API. Every call carries the signed-in
// operator's bearer token, taken from the request context.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"admissions/internal/submission"
	"admissions/pkg/types"

	"github.com/sirupsen/logrus"
)

type contextKey struct{}

// WithToken returns a context whose API calls authenticate with token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(contextKey{}).(string)
	return token
}

// envelope is the shape every API response is wrapped in.
// errRejected marks a 2xx response whose envelope reports success false with no data.
var errRejected = errors.New("envelope reported success false")

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logrus.Logger
}

func New(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// FormByInstitute returns types.ErrFormNotFound when the API has no configuration for the
// institute, either as a 404 or as an empty data member.
func (c *Client) FormByInstitute(ctx context.Context, instituteID string) (*types.FormDocument, error) {
	var doc *types.FormDocument
	err := c.do(ctx, http.MethodGet, "/forms/institute/"+url.PathEscape(instituteID), nil, "", &doc)
	if isMissing(err) {
		return nil, types.ErrFormNotFound
	}
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, types.ErrFormNotFound
	}
	if doc.InstituteID == "" {
		doc.InstituteID = instituteID
	}
	return doc, nil
}

func (c *Client) SaveForm(ctx context.Context, doc *types.FormDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode form configuration: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/forms", bytes.NewReader(body), "application/json", nil)
}

func (c *Client) ActiveInstitutions(ctx context.Context) ([]*types.Institution, error) {
	out := make([]*types.Institution, 0)
	if err := c.do(ctx, http.MethodGet, "/institutions/active", nil, "", &out); err != nil {
		return nil, err
	}
	for _, inst := range out {
		inst.IsActive = true
	}
	return out, nil
}

func (c *Client) SettingsByInstitute(ctx context.Context, instituteID string) (*types.InstituteSettings, error) {
	var settings *types.InstituteSettings
	if err := c.do(ctx, http.MethodGet, "/settings/institute/"+url.PathEscape(instituteID), nil, "", &settings); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &types.InstituteSettings{}
	}
	settings.InstituteID = instituteID
	if settings.Courses == nil {
		settings.Courses = []string{}
	}
	return settings, nil
}

func (c *Client) CreateApplication(ctx context.Context, payload *submission.Payload) (*types.Application, error) {
	return c.sendApplication(ctx, http.MethodPost, "/applications", payload)
}

func (c *Client) UpdateApplication(ctx context.Context, id string, payload *submission.Payload) (*types.Application, error) {
	return c.sendApplication(ctx, http.MethodPut, "/applications/"+url.PathEscape(id), payload)
}

func (c *Client) ApplicationByID(ctx context.Context, id string) (*types.Application, error) {
	var app *types.Application
	err := c.do(ctx, http.MethodGet, "/applications/"+url.PathEscape(id), nil, "", &app)
	if isMissing(err) {
		return nil, types.ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, types.ErrApplicationNotFound
	}
	if app.ID == "" {
		app.ID = id
	}
	return app, nil
}

func (c *Client) RecentApplications(ctx context.Context, instituteID string, limit uint64) ([]*types.Application, error) {
	q := url.Values{}
	if instituteID != "" {
		q.Set("instituteId", instituteID)
	}
	if limit > 0 {
		q.Set("limit", strconv.FormatUint(limit, 10))
	}

	path := "/applications"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	out := make([]*types.Application, 0)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) sendApplication(ctx context.Context, method, path string, payload *submission.Payload) (*types.Application, error) {
	body := &bytes.Buffer{}
	contentType, err := payload.WriteMultipart(body)
	if err != nil {
		return nil, err
	}

	var app *types.Application
	if err := c.do(ctx, method, path, body, contentType, &app); err != nil {
		return nil, err
	}
	if app == nil {
		app = &types.Application{}
	}
	return app, nil
}

// do sends one request and decodes the envelope's data into out. Transport failures, non 2xx
// statuses and envelopes with success false all come back as *types.RequestError.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("method", method).WithField("path", path).Error("admissions api request failed")
		return &types.RequestError{Message: types.GenericRequestFailure, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.RequestError{Status: resp.StatusCode, Message: types.GenericRequestFailure, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := env.Message
		if decodeErr != nil || message == "" {
			message = types.GenericRequestFailure
		}
		return &types.RequestError{
			Status:  resp.StatusCode,
			Message: message,
			Err:     fmt.Errorf("%s %s returned %d", method, path, resp.StatusCode),
		}
	}

	if decodeErr != nil {
		return &types.RequestError{Status: resp.StatusCode, Message: types.GenericRequestFailure, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}

	hasData := len(env.Data) > 0 && string(env.Data) != "null"
	if !env.Success && !hasData {
		message := env.Message
		if message == "" {
			message = types.GenericRequestFailure
		}
		return &types.RequestError{Status: resp.StatusCode, Message: message, Err: errRejected}
	}

	if out == nil || !hasData {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return &types.RequestError{Status: resp.StatusCode, Message: types.GenericRequestFailure, Err: fmt.Errorf("decode data: %w", err)}
	}

	return nil
}

// FileURL asks the API for a link to the document uploaded for a field.
func (c *Client) FileURL(ctx context.Context, applicationID, fieldName string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	path := "/applications/" + url.PathEscape(applicationID) + "/files/" + url.PathEscape(fieldName)
	err := c.do(ctx, http.MethodGet, path, nil, "", &out)
	if isMissing(err) {
		return "", types.ErrFileNotFound
	}
	if err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", types.ErrFileNotFound
	}
	return out.URL, nil
}

// isMissing reports a 404, or for lookups a 2xx envelope saying success false without data.
func isMissing(err error) bool {
	var rerr *types.RequestError
	if !errors.As(err, &rerr) {
		return false
	}
	return rerr.Status == http.StatusNotFound || errors.Is(err, errRejected)
}
