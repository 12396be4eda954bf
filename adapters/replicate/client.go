// Package replicate implements clothing try-on and decor visualization on
// top of the Replicate predictions API.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/feitianbubu/styleai/adapters"
)

const (
	// DefaultBaseURL is Replicate's official API endpoint
	DefaultBaseURL = "https://api.replicate.com"

	// InlineLimit is the largest upload sent inline as a data URI; bigger
	// uploads go through the files API first.
	InlineLimit int64 = 256 * 1024

	// ModelVersionKey selects the model version in ProviderConfig.Extra
	ModelVersionKey = "model_version"

	version         = "1.0.0"
	predictionsPath = "/v1/predictions"
	filesPath       = "/v1/files"
	accountPath     = "/v1/account"
)

var progressPattern = regexp.MustCompile(`(\d{1,3})%`)

// prediction is Replicate's prediction resource
type prediction struct {
	ID      string          `json:"id"`
	Version string          `json:"version"`
	Status  string          `json:"status"`
	Output  json.RawMessage `json:"output"`
	Error   interface{}     `json:"error"`
	Logs    string          `json:"logs"`
	Metrics struct {
		PredictTime float64 `json:"predict_time"`
	} `json:"metrics"`
}

type createPrediction struct {
	Version string                 `json:"version"`
	Input   map[string]interface{} `json:"input"`
}

type fileResource struct {
	ID   string `json:"id"`
	URLs struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// client holds what the try-on and decor adapters share
type client struct {
	id           string
	http         *adapters.HTTPBase
	poll         adapters.PollConfig
	modelVersion string
}

func newClient(id string, cfg adapters.ProviderConfig, defaultVersion string, opts adapters.Options) (*client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	token := strings.TrimSpace(cfg.APIKey)
	auth := func(req *http.Request) error {
		req.Header.Set("Authorization", "Token "+token)
		return nil
	}

	base, err := adapters.NewHTTPBase(id, cfg, auth, opts)
	if err != nil {
		return nil, err
	}

	modelVersion := cfg.Extra[ModelVersionKey]
	if modelVersion == "" {
		modelVersion = defaultVersion
	}

	return &client{
		id:           id,
		http:         base,
		poll:         cfg.Poll(),
		modelVersion: modelVersion,
	}, nil
}

func (c *client) available(ctx context.Context) bool {
	return c.http.Probe(ctx, accountPath)
}

// mediaInput returns a reference the model can read: a data URI for small
// uploads, otherwise the URL of an uploaded file
func (c *client) mediaInput(ctx context.Context, m *adapters.MediaUpload) (string, error) {
	if m.Len() <= InlineLimit {
		return m.DataURI(), nil
	}
	return c.upload(ctx, m)
}

// upload sends the raw file as multipart/form-data to the files API
func (c *client) upload(ctx context.Context, m *adapters.MediaUpload) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="content"; filename=%q`, fileName(m)))
	h.Set("Content-Type", m.MIMEType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", errors.Wrap(err, "failed to create multipart part")
	}
	if _, err := part.Write(m.Data); err != nil {
		return "", errors.Wrap(err, "failed to write multipart body")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close multipart body")
	}

	var file fileResource
	if err := c.http.Do(ctx, "upload_file", http.MethodPost, filesPath, &buf, w.FormDataContentType(), &file); err != nil {
		return "", err
	}
	if file.URLs.Get == "" {
		return "", &adapters.APIError{Code: http.StatusBadGateway, Message: "file upload returned no URL", Provider: c.id}
	}
	return file.URLs.Get, nil
}

// run creates a prediction and polls it to completion
func (c *client) run(ctx context.Context, op string, input map[string]interface{}) (*adapters.ProcessingStatus, error) {
	var p prediction
	err := c.http.DoJSON(ctx, op, http.MethodPost, predictionsPath, &createPrediction{
		Version: c.modelVersion,
		Input:   input,
	}, &p)
	if err != nil {
		return nil, err
	}
	c.http.Logger().Info("prediction created", zap.String("prediction_id", p.ID), zap.String("status", p.Status))

	status := convertPrediction(p.ID, &p)
	switch status.Status {
	case adapters.JobStatusCompleted:
	case adapters.JobStatusFailed:
		return nil, &adapters.JobFailedError{Provider: c.id, JobID: p.ID, Message: status.Message}
	default:
		status, err = adapters.WaitForCompletion(ctx, c.id, p.ID, c.poll, func(ctx context.Context) (*adapters.ProcessingStatus, error) {
			return c.status(ctx, p.ID)
		})
		if err != nil {
			return nil, err
		}
	}
	if status.ResultURL == "" {
		return nil, &adapters.APIError{Code: http.StatusBadGateway, Message: "prediction completed without output", Provider: c.id}
	}
	return status, nil
}

func (c *client) status(ctx context.Context, jobID string) (*adapters.ProcessingStatus, error) {
	if jobID == "" {
		return nil, &adapters.ValidationError{Field: "job_id", Message: "job ID cannot be empty"}
	}

	var p prediction
	err := c.http.Retry(ctx, func(ctx context.Context) error {
		return c.http.DoJSON(ctx, "get_status", http.MethodGet, predictionsPath+"/"+url.PathEscape(jobID), nil, &p)
	})
	if err != nil {
		return nil, err
	}
	return convertPrediction(jobID, &p), nil
}

// convertPrediction converts a Replicate prediction to the canonical status
func convertPrediction(jobID string, p *prediction) *adapters.ProcessingStatus {
	id := p.ID
	if id == "" {
		id = jobID
	}
	status := &adapters.ProcessingStatus{
		ID:       id,
		Status:   mapStatus(p.Status),
		Progress: progressFromLogs(p.Logs),
	}

	switch status.Status {
	case adapters.JobStatusCompleted:
		status.Progress = 100
		status.ResultURL = firstOutputURL(p.Output)
	case adapters.JobStatusFailed:
		status.Message = errorMessage(p)
	}
	return status
}

func mapStatus(status string) adapters.JobStatus {
	switch status {
	case "starting":
		return adapters.JobStatusPending
	case "processing":
		return adapters.JobStatusProcessing
	case "succeeded":
		return adapters.JobStatusCompleted
	case "failed", "canceled":
		return adapters.JobStatusFailed
	default:
		return adapters.JobStatusPending
	}
}

// progressFromLogs returns the last percentage printed by the model, if any
func progressFromLogs(logs string) int {
	matches := progressPattern.FindAllStringSubmatch(logs, -1)
	if len(matches) == 0 {
		return 0
	}
	n, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil || n > 100 {
		return 0
	}
	return n
}

// firstOutputURL handles models that return a single URL or a list of URLs
func firstOutputURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if json.Unmarshal(raw, &single) == nil {
		return single
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

func errorMessage(p *prediction) string {
	switch e := p.Error.(type) {
	case string:
		if e != "" {
			return e
		}
	case nil:
	default:
		return fmt.Sprint(e)
	}
	if p.Status == "canceled" {
		return "prediction canceled"
	}
	return ""
}

func fileName(m *adapters.MediaUpload) string {
	if m.Name != "" {
		return m.Name
	}
	return "upload"
}
