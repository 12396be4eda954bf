// Package kling implements clothing try-on on top of the Kling AI
// Kolors virtual try-on API.
package kling

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/feitianbubu/styleai/adapters"
)

const (
	// ProviderName is the display name reported by the adapter
	ProviderName = "KLING AI Clothing Try-On"

	// DefaultBaseURL is Kling's official API endpoint
	DefaultBaseURL = "https://api.klingai.com"

	// DefaultModel is used when the request does not pick one
	DefaultModel = "kolors-virtual-try-on-v1"

	version   = "1.0.0"
	tryOnPath = "/v1/images/kolors-virtual-try-on"
)

var (
	supportedModels  = []string{"kolors-virtual-try-on-v1", "kolors-virtual-try-on-v1-5"}
	supportedFormats = []string{"image/jpeg", "image/png"}
)

// TryOn implements adapters.ClothingTryOn for Kling
type TryOn struct {
	id   string
	http *adapters.HTTPBase
	poll adapters.PollConfig
}

var _ adapters.ClothingTryOn = (*TryOn)(nil)

// submitRequest is Kling's try-on request body; images are raw base64
type submitRequest struct {
	ModelName  string `json:"model_name"`
	HumanImage string `json:"human_image"`
	ClothImage string `json:"cloth_image"`
}

// envelope is the wrapper Kling puts around every response
type envelope struct {
	Code      int      `json:"code"`
	Message   string   `json:"message"`
	RequestID string   `json:"request_id"`
	Data      taskData `json:"data"`
}

type taskData struct {
	TaskID        string      `json:"task_id"`
	TaskStatus    string      `json:"task_status"`
	TaskStatusMsg string      `json:"task_status_msg"`
	CreatedAt     int64       `json:"created_at"`
	UpdatedAt     int64       `json:"updated_at"`
	TaskResult    *taskResult `json:"task_result,omitempty"`
}

type taskResult struct {
	Images []struct {
		Index int    `json:"index"`
		URL   string `json:"url"`
	} `json:"images"`
}

// New creates a Kling try-on adapter. id is the provider identifier used in
// errors, logs and metrics.
func New(id string, cfg adapters.ProviderConfig, opts adapters.Options) (*TryOn, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	creds := parseCredentials(cfg.APIKey)

	base, err := adapters.NewHTTPBase(id, cfg, creds.authorize, opts)
	if err != nil {
		return nil, err
	}

	return &TryOn{
		id:   id,
		http: base,
		poll: cfg.Poll(),
	}, nil
}

// Name returns the provider name
func (k *TryOn) Name() string {
	return ProviderName
}

// Version returns the adapter version
func (k *TryOn) Version() string {
	return version
}

// SupportedFormats returns the accepted image types
func (k *TryOn) SupportedFormats() []string {
	return append([]string{}, supportedFormats...)
}

// MaxFileSize returns the largest accepted upload
func (k *TryOn) MaxFileSize() int64 {
	return adapters.DefaultMaxFileSize
}

// SupportedModels returns the Kling try-on models
func (k *TryOn) SupportedModels() []string {
	return append([]string{}, supportedModels...)
}

// IsAvailable lists a single task to check reachability and credentials
func (k *TryOn) IsAvailable(ctx context.Context) bool {
	return k.http.Probe(ctx, tryOnPath+"?pageNum=1&pageSize=1")
}

// ValidateRequest validates the request for Kling
func (k *TryOn) ValidateRequest(req *adapters.TryOnRequest) adapters.ValidationResult {
	result := adapters.ValidateTryOnRequest(req, k.MaxFileSize(), supportedFormats)
	if req != nil && req.Options.Model != "" && !isSupportedModel(req.Options.Model) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("unsupported model: %s", req.Options.Model))
	}
	return result
}

// TryOn submits the try-on task and polls it to completion
func (k *TryOn) TryOn(ctx context.Context, req *adapters.TryOnRequest) *adapters.Response[adapters.TryOnResult] {
	if v := k.ValidateRequest(req); !v.Valid {
		return adapters.Fail[adapters.TryOnResult](v.Err())
	}
	start := time.Now()

	model := req.Options.Model
	if model == "" {
		model = DefaultModel
	}

	var resp envelope
	err := k.http.DoJSON(ctx, "try_on", http.MethodPost, tryOnPath, &submitRequest{
		ModelName:  model,
		HumanImage: req.PersonImage.Base64(),
		ClothImage: req.GarmentImage.Base64(),
	}, &resp)
	if err == nil {
		err = k.checkEnvelope(&resp)
	}
	if err != nil {
		return adapters.Fail[adapters.TryOnResult](err)
	}

	taskID := resp.Data.TaskID
	k.http.Logger().Info("try-on task submitted", zap.String("task_id", taskID), zap.String("model", model))

	status, err := adapters.WaitForCompletion(ctx, k.id, taskID, k.poll, func(ctx context.Context) (*adapters.ProcessingStatus, error) {
		return k.GetProcessingStatus(ctx, taskID)
	})
	if err != nil {
		return adapters.Fail[adapters.TryOnResult](err)
	}
	if status.ResultURL == "" {
		return adapters.Fail[adapters.TryOnResult](&adapters.APIError{
			Code:     http.StatusBadGateway,
			Message:  "task completed without a result image",
			Provider: k.id,
		})
	}

	return adapters.Succeed(adapters.TryOnResult{
		JobID:          taskID,
		ResultImageURL: status.ResultURL,
		Provider:       ProviderName,
		ProcessingTime: time.Since(start),
		Metadata: map[string]interface{}{
			"model": model,
		},
	})
}

// GetProcessingStatus retrieves the task status
func (k *TryOn) GetProcessingStatus(ctx context.Context, jobID string) (*adapters.ProcessingStatus, error) {
	if jobID == "" {
		return nil, &adapters.ValidationError{Field: "job_id", Message: "job ID cannot be empty"}
	}

	var resp envelope
	err := k.http.Retry(ctx, func(ctx context.Context) error {
		if err := k.http.DoJSON(ctx, "get_status", http.MethodGet, tryOnPath+"/"+url.PathEscape(jobID), nil, &resp); err != nil {
			return err
		}
		return k.checkEnvelope(&resp)
	})
	if err != nil {
		return nil, err
	}

	return convertStatus(jobID, &resp.Data), nil
}

// checkEnvelope turns Kling's in-body error codes into API errors
func (k *TryOn) checkEnvelope(resp *envelope) error {
	if resp.Code == 0 {
		return nil
	}
	status := http.StatusBadRequest
	if resp.Code >= 5000 {
		status = http.StatusInternalServerError
	}
	return &adapters.APIError{
		Code:     status,
		Message:  fmt.Sprintf("%s (kling code %d)", resp.Message, resp.Code),
		Provider: k.id,
	}
}

// convertStatus converts Kling status to the canonical status
func convertStatus(jobID string, data *taskData) *adapters.ProcessingStatus {
	id := data.TaskID
	if id == "" {
		id = jobID
	}
	status := &adapters.ProcessingStatus{
		ID:      id,
		Status:  mapStatus(data.TaskStatus),
		Message: data.TaskStatusMsg,
	}

	switch status.Status {
	case adapters.JobStatusCompleted:
		status.Progress = 100
		if data.TaskResult != nil && len(data.TaskResult.Images) > 0 {
			status.ResultURL = data.TaskResult.Images[0].URL
		}
	case adapters.JobStatusProcessing:
		status.Progress = 50
	}
	return status
}

func mapStatus(status string) adapters.JobStatus {
	switch status {
	case "submitted", "queued":
		return adapters.JobStatusPending
	case "processing":
		return adapters.JobStatusProcessing
	case "succeed", "succeeded":
		return adapters.JobStatusCompleted
	case "failed":
		return adapters.JobStatusFailed
	default:
		return adapters.JobStatusPending
	}
}

func isSupportedModel(model string) bool {
	for _, m := range supportedModels {
		if m == model {
			return true
		}
	}
	return false
}
