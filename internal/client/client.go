// Package client is a thin REST client for the risk API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"cardiorisk/internal/api"
	"cardiorisk/internal/storage"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
	Kind       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("risk api: %d %s", e.StatusCode, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

type Client struct {
	base string
	rest *resty.Client
}

func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second) // default fallback
	}
	r.SetHeader("Accept", "application/json")
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

func (c *Client) Predict(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error) {
	out := &api.PredictResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(out).
		SetError(&api.ErrorResponse{}).
		Post(c.base + api.PathPredict)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Model(ctx context.Context, modelType string) (*api.ModelInfo, error) {
	out := &api.ModelInfo{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&api.ErrorResponse{}).
		Get(c.base + api.PathModels + "/" + url.PathEscape(modelType))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Predictions lists stored predictions, newest first. limit <= 0 uses the
// server default.
func (c *Client) Predictions(ctx context.Context, limit int) (*api.PredictionList, error) {
	out := &api.PredictionList{}
	r := c.rest.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&api.ErrorResponse{})
	if limit > 0 {
		r.SetQueryParam("limit", strconv.Itoa(limit))
	}
	resp, err := r.Get(c.base + api.PathPredictions)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Prediction(ctx context.Context, id string) (*storage.Record, error) {
	out := &storage.Record{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&api.ErrorResponse{}).
		Get(c.base + api.PathPredictions + "/" + url.PathEscape(id))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeletePrediction(ctx context.Context, id string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetError(&api.ErrorResponse{}).
		Delete(c.base + api.PathPredictions + "/" + url.PathEscape(id))
	return check(resp, err)
}

func (c *Client) Health(ctx context.Context) (*api.Health, error) {
	out := &api.Health{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(out).
		Get(c.base + api.PathHealth)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	if body, ok := resp.Error().(*api.ErrorResponse); ok && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Detail = body.Error
		apiErr.Kind = body.Kind
	}
	return apiErr
}
