package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Firebase implements Client against the Firebase Realtime Database REST
// surface: GET/PUT/DELETE on {databaseURL}/{path}.json.
type Firebase struct {
	httpClient *resty.Client
	authToken  string
	logger     *zap.Logger
}

func NewFirebase(databaseURL, authToken string, logger *zap.Logger) *Firebase {
	client := resty.New().
		SetBaseURL(databaseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Firebase{
		httpClient: client,
		authToken:  authToken,
		logger:     logger,
	}
}

func (f *Firebase) request(ctx context.Context) *resty.Request {
	req := f.httpClient.R().SetContext(ctx)
	if f.authToken != "" {
		req.SetQueryParam("auth", f.authToken)
	}
	return req
}

func (f *Firebase) Get(ctx context.Context, path string) (json.RawMessage, error) {
	resp, err := f.request(ctx).Get("/" + path + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrUnavailable, path, resp.StatusCode())
	}
	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

func (f *Firebase) Set(ctx context.Context, path string, value any) error {
	resp, err := f.request(ctx).SetBody(value).Put("/" + path + ".json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: PUT %s returned %d", ErrUnavailable, path, resp.StatusCode())
	}
	return nil
}

func (f *Firebase) Remove(ctx context.Context, path string) error {
	resp, err := f.request(ctx).Delete("/" + path + ".json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: DELETE %s returned %d", ErrUnavailable, path, resp.StatusCode())
	}
	return nil
}

func (f *Firebase) List(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	raw, err := f.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return map[string]json.RawMessage{}, nil
	}
	var records map[string]json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		f.logger.Error("Failed to decode record collection",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}
