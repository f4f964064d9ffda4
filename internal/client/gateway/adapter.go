package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GregMSThompson/dashboard-builder/internal/dto"
	"github.com/GregMSThompson/dashboard-builder/internal/errs"
	"github.com/GregMSThompson/dashboard-builder/internal/models"
)

const defaultTimeout = 10 * time.Second

// Adapter talks to the dashboard gateway over HTTP and maps error responses
// back to the tagged errors in internal/errs.
type Adapter struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewAdapter uses a client with a 10s timeout when httpClient is nil.
func NewAdapter(log *slog.Logger, baseURL string, httpClient *http.Client) *Adapter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		log:     log,
	}
}

func (a *Adapter) ListWidgets(ctx context.Context) (dto.WidgetListResponse, error) {
	var out dto.WidgetListResponse
	err := a.do(ctx, http.MethodGet, "/widgets", nil, &out)
	return out, err
}

func (a *Adapter) CreateWidget(ctx context.Context, w models.Widget) (dto.MutationResponse, error) {
	var out dto.MutationResponse
	err := a.do(ctx, http.MethodPost, "/widgets", w, &out)
	return out, err
}

func (a *Adapter) DeleteWidget(ctx context.Context, widgetID string) (dto.MutationResponse, error) {
	var out dto.MutationResponse
	err := a.do(ctx, http.MethodDelete, "/widgets/"+url.PathEscape(widgetID), nil, &out)
	return out, err
}

func (a *Adapter) GetDataStream(ctx context.Context, identifier string) (dto.DataStreamResponse, error) {
	var out dto.DataStreamResponse
	err := a.do(ctx, http.MethodGet, "/data-stream/"+url.PathEscape(identifier), nil, &out)
	return out, err
}

func (a *Adapter) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("gateway request failed", "method", method, "path", path, "error", err)
		return errs.NewNetworkError(0, "gateway unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return a.mapError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.NewNetworkError(resp.StatusCode, "invalid gateway response", err)
	}
	return nil
}

func (a *Adapter) mapError(method, path string, resp *http.Response) error {
	var body dto.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	if body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}

	a.log.Debug("gateway error response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"code", body.Code,
		"error", body.Error)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return errs.NewNotFoundError(body.Error)
	case http.StatusBadRequest:
		return errs.NewValidationError(body.Error)
	case http.StatusConflict:
		return errs.NewAlreadyExistsError(body.Error)
	default:
		msg := body.Message
		if msg == "" {
			msg = fmt.Sprintf("gateway returned %d", resp.StatusCode)
		}
		return errs.NewNetworkError(resp.StatusCode, msg, fmt.Errorf("%s", body.Error))
	}
}
