package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DispatcherClient communicates with the external notification dispatcher
// over its internal API. Delivery is best effort; callers never treat a
// dispatch failure as fatal.
type DispatcherClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewDispatcherClient(baseURL string, log *zap.Logger) *DispatcherClient {
	return &DispatcherClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type NotifyRequest struct {
	UserID  string         `json:"user_id"`
	Event   string         `json:"event"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

func (c *DispatcherClient) SendNotification(ctx context.Context, req NotifyRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/notify", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("dispatcher unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		c.log.Warn("dispatcher returned non-200", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("dispatcher returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
