package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crm_onboarding_bot/internal/domain/customer"

	"github.com/sirupsen/logrus"
)

const maxErrorBody = 4 << 10

// Config locates the CRM endpoints.
type Config struct {
	BaseURL           string
	APIKey            string
	EndpointUsers     string
	EndpointRegister  string
	EndpointManagers  string
	EndpointBonusList string
	Timeout           time.Duration
}

// Client talks to the CRM JSON API. It implements customer.Gateway and manager.Directory.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *logrus.Entry
}

func NewClient(cfg Config, logger *logrus.Entry) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger.WithField("component", "crm_client"),
	}
}

// post sends body as JSON and decodes the answer into out. Transport failures and non-2xx
// statuses come back as a *customer.CrmError of kind network.
func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	url := c.cfg.BaseURL + endpoint
	logCtx := c.logger.WithField("endpoint", endpoint)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logCtx.WithError(err).Error("CRM request failed")
		return &customer.CrmError{Kind: customer.KindNetwork, Message: "Ошибка соединения с CRM", Err: err}
	}
	defer resp.Body.Close()

	logCtx = logCtx.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(started).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logCtx.WithField("body", string(text)).Error("CRM returned an error status")
		return &customer.CrmError{
			Kind:    customer.KindNetwork,
			Message: fmt.Sprintf("Ошибка HTTP: %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logCtx.WithError(err).Error("CRM response is not valid JSON")
		return &customer.CrmError{Kind: customer.KindUnknown, Message: "Некорректный ответ CRM", Err: err}
	}
	logCtx.Debug("CRM request completed")
	return nil
}
