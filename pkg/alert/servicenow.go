package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flashnarrative/flashnarrative/pkg/config"
)

type serviceNowClient struct {
	cfg     config.ServiceNowConfig
	baseURL string
	client  *http.Client
}

func newServiceNowClient(cfg config.ServiceNowConfig) *serviceNowClient {
	c := &serviceNowClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
	if cfg.Instance != "" {
		c.baseURL = fmt.Sprintf("https://%s.service-now.com", cfg.Instance)
	}
	return c
}

// Create files an incident through the table API with urgency and impact
// both set to medium.
func (c *serviceNowClient) Create(ctx context.Context, shortDescription, description string) error {
	if c.baseURL == "" || c.cfg.User == "" {
		return fmt.Errorf("servicenow: not configured")
	}

	payload := map[string]string{
		"short_description": shortDescription,
		"description":       description,
		"urgency":           "2",
		"impact":            "2",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/now/table/incident", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("servicenow: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("servicenow: incident create returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
