package mailerlite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/studiocoach/course-api/internal/config"
)

const defaultBaseURL = "https://connect.mailerlite.com/api"

// Client talks to the MailerLite subscribers API.
type Client interface {
	UpsertSubscriber(ctx context.Context, sub Subscriber) error
}

// Subscriber is the createOrUpdate payload. GroupIDs places the subscriber
// into named lists (e.g. the lead-magnet download group).
type Subscriber struct {
	Email    string
	Name     string
	IP       string
	GroupIDs []string
}

type client struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewClient(cfg *config.Config) Client {
	return &client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
		token:   cfg.MailerLiteAPIToken,
	}
}

func (c *client) UpsertSubscriber(ctx context.Context, sub Subscriber) error {
	payload := map[string]interface{}{
		"email": sub.Email,
		"fields": map[string]string{
			"name": sub.Name,
		},
		"groups":        sub.GroupIDs,
		"ip_address":    sub.IP,
		"status":        "active",
		"subscribed_at": time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal subscriber: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/subscribers", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build subscriber request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailerlite request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mailerlite responded %d: %s", resp.StatusCode, detail)
	}
	return nil
}
