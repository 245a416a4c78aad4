package rewards

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client calls the external reward ledger and achievement tracker over HTTP.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &Client{http: client}
}

type grantRequest struct {
	UserID string `json:"userId"`
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

type progressRequest struct {
	UserID         string `json:"userId"`
	AchievementKey string `json:"achievementKey"`
	Delta          int    `json:"progressDelta"`
}

func (c *Client) GrantExperience(ctx context.Context, userID string, amount int, reason string) error {
	return c.post(ctx, "/functions/grant-experience", grantRequest{UserID: userID, Amount: amount, Reason: reason})
}

func (c *Client) RecordProgress(ctx context.Context, userID, achievementKey string, delta int) error {
	return c.post(ctx, "/functions/record-achievement-progress", progressRequest{
		UserID:         userID,
		AchievementKey: achievementKey,
		Delta:          delta,
	})
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}
