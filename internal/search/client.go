// Package search talks to the search wrapper service that fronts the
// message index. Indexing is best-effort: failures are logged and never
// propagate back into the message path.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"chat-service/internal/models"
)

// Document is the indexed representation of a message.
type Document struct {
	ChatID    string `json:"chat_id"`
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
}

type indexRequest struct {
	ChatID  string   `json:"chat_id"`
	Message document `json:"message"`
}

type document struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Index submits one message document to the wrapper service.
func (c *Client) Index(ctx context.Context, room string, msg *models.Message) error {
	body, err := json.Marshal(indexRequest{
		ChatID: room,
		Message: document{
			ID:        msg.ID,
			Text:      msg.Content,
			Timestamp: msg.Timestamp.Format(time.RFC3339),
			Username:  msg.Username,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/index", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("index request failed with status %d", resp.StatusCode)
	}
	return nil
}

// Search queries the index for messages in one room matching q.
func (c *Client) Search(ctx context.Context, room, q string) ([]Document, error) {
	params := url.Values{}
	params.Set("chat_id", room)
	params.Set("q", q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}

	var docs []Document
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, err
	}
	return docs, nil
}
