package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mbolis/cart-survey/log"
	"github.com/mbolis/cart-survey/model"
)

// PageContext is the metadata sent along with the answers.
type PageContext struct {
	URL  string
	Cart []model.CartItem
}

// RejectedError is a non-2xx answer from the ingestion endpoint.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("submission rejected: %d %s", e.Status, e.Message)
}

// Client posts responses to the ingestion endpoint. One attempt per call:
// failures are logged and counted, never retried.
type Client struct {
	SubmitURL string
	HTTP      *http.Client

	now      func() time.Time
	failures atomic.Int64
}

func NewClient(submitURL string) *Client {
	return &Client{
		SubmitURL: submitURL,
		HTTP:      http.DefaultClient,
		now:       time.Now,
	}
}

// Payload bundles answers with the submission metadata.
func Payload(answers Answers, page PageContext, now time.Time) model.Response {
	r := make(model.Response, len(answers)+3)
	for k, v := range answers {
		r[k] = v
	}
	cart := page.Cart
	if cart == nil {
		cart = []model.CartItem{}
	}
	r[model.FieldTimestamp] = model.FormatTimestamp(now)
	r[model.FieldPageURL] = page.URL
	r[model.FieldCartItems] = cart
	return r
}

// Submit sends one response and returns the stored record id.
func (c *Client) Submit(ctx context.Context, answers Answers, page PageContext) (id string, err error) {
	defer func() {
		if err != nil {
			n := c.failures.Add(1)
			log.With(log.Fields{"url": c.SubmitURL, "failures": n}).Errorf("widget.submit: %s", err)
		}
	}()

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	body, err := json.Marshal(Payload(answers, page, now()))
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.SubmitURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post submission: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var rejected struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &rejected) != nil || rejected.Error == "" {
			rejected.Error = string(bytes.TrimSpace(raw))
		}
		return "", &RejectedError{Status: resp.StatusCode, Message: rejected.Error}
	}

	var created struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	err = json.NewDecoder(resp.Body).Decode(&created)
	if err != nil {
		return "", fmt.Errorf("decode submission result: %w", err)
	}
	return created.ID, nil
}

// Failures counts submissions that did not reach the store.
func (c *Client) Failures() int64 {
	return c.failures.Load()
}
