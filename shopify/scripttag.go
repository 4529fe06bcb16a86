// Package shopify talks to the Shopify admin REST API.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const DefaultAPIVersion = "2023-07"

var ErrInvalidShop = errors.New("shop must be a *.myshopify.com domain")

var shopDomain = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// ShopDomain normalizes shop and reports whether it is a bare
// myshopify.com host, with no scheme, port or path.
func ShopDomain(shop string) (string, bool) {
	shop = strings.ToLower(strings.TrimSpace(shop))
	return shop, shopDomain.MatchString(shop)
}

type Client struct {
	HTTP       *http.Client
	APIVersion string
	// BaseURL overrides https://{shop}; the shop is then ignored.
	BaseURL string
}

func NewClient(apiVersion string) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &Client{
		HTTP:       &http.Client{Timeout: 15 * time.Second},
		APIVersion: apiVersion,
	}
}

type ScriptTag struct {
	ID           int64  `json:"id,omitempty"`
	Event        string `json:"event"`
	Src          string `json:"src"`
	DisplayScope string `json:"display_scope"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("failed to create script tag: %d %s", e.Status, e.Body)
}

// CreateScriptTag registers src to load on every storefront page of shop.
func (c *Client) CreateScriptTag(ctx context.Context, shop, accessToken, src string) (*ScriptTag, error) {
	shop, ok := ShopDomain(shop)
	if !ok {
		return nil, ErrInvalidShop
	}

	body, err := json.Marshal(map[string]ScriptTag{
		"script_tag": {
			Event:        "onload",
			Src:          src,
			DisplayScope: "online_store",
		},
	})
	if err != nil {
		return nil, err
	}

	base := c.BaseURL
	if base == "" {
		base = "https://" + shop
	}
	url := fmt.Sprintf("%s/admin/api/%s/script_tags.json", base, c.APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build script tag request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", accessToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post script tag: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read script tag response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	var created struct {
		ScriptTag ScriptTag `json:"script_tag"`
	}
	err = json.Unmarshal(raw, &created)
	if err != nil {
		return nil, fmt.Errorf("decode script tag response: %w", err)
	}
	return &created.ScriptTag, nil
}
