// Package unsplash searches stock photos for the email template editor.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no access key is set.
var ErrNotConfigured = fmt.Errorf("unsplash access key is not configured")

const perPage = 10

type Client struct {
	APIURL     string
	AccessKey  string
	HTTPClient *http.Client
}

func NewClient(apiURL, accessKey string) *Client {
	return &Client{
		APIURL:     strings.TrimRight(apiURL, "/"),
		AccessKey:  accessKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type Image struct {
	URL string `json:"url"`
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
			Thumb   string `json:"thumb"`
		} `json:"urls"`
	} `json:"results"`
}

// Search returns up to ten landscape photos matching query.
func (c *Client) Search(ctx context.Context, query string) ([]Image, error) {
	if c.AccessKey == "" {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", fmt.Sprint(perPage))
	q.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+c.AccessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach unsplash: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash search returned %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode unsplash response: %w", err)
	}

	images := make([]Image, 0, len(body.Results))
	for _, r := range body.Results {
		u := r.URLs.Regular
		if u == "" {
			u = r.URLs.Small
		}
		if u == "" {
			u = r.URLs.Thumb
		}
		if u == "" {
			continue
		}
		images = append(images, Image{URL: u})
	}
	return images, nil
}
