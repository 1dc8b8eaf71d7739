package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/matst80/slask-instant/pkg/types"
)

const defaultTimeout = 10 * time.Second

// Client is a search service backed by a slask-instant server.
type Client struct {
	BaseUrl    string
	ApiKey     string
	HttpClient *http.Client
}

func NewClient(baseUrl, apiKey string) *Client {
	return &Client{
		BaseUrl:    strings.TrimRight(baseUrl, "/"),
		ApiKey:     apiKey,
		HttpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) fail(req *types.SearchRequest, err error) error {
	return &types.SearchError{Index: req.Index, Query: req.Query, Err: err}
}

// Search sends the request as query parameters to /search. Every failure,
// transport or server side, is returned as *types.SearchError.
func (c *Client) Search(ctx context.Context, req *types.SearchRequest) (*types.ResponsePayload, error) {
	values, err := req.Values()
	if err != nil {
		return nil, c.fail(req, fmt.Errorf("error encoding request: %w", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseUrl+"/search?"+values.Encode(), nil)
	if err != nil {
		return nil, c.fail(req, fmt.Errorf("error creating request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.New().String())
	if c.ApiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.ApiKey)
	}

	resp, err := c.HttpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, c.fail(req, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(req, fmt.Errorf("error reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		msg := errorResponse{}
		if sonic.Unmarshal(body, &msg) == nil && msg.Error != "" {
			return nil, c.fail(req, fmt.Errorf("status %d: %s", resp.StatusCode, msg.Error))
		}
		return nil, c.fail(req, fmt.Errorf("status %d", resp.StatusCode))
	}

	payload := &types.ResponsePayload{}
	if err = sonic.Unmarshal(body, payload); err != nil {
		return nil, c.fail(req, fmt.Errorf("error decoding response: %w", err))
	}
	return payload, nil
}

// Indexes lists the index names served by the server.
func (c *Client) Indexes(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseUrl+"/indexes", nil)
	if err != nil {
		return nil, err
	}
	if c.ApiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.ApiKey)
	}
	resp, err := c.HttpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-OK response: %d", resp.StatusCode)
	}
	names := []string{}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return names, sonic.Unmarshal(body, &names)
}
