package embedding

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps an OpenAI-compatible client used for embedding generation.
type Client struct {
	client *openai.Client
}

// NewClient creates a client for the given API key and optional base URL.
// An empty baseURL targets the OpenAI API, which then requires an API key.
// Self-hosted OpenAI-compatible servers usually ignore the key.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" && baseURL == "" {
		return nil, fmt.Errorf("embedding API key not set (EMBED_API_KEY or OPENAI_API_KEY)")
	}
	if apiKey == "" {
		apiKey = "unused"
	}

	// Retries are handled by the embedder's backoff loop.
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client for use in other packages (e.g., entity extraction).
func (c *Client) Client() *openai.Client {
	return c.client
}
