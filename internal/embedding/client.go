package embedding

import (
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ClientConfig holds the credentials for the OpenAI API.
type ClientConfig struct {
	APIKey  string
	BaseURL string // Optional, for proxies and compatible gateways
}

// Client wraps the OpenAI client shared by embedding and transcription.
type Client struct {
	client *openai.Client
}

// NewClient creates an OpenAI client from explicit configuration.
// It returns an error if no API key is given.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client for use in other packages (e.g., transcription).
func (c *Client) Client() *openai.Client {
	return c.client
}
