// Package ai is the gateway client: structured command suggestions over an
// OpenAI-compatible chat completion endpoint, free-form streaming chat and a
// health probe.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/ports"
)

const (
	completionsPath = "/chat/completions"
	healthPath      = "/health"
	temperature     = 0.2
)

// Client implements ports.SuggestionClient.
type Client struct {
	apiBase    string
	root       string
	model      string
	credential string
	httpClient *http.Client
	health     *http.Client
	logger     ports.Logger
}

// NewClient builds a client from frozen session settings.
func NewClient(settings domain.Settings, logger ports.Logger) *Client {
	return &Client{
		apiBase:    APIBaseURL(settings.BaseURL),
		root:       RootURL(settings.BaseURL),
		model:      settings.Model,
		credential: settings.Credential(),
		httpClient: &http.Client{Timeout: settings.Timeout},
		health:     &http.Client{Timeout: domain.HealthProbeTimeout},
		logger:     logger,
	}
}

// Suggest implements ports.SuggestionClient. It makes one blocking call and
// never guesses a command from an unusable reply.
func (c *Client) Suggest(ctx context.Context, sc domain.SuggestionContext) (domain.Suggestion, error) {
	messages, err := buildSuggestionMessages(sc)
	if err != nil {
		return domain.Suggestion{}, err
	}

	resp, err := c.post(ctx, c.httpClient, chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return domain.Suggestion{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Suggestion{}, domain.NewNetworkError(0, "read response", err)
	}
	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return domain.Suggestion{}, domain.NewParseError("completion is not valid JSON", string(body), err)
	}
	content := completion.FirstMessage()
	if content == "" {
		return domain.Suggestion{}, domain.NewParseError("completion has no content", string(body), nil)
	}

	suggestion, err := ParseSuggestion(content)
	if err != nil {
		c.debug("unparseable suggestion", map[string]interface{}{"raw": content})
		return domain.Suggestion{}, err
	}
	return suggestion, nil
}

// ChatStream implements ports.SuggestionClient. The sequence yields content
// deltas from an SSE stream and stops at [DONE]. The request timeout does not
// apply; the stream is bounded by ctx only.
func (c *Client) ChatStream(ctx context.Context, messages []domain.ChatMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.post(ctx, &http.Client{}, chatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: temperature,
			Stream:      true,
		})
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		for chunk, err := range readSSE(ctx, resp.Body) {
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// Health implements ports.SuggestionClient with a GET on the server root.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.root+healthPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.health.Do(req)
	if err != nil {
		c.debug("health probe failed", map[string]interface{}{"url": c.root + healthPath, "error": err.Error()})
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Endpoint returns the completions URL, used by doctor output.
func (c *Client) Endpoint() string {
	return c.apiBase + completionsPath
}

func (c *Client) post(ctx context.Context, client *http.Client, payload chatCompletionRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewNetworkError(0, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.credential != "" {
		req.Header.Set("Authorization", "Bearer "+c.credential)
	}

	c.debug("gateway request", map[string]interface{}{"url": req.URL.String(), "model": payload.Model, "stream": payload.Stream})
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, domain.NewNetworkError(0, "gateway unreachable", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	message := strings.TrimSpace(string(raw))
	var errResp errorResponse
	if json.Unmarshal(raw, &errResp) == nil && errResp.Error != nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	if message == "" {
		message = resp.Status
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, domain.NewAuthError(resp.StatusCode, message)
	}
	return nil, domain.NewNetworkError(resp.StatusCode, message, nil)
}

func (c *Client) debug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

var _ ports.SuggestionClient = (*Client)(nil)
