package ideas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Nicnick-Xia/MindStorm/pkg/cache"
	"github.com/Nicnick-Xia/MindStorm/pkg/httputil"
	"github.com/Nicnick-Xia/MindStorm/pkg/observability"
)

// ErrService is returned for transport failures and error status codes
// from the generation endpoint. It marks the recoverable failure class:
// the node stays expandable and the user may retry.
var ErrService = errors.New("idea generation service error")

const (
	// DefaultBaseURL is the OpenAI API base. Any OpenAI-compatible server
	// (a local proxy, a gateway) works by overriding Config.BaseURL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the chat model used when Config.Model is empty.
	DefaultModel = "gpt-4o-mini"

	// defaultCacheTTL is how long generated ideas are reused for an
	// identical (model, concept, context path) request.
	defaultCacheTTL = 24 * time.Hour

	// requestTimeout bounds one HTTP round trip. The controller applies
	// its own overall deadline on top.
	requestTimeout = 25 * time.Second
)

const systemPrompt = `You are a brainstorming assistant for a mind-mapping tool.
Given a concept, reply with 3 to 5 distinct related sub-concepts.
Each must be short (under 5 words). Reply with one idea per line,
no numbering, no bullets, no commentary.`

// Config configures a Client.
type Config struct {
	BaseURL string        // endpoint base, defaults to DefaultBaseURL
	APIKey  string        // bearer token; empty only works against keyless proxies
	Model   string        // chat model, defaults to DefaultModel
	Cache   cache.Cache   // response cache, defaults to NullCache
	TTL     time.Duration // cache TTL, defaults to 24h
}

// Client generates ideas through an OpenAI-compatible chat completions
// endpoint. Responses are cached so re-seeding the same map replays
// instantly, and transient failures (network errors, 5xx, 429) are
// retried with exponential backoff before surfacing as ErrService.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	cache   cache.Cache
	ttl     time.Duration
}

// NewClient creates a Client from cfg, applying defaults for zero fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNullCache()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		cache:   cfg.Cache,
		ttl:     cfg.TTL,
	}
}

// Model returns the configured chat model.
func (c *Client) Model() string { return c.model }

// chat completions wire types, trimmed to the fields used here.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateIdeas asks the model for sub-concepts of concept, giving it the
// ancestor chain for disambiguation. A cached response is served without a
// network call. Hard failures return ErrService; a response the model left
// empty or in an unusable shape is treated as zero ideas, which the caller
// commits as a terminal leaf.
func (c *Client) GenerateIdeas(ctx context.Context, concept string, contextPath []string) ([]string, error) {
	key := cache.IdeaKey(c.model, concept, contextPath)
	if data, ok, _ := c.cache.Get(ctx, key); ok {
		var cached []string
		if err := json.Unmarshal(data, &cached); err == nil {
			observability.Cache().OnCacheHit(ctx, "ideas")
			return cached, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "ideas")

	var content string
	err := httputil.RetryWithBackoff(ctx, func() error {
		var reqErr error
		content, reqErr = c.complete(ctx, concept, contextPath)
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	parsed := ParseIdeas(content)
	if data, err := json.Marshal(parsed); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
			observability.Cache().OnCacheSet(ctx, "ideas", len(data))
		}
	}
	return parsed, nil
}

// complete performs one chat completions round trip and returns the raw
// assistant message content.
func (c *Client) complete(ctx context.Context, concept string, contextPath []string) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		Temperature: 0.8,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(concept, contextPath)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", httputil.Retryable(fmt.Errorf("%w: %v", ErrService, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: status %d", ErrService, resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", httputil.Retryable(err)
		}
		return "", err
	}

	var decoded chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		// Malformed body on a 200: treat as zero ideas, not a failure.
		return "", nil
	}
	if len(decoded.Choices) == 0 {
		return "", nil
	}
	return decoded.Choices[0].Message.Content, nil
}

// userPrompt renders the expansion request. The context path reads
// root-to-parent so the model sees how the user arrived at the concept.
func userPrompt(concept string, contextPath []string) string {
	if len(contextPath) == 0 {
		return fmt.Sprintf("Concept: %s", concept)
	}
	return fmt.Sprintf("Context: %s\nConcept: %s", strings.Join(contextPath, " > "), concept)
}

// ParseIdeas extracts idea lines from raw model output: one idea per line,
// leading bullets and numbering stripped, blanks and duplicates dropped,
// capped at MaxIdeas. An unusable response parses to zero ideas.
func ParseIdeas(content string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, MaxIdeas)
	for line := range strings.Lines(content) {
		idea := strings.TrimSpace(line)
		idea = strings.TrimLeft(idea, "-*•0123456789.) ")
		idea = strings.TrimSpace(idea)
		if idea == "" || seen[strings.ToLower(idea)] {
			continue
		}
		seen[strings.ToLower(idea)] = true
		out = append(out, idea)
		if len(out) == MaxIdeas {
			break
		}
	}
	return out
}
