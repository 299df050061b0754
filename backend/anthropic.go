package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/ymylive/translator/langmeta"
)

// DefaultAnthropicBaseURL is the Anthropic messages API base.
const DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"

const anthropicVersion = "2023-06-01"

// anthropic talks to the Anthropic messages API. The batch rides in one
// user message as numbered lines; the reply is expected as numbered lines
// back, with the same tolerant parsing as the chat adapters.
type anthropic struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	prompt  string
	http    *resty.Client
}

func newAnthropic(cfg Config, apiKey string) Translator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	return &anthropic{
		name:    cfg.displayName(),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   cfg.Model,
		prompt:  cfg.Prompt,
		http:    resty.New().SetTimeout(cfg.effectiveTimeout()),
	}
}

func (a *anthropic) Name() string { return a.name }

func (a *anthropic) Translate(ctx context.Context, texts []string, srcLang, tgtLang string) ([]string, error) {
	system := ResolvePrompt(a.prompt, langmeta.Resolve(tgtLang).Name)

	var user strings.Builder
	fmt.Fprintf(&user, "Translate the following %d lines. Reply with exactly %d lines in the format index|translation, one per line.\n\n",
		len(texts), len(texts))
	for i, t := range texts {
		fmt.Fprintf(&user, "%d|%s\n", i+1, strings.ReplaceAll(t, "\n", "<NL>"))
	}

	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	body := struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    string `json:"system,omitempty"`
		Messages  []msg  `json:"messages"`
	}{
		Model:     a.model,
		MaxTokens: 8192,
		System:    system,
		Messages:  []msg{{Role: "user", Content: user.String()}},
	}

	var reply struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	resp, err := a.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", a.apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetBody(body).
		SetResult(&reply).
		Post(a.baseURL + "/messages")
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", a.name, err)
	}
	if resp.StatusCode() == 429 {
		return nil, &RateLimitError{
			Backend:    a.name,
			RetryAfter: parseRetryDelay(resp.Body()),
			Err:        fmt.Errorf("%s", truncate(resp.String(), 300)),
		}
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s: status %s: %s", a.name, resp.Status(), truncate(resp.String(), 300))
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("%s: API error: %s", a.name, reply.Error.Message)
	}

	var content string
	for _, block := range reply.Content {
		if block.Type == "text" {
			content = block.Text
			break
		}
	}
	if content == "" {
		return nil, fmt.Errorf("%s: no text content in reply", a.name)
	}

	parts, err := parseBatchReply(content, "\n", len(texts))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}
	if len(parts) != len(texts) {
		return nil, countError(a.name, len(texts), len(parts))
	}
	return parts, nil
}
