package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ymylive/translator/langmeta"
)

// DefaultOpenAIBaseURL points at OpenRouter, which fronts most
// OpenAI-compatible models.
const DefaultOpenAIBaseURL = "https://openrouter.ai/api/v1"

// openAI talks to any OpenAI-compatible chat completions endpoint using
// the delimiter batching protocol from prompts.go.
type openAI struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	prompt  string
	extra   map[string]string
	http    *resty.Client
}

func newOpenAI(cfg Config, apiKey string) Translator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &openAI{
		name:    cfg.displayName(),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   cfg.Model,
		prompt:  cfg.Prompt,
		extra:   cfg.Extra,
		http:    resty.New().SetTimeout(cfg.effectiveTimeout()),
	}
}

func (o *openAI) Name() string { return o.name }

func (o *openAI) Translate(ctx context.Context, texts []string, srcLang, tgtLang string) ([]string, error) {
	delim := fmt.Sprintf("<<<RENPYSEP:%d>>>", time.Now().UnixMilli())
	system := ResolvePrompt(o.prompt, langmeta.Resolve(tgtLang).Name)

	out, err := o.call(ctx, texts, system, delim)
	if err == nil {
		return out, nil
	}
	// One strict retry on an unparsable-but-successful reply: tighten the
	// protocol rather than burning the whole fallback chain.
	if _, rate := err.(*RateLimitError); !rate {
		if strings.Contains(err.Error(), "unparsable reply") {
			return o.call(ctx, texts, system+strictSuffix, delim)
		}
	}
	return nil, err
}

func (o *openAI) call(ctx context.Context, texts []string, system, delim string) ([]string, error) {
	items := make([]string, len(texts))
	for i, t := range texts {
		items[i] = fmt.Sprintf("%d|%s", i+1, strings.ReplaceAll(t, "\n", "<NL>"))
	}

	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	body := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
	}{
		Model: o.model,
		Messages: []msg{
			{Role: "system", Content: system},
			{Role: "user", Content: fmt.Sprintf(
				"DELIMITER:\n%s\nINPUTS (format index|text):\n%s\nOutput format (must match): index|translation joined by delimiter.",
				delim, strings.Join(items, delim))},
		},
		Temperature: 0.2,
	}

	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	resp, err := o.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+o.apiKey).
		SetHeader("HTTP-Referer", "http://localhost").
		SetHeader("X-Title", "translator").
		SetHeaders(o.extra).
		SetBody(body).
		SetResult(&reply).
		Post(o.baseURL + "/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", o.name, err)
	}
	if resp.StatusCode() == 429 {
		return nil, &RateLimitError{
			Backend:    o.name,
			RetryAfter: parseRetryDelay(resp.Body()),
			Err:        fmt.Errorf("%s", truncate(resp.String(), 300)),
		}
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s: status %s: %s", o.name, resp.Status(), truncate(resp.String(), 300))
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("%s: API error: %s", o.name, reply.Error.Message)
	}
	if len(reply.Choices) == 0 {
		return nil, fmt.Errorf("%s: no choices in reply", o.name)
	}

	parts, err := parseBatchReply(reply.Choices[0].Message.Content, delim, len(texts))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.name, err)
	}
	if len(parts) != len(texts) {
		return nil, countError(o.name, len(texts), len(parts))
	}
	return parts, nil
}
