package backend

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultGoogleBaseURL is the Cloud Translation v2 REST base.
const DefaultGoogleBaseURL = "https://translation.googleapis.com/language/translate/v2"

// google talks to the Cloud Translation REST API with an API key. Like
// DeepL it accepts a list of texts per request.
type google struct {
	name    string
	baseURL string
	apiKey  string
	http    *resty.Client
}

func newGoogle(cfg Config, apiKey string) Translator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultGoogleBaseURL
	}
	return &google{
		name:    cfg.displayName(),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    resty.New().SetTimeout(cfg.effectiveTimeout()),
	}
}

func (g *google) Name() string { return g.name }

func (g *google) Translate(ctx context.Context, texts []string, srcLang, tgtLang string) ([]string, error) {
	body := map[string]any{
		"q":      texts,
		"target": tgtLang,
		"format": "text",
	}
	if srcLang != "" && !strings.EqualFold(srcLang, "auto") {
		body["source"] = srcLang
	}

	var reply struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	resp, err := g.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", g.apiKey).
		SetBody(body).
		SetResult(&reply).
		Post(g.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", g.name, err)
	}
	if resp.StatusCode() == 429 {
		return nil, &RateLimitError{
			Backend:    g.name,
			RetryAfter: parseRetryDelay(resp.Body()),
			Err:        fmt.Errorf("%s", truncate(resp.String(), 300)),
		}
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s: status %s: %s", g.name, resp.Status(), truncate(resp.String(), 300))
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("%s: API error: %s", g.name, reply.Error.Message)
	}

	got := reply.Data.Translations
	if len(got) != len(texts) {
		return nil, countError(g.name, len(texts), len(got))
	}
	out := make([]string, len(texts))
	for i, tr := range got {
		// The v2 API HTML-escapes entities even in text mode.
		out[i] = html.UnescapeString(tr.TranslatedText)
	}
	return out, nil
}
