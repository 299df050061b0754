package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultDeepLBaseURL is the DeepL API Free base; the paid plan uses
// api.deepl.com with the same paths.
const DefaultDeepLBaseURL = "https://api-free.deepl.com/v2"

// deeplTargets maps language codes to DeepL's uppercase region-qualified
// target codes where they differ.
var deeplTargets = map[string]string{
	"zh-cn": "ZH-HANS",
	"zh-tw": "ZH-HANT",
	"zh":    "ZH-HANS",
	"en":    "EN-US",
	"pt":    "PT-BR",
}

func deeplTarget(lang string) string {
	if t, ok := deeplTargets[strings.ToLower(lang)]; ok {
		return t
	}
	return strings.ToUpper(lang)
}

// deepl talks to the DeepL REST API. DeepL handles a list of texts
// natively, so no batching protocol is needed.
type deepl struct {
	name    string
	baseURL string
	apiKey  string
	http    *resty.Client
}

func newDeepL(cfg Config, apiKey string) Translator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultDeepLBaseURL
	}
	return &deepl{
		name:    cfg.displayName(),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    resty.New().SetTimeout(cfg.effectiveTimeout()),
	}
}

func (d *deepl) Name() string { return d.name }

func (d *deepl) Translate(ctx context.Context, texts []string, srcLang, tgtLang string) ([]string, error) {
	form := url.Values{}
	for _, t := range texts {
		form.Add("text", t)
	}
	form.Set("target_lang", deeplTarget(tgtLang))
	if srcLang != "" && !strings.EqualFold(srcLang, "auto") {
		form.Set("source_lang", strings.ToUpper(srcLang))
	}

	var reply struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
		Message string `json:"message"`
	}

	resp, err := d.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "DeepL-Auth-Key "+d.apiKey).
		SetFormDataFromValues(form).
		SetResult(&reply).
		Post(d.baseURL + "/translate")
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", d.name, err)
	}
	if resp.StatusCode() == 429 {
		return nil, &RateLimitError{
			Backend:    d.name,
			RetryAfter: parseRetryDelay(resp.Body()),
			Err:        fmt.Errorf("%s", truncate(resp.String(), 300)),
		}
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s: status %s: %s", d.name, resp.Status(), truncate(resp.String(), 300))
	}

	if len(reply.Translations) != len(texts) {
		return nil, countError(d.name, len(texts), len(reply.Translations))
	}
	out := make([]string, len(texts))
	for i, tr := range reply.Translations {
		out[i] = tr.Text
	}
	return out, nil
}
