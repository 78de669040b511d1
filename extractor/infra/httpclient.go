package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"autocomplete-extractor/extractor/domain"
)

const defaultHTTPTimeout = 15 * time.Second

// Client consulta o endpoint de autocomplete e classifica a resposta bruta.
//
// Formato esperado: GET {base}/{version}/autocomplete?query={prefix} com corpo
// {"version": str, "count": int, "results": [str, ...]} em 2xx.
type Client struct {
	BaseURL string
	HTTP    *http.Client // nil usa um client com timeout padrão
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

type autocompleteResponse struct {
	Version string   `json:"version"`
	Count   int      `json:"count"`
	Results []string `json:"results"`
}

// Do implementa domain.Transport.
func (c *Client) Do(ctx context.Context, v domain.Version, prefix string) domain.Outcome {
	u := fmt.Sprintf("%s/%s/autocomplete?query=%s", strings.TrimRight(c.BaseURL, "/"), v, url.QueryEscape(prefix))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		// request que nem monta é bug de construção, não erro de rede
		return domain.Outcome{Kind: domain.OutcomeFatal, Err: fmt.Errorf("build request: %w", err)}
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return domain.Outcome{Kind: domain.OutcomeTransient, Err: fmt.Errorf("request %s %q: %w", v, prefix, err)}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.Outcome{
			Kind:       domain.OutcomeRateLimited,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return domain.Outcome{
			Kind: domain.OutcomeTransient,
			Err:  fmt.Errorf("server error %d for %s %q", resp.StatusCode, v, prefix),
		}
	case resp.StatusCode >= 400:
		return domain.Outcome{
			Kind: domain.OutcomeFatal,
			Err:  fmt.Errorf("client error %d for %s %q", resp.StatusCode, v, prefix),
		}
	}

	var body autocompleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// corpo malformado em 2xx: trata como transiente e retenta
		return domain.Outcome{Kind: domain.OutcomeTransient, Err: fmt.Errorf("decode response for %s %q: %w", v, prefix, err)}
	}

	return domain.Outcome{
		Kind:  domain.OutcomeSuccess,
		Names: body.Results,
		Count: body.Count,
	}
}

// parseRetryAfter aceita o formato em segundos. Data HTTP absoluta não é usada
// por este endpoint; em caso de valor estranho, devolve 0 e o chamador aplica
// o cooldown padrão.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
