package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// ParaphraseName is the registry name of the paraphraser transform.
const ParaphraseName = "paraphrase"

// Paraphraser sends text to an HTTP rewriting service. The service takes
// {"text": "..."} and answers with the same shape.
type Paraphraser struct {
	client   *resty.Client
	endpoint string
	timeout  time.Duration
}

type paraphraseMessage struct {
	Text string `json:"text"`
}

// NewParaphraser creates a client for endpoint.
func NewParaphraser(endpoint string, timeout time.Duration, userAgent string) *Paraphraser {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &Paraphraser{client: client, endpoint: endpoint, timeout: timeout}
}

// Paraphrase returns the rewritten text.
func (p *Paraphraser) Paraphrase(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	var out paraphraseMessage
	res, err := p.client.R().
		SetContext(ctx).
		SetBody(paraphraseMessage{Text: text}).
		SetResult(&out).
		Post(p.endpoint)
	if err != nil {
		return "", fmt.Errorf("paraphrase request: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("paraphrase request: HTTP %d", res.StatusCode())
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", fmt.Errorf("paraphrase response is empty")
	}
	return out.Text, nil
}

// Func adapts the paraphraser to a transform whose requests end with ctx
// or after the client timeout. Failures fall back to the input text.
func (p *Paraphraser) Func(ctx context.Context) Func {
	return func(s string) (string, error) {
		cctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		out, err := p.Paraphrase(cctx, s)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", p.endpoint).Msg("Paraphrase failed, keeping original text")
			return s, nil
		}
		return out, nil
	}
}
