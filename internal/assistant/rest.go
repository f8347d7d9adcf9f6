package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RESTGenerator calls the Generative Language REST API directly. It is used
// when requests must go through a proxy or gateway in front of the API.
type RESTGenerator struct {
	client *resty.Client
	apiKey string
}

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restRequest struct {
	Contents []restContent `json:"contents"`
}

type restResponse struct {
	Candidates []struct {
		Content restContent `json:"content"`
	} `json:"candidates"`
}

type restError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewRESTGenerator creates a generator for the API rooted at baseURL,
// e.g. https://generativelanguage.googleapis.com/v1beta.
func NewRESTGenerator(baseURL, apiKey string, timeout time.Duration) *RESTGenerator {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &RESTGenerator{client: client, apiKey: apiKey}
}

// Generate posts a generateContent request and joins the text parts of the
// first candidate.
func (g *RESTGenerator) Generate(ctx context.Context, model string, turns []Turn) (string, error) {
	body := restRequest{Contents: make([]restContent, len(turns))}
	for i, t := range turns {
		body.Contents[i] = restContent{Role: t.Role, Parts: []restPart{{Text: t.Text}}}
	}

	var result restResponse
	var apiErr restError
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", g.apiKey).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post(fmt.Sprintf("/models/%s:generateContent", model))
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("generate request failed: %s: %s", resp.Status(), apiErr.Error.Message)
		}
		return "", fmt.Errorf("generate request failed: %s", resp.Status())
	}

	if len(result.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
