// Package openai is a minimal chat completions client, just enough for
// generating research insights from sampled posts.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"hcpresearch-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("platforms/openai")

const DefaultBaseUrl = "https://api.openai.com"
const DefaultModel = "gpt-4"

// temperature the dashboards always used, low enough to keep the
// insight structure stable between runs
const defaultTemperature = 0.3

type Client struct {
	http  *resty.Client
	model string
}

func NewClient(baseUrl, apiKey, model string) *Client {
	client := restyutil.NewClient(restyutil.Options{
		TracerName: "platforms/openai/http",
	})
	client.SetBaseURL(baseUrl)
	client.SetAuthToken(apiKey)
	client.SetHeader("content-type", "application/json")

	if model == "" {
		model = DefaultModel
	}
	return &Client{http: client, model: model}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionPayload struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends a single system + user exchange and returns the
// assistant's reply text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "Complete")
	defer span.End()
	span.SetAttributes(attribute.String("model", c.model))

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(completionPayload{
			Model: c.model,
			Messages: []message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
			Temperature: defaultTemperature,
		}).
		Post("/v1/chat/completions")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion request failed")
		return "", err
	}

	var body completionResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected completion response format")
		return "", fmt.Errorf("parse openai response: %w", err)
	}
	if body.Error != nil {
		err := fmt.Errorf("openai error (%s): %s", body.Error.Type, body.Error.Message)
		span.RecordError(err)
		span.SetStatus(codes.Error, "openai reported failure")
		return "", err
	}
	if len(body.Choices) == 0 {
		err := fmt.Errorf("openai returned no choices")
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty completion")
		return "", err
	}
	return body.Choices[0].Message.Content, nil
}
