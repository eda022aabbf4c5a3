// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Inbound payload schemas. These gate intake before any pipeline
// instance is created; a payload rejected here never reaches the
// normalizer.
const (
	searchRequestSchema = `{
		"type": "object",
		"properties": {
			"query": {"type": "string", "minLength": 1},
			"limit": {"type": "integer", "minimum": 1}
		},
		"required": ["query"],
		"additionalProperties": false
	}`

	recommendRequestSchema = `{
		"type": "object",
		"properties": {
			"sku": {"type": "string", "minLength": 1},
			"limit": {"type": "integer", "minimum": 1}
		},
		"required": ["sku"],
		"additionalProperties": false
	}`

	webhookMessageSchema = `{
		"type": "object",
		"properties": {
			"from": {"type": "string", "minLength": 1},
			"message": {
				"type": "object",
				"properties": {
					"text": {"type": "string"}
				},
				"required": ["text"]
			}
		},
		"required": ["from", "message"]
	}`
)

// Validator holds the compiled inbound payload schemas.
type Validator struct {
	searchRequest    *gojsonschema.Schema
	recommendRequest *gojsonschema.Schema
	webhookMessage   *gojsonschema.Schema
}

func New() (*Validator, error) {
	search, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(searchRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile search request schema: %w", err)
	}
	recommend, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recommendRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile recommend request schema: %w", err)
	}
	webhook, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(webhookMessageSchema))
	if err != nil {
		return nil, fmt.Errorf("compile webhook message schema: %w", err)
	}

	return &Validator{
		searchRequest:    search,
		recommendRequest: recommend,
		webhookMessage:   webhook,
	}, nil
}

// ValidateSearchRequest checks a structured search payload.
func (v *Validator) ValidateSearchRequest(body []byte) error {
	return validate(v.searchRequest, body)
}

// ValidateRecommendRequest checks a structured recommendation payload.
func (v *Validator) ValidateRecommendRequest(body []byte) error {
	return validate(v.recommendRequest, body)
}

// ValidateWebhookMessage checks a conversational webhook payload.
func (v *Validator) ValidateWebhookMessage(body []byte) error {
	return validate(v.webhookMessage, body)
}

func validate(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf("payload validation failed: %s", strings.Join(details, "; "))
}
