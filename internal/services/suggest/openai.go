package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/nwhitfield/site-studio/internal/models"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// MaxSuggestions caps how many proposals one card receives.
	MaxSuggestions = 5
	// MaxCatalogInPrompt caps how many catalog entries go into the prompt.
	MaxCatalogInPrompt = 100
)

// OpenAIProvider implements Provider using OpenAI's API
type OpenAIProvider struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey, baseURL, model string, logger *zap.Logger) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	)

	return &OpenAIProvider{
		client: client,
		model:  model,
		logger: logger,
	}
}

// SuggestConnections asks the model which catalog entries relate to the
// captured card. Proposals pointing at content not in the catalog are
// dropped, confidence is clamped to [0, 1], and at most MaxSuggestions
// survive.
func (p *OpenAIProvider) SuggestConnections(ctx context.Context, card *models.RawSource, catalog []ContentSummary) ([]Suggestion, error) {
	if len(catalog) == 0 {
		return nil, nil
	}
	if len(catalog) > MaxCatalogInPrompt {
		catalog = catalog[:MaxCatalogInPrompt]
	}

	prompt, err := buildPrompt(card, catalog)
	if err != nil {
		return nil, err
	}

	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You connect newly captured research material to a personal site's existing content. Respond with valid JSON only."),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	if err != nil {
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to suggest connections: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to suggest connections: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}

	suggestions, err := parseSuggestions(resp.Choices[0].Message.Content, catalog)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("suggestions_generated",
		zap.String("raw_source_id", card.ID.String()),
		zap.Int("count", len(suggestions)),
		zap.Duration("latency", time.Since(start)),
	)

	return suggestions, nil
}

func buildPrompt(card *models.RawSource, catalog []ContentSummary) (string, error) {
	catalogJSON, err := json.Marshal(catalog)
	if err != nil {
		return "", fmt.Errorf("failed to marshal catalog: %w", err)
	}

	var b strings.Builder
	b.WriteString("A new research source was captured:\n")
	fmt.Fprintf(&b, "Title: %s\n", card.DisplayTitle())
	if card.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", card.URL)
	}
	if card.OGDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", card.OGDescription)
	}
	if card.OGSiteName != "" {
		fmt.Fprintf(&b, "Site: %s\n", card.OGSiteName)
	}
	if len(card.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(card.Tags, ", "))
	}

	b.WriteString("\nExisting content catalog (JSON):\n")
	b.Write(catalogJSON)
	b.WriteString("\n\nPropose up to ")
	fmt.Fprintf(&b, "%d", MaxSuggestions)
	b.WriteString(` connections between the source and catalog entries. Respond with a JSON object of the form:
{"suggestions": [{"content_type": "...", "content_slug": "...", "confidence": 0.0, "reason": "..."}]}
Use only type/slug pairs from the catalog. Confidence is between 0 and 1. Keep each reason to one sentence. Return an empty list when nothing relates.`)

	return b.String(), nil
}

// parseSuggestions decodes the model response and filters it against
// the catalog. Responses wrapped in stray prose are salvaged by
// extracting the outermost JSON object.
func parseSuggestions(content string, catalog []ContentSummary) ([]Suggestion, error) {
	var parsed struct {
		Suggestions []Suggestion `json:"suggestions"`
	}

	raw := content
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse suggestions response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse suggestions response: %w", err)
		}
	}

	known := make(map[string]bool, len(catalog))
	for _, c := range catalog {
		known[string(c.Type)+":"+c.Slug] = true
	}

	out := make([]Suggestion, 0, len(parsed.Suggestions))
	for _, s := range parsed.Suggestions {
		if !known[string(s.ContentType)+":"+s.ContentSlug] {
			continue
		}
		if s.Confidence < 0 {
			s.Confidence = 0
		}
		if s.Confidence > 1 {
			s.Confidence = 1
		}
		out = append(out, s)
		if len(out) == MaxSuggestions {
			break
		}
	}

	return out, nil
}
