package categorization

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiCategorizer implements Categorizer with the Gemini API.
type GeminiCategorizer struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewGeminiCategorizer creates a Gemini client. requestsPerSecond <= 0 disables rate limiting.
func NewGeminiCategorizer(ctx context.Context, apiKey, model string, requestsPerSecond float64, logger *slog.Logger) (*GeminiCategorizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &GeminiCategorizer{client: client, model: model, limiter: limiter, logger: logger}, nil
}

// Categorize asks the model to choose exactly one category for the text.
func (g *GeminiCategorizer) Categorize(ctx context.Context, text string, categories []string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(text, categories)}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	answer := strings.TrimSpace(resp.Text())
	g.logger.Debug("ai categorization", "model", g.model, "answer", answer)
	return answer, nil
}

func buildPrompt(text string, categories []string) string {
	var b strings.Builder
	b.WriteString("Categorize this personal finance transaction into exactly one of these categories: ")
	b.WriteString(strings.Join(categories, ", "))
	b.WriteString(".\nReply with the category name only.\nTransaction: ")
	b.WriteString(text)
	return b.String()
}
