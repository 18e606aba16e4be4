package categorization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/pkg/metrics"
)

var tracer = otel.Tracer("github.com/FACorreiaa/pocket-ledger/internal/domain/categorization")

// Fields is the text a category is resolved from.
type Fields struct {
	Remarks     string
	Description string
}

// Strategy is one step of the resolution chain.
// TryResolve returns ok=false to pass to the next strategy; an error stops the chain.
type Strategy interface {
	Name() string
	TryResolve(ctx context.Context, fields Fields, cfg *Config) (category string, ok bool, err error)
}

// Resolution is a resolved category and the strategy that produced it.
type Resolution struct {
	Category string
	Strategy string
}

// Resolver runs strategies in order; the first hit wins.
type Resolver struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewResolver creates a resolver with the given strategies.
func NewResolver(logger *slog.Logger, strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, logger: logger}
}

// NewDefaultResolver scans remarks, then description, then asks the categorizer.
// A nil categorizer leaves keyword misses unresolved.
func NewDefaultResolver(categorizer Categorizer, timeout time.Duration, logger *slog.Logger) *Resolver {
	strategies := []Strategy{RemarksStrategy(), DescriptionStrategy()}
	if categorizer != nil {
		strategies = append(strategies, NewAIStrategy(categorizer, timeout))
	}
	return NewResolver(logger, strategies...)
}

// Resolve returns a configured category or an *UnresolvedError.
func (r *Resolver) Resolve(ctx context.Context, fields Fields, cfg *Config) (Resolution, error) {
	for _, s := range r.strategies {
		category, ok, err := s.TryResolve(ctx, fields, cfg)
		if err != nil {
			metrics.Categorizations.WithLabelValues("unresolved").Inc()
			r.logger.Warn("category resolution failed", "strategy", s.Name(), "error", err)
			var unresolved *UnresolvedError
			if errors.As(err, &unresolved) {
				return Resolution{}, unresolved
			}
			return Resolution{}, &UnresolvedError{Cause: err}
		}
		if ok {
			metrics.Categorizations.WithLabelValues(s.Name()).Inc()
			return Resolution{Category: category, Strategy: s.Name()}, nil
		}
	}
	metrics.Categorizations.WithLabelValues("unresolved").Inc()
	return Resolution{}, &UnresolvedError{Cause: ErrNoMatch}
}

// KeywordStrategy scans one field against the configured keywords.
type KeywordStrategy struct {
	name  string
	field func(Fields) string
}

// RemarksStrategy matches keywords in the user's remarks.
func RemarksStrategy() *KeywordStrategy {
	return &KeywordStrategy{name: "remarks", field: func(f Fields) string { return f.Remarks }}
}

// DescriptionStrategy matches keywords in the description.
func DescriptionStrategy() *KeywordStrategy {
	return &KeywordStrategy{name: "description", field: func(f Fields) string { return f.Description }}
}

func (s *KeywordStrategy) Name() string { return s.name }

func (s *KeywordStrategy) TryResolve(ctx context.Context, fields Fields, cfg *Config) (string, bool, error) {
	text := s.field(fields)
	if strings.TrimSpace(text) == "" {
		return "", false, nil
	}
	category, ok := cfg.Engine().Match(text)
	return category, ok, nil
}

// Categorizer is the AI capability: pick one of categories for text.
type Categorizer interface {
	Categorize(ctx context.Context, text string, categories []string) (string, error)
}

// AIStrategy asks a Categorizer under a timeout.
type AIStrategy struct {
	categorizer Categorizer
	timeout     time.Duration
}

// NewAIStrategy wraps a categorizer. A non-positive timeout means no extra deadline.
func NewAIStrategy(categorizer Categorizer, timeout time.Duration) *AIStrategy {
	return &AIStrategy{categorizer: categorizer, timeout: timeout}
}

func (s *AIStrategy) Name() string { return "ai" }

func (s *AIStrategy) TryResolve(ctx context.Context, fields Fields, cfg *Config) (string, bool, error) {
	ctx, span := tracer.Start(ctx, "categorization.ai")
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text := aiPrompt(fields)
	span.SetAttributes(attribute.Int("categories", len(cfg.Categories)))

	start := time.Now()
	label, err := s.categorizer.Categorize(ctx, text, cfg.Names())
	metrics.AIRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "categorizer failed")
		return "", false, &UnresolvedError{Cause: fmt.Errorf("%w: %v", ErrCapabilityFailure, err)}
	}

	category, err := normalizeLabel(label, cfg)
	if err != nil {
		span.SetStatus(codes.Error, "malformed label")
		return "", false, &UnresolvedError{Cause: err}
	}
	span.SetAttributes(attribute.String("category", category))
	return category, true, nil
}

// normalizeLabel maps an AI answer onto the configured categories.
// Unknown labels go to the fallback category when it exists.
func normalizeLabel(label string, cfg *Config) (string, error) {
	category := transactions.NormalizeCategory(strings.Trim(label, " \t\r\n.\"'`"))
	if category == "" {
		return "", fmt.Errorf("%w: empty answer", ErrMalformedLabel)
	}
	if cfg.Has(category) {
		return category, nil
	}
	if cfg.Has(FallbackCategory) {
		return FallbackCategory, nil
	}
	return "", fmt.Errorf("%w: %q", ErrMalformedLabel, label)
}

func aiPrompt(f Fields) string {
	var parts []string
	if r := strings.TrimSpace(f.Remarks); r != "" {
		parts = append(parts, r)
	}
	if d := strings.TrimSpace(f.Description); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, " | ")
}
