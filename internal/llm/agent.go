package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/commhub-api/internal/domain/feed"
	"github.com/FACorreiaa/commhub-api/internal/types"
)

var _ feed.ContentSource = (*Agent)(nil)

// generalSearchLocation marks a request that is not about one place.
const generalSearchLocation = "general search"

// Agent answers content requests by prompting a language model in the
// section format the feed parser reads.
type Agent struct {
	generator TextGenerator
	logger    *slog.Logger
	now       func() time.Time
}

func NewAgent(generator TextGenerator, logger *slog.Logger) *Agent {
	return &Agent{
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}
}

// FetchAgentResponse generates a community digest for req.Location.
func (a *Agent) FetchAgentResponse(ctx context.Context, req types.ContentRequest) (*types.AgentResponse, error) {
	ctx, span := otel.Tracer("LLMAgent").Start(ctx, "FetchAgentResponse", trace.WithAttributes(
		attribute.String("content.location", req.Location),
		attribute.String("llm.model", a.generator.Model()),
	))
	defer span.End()

	l := a.logger.With(slog.String("method", "FetchAgentResponse"), slog.String("location", req.Location))

	start := time.Now()
	text, err := a.generator.GenerateText(ctx, getCommunityDigestPrompt(req), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.4),
		MaxOutputTokens: 4096,
	})
	if err != nil {
		l.ErrorContext(ctx, "Failed to generate community digest", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "LLM generation failed")
		return nil, fmt.Errorf("error generating community digest: %w", err)
	}

	l.InfoContext(ctx, "Community digest generated",
		slog.Int("length", len(text)),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()))
	span.SetStatus(codes.Ok, "Community digest generated")

	return &types.AgentResponse{
		Content:             text,
		LocationSpecific:    req.Location != "" && req.Location != generalSearchLocation,
		ResearchAgentActive: true,
		SourcesCrawled:      []string{},
		Timestamp:           a.now().UTC(),
	}, nil
}
